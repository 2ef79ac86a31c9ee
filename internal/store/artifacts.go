package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/seocho-ai/seocho/internal/model"
)

// Artifact statuses.
const (
	ArtifactDraft    = "draft"
	ArtifactApproved = "approved"
)

// SemanticArtifact is a reviewable ontology/constraint candidate pair.
type SemanticArtifact struct {
	ArtifactID        string         `json:"artifact_id"`
	WorkspaceID       string         `json:"workspace_id"`
	Status            string         `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
	ApprovedBy        string         `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time     `json:"approved_at,omitempty"`
	ApprovalNote      string         `json:"approval_note,omitempty"`
	SourceSummary     string         `json:"source_summary"`
	OntologyCandidate map[string]any `json:"ontology_candidate"`
	ShaclCandidate    map[string]any `json:"shacl_candidate"`
}

// ArtifactStore stores artifacts as {dir}/{workspace}/{artifact_id}.json.
type ArtifactStore struct {
	mu  sync.Mutex
	dir string
}

// NewArtifactStore creates a store rooted at dir.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// SaveDraft writes a new draft artifact.
func (s *ArtifactStore) SaveDraft(workspaceID, sourceSummary string, ontology, shacl map[string]any) (SemanticArtifact, error) {
	artifact := SemanticArtifact{
		ArtifactID:        newID("sa"),
		WorkspaceID:       workspaceID,
		Status:            ArtifactDraft,
		CreatedAt:         time.Now().UTC(),
		SourceSummary:     sourceSummary,
		OntologyCandidate: ontology,
		ShaclCandidate:    shacl,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(artifact); err != nil {
		return SemanticArtifact{}, err
	}
	return artifact, nil
}

// Approve transitions a draft to approved. Approving twice fails.
func (s *ArtifactStore) Approve(workspaceID, artifactID, approvedBy, note string) (SemanticArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	artifact, err := s.read(workspaceID, artifactID)
	if err != nil {
		return SemanticArtifact{}, err
	}
	if artifact.Status != ArtifactDraft {
		return SemanticArtifact{}, model.Errorf(model.KindValidation,
			"store: artifact %q is %s, only drafts can be approved", artifactID, artifact.Status)
	}
	now := time.Now().UTC()
	artifact.Status = ArtifactApproved
	artifact.ApprovedBy = approvedBy
	artifact.ApprovedAt = &now
	artifact.ApprovalNote = note
	if err := s.write(artifact); err != nil {
		return SemanticArtifact{}, err
	}
	return artifact, nil
}

// Get loads one artifact.
func (s *ArtifactStore) Get(workspaceID, artifactID string) (SemanticArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(workspaceID, artifactID)
}

// List returns the workspace's artifacts, newest first.
func (s *ArtifactStore) List(workspaceID string) ([]SemanticArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var artifacts []SemanticArtifact
	if err := readJSONDir(filepath.Join(s.dir, workspaceID), func(data []byte) error {
		var artifact SemanticArtifact
		if err := json.Unmarshal(data, &artifact); err != nil {
			return err
		}
		artifacts = append(artifacts, artifact)
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Slice(artifacts, func(i, j int) bool {
		if !artifacts[i].CreatedAt.Equal(artifacts[j].CreatedAt) {
			return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt)
		}
		return artifacts[i].ArtifactID > artifacts[j].ArtifactID
	})
	return artifacts, nil
}

func (s *ArtifactStore) read(workspaceID, artifactID string) (SemanticArtifact, error) {
	var artifact SemanticArtifact
	path := filepath.Join(s.dir, workspaceID, sanitizeID(artifactID)+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return artifact, model.Errorf(model.KindNotFound, "store: artifact %q not found", artifactID)
	}
	if err != nil {
		return artifact, fmt.Errorf("store: read artifact: %w", err)
	}
	if err := json.Unmarshal(data, &artifact); err != nil {
		return artifact, fmt.Errorf("store: decode artifact %s: %w", artifactID, err)
	}
	return artifact, nil
}

func (s *ArtifactStore) write(artifact SemanticArtifact) error {
	return writeJSONFile(filepath.Join(s.dir, artifact.WorkspaceID, artifact.ArtifactID+".json"), artifact)
}
