// Package store persists rule profiles and semantic artifacts as JSON
// files under per-workspace directories.
package store

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/seocho-ai/seocho/internal/model"
	"github.com/seocho-ai/seocho/internal/rules"
)

// RuleProfileRecord is the on-disk shape of a saved rule profile.
type RuleProfileRecord struct {
	ProfileID     string        `json:"profile_id"`
	WorkspaceID   string        `json:"workspace_id"`
	Name          string        `json:"name"`
	CreatedAt     time.Time     `json:"created_at"`
	SchemaVersion string        `json:"schema_version"`
	RuleCount     int           `json:"rule_count"`
	RuleProfile   rules.RuleSet `json:"rule_profile"`
}

// RuleProfileStore stores profiles as {dir}/{workspace}/{profile_id}.json.
type RuleProfileStore struct {
	mu  sync.Mutex
	dir string
}

// NewRuleProfileStore creates a store rooted at dir.
func NewRuleProfileStore(dir string) *RuleProfileStore {
	return &RuleProfileStore{dir: dir}
}

// Save writes a new profile record and returns it.
func (s *RuleProfileStore) Save(workspaceID, name string, profile rules.RuleSet) (RuleProfileRecord, error) {
	record := RuleProfileRecord{
		ProfileID:     newID("rp"),
		WorkspaceID:   workspaceID,
		Name:          name,
		CreatedAt:     time.Now().UTC(),
		SchemaVersion: profile.SchemaVersion,
		RuleCount:     len(profile.Rules),
		RuleProfile:   profile,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSONFile(filepath.Join(s.dir, workspaceID, record.ProfileID+".json"), record); err != nil {
		return RuleProfileRecord{}, err
	}
	return record, nil
}

// List returns the workspace's profiles, newest first.
func (s *RuleProfileStore) List(workspaceID string) ([]RuleProfileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []RuleProfileRecord
	if err := readJSONDir(filepath.Join(s.dir, workspaceID), func(data []byte) error {
		var record RuleProfileRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return err
		}
		records = append(records, record)
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ProfileID > records[j].ProfileID
	})
	return records, nil
}

// Get loads one profile by ID.
func (s *RuleProfileStore) Get(workspaceID, profileID string) (RuleProfileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var record RuleProfileRecord
	path := filepath.Join(s.dir, workspaceID, sanitizeID(profileID)+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return record, model.Errorf(model.KindNotFound, "store: rule profile %q not found", profileID)
	}
	if err != nil {
		return record, fmt.Errorf("store: read profile: %w", err)
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("store: decode profile %s: %w", profileID, err)
	}
	return record, nil
}

func newID(prefix string) string {
	buf := make([]byte, 4)
	rand.Read(buf)
	return fmt.Sprintf("%s_%s_%s", prefix, time.Now().UTC().Format("20060102150405"), hex.EncodeToString(buf))
}

// sanitizeID strips path separators from caller-supplied identifiers.
func sanitizeID(id string) string {
	return strings.NewReplacer("/", "", "\\", "", "..", "").Replace(id)
}

func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: create dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	return os.Rename(tmp, path)
}

func readJSONDir(dir string, decode func([]byte) error) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: read dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("store: read %s: %w", entry.Name(), err)
		}
		if err := decode(data); err != nil {
			return fmt.Errorf("store: decode %s: %w", entry.Name(), err)
		}
	}
	return nil
}
