// Package semantic implements the deterministic query path: entity
// resolution against fulltext indexes, keyword routing, LPG and RDF
// specialists, and a deterministic answer synthesizer.
package semantic

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Hints is the on-disk shape of the ontology-hints cache.
type Hints struct {
	Aliases       map[string]string   `json:"aliases"`
	LabelKeywords map[string][]string `json:"label_keywords"`
}

// HintStore resolves entity aliases to canonical names and maps question
// tokens to label hints. Backed by a JSON file that survives restarts.
type HintStore struct {
	mu    sync.RWMutex
	path  string
	hints Hints
}

// LoadHintStore reads the hints file at path. A missing file yields an
// empty store; the file is created on the first Save.
func LoadHintStore(path string) (*HintStore, error) {
	store := &HintStore{
		path:  path,
		hints: Hints{Aliases: map[string]string{}, LabelKeywords: map[string][]string{}},
	}
	if path == "" {
		return store, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("semantic: read hints %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &store.hints); err != nil {
		return nil, fmt.Errorf("semantic: decode hints %s: %w", path, err)
	}
	if store.hints.Aliases == nil {
		store.hints.Aliases = map[string]string{}
	}
	if store.hints.LabelKeywords == nil {
		store.hints.LabelKeywords = map[string][]string{}
	}
	return store, nil
}

// ResolveAlias returns the canonical name for entity when an alias is
// registered. Lookup keys are lowercased.
func (s *HintStore) ResolveAlias(entity string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	canonical, ok := s.hints.Aliases[strings.ToLower(strings.TrimSpace(entity))]
	return canonical, ok
}

// AddAlias registers an alias for canonical.
func (s *HintStore) AddAlias(alias, canonical string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hints.Aliases[strings.ToLower(strings.TrimSpace(alias))] = canonical
}

// AddLabelKeywords appends keyword tokens for a label.
func (s *HintStore) AddLabelKeywords(label string, keywords ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.hints.LabelKeywords[label]
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		found := false
		for _, e := range existing {
			if e == kw {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, kw)
		}
	}
	s.hints.LabelKeywords[label] = existing
}

// LabelHints returns labels whose keywords appear in the question,
// sorted for deterministic output.
func (s *HintStore) LabelHints(question string) []string {
	q := strings.ToLower(question)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var labels []string
	for label, keywords := range s.hints.LabelKeywords {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(q, kw) {
				labels = append(labels, label)
				break
			}
		}
	}
	sort.Strings(labels)
	return labels
}

// Save writes the hints file atomically via a temp-file rename.
func (s *HintStore) Save() error {
	if s.path == "" {
		return nil
	}
	s.mu.RLock()
	data, err := json.MarshalIndent(s.hints, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("semantic: encode hints: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("semantic: create hints dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("semantic: write hints: %w", err)
	}
	return os.Rename(tmp, s.path)
}
