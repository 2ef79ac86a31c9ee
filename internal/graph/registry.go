// Package graph provides the connector, registry, loader, and index
// management for the Neo4j-compatible graph backend.
package graph

import (
	"regexp"
	"sort"
	"sync"

	"github.com/seocho-ai/seocho/internal/model"
)

// dbNameRe validates database names: alphanumeric, letter-start.
var dbNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// systemDatabases are never listed to users and never get workers.
var systemDatabases = map[string]bool{"neo4j": true, "system": true}

// Registry is the process-wide allowlist of database names. It is
// append-only: names are validated on registration and never removed.
type Registry struct {
	mu        sync.RWMutex
	databases map[string]bool
}

// NewRegistry creates a registry seeded with the given names plus the
// system databases. Seed names must already be valid.
func NewRegistry(seed ...string) *Registry {
	r := &Registry{databases: map[string]bool{"neo4j": true, "system": true}}
	for _, name := range seed {
		if dbNameRe.MatchString(name) {
			r.databases[name] = true
		}
	}
	return r
}

// Register validates and adds a database name. Registering an existing
// name is a no-op, so registration is idempotent and commutative.
func (r *Registry) Register(name string) error {
	if !dbNameRe.MatchString(name) {
		return model.Errorf(model.KindValidation,
			"graph: invalid database name %q: must be alphanumeric and start with a letter", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.databases[name] = true
	return nil
}

// IsValid reports whether name is in the registry.
func (r *Registry) IsValid(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.databases[name]
}

// ListUserDatabases returns sorted names excluding the system set.
func (r *Registry) ListUserDatabases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.databases))
	for name := range r.databases {
		if systemDatabases[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
