// Package repository maps repository identifiers to filesystem roots.
//
// Documents are spread over several independently rooted repositories;
// a stored relative path is meaningless without the repository id it
// was written under, so ids are immutable once registered.
package repository

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/paperbase/paperbase/pkg/document"
)

// Map is the registry of repository id to root directory. It is safe
// for concurrent use.
type Map struct {
	mu    sync.RWMutex
	roots map[string]string
}

// NewMap returns an empty registry.
func NewMap() *Map {
	return &Map{roots: make(map[string]string)}
}

// Register adds a repository root. Re-registering an id with the same
// root is a no-op; re-registering with a different root fails, because
// paths already written under the id would silently resolve elsewhere.
func (m *Map) Register(id, root string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.roots[id]; ok {
		if existing == root {
			return nil
		}
		return document.NewError("Register", document.ErrDuplicateKey,
			"repository "+id+" already registered with a different root")
	}
	m.roots[id] = filepath.Clean(root)
	return nil
}

// Resolve joins a relative path onto the root of the given repository.
// It performs no filesystem access and does not check that the result
// exists; read and write callers have different expectations there.
func (m *Map) Resolve(id, relPath string) (string, error) {
	m.mu.RLock()
	root, ok := m.roots[id]
	m.mu.RUnlock()
	if !ok {
		return "", document.NewError("Resolve", document.ErrUnknownRepository, id)
	}
	return filepath.Join(root, filepath.FromSlash(relPath)), nil
}

// Root returns the registered root for a repository id.
func (m *Map) Root(id string) (string, error) {
	m.mu.RLock()
	root, ok := m.roots[id]
	m.mu.RUnlock()
	if !ok {
		return "", document.NewError("Root", document.ErrUnknownRepository, id)
	}
	return root, nil
}

// IDs returns the registered repository ids in sorted order.
func (m *Map) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.roots))
	for id := range m.roots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
