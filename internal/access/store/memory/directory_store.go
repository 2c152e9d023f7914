package memory

import (
	"context"
	"sync"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/dnd"
)

// DirectoryStore is an in-memory DirectoryStore for tests and dev
// environments.
type DirectoryStore struct {
	mu      sync.RWMutex
	entries map[string]dnd.DirectoryEntry
}

func NewDirectoryStore() *DirectoryStore {
	return &DirectoryStore{entries: make(map[string]dnd.DirectoryEntry)}
}

func (s *DirectoryStore) ListDirectory(_ context.Context, buildingID string) ([]dnd.DirectoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []dnd.DirectoryEntry
	for _, e := range s.entries {
		if buildingID == "" || e.BuildingID == buildingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *DirectoryStore) UpsertDirectoryEntry(_ context.Context, e dnd.DirectoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
	return nil
}
