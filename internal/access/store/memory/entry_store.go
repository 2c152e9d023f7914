package memory

import (
	"context"
	"sync"
	"time"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/entry"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/store"
)

// EntryStore is an in-memory EntryStore for tests and dev environments.
type EntryStore struct {
	mu      sync.RWMutex
	entries map[string]entry.Entry
}

func NewEntryStore() *EntryStore {
	return &EntryStore{entries: make(map[string]entry.Entry)}
}

func (s *EntryStore) CreateEntry(_ context.Context, e entry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
	return nil
}

func (s *EntryStore) GetEntry(_ context.Context, id string) (entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return entry.Entry{}, store.ErrNotFound
	}
	return e, nil
}

func (s *EntryStore) UpdateEntry(_ context.Context, e entry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ID]; !ok {
		return store.ErrNotFound
	}
	s.entries[e.ID] = e
	return nil
}

func (s *EntryStore) ListEntriesByUnit(_ context.Context, unitID string) ([]entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entry.Entry
	for _, e := range s.entries {
		if e.UnitID == unitID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *EntryStore) ListSweepable(_ context.Context) ([]entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entry.Entry
	for _, e := range s.entries {
		if e.Status != entry.StatusArchived {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *EntryStore) ActiveCodes(_ context.Context, unitID string, now time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, e := range s.entries {
		if e.UnitID == unitID && e.Status != entry.StatusArchived && e.Credential.ValidAt(now) {
			out = append(out, e.Credential.Code)
		}
	}
	return out, nil
}

func (s *EntryStore) FindByActiveCode(_ context.Context, unitID, code string, now time.Time) (entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.UnitID == unitID && e.Status != entry.StatusArchived &&
			e.Credential.Code == code && now.Before(e.Credential.ExpiresAt) {
			return e, nil
		}
	}
	return entry.Entry{}, store.ErrNotFound
}
