package service

import (
	"context"
	"time"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/dnd"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/store"
)

// DirectoryService serves the kiosk's resident listing.
type DirectoryService struct {
	directory store.DirectoryStore
}

func NewDirectoryService(directory store.DirectoryStore) *DirectoryService {
	return &DirectoryService{directory: directory}
}

// ListVisible returns the building directory filtered and annotated for
// the given instant: hidden-while-DND owners are omitted, the rest carry
// their current blocked state.
func (s *DirectoryService) ListVisible(ctx context.Context, buildingID string, now time.Time) ([]dnd.VisibleEntry, error) {
	entries, err := s.directory.ListDirectory(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	return dnd.Filter(entries, now), nil
}

// Upsert writes a directory entry through to the store.  Used by the
// manager API when a resident changes their DND settings.
func (s *DirectoryService) Upsert(ctx context.Context, e dnd.DirectoryEntry) error {
	return s.directory.UpsertDirectoryEntry(ctx, e)
}
