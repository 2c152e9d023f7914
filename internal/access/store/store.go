// Package store defines the persistence boundary for the access domain.
// The domain packages compute new records; implementations here persist
// them.  Two implementations exist: memory (tests, dev) and sqlite.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/dnd"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/entry"
)

var ErrNotFound = errors.New("record not found")

// EntryStore persists visitor passes and member grants together with their
// current credential.
type EntryStore interface {
	CreateEntry(ctx context.Context, e entry.Entry) error
	GetEntry(ctx context.Context, id string) (entry.Entry, error)
	UpdateEntry(ctx context.Context, e entry.Entry) error
	ListEntriesByUnit(ctx context.Context, unitID string) ([]entry.Entry, error)

	// ListSweepable returns every non-archived entry, for the maintenance
	// sweep.
	ListSweepable(ctx context.Context) ([]entry.Entry, error)

	// ActiveCodes returns the codes of the unit's currently valid
	// credentials, for uniqueness checks at generation time.
	ActiveCodes(ctx context.Context, unitID string, now time.Time) ([]string, error)

	// FindByActiveCode locates the entry holding the given code among the
	// unit's currently valid credentials.  Returns ErrNotFound when no
	// such credential exists.
	FindByActiveCode(ctx context.Context, unitID, code string, now time.Time) (entry.Entry, error)
}

// DirectoryStore serves the kiosk-visible resident projection.
type DirectoryStore interface {
	ListDirectory(ctx context.Context, buildingID string) ([]dnd.DirectoryEntry, error)
	UpsertDirectoryEntry(ctx context.Context, e dnd.DirectoryEntry) error
}
