package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/store"
	dbpkg "github.com/javanbakhti/smartBuild-sub000/internal/db"
)

type AccessEventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessEventStore(db *sql.DB, writer *dbpkg.Worker) *AccessEventStore {
	return &AccessEventStore{db: db, writer: writer}
}

func (s *AccessEventStore) RecordEvent(ctx context.Context, rec store.AccessEventRecord) error {
	if rec.DecidedAt.IsZero() {
		rec.DecidedAt = time.Now().UTC()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_events(building_id, unit_id, entry_id, granted, reason, decided_at_ms)
VALUES (?, ?, ?, ?, ?, ?);
`, rec.BuildingID, rec.UnitID, rec.EntryID, rec.Granted, rec.Reason,
			rec.DecidedAt.UTC().UnixMilli()); err != nil {
			return fmt.Errorf("RecordEvent: %w", err)
		}
		return nil
	})
}

// PruneOlderThan deletes audit rows decided before the cutoff.  Returns the
// number of rows deleted.
func (s *AccessEventStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM access_events WHERE decided_at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
