package store

import (
	"context"
	"time"
)

// AccessEventRecord captures a single door-code decision for the audit log.
// The code itself is not stored; the entry reference is enough to trace a
// grant, and failed attempts keep only the reason.
type AccessEventRecord struct {
	BuildingID string
	UnitID     string
	EntryID    string // empty when no entry matched the code
	Granted    bool
	Reason     string
	DecidedAt  time.Time
}

// AccessEventStore persists access decisions as an append-only audit log.
// Append-only during operation; the maintenance sweep prunes records past
// the audit retention period.
type AccessEventStore interface {
	RecordEvent(ctx context.Context, rec AccessEventRecord) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
