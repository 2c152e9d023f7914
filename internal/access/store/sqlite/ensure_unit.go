package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// ensureUnit guarantees a units row exists for the given unitID so that
// foreign-key constraints from entries and directory_entries are satisfied.
//
// Must be called inside an existing transaction.
func ensureUnit(ctx context.Context, tx *sql.Tx, unitID, buildingID string, nowMs int64) error {
	if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO units(
  unit_id, building_id, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?);
`, unitID, buildingID, nowMs, nowMs); err != nil {
		return fmt.Errorf("ensureUnit %s: %w", unitID, err)
	}
	return nil
}
