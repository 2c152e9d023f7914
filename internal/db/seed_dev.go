package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	BuildingID string
}

// SeedDev inserts a starter building layout so a fresh dev database has
// something for the kiosk to show: two units and two directory entries,
// one of them with a daytime DND schedule.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	building := opt.BuildingID
	if building == "" {
		building = "bldg_main"
	}
	now := time.Now().UTC().UnixMilli()

	units := []struct{ id, floor string }{
		{"unit_101", "1"},
		{"unit_202", "2"},
	}
	for _, u := range units {
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO units(unit_id, building_id, floor, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?);`, u.id, building, u.floor, now, now); err != nil {
			return fmt.Errorf("seed unit %s: %w", u.id, err)
		}
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO directory_entries(
  directory_id, building_id, unit_id, floor, display_name, call_address,
  dnd_enabled, dnd_schedule_active, dnd_start1, dnd_end1,
  hide_when_dnd, show_dnd_icon, created_at_ms, updated_at_ms
) VALUES
  ('dir_101', ?, 'unit_101', '1', 'Unit 101', '1101', 0, 0, NULL, NULL, 0, 0, ?, ?),
  ('dir_202', ?, 'unit_202', '2', 'Unit 202', '1202', 1, 1, 540, 1020, 0, 1, ?, ?);
`, building, now, now, building, now, now); err != nil {
		return fmt.Errorf("seed directory: %w", err)
	}

	return nil
}
