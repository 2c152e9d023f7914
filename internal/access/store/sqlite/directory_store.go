package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/dnd"
	dbpkg "github.com/javanbakhti/smartBuild-sub000/internal/db"
)

type DirectoryStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewDirectoryStore(db *sql.DB, writer *dbpkg.Worker) *DirectoryStore {
	return &DirectoryStore{db: db, writer: writer}
}

func (s *DirectoryStore) ListDirectory(ctx context.Context, buildingID string) ([]dnd.DirectoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT directory_id, building_id, unit_id, floor, display_name, call_address,
       dnd_enabled, dnd_schedule_active,
       dnd_start1, dnd_end1, dnd_start2, dnd_end2,
       hide_when_dnd, show_dnd_icon
FROM directory_entries
WHERE building_id = ?
ORDER BY floor, display_name;
`, buildingID)
	if err != nil {
		return nil, fmt.Errorf("ListDirectory %s: %w", buildingID, err)
	}
	defer rows.Close()

	var out []dnd.DirectoryEntry
	for rows.Next() {
		var (
			e                          dnd.DirectoryEntry
			enabled, schedActive       bool
			start1, end1, start2, end2 sql.NullInt64
		)
		if err := rows.Scan(
			&e.ID, &e.BuildingID, &e.UnitID, &e.Floor, &e.DisplayName, &e.CallAddress,
			&enabled, &schedActive,
			&start1, &end1, &start2, &end2,
			&e.HideWhenDND, &e.ShowDNDIcon,
		); err != nil {
			return nil, fmt.Errorf("ListDirectory scan: %w", err)
		}

		e.DND.Enabled = enabled
		e.DND.ScheduleActive = schedActive
		if start1.Valid && end1.Valid {
			e.DND.Windows = append(e.DND.Windows, dnd.Window{Start: int(start1.Int64), End: int(end1.Int64)})
		}
		if start2.Valid && end2.Valid {
			e.DND.Windows = append(e.DND.Windows, dnd.Window{Start: int(start2.Int64), End: int(end2.Int64)})
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *DirectoryStore) UpsertDirectoryEntry(ctx context.Context, e dnd.DirectoryEntry) error {
	nowMs := time.Now().UTC().UnixMilli()

	var start1, end1, start2, end2 any
	if len(e.DND.Windows) > 0 {
		start1, end1 = e.DND.Windows[0].Start, e.DND.Windows[0].End
	}
	if len(e.DND.Windows) > 1 {
		start2, end2 = e.DND.Windows[1].Start, e.DND.Windows[1].End
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureUnit(ctx, tx, e.UnitID, e.BuildingID, nowMs); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO directory_entries(
  directory_id, building_id, unit_id, floor, display_name, call_address,
  dnd_enabled, dnd_schedule_active, dnd_start1, dnd_end1, dnd_start2, dnd_end2,
  hide_when_dnd, show_dnd_icon, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(directory_id) DO UPDATE SET
  building_id = excluded.building_id,
  unit_id = excluded.unit_id,
  floor = excluded.floor,
  display_name = excluded.display_name,
  call_address = excluded.call_address,
  dnd_enabled = excluded.dnd_enabled,
  dnd_schedule_active = excluded.dnd_schedule_active,
  dnd_start1 = excluded.dnd_start1,
  dnd_end1 = excluded.dnd_end1,
  dnd_start2 = excluded.dnd_start2,
  dnd_end2 = excluded.dnd_end2,
  hide_when_dnd = excluded.hide_when_dnd,
  show_dnd_icon = excluded.show_dnd_icon,
  updated_at_ms = excluded.updated_at_ms;
`, e.ID, e.BuildingID, e.UnitID, e.Floor, e.DisplayName, e.CallAddress,
			e.DND.Enabled, e.DND.ScheduleActive, start1, end1, start2, end2,
			e.HideWhenDND, e.ShowDNDIcon, nowMs, nowMs); err != nil {
			return fmt.Errorf("UpsertDirectoryEntry %s: %w", e.ID, err)
		}
		return nil
	})
}
