package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/credential"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/entry"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/store"
	dbpkg "github.com/javanbakhti/smartBuild-sub000/internal/db"
)

type EntryStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewEntryStore(db *sql.DB, writer *dbpkg.Worker) *EntryStore {
	return &EntryStore{db: db, writer: writer}
}

const entryColumns = `
entry_id, unit_id, building_id, kind, name, email, phone, comment,
expected_at_ms, status, prior_status,
code, issued_at_ms, expires_at_ms, policy_kind, policy_limit, uses_consumed,
created_at_ms, updated_at_ms`

func (s *EntryStore) CreateEntry(ctx context.Context, e entry.Entry) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureUnit(ctx, tx, e.UnitID, e.BuildingID, e.CreatedAt.UnixMilli()); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO entries(`+entryColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, entryArgs(e)...); err != nil {
			return fmt.Errorf("CreateEntry %s: %w", e.ID, err)
		}
		return nil
	})
}

func (s *EntryStore) GetEntry(ctx context.Context, id string) (entry.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE entry_id = ?;`, id)
	return scanEntry(row)
}

func (s *EntryStore) UpdateEntry(ctx context.Context, e entry.Entry) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE entries SET
  unit_id = ?, building_id = ?, kind = ?, name = ?, email = ?, phone = ?, comment = ?,
  expected_at_ms = ?, status = ?, prior_status = ?,
  code = ?, issued_at_ms = ?, expires_at_ms = ?, policy_kind = ?, policy_limit = ?, uses_consumed = ?,
  created_at_ms = ?, updated_at_ms = ?
WHERE entry_id = ?;
`, append(entryArgs(e)[1:], e.ID)...)
		if err != nil {
			return fmt.Errorf("UpdateEntry %s: %w", e.ID, err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *EntryStore) ListEntriesByUnit(ctx context.Context, unitID string) ([]entry.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE unit_id = ? ORDER BY expected_at_ms;`, unitID)
	if err != nil {
		return nil, fmt.Errorf("ListEntriesByUnit %s: %w", unitID, err)
	}
	return collectEntries(rows)
}

func (s *EntryStore) ListSweepable(ctx context.Context) ([]entry.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE status != ?;`, string(entry.StatusArchived))
	if err != nil {
		return nil, fmt.Errorf("ListSweepable: %w", err)
	}
	return collectEntries(rows)
}

func (s *EntryStore) ActiveCodes(ctx context.Context, unitID string, now time.Time) ([]string, error) {
	// "Active" mirrors credential validity: unexpired and with uses left.
	rows, err := s.db.QueryContext(ctx, `
SELECT code FROM entries
WHERE unit_id = ? AND status != ? AND code != '' AND expires_at_ms > ?
  AND (
    (policy_kind = 'single' AND uses_consumed = 0) OR
    (policy_kind = 'multi' AND (policy_limit = 0 OR uses_consumed < policy_limit))
  );
`, unitID, string(entry.StatusArchived), now.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("ActiveCodes %s: %w", unitID, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("ActiveCodes scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *EntryStore) FindByActiveCode(ctx context.Context, unitID, code string, now time.Time) (entry.Entry, error) {
	// Only expiry is filtered here: an unexpired code whose uses ran out
	// must still resolve to its entry so the arrive attempt can fail with
	// the exhaustion reason.
	row := s.db.QueryRowContext(ctx, `
SELECT `+entryColumns+` FROM entries
WHERE unit_id = ? AND code = ? AND status != ? AND expires_at_ms > ?
LIMIT 1;
`, unitID, code, string(entry.StatusArchived), now.UTC().UnixMilli())
	return scanEntry(row)
}

// ── row mapping ──────────────────────────────────────────────────────────────

func entryArgs(e entry.Entry) []any {
	return []any{
		e.ID, e.UnitID, e.BuildingID, string(e.Kind), e.Name, e.Email, e.Phone, e.Comment,
		e.ExpectedAt.UTC().UnixMilli(), string(e.Status), string(e.PriorStatus),
		e.Credential.Code,
		e.Credential.IssuedAt.UTC().UnixMilli(),
		e.Credential.ExpiresAt.UTC().UnixMilli(),
		policyKindText(e.Credential.Policy.Kind),
		e.Credential.Policy.Limit,
		e.Credential.UsesConsumed,
		e.CreatedAt.UTC().UnixMilli(), e.UpdatedAt.UTC().UnixMilli(),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (entry.Entry, error) {
	var (
		e                                    entry.Entry
		kind, status, prior, policyKind      string
		expectedMs, issuedMs, expiresMs      int64
		createdMs, updatedMs                 int64
	)
	err := row.Scan(
		&e.ID, &e.UnitID, &e.BuildingID, &kind, &e.Name, &e.Email, &e.Phone, &e.Comment,
		&expectedMs, &status, &prior,
		&e.Credential.Code, &issuedMs, &expiresMs, &policyKind,
		&e.Credential.Policy.Limit, &e.Credential.UsesConsumed,
		&createdMs, &updatedMs,
	)
	if err == sql.ErrNoRows {
		return entry.Entry{}, store.ErrNotFound
	}
	if err != nil {
		return entry.Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	e.Kind = entry.Kind(kind)
	e.Status = entry.Status(status)
	e.PriorStatus = entry.Status(prior)
	e.Credential.Policy.Kind = policyKindValue(policyKind)
	e.ExpectedAt = time.UnixMilli(expectedMs).UTC()
	e.Credential.IssuedAt = time.UnixMilli(issuedMs).UTC()
	e.Credential.ExpiresAt = time.UnixMilli(expiresMs).UTC()
	e.CreatedAt = time.UnixMilli(createdMs).UTC()
	e.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return e, nil
}

func collectEntries(rows *sql.Rows) ([]entry.Entry, error) {
	defer rows.Close()
	var out []entry.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func policyKindText(k credential.PolicyKind) string {
	if k == credential.MultiUse {
		return "multi"
	}
	return "single"
}

func policyKindValue(s string) credential.PolicyKind {
	if s == "multi" {
		return credential.MultiUse
	}
	return credential.SingleUse
}
