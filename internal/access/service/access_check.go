package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/credential"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/entry"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/store"
)

var codeShape = regexp.MustCompile(`^\d{4,8}$`)

// AccessDecision is the door-side answer to a code entry attempt.
type AccessDecision struct {
	Granted bool
	Reason  string
	EntryID string
	Name    string
}

// CheckAccess resolves a keyed-in code for a unit, consumes a use on the
// matching credential, and records the decision in the audit log.  It never
// returns the credential details to the door — just grant/deny and a
// machine-readable reason.
func (s *EntryService) CheckAccess(ctx context.Context, unitID, code string) (AccessDecision, error) {
	now := time.Now().UTC()

	if unitID == "" {
		return AccessDecision{}, ErrUnitRequired
	}
	if !codeShape.MatchString(code) {
		dec := AccessDecision{Reason: "bad_code_format"}
		s.recordDecision(ctx, unitID, "", dec, now)
		return dec, nil
	}

	e, err := s.entries.FindByActiveCode(ctx, unitID, code, now)
	if errors.Is(err, store.ErrNotFound) {
		dec := AccessDecision{Reason: "code_not_found"}
		s.recordDecision(ctx, unitID, "", dec, now)
		return dec, nil
	}
	if err != nil {
		return AccessDecision{}, err
	}

	updated, applyErr := entry.Apply(e, entry.EventArrive, now)
	// Apply may have moved the entry to expired even when the arrive
	// failed; persist whatever changed either way.
	if updated != e {
		if err := s.entries.UpdateEntry(ctx, updated); err != nil {
			return AccessDecision{}, err
		}
	}

	dec := AccessDecision{EntryID: e.ID, Name: e.Name}
	switch {
	case applyErr == nil:
		dec.Granted = true
		dec.Reason = "code_valid"
	case errors.Is(applyErr, credential.ErrExhausted):
		dec.Reason = "code_exhausted"
	case errors.Is(applyErr, entry.ErrInvalidTransition):
		dec.Reason = "entry_not_expected"
	default:
		return AccessDecision{}, applyErr
	}

	s.recordDecision(ctx, unitID, e.BuildingID, dec, now)
	return dec, nil
}

// recordDecision appends to the audit log.  Errors are logged, not
// returned — a failed audit write should not prevent the door from
// receiving its decision.
func (s *EntryService) recordDecision(ctx context.Context, unitID, buildingID string, dec AccessDecision, at time.Time) {
	if s.events == nil {
		return
	}
	err := s.events.RecordEvent(ctx, store.AccessEventRecord{
		BuildingID: buildingID,
		UnitID:     unitID,
		EntryID:    dec.EntryID,
		Granted:    dec.Granted,
		Reason:     dec.Reason,
		DecidedAt:  at,
	})
	if err != nil {
		s.logger.Warn("access event write failed",
			zap.String("unit_id", unitID),
			zap.Error(err))
	}
}
