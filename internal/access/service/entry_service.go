package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/credential"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/entry"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/store"
	"github.com/javanbakhti/smartBuild-sub000/internal/notify"
)

var ErrUnitRequired = errors.New("unit_id is required")

// EntryService owns the manager/resident operations on entries: scheduling,
// passcode lifecycle, status transitions, and the door-side code check.
type EntryService struct {
	entries      store.EntryStore
	events       store.AccessEventStore
	notifier     notify.Notifier
	logger       *zap.Logger
	buildingName string
	codeLength   int
}

type EntryServiceConfig struct {
	BuildingName string
	CodeLength   int // passcode digits, 4-8; 0 means 6
}

func NewEntryService(
	entries store.EntryStore,
	events store.AccessEventStore,
	notifier notify.Notifier,
	cfg EntryServiceConfig,
	logger *zap.Logger,
) *EntryService {
	return &EntryService{
		entries:      entries,
		events:       events,
		notifier:     notifier,
		logger:       logger,
		buildingName: cfg.BuildingName,
		codeLength:   cfg.CodeLength,
	}
}

// ScheduleParams describes a new visitor pass or member grant.
type ScheduleParams struct {
	UnitID     string
	BuildingID string
	Kind       entry.Kind
	Name       string
	Email      string
	Phone      string
	Comment    string
	ExpectedAt time.Time
	Grant      credential.AccessGrant
	Policy     credential.UsagePolicy
	Expiry     credential.Expiry
}

// ScheduleEntry creates the entry, mints or validates its passcode per the
// access grant, persists it, and notifies the contact out of band.  A
// notification failure is logged and does not fail the call.
func (s *EntryService) ScheduleEntry(ctx context.Context, p ScheduleParams) (entry.Entry, error) {
	if p.UnitID == "" {
		return entry.Entry{}, ErrUnitRequired
	}

	now := time.Now().UTC()
	expectedAt := p.ExpectedAt
	if expectedAt.IsZero() {
		expectedAt = now
	}

	cred, err := s.mintCredential(ctx, p.UnitID, p.Grant, p.Policy, p.Expiry, expectedAt, now)
	if err != nil {
		return entry.Entry{}, err
	}

	kind := p.Kind
	if kind == "" {
		kind = entry.KindVisitor
	}

	e := entry.Entry{
		ID:         uuid.NewString(),
		UnitID:     p.UnitID,
		BuildingID: p.BuildingID,
		Kind:       kind,
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		Comment:    p.Comment,
		ExpectedAt: expectedAt,
		Status:     entry.StatusExpected,
		Credential: cred,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.entries.CreateEntry(ctx, e); err != nil {
		return entry.Entry{}, fmt.Errorf("schedule entry: %w", err)
	}

	s.notifyPasscode(ctx, e)
	return e, nil
}

// RegeneratePasscode supersedes the entry's credential with a fresh code
// and expiry.  The old code stops working immediately.
func (s *EntryService) RegeneratePasscode(ctx context.Context, entryID string, expiry credential.Expiry, policy credential.UsagePolicy) (entry.Entry, error) {
	e, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return entry.Entry{}, err
	}

	now := time.Now().UTC()
	cred, err := s.mintCredential(ctx, e.UnitID, credential.AccessGrant{Kind: credential.GrantAuto}, policy, expiry, e.ExpectedAt, now)
	if err != nil {
		return entry.Entry{}, err
	}

	e.Credential = cred
	// A refreshed code makes an expired entry expected again.
	if e.Status == entry.StatusExpired {
		e.Status = entry.StatusExpected
	}
	e.UpdatedAt = now

	if err := s.entries.UpdateEntry(ctx, e); err != nil {
		return entry.Entry{}, fmt.Errorf("regenerate passcode: %w", err)
	}

	s.notifyPasscode(ctx, e)
	return e, nil
}

func (s *EntryService) mintCredential(
	ctx context.Context,
	unitID string,
	grant credential.AccessGrant,
	policy credential.UsagePolicy,
	expiry credential.Expiry,
	basis, now time.Time,
) (credential.Credential, error) {
	switch grant.Kind {
	case credential.GrantNone:
		// The entry is tracked without door access; a zero credential is
		// never valid.
		return credential.Credential{IssuedAt: now, Policy: policy}, nil

	case credential.GrantCustom:
		active, err := s.entries.ActiveCodes(ctx, unitID, now)
		if err != nil {
			return credential.Credential{}, fmt.Errorf("load active codes: %w", err)
		}
		if err := credential.ValidateCustom(grant.Code, active); err != nil {
			return credential.Credential{}, err
		}
		// Generate resolves the expiry; the random code is replaced by the
		// caller's.
		cred, err := credential.Generate(credential.GenerateParams{
			Basis:  basis,
			Now:    now,
			Expiry: expiry,
			Policy: policy,
		})
		if err != nil {
			return credential.Credential{}, err
		}
		cred.Code = grant.Code
		return cred, nil

	default: // GrantAuto
		active, err := s.entries.ActiveCodes(ctx, unitID, now)
		if err != nil {
			return credential.Credential{}, fmt.Errorf("load active codes: %w", err)
		}
		return credential.Generate(credential.GenerateParams{
			Length:      s.codeLength,
			Basis:       basis,
			Now:         now,
			Expiry:      expiry,
			Policy:      policy,
			ActiveCodes: active,
		})
	}
}

func (s *EntryService) notifyPasscode(ctx context.Context, e entry.Entry) {
	if s.notifier == nil || e.Credential.Code == "" {
		return
	}
	err := s.notifier.SendPasscode(ctx, notify.Passcode{
		RecipientName: e.Name,
		Email:         e.Email,
		Phone:         e.Phone,
		BuildingName:  s.buildingName,
		Code:          e.Credential.Code,
		ValidFrom:     e.Credential.IssuedAt,
		ValidUntil:    e.Credential.ExpiresAt,
	})
	if err != nil {
		s.logger.Warn("passcode notification failed",
			zap.String("entry_id", e.ID),
			zap.Error(err))
	}
}

// Transition applies an administrative event (depart, deny, archive,
// unarchive) and persists the result.
func (s *EntryService) Transition(ctx context.Context, entryID string, ev entry.Event) (entry.Entry, error) {
	e, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return entry.Entry{}, err
	}

	updated, err := entry.Apply(e, ev, time.Now().UTC())
	if err != nil {
		return e, err
	}
	if updated == e {
		return e, nil
	}
	if err := s.entries.UpdateEntry(ctx, updated); err != nil {
		return entry.Entry{}, fmt.Errorf("persist transition: %w", err)
	}
	return updated, nil
}

// ListEntries returns the unit's entries, newest expectation first.
func (s *EntryService) ListEntries(ctx context.Context, unitID string) ([]entry.Entry, error) {
	if unitID == "" {
		return nil, ErrUnitRequired
	}
	return s.entries.ListEntriesByUnit(ctx, unitID)
}
