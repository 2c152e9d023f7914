package entry_test

import (
	"errors"
	"testing"
	"time"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/credential"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/entry"
)

var expected = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func visitorEntry(policy credential.UsagePolicy) entry.Entry {
	return entry.Entry{
		ID:         "e-1",
		UnitID:     "unit-12",
		Kind:       entry.KindVisitor,
		Name:       "Dana Visitor",
		ExpectedAt: expected,
		Status:     entry.StatusExpected,
		Credential: credential.Credential{
			Code:      "482913",
			IssuedAt:  expected.Add(-time.Hour),
			ExpiresAt: expected.Add(24 * time.Hour),
			Policy:    policy,
		},
	}
}

// ── Arrive ───────────────────────────────────────────────────────────────────

func TestApply_Arrive_ValidCredential(t *testing.T) {
	e := visitorEntry(credential.UsagePolicy{Kind: credential.SingleUse})
	now := expected.Add(10 * time.Minute)

	got, err := entry.Apply(e, entry.EventArrive, now)
	if err != nil {
		t.Fatalf("Apply(arrive): %v", err)
	}
	if got.Status != entry.StatusArrived {
		t.Errorf("expected status=arrived, got %s", got.Status)
	}
	if got.Credential.UsesConsumed != 1 {
		t.Errorf("expected usesConsumed=1, got %d", got.Credential.UsesConsumed)
	}
}

func TestApply_Arrive_ExpiredCredential_MovesToExpired(t *testing.T) {
	e := visitorEntry(credential.UsagePolicy{Kind: credential.SingleUse})
	now := e.Credential.ExpiresAt.Add(time.Minute)

	got, err := entry.Apply(e, entry.EventArrive, now)
	if !errors.Is(err, credential.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if got.Status != entry.StatusExpired {
		t.Errorf("expected status=expired after failed arrive, got %s", got.Status)
	}
}

func TestApply_Arrive_MultiUse_LimitDiscoveredOnNextAttempt(t *testing.T) {
	e := visitorEntry(credential.UsagePolicy{Kind: credential.MultiUse, Limit: 2})
	now := expected.Add(10 * time.Minute)

	var err error
	e, err = entry.Apply(e, entry.EventArrive, now)
	if err != nil {
		t.Fatalf("first arrive: %v", err)
	}
	e, err = entry.Apply(e, entry.EventArrive, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second arrive: %v", err)
	}
	// Limit is now reached but the entry stays arrived.
	if e.Status != entry.StatusArrived {
		t.Fatalf("expected status=arrived at limit, got %s", e.Status)
	}

	got, err := entry.Apply(e, entry.EventArrive, now.Add(2*time.Hour))
	if !errors.Is(err, credential.ErrExhausted) {
		t.Fatalf("expected ErrExhausted on third arrive, got %v", err)
	}
	// The entry had already arrived, so a failed re-entry does not expire it.
	if got.Status != entry.StatusArrived {
		t.Errorf("expected status to remain arrived, got %s", got.Status)
	}
}

// ── Administrative transitions ───────────────────────────────────────────────

func TestApply_DepartAndDeny(t *testing.T) {
	now := expected.Add(time.Hour)

	for _, tc := range []struct {
		from entry.Status
		ev   entry.Event
		want entry.Status
	}{
		{entry.StatusExpected, entry.EventDepart, entry.StatusDeparted},
		{entry.StatusArrived, entry.EventDepart, entry.StatusDeparted},
		{entry.StatusExpected, entry.EventDeny, entry.StatusDenied},
		{entry.StatusArrived, entry.EventDeny, entry.StatusDenied},
	} {
		e := visitorEntry(credential.UsagePolicy{Kind: credential.SingleUse})
		e.Status = tc.from
		got, err := entry.Apply(e, tc.ev, now)
		if err != nil {
			t.Fatalf("Apply(%s on %s): %v", tc.ev, tc.from, err)
		}
		if got.Status != tc.want {
			t.Errorf("Apply(%s on %s): expected %s, got %s", tc.ev, tc.from, tc.want, got.Status)
		}
	}
}

func TestApply_InvalidTransitions(t *testing.T) {
	now := expected.Add(time.Hour)

	for _, tc := range []struct {
		from entry.Status
		ev   entry.Event
	}{
		{entry.StatusDeparted, entry.EventArrive},
		{entry.StatusDenied, entry.EventDepart},
		{entry.StatusExpired, entry.EventDeny},
		{entry.StatusExpected, entry.EventUnarchive},
		{entry.StatusArchived, entry.EventArrive},
	} {
		e := visitorEntry(credential.UsagePolicy{Kind: credential.SingleUse})
		e.Status = tc.from
		got, err := entry.Apply(e, tc.ev, now)
		if !errors.Is(err, entry.ErrInvalidTransition) {
			t.Errorf("Apply(%s on %s): expected ErrInvalidTransition, got %v", tc.ev, tc.from, err)
		}
		if got.Status != tc.from {
			t.Errorf("Apply(%s on %s): status changed to %s on rejected event", tc.ev, tc.from, got.Status)
		}
	}
}

// ── Archive / unarchive ──────────────────────────────────────────────────────

func TestApply_Archive_RecordsPriorStatus(t *testing.T) {
	e := visitorEntry(credential.UsagePolicy{Kind: credential.SingleUse})
	e.Status = entry.StatusArrived
	now := expected.Add(time.Hour)

	got, err := entry.Apply(e, entry.EventArchive, now)
	if err != nil {
		t.Fatalf("Apply(archive): %v", err)
	}
	if got.Status != entry.StatusArchived {
		t.Errorf("expected archived, got %s", got.Status)
	}
	if got.PriorStatus != entry.StatusArrived {
		t.Errorf("expected priorStatus=arrived, got %s", got.PriorStatus)
	}
}

func TestApply_Archive_AlreadyArchived_NoOp(t *testing.T) {
	e := visitorEntry(credential.UsagePolicy{Kind: credential.SingleUse})
	e.Status = entry.StatusArchived
	e.PriorStatus = entry.StatusDeparted

	got, err := entry.Apply(e, entry.EventArchive, expected.Add(time.Hour))
	if err != nil {
		t.Fatalf("re-archiving must not error: %v", err)
	}
	if got != e {
		t.Errorf("re-archiving changed the entry: %+v", got)
	}
}

func TestApply_Unarchive_RestoresPriorStatus(t *testing.T) {
	e := visitorEntry(credential.UsagePolicy{Kind: credential.SingleUse})
	e.Status = entry.StatusArchived
	e.PriorStatus = entry.StatusDeparted

	got, err := entry.Apply(e, entry.EventUnarchive, expected.Add(time.Hour))
	if err != nil {
		t.Fatalf("Apply(unarchive): %v", err)
	}
	if got.Status != entry.StatusDeparted {
		t.Errorf("expected departed, got %s", got.Status)
	}
	if got.PriorStatus != "" {
		t.Errorf("expected priorStatus cleared, got %s", got.PriorStatus)
	}
}

func TestApply_Unarchive_ExpectedWithLapsedCredential_ComesBackExpired(t *testing.T) {
	e := visitorEntry(credential.UsagePolicy{Kind: credential.SingleUse})
	e.Status = entry.StatusArchived
	e.PriorStatus = entry.StatusExpected
	now := e.Credential.ExpiresAt.Add(time.Hour)

	got, err := entry.Apply(e, entry.EventUnarchive, now)
	if err != nil {
		t.Fatalf("Apply(unarchive): %v", err)
	}
	if got.Status != entry.StatusExpired {
		t.Errorf("expected expired, got %s", got.Status)
	}
}

// ── Maintenance sweep ────────────────────────────────────────────────────────

func TestSweep_ExpectedPastExpiry_Expires(t *testing.T) {
	e := visitorEntry(credential.UsagePolicy{Kind: credential.SingleUse})
	now := e.Credential.ExpiresAt.Add(time.Hour)

	res := entry.Sweep(e, now, entry.DefaultRetention)
	if !res.Expired {
		t.Fatal("expected sweep to expire the entry")
	}
	if res.Archived {
		t.Error("entry inside retention must not be archived")
	}
	if res.Entry.Status != entry.StatusExpired {
		t.Errorf("expected expired, got %s", res.Entry.Status)
	}
}

func TestSweep_PastRetention_Archives(t *testing.T) {
	e := visitorEntry(credential.UsagePolicy{Kind: credential.SingleUse})
	e.Status = entry.StatusDeparted
	now := e.Credential.ExpiresAt.Add(entry.DefaultRetention + time.Hour)

	res := entry.Sweep(e, now, entry.DefaultRetention)
	if !res.Archived {
		t.Fatal("expected sweep to archive the entry")
	}
	if res.Entry.Status != entry.StatusArchived {
		t.Errorf("expected archived, got %s", res.Entry.Status)
	}
	if res.Entry.PriorStatus != entry.StatusDeparted {
		t.Errorf("expected priorStatus=departed, got %s", res.Entry.PriorStatus)
	}
}

func TestSweep_ExpiryAndArchivalInOnePass(t *testing.T) {
	e := visitorEntry(credential.UsagePolicy{Kind: credential.SingleUse})
	now := e.Credential.ExpiresAt.Add(entry.DefaultRetention + time.Hour)

	res := entry.Sweep(e, now, entry.DefaultRetention)
	if !res.Expired || !res.Archived {
		t.Fatalf("expected both expiry and archival, got %+v", res)
	}
	if res.Entry.PriorStatus != entry.StatusExpired {
		t.Errorf("expected priorStatus=expired, got %s", res.Entry.PriorStatus)
	}
}

func TestSweep_Archived_NoOp(t *testing.T) {
	e := visitorEntry(credential.UsagePolicy{Kind: credential.SingleUse})
	e.Status = entry.StatusArchived
	e.PriorStatus = entry.StatusDeparted
	now := e.Credential.ExpiresAt.Add(30 * 24 * time.Hour)

	res := entry.Sweep(e, now, entry.DefaultRetention)
	if res.Expired || res.Archived {
		t.Fatalf("sweep touched an archived entry: %+v", res)
	}
	if res.Entry != e {
		t.Errorf("sweep mutated an archived entry: %+v", res.Entry)
	}
}

func TestSweep_NoAccessEntry_Untouched(t *testing.T) {
	// An entry tracked without door access has a zero credential; no amount
	// of elapsed time may expire or archive it.
	e := visitorEntry(credential.UsagePolicy{})
	e.Credential = credential.Credential{IssuedAt: expected}
	now := expected.Add(365 * 24 * time.Hour)

	res := entry.Sweep(e, now, entry.DefaultRetention)
	if res.Expired || res.Archived {
		t.Fatalf("sweep touched a no-access entry: %+v", res)
	}
	if res.Entry != e {
		t.Errorf("sweep mutated a no-access entry: %+v", res.Entry)
	}
}

func TestSweep_ConsumedCredential_NotExpired(t *testing.T) {
	e := visitorEntry(credential.UsagePolicy{Kind: credential.MultiUse, Limit: 5})
	e.Credential.UsesConsumed = 2
	now := e.Credential.ExpiresAt.Add(time.Hour)

	res := entry.Sweep(e, now, entry.DefaultRetention)
	if res.Expired {
		t.Error("entry with consumed uses must not be marked expired by the sweep")
	}
}
