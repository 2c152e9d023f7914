package entry

import (
	"errors"
	"fmt"
	"time"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/credential"
)

var ErrInvalidTransition = errors.New("transition not allowed from current status")

// Status is the entry life cycle position.  Stored as text so the values
// double as database and API representations.
type Status string

const (
	StatusExpected Status = "expected"
	StatusArrived  Status = "arrived"
	StatusDeparted Status = "departed"
	StatusDenied   Status = "denied"
	StatusExpired  Status = "expired"
	StatusArchived Status = "archived"
)

// Kind distinguishes one-off visitor passes from standing member grants.
type Kind string

const (
	KindVisitor Kind = "visitor"
	KindMember  Kind = "member"
)

// Entry is a scheduled or granted access record bound to one current
// credential.  PriorStatus is only meaningful while archived; it remembers
// what to restore on unarchive.
type Entry struct {
	ID          string
	UnitID      string
	BuildingID  string
	Kind        Kind
	Name        string
	Email       string
	Phone       string
	Comment     string
	ExpectedAt  time.Time
	Status      Status
	PriorStatus Status
	Credential  credential.Credential
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Event drives the state machine.
type Event string

const (
	EventArrive    Event = "arrive"
	EventDepart    Event = "depart"
	EventDeny      Event = "deny"
	EventArchive   Event = "archive"
	EventUnarchive Event = "unarchive"
)

// Apply runs one transition and returns the updated entry.  It is total:
// every (status, event) pair either produces a new entry or reports
// ErrInvalidTransition; nothing is applied silently.
//
// Arrive consumes the credential.  If the credential is no longer valid the
// attempt fails, and an entry that was still expected is moved to expired —
// exhaustion and expiry are discovered on use, not ahead of time.  The
// (possibly updated) entry is returned alongside the error so the caller
// can persist the expiry.
func Apply(e Entry, ev Event, now time.Time) (Entry, error) {
	switch ev {
	case EventArrive:
		return applyArrive(e, now)

	case EventDepart:
		if e.Status != StatusExpected && e.Status != StatusArrived {
			return e, transitionErr(e.Status, ev)
		}
		e.Status = StatusDeparted
		e.UpdatedAt = now
		return e, nil

	case EventDeny:
		if e.Status != StatusExpected && e.Status != StatusArrived {
			return e, transitionErr(e.Status, ev)
		}
		e.Status = StatusDenied
		e.UpdatedAt = now
		return e, nil

	case EventArchive:
		// Archiving an archived entry is a no-op, not an error, so the
		// maintenance sweep can be re-applied safely.
		if e.Status == StatusArchived {
			return e, nil
		}
		e.PriorStatus = e.Status
		e.Status = StatusArchived
		e.UpdatedAt = now
		return e, nil

	case EventUnarchive:
		if e.Status != StatusArchived {
			return e, transitionErr(e.Status, ev)
		}
		restored := e.PriorStatus
		if restored == "" {
			restored = StatusExpected
		}
		// The credential may have lapsed while the entry sat in the
		// archive; a restored "expected" that can no longer admit anyone
		// comes back as expired instead.
		if restored == StatusExpected && !now.Before(e.Credential.ExpiresAt) {
			restored = StatusExpired
		}
		e.Status = restored
		e.PriorStatus = ""
		e.UpdatedAt = now
		return e, nil

	default:
		return e, transitionErr(e.Status, ev)
	}
}

func applyArrive(e Entry, now time.Time) (Entry, error) {
	if e.Status != StatusExpected && e.Status != StatusArrived {
		return e, transitionErr(e.Status, EventArrive)
	}

	c, err := credential.Consume(e.Credential, now)
	if err != nil {
		if e.Status == StatusExpected {
			e.Status = StatusExpired
			e.UpdatedAt = now
		}
		return e, err
	}

	e.Credential = c
	e.Status = StatusArrived
	e.UpdatedAt = now
	return e, nil
}

func transitionErr(s Status, ev Event) error {
	return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, s)
}
