// Package notify delivers passcodes to visitors and members out of band.
// Delivery is best-effort: a failed send never affects credential or entry
// state, so callers log and move on.
package notify

import (
	"context"
	"time"
)

// Passcode is the rendered notification payload: the code and its validity
// window, plus whatever contact details the entry carries.
type Passcode struct {
	RecipientName string
	Email         string
	Phone         string
	BuildingName  string
	Code          string
	ValidFrom     time.Time
	ValidUntil    time.Time
}

// Notifier sends a passcode notification.  Implementations decide the
// channel; a fan-out implementation can try several.
type Notifier interface {
	SendPasscode(ctx context.Context, p Passcode) error
}

// Multi fans a notification out to every notifier that has an address for
// it, returning the first error after attempting all of them.
type Multi []Notifier

func (m Multi) SendPasscode(ctx context.Context, p Passcode) error {
	var firstErr error
	for _, n := range m {
		if err := n.SendPasscode(ctx, p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
