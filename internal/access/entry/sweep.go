package entry

import "time"

// DefaultRetention is how long an entry outlives its credential's expiry
// before the maintenance sweep archives it.
const DefaultRetention = 7 * 24 * time.Hour

// SweepResult pairs an updated entry with what happened to it, so the
// caller can persist only what changed.
type SweepResult struct {
	Entry    Entry
	Expired  bool
	Archived bool
}

// Sweep applies the maintenance policy to one entry:
//
//   - an expected entry whose credential has lapsed unused becomes expired;
//   - any non-archived entry whose credential expired more than retention
//     ago becomes archived.
//
// Both checks can fire in the same pass.  The sweep is idempotent:
// re-running it over an already-archived entry changes nothing.
func Sweep(e Entry, now time.Time, retention time.Duration) SweepResult {
	if retention <= 0 {
		retention = DefaultRetention
	}

	res := SweepResult{Entry: e}
	if e.Status == StatusArchived {
		return res
	}

	// Entries tracked without door access carry a zero credential.  There
	// is nothing to lapse, so the sweep leaves them alone.
	if e.Credential.ExpiresAt.IsZero() {
		return res
	}

	if e.Status == StatusExpected &&
		!now.Before(e.Credential.ExpiresAt) &&
		e.Credential.UsesConsumed == 0 {
		res.Entry.Status = StatusExpired
		res.Entry.UpdatedAt = now
		res.Expired = true
	}

	if now.Sub(e.Credential.ExpiresAt) > retention {
		res.Entry.PriorStatus = res.Entry.Status
		res.Entry.Status = StatusArchived
		res.Entry.UpdatedAt = now
		res.Archived = true
	}

	return res
}
