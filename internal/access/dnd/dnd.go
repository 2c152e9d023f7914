// Package dnd evaluates do-not-disturb rules for kiosk directory entries.
package dnd

import "time"

// Window is a daily availability window in minutes-of-day, half-open
// [Start, End).  An owner is callable while the current minute falls inside
// a window.
type Window struct {
	Start int
	End   int
}

// Contains reports whether the minute-of-day falls inside the window.
func (w Window) Contains(minute int) bool {
	return minute >= w.Start && minute < w.End
}

// Settings is the per-resident do-not-disturb configuration.  At most two
// windows are honored.
type Settings struct {
	Enabled        bool
	ScheduleActive bool
	Windows        []Window
}

// IsCurrentlyDND reports whether the owner is blocked from calls at the
// given instant.  Disabled settings never block.  Enabled settings with no
// active schedule block always.  With an active schedule the owner is
// callable only while inside one of the windows.
func IsCurrentlyDND(s Settings, now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if !s.ScheduleActive || len(s.Windows) == 0 {
		return true
	}

	minute := now.Hour()*60 + now.Minute()
	for i, w := range s.Windows {
		if i >= 2 {
			break
		}
		if w.Contains(minute) {
			return false
		}
	}
	return true
}
