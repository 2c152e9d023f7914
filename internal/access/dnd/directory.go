package dnd

import (
	"sort"
	"time"
)

// DirectoryEntry is the kiosk-visible projection of a resident or member.
// It is read-only at the kiosk.
type DirectoryEntry struct {
	ID          string
	BuildingID  string
	UnitID      string
	Floor       string
	DisplayName string
	CallAddress string // phone/extension published on a call
	DND         Settings
	HideWhenDND bool // omit from the listing entirely while DND
	ShowDNDIcon bool // keep listed but marked, routed to a blocked notice
}

// VisibleEntry is a directory entry annotated with its current DND state.
type VisibleEntry struct {
	DirectoryEntry
	Blocked bool
}

// Filter prunes and annotates a directory listing for the given instant.
// Owners hidden while DND are dropped; everyone else is kept, with Blocked
// set so the kiosk can show the marker instead of placing a call.  The
// result is sorted by floor then display name for stable kiosk paging.
func Filter(entries []DirectoryEntry, now time.Time) []VisibleEntry {
	out := make([]VisibleEntry, 0, len(entries))
	for _, e := range entries {
		blocked := IsCurrentlyDND(e.DND, now)
		if blocked && e.HideWhenDND {
			continue
		}
		out = append(out, VisibleEntry{DirectoryEntry: e, Blocked: blocked})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}
