package dnd_test

import (
	"testing"
	"time"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/dnd"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 6, hour, minute, 0, 0, time.UTC)
}

func TestIsCurrentlyDND_Disabled(t *testing.T) {
	s := dnd.Settings{Enabled: false}
	if dnd.IsCurrentlyDND(s, at(3, 0)) {
		t.Error("disabled DND must never block")
	}
}

func TestIsCurrentlyDND_EnabledNoSchedule_AlwaysOn(t *testing.T) {
	s := dnd.Settings{Enabled: true}
	if !dnd.IsCurrentlyDND(s, at(12, 0)) {
		t.Error("enabled DND with no schedule must always block")
	}
}

func TestIsCurrentlyDND_Schedule(t *testing.T) {
	// Callable 09:00-17:00; DND otherwise.
	s := dnd.Settings{
		Enabled:        true,
		ScheduleActive: true,
		Windows:        []dnd.Window{{Start: 9 * 60, End: 17 * 60}},
	}

	cases := []struct {
		hour, minute int
		want         bool
	}{
		{20, 0, true},  // evening: blocked
		{12, 0, false}, // midday: callable
		{8, 59, true},  // just before the window opens
		{9, 0, false},  // window start is inclusive
		{17, 0, true},  // window end is exclusive
	}
	for _, tc := range cases {
		if got := dnd.IsCurrentlyDND(s, at(tc.hour, tc.minute)); got != tc.want {
			t.Errorf("at %02d:%02d: got %v, want %v", tc.hour, tc.minute, got, tc.want)
		}
	}
}

func TestIsCurrentlyDND_TwoWindows(t *testing.T) {
	s := dnd.Settings{
		Enabled:        true,
		ScheduleActive: true,
		Windows: []dnd.Window{
			{Start: 8 * 60, End: 12 * 60},
			{Start: 14 * 60, End: 18 * 60},
		},
	}

	if dnd.IsCurrentlyDND(s, at(9, 0)) {
		t.Error("expected callable inside first window")
	}
	if !dnd.IsCurrentlyDND(s, at(13, 0)) {
		t.Error("expected blocked between windows")
	}
	if dnd.IsCurrentlyDND(s, at(15, 30)) {
		t.Error("expected callable inside second window")
	}
}

func TestFilter_HidesAndMarks(t *testing.T) {
	blockedSettings := dnd.Settings{Enabled: true} // always-on DND
	entries := []dnd.DirectoryEntry{
		{ID: "a", Floor: "2", DisplayName: "Baker", DND: blockedSettings, HideWhenDND: true},
		{ID: "b", Floor: "1", DisplayName: "Adams", DND: blockedSettings, ShowDNDIcon: true},
		{ID: "c", Floor: "1", DisplayName: "Zimmer"},
	}

	got := dnd.Filter(entries, at(12, 0))
	if len(got) != 2 {
		t.Fatalf("expected 2 visible entries, got %d", len(got))
	}
	// Sorted floor 1 before floor 2, names ascending.
	if got[0].ID != "b" || got[1].ID != "c" {
		t.Errorf("unexpected order: %q, %q", got[0].ID, got[1].ID)
	}
	if !got[0].Blocked {
		t.Error("expected entry b to be marked blocked")
	}
	if got[1].Blocked {
		t.Error("expected entry c to be callable")
	}
}
