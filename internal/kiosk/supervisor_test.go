package kiosk

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/dnd"
	"github.com/javanbakhti/smartBuild-sub000/internal/gateway"
)

// fakeGateway lets tests inject broker events and observe published calls.
type fakeGateway struct {
	events    chan gateway.Event
	published chan string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		events:    make(chan gateway.Event, 8),
		published: make(chan string, 8),
	}
}

func (f *fakeGateway) Events() <-chan gateway.Event { return f.events }
func (f *fakeGateway) State() gateway.ConnState     { return gateway.StateConnected }
func (f *fakeGateway) PublishCall(target string)    { f.published <- target }

func testDirectory() []dnd.VisibleEntry {
	return []dnd.VisibleEntry{
		{
			DirectoryEntry: dnd.DirectoryEntry{
				ID: "dir_101", UnitID: "unit_101", Floor: "1",
				DisplayName: "Unit 101", CallAddress: "sip:101@building",
			},
		},
		{
			DirectoryEntry: dnd.DirectoryEntry{
				ID: "dir_202", UnitID: "unit_202", Floor: "2",
				DisplayName: "Unit 202", CallAddress: "sip:202@building",
				ShowDNDIcon: true,
			},
			Blocked: true,
		},
	}
}

// startSupervisor runs a supervisor with short timings against a fake
// gateway and a fixed directory.
func startSupervisor(t *testing.T, cfg Config) (*Supervisor, *fakeGateway) {
	t.Helper()

	gw := newFakeGateway()
	source := func(context.Context) ([]dnd.VisibleEntry, error) {
		return testDirectory(), nil
	}
	sup := NewSupervisor(cfg, gw, source, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sup.Run(ctx)

	waitFor(t, "directory loaded", func() bool {
		return len(sup.Snapshot().Directory) == 2
	})
	return sup, gw
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitForState(t *testing.T, sup *Supervisor, want State) {
	t.Helper()
	waitFor(t, "state "+want.String(), func() bool {
		return sup.Snapshot().State == want
	})
}

// ── call flow ────────────────────────────────────────────────────────────────

func TestSupervisor_FullCallFlow(t *testing.T) {
	sup, gw := startSupervisor(t, Config{
		IdleTimeout:     time.Hour,
		ConfirmDuration: 100 * time.Millisecond,
	})

	sup.Select("dir_101")
	waitForState(t, sup, StateCallOptions)

	if got := sup.Snapshot().Selected; got == nil || got.ID != "dir_101" {
		t.Fatalf("expected dir_101 selected, got %+v", got)
	}

	sup.ChooseCall(CallVoice)
	waitForState(t, sup, StateCalling)

	select {
	case target := <-gw.published:
		if target != "sip:101@building" {
			t.Errorf("expected call to sip:101@building, got %q", target)
		}
	case <-time.After(time.Second):
		t.Fatal("no call published")
	}

	gw.events <- gateway.Event{Kind: gateway.EventRelayActivated}
	waitForState(t, sup, StateDoorConfirmed)

	// The confirmed screen auto-dismisses and the selection clears.
	waitForState(t, sup, StateDirectory)
	if sup.Snapshot().Selected != nil {
		t.Error("expected selection cleared after auto-dismiss")
	}
}

func TestSupervisor_CancelDuringCall(t *testing.T) {
	sup, _ := startSupervisor(t, Config{IdleTimeout: time.Hour})

	sup.Select("dir_101")
	sup.ChooseCall(CallVoice)
	waitForState(t, sup, StateCalling)

	sup.Cancel()
	waitForState(t, sup, StateDirectory)
	if sup.Snapshot().Selected != nil {
		t.Error("expected selection cleared on cancel")
	}
}

func TestSupervisor_DNDSelectionBlocked(t *testing.T) {
	sup, _ := startSupervisor(t, Config{IdleTimeout: time.Hour})

	sup.Select("dir_202")

	select {
	case n := <-sup.Notices():
		if n.Kind != NoticeDND {
			t.Errorf("expected NoticeDND, got %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatal("no DND notice emitted")
	}

	if got := sup.Snapshot().State; got != StateDirectory {
		t.Errorf("expected to stay in directory, got %s", got)
	}
}

func TestSupervisor_CallTimeout(t *testing.T) {
	sup, _ := startSupervisor(t, Config{
		IdleTimeout: time.Hour,
		CallTimeout: 20 * time.Millisecond,
	})

	sup.Select("dir_101")
	sup.ChooseCall(CallVoice)
	waitForState(t, sup, StateCalling)

	// No relay confirmation arrives; the call times out back to the
	// directory with a failure notice.
	waitForState(t, sup, StateDirectory)

	select {
	case n := <-sup.Notices():
		if n.Kind != NoticeDispatchFailed {
			t.Errorf("expected NoticeDispatchFailed, got %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatal("no dispatch-failure notice emitted")
	}
}

func TestSupervisor_DispatchFailureEvent(t *testing.T) {
	sup, gw := startSupervisor(t, Config{IdleTimeout: time.Hour})

	sup.Select("dir_101")
	sup.ChooseCall(CallVoice)
	waitForState(t, sup, StateCalling)

	gw.events <- gateway.Event{Kind: gateway.EventCallDispatchFailed, Target: "sip:101@building"}
	waitForState(t, sup, StateDirectory)
}

func TestSupervisor_WalkUpRelayWhileIdle(t *testing.T) {
	sup, gw := startSupervisor(t, Config{
		IdleTimeout:     time.Hour,
		ConfirmDuration: time.Hour,
	})

	gw.events <- gateway.Event{Kind: gateway.EventRelayActivated}
	waitForState(t, sup, StateDoorConfirmed)

	sup.Dismiss()
	waitForState(t, sup, StateDirectory)
}

// ── idle handling ────────────────────────────────────────────────────────────

func TestSupervisor_IdleResetInDirectory(t *testing.T) {
	sup, _ := startSupervisor(t, Config{IdleTimeout: 15 * time.Millisecond})

	// The reset is invisible from the directory state itself, but the loop
	// must keep running and re-arming.  Drive a selection afterwards to
	// prove the machine is alive.
	time.Sleep(50 * time.Millisecond)

	sup.Select("dir_101")
	waitForState(t, sup, StateCallOptions)
}

func TestSupervisor_IdleRearmsWhileModalOpen(t *testing.T) {
	sup, _ := startSupervisor(t, Config{IdleTimeout: 25 * time.Millisecond})

	sup.Select("dir_101")
	waitForState(t, sup, StateCallOptions)

	// Several idle periods pass with a dialog open; the supervisor must
	// re-arm instead of resetting under the visitor.
	time.Sleep(80 * time.Millisecond)

	if got := sup.Snapshot().State; got != StateCallOptions {
		t.Errorf("expected to remain in call options, got %s", got)
	}
}

func TestSupervisor_ActivityDefersIdle(t *testing.T) {
	sup, _ := startSupervisor(t, Config{IdleTimeout: 40 * time.Millisecond})

	sup.Select("dir_101")
	waitForState(t, sup, StateCallOptions)
	sup.Cancel()
	waitForState(t, sup, StateDirectory)

	// Keep touching the screen; each ping re-arms the deadline.
	for i := 0; i < 5; i++ {
		time.Sleep(15 * time.Millisecond)
		sup.Ping()
	}

	sup.Select("dir_101")
	waitForState(t, sup, StateCallOptions)
}
