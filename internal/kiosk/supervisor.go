// Package kiosk drives the unattended lobby terminal: directory browsing,
// call dispatch, door confirmation, and the idle reset that returns an
// abandoned screen to its initial state.
package kiosk

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/dnd"
	"github.com/javanbakhti/smartBuild-sub000/internal/gateway"
)

// State is the terminal's interaction state.
type State int

const (
	// StateDirectory is the initial state: the filtered resident listing.
	StateDirectory State = iota
	// StateCallOptions means a directory entry is selected and the call
	// choices are on screen.
	StateCallOptions
	// StateCalling means a call command has been dispatched and the
	// terminal is waiting for the door relay.
	StateCalling
	// StateDoorConfirmed means the relay reported activation; the success
	// screen auto-dismisses back to the directory.
	StateDoorConfirmed
)

func (s State) String() string {
	switch s {
	case StateDirectory:
		return "directory"
	case StateCallOptions:
		return "call_options"
	case StateCalling:
		return "calling"
	default:
		return "door_confirmed"
	}
}

// CallKind is which call option the visitor picked.
type CallKind int

const (
	CallVoice CallKind = iota
	CallVideo
)

// NoticeKind classifies transient, auto-dismissing notices.
type NoticeKind int

const (
	// NoticeDND: the selected resident is not accepting calls right now.
	NoticeDND NoticeKind = iota
	// NoticeDispatchFailed: the call could not be delivered, or no relay
	// confirmation arrived in time.
	NoticeDispatchFailed
)

// Notice is a transient message for the terminal UI.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Snapshot is the render state exposed to the UI layer.
type Snapshot struct {
	State     State
	Selected  *dnd.VisibleEntry
	Directory []dnd.VisibleEntry
	ConnState gateway.ConnState
}

// DeviceGateway is the supervisor's view of the broker link.  Satisfied by
// gateway.MQTTGateway; tests substitute a fake fed with synthetic events.
type DeviceGateway interface {
	Events() <-chan gateway.Event
	State() gateway.ConnState
	PublishCall(target string)
}

// DirectorySource loads the current kiosk directory.  Called at startup
// and on every reset.
type DirectorySource func(ctx context.Context) ([]dnd.VisibleEntry, error)

// Config holds the supervisor's timing knobs.
type Config struct {
	// IdleTimeout resets an untouched terminal.  Default 60s.
	IdleTimeout time.Duration
	// ConfirmDuration is how long the door-confirmed screen shows before
	// auto-dismissing.  Default 5s.
	ConfirmDuration time.Duration
	// CallTimeout bounds how long Calling waits for a relay confirmation
	// before giving up as a dispatch failure.  0 disables the bound.
	CallTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ConfirmDuration <= 0 {
		c.ConfirmDuration = 5 * time.Second
	}
	return c
}

// Supervisor is the single active session state machine for one terminal.
// All user input, gateway events, and timer expiries are serialized onto
// one loop goroutine, so transitions never race.
type Supervisor struct {
	cfg    Config
	gw     DeviceGateway
	source DirectorySource
	logger *zap.Logger

	events  chan event
	notices chan Notice

	// Loop-owned state; published to snap under mu.
	state     State
	selected  *dnd.VisibleEntry
	directory []dnd.VisibleEntry

	idleGen    int
	confirmGen int
	callGen    int

	mu   sync.RWMutex
	snap Snapshot
}

// ── internal events ──────────────────────────────────────────────────────────

type event interface{ isEvent() }

type inputSelect struct{ entryID string }
type inputChooseCall struct{ kind CallKind }
type inputCancel struct{}
type inputDismiss struct{}
type inputPing struct{}

type timerKind int

const (
	timerIdle timerKind = iota
	timerConfirm
	timerCall
)

type timerFired struct {
	kind timerKind
	gen  int
}

func (inputSelect) isEvent()     {}
func (inputChooseCall) isEvent() {}
func (inputCancel) isEvent()     {}
func (inputDismiss) isEvent()    {}
func (inputPing) isEvent()       {}
func (timerFired) isEvent()      {}

// ── construction and loop ────────────────────────────────────────────────────

func NewSupervisor(cfg Config, gw DeviceGateway, source DirectorySource, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		cfg:     cfg.withDefaults(),
		gw:      gw,
		source:  source,
		logger:  logger,
		events:  make(chan event, 32),
		notices: make(chan Notice, 8),
		state:   StateDirectory,
	}
}

// Run executes the event loop until ctx is cancelled.  It must be called
// exactly once per supervisor.
func (s *Supervisor) Run(ctx context.Context) {
	s.refreshDirectory(ctx)
	s.publish()
	s.armIdle()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.handle(ctx, ev)
		case gev, ok := <-s.gw.Events():
			if !ok {
				return
			}
			s.handleGateway(gev)
		}
		s.publish()
	}
}

// Snapshot returns the current render state.  Safe from any goroutine.
func (s *Supervisor) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Notices returns the transient-notice stream.  The UI drains it; if
// nobody listens, notices are dropped rather than blocking the loop.
func (s *Supervisor) Notices() <-chan Notice {
	return s.notices
}

// ── inputs (safe from any goroutine; marshaled onto the loop) ────────────────

// Select picks a directory entry.
func (s *Supervisor) Select(entryID string) { s.post(inputSelect{entryID: entryID}) }

// ChooseCall picks a call option for the selected entry.
func (s *Supervisor) ChooseCall(kind CallKind) { s.post(inputChooseCall{kind: kind}) }

// Cancel backs out of the call options or an in-progress call.
func (s *Supervisor) Cancel() { s.post(inputCancel{}) }

// Dismiss closes the door-confirmed screen early.
func (s *Supervisor) Dismiss() { s.post(inputDismiss{}) }

// Ping reports raw user activity (any touch) for idle tracking.
func (s *Supervisor) Ping() { s.post(inputPing{}) }

func (s *Supervisor) post(ev event) {
	select {
	case s.events <- ev:
	default:
		// A full queue means the loop is wedged; dropping an input is the
		// least bad option for an unattended terminal.
		s.logger.Warn("kiosk input dropped")
	}
}

// ── event handling (loop goroutine only) ─────────────────────────────────────

func (s *Supervisor) handle(ctx context.Context, ev event) {
	// Every user input counts as activity.
	if _, isTimer := ev.(timerFired); !isTimer {
		s.armIdle()
	}

	switch ev := ev.(type) {
	case inputSelect:
		s.handleSelect(ev.entryID)
	case inputChooseCall:
		s.handleChooseCall(ev.kind)
	case inputCancel:
		if s.state == StateCallOptions || s.state == StateCalling {
			s.toDirectory("cancelled")
		}
	case inputDismiss:
		if s.state == StateDoorConfirmed {
			s.toDirectory("dismissed")
		}
	case inputPing:
		// Idle re-arm only; handled above.
	case timerFired:
		s.handleTimer(ctx, ev)
	}
}

func (s *Supervisor) handleSelect(entryID string) {
	if s.state != StateDirectory {
		return
	}

	var found *dnd.VisibleEntry
	for i := range s.directory {
		if s.directory[i].ID == entryID {
			found = &s.directory[i]
			break
		}
	}
	if found == nil {
		return
	}

	if found.Blocked {
		// Stays in the directory; the resident is just not callable now.
		s.notify(Notice{Kind: NoticeDND, Text: found.DisplayName + " is not accepting calls right now"})
		return
	}

	selected := *found
	s.selected = &selected
	s.state = StateCallOptions
}

func (s *Supervisor) handleChooseCall(kind CallKind) {
	if s.state != StateCallOptions || s.selected == nil {
		return
	}

	s.state = StateCalling
	s.logger.Info("call dispatched",
		zap.String("entry", s.selected.ID),
		zap.Int("kind", int(kind)))
	s.gw.PublishCall(s.selected.CallAddress)

	if s.cfg.CallTimeout > 0 {
		s.callGen++
		s.armTimer(timerCall, s.callGen, s.cfg.CallTimeout)
	}
}

func (s *Supervisor) handleGateway(ev gateway.Event) {
	switch ev.Kind {
	case gateway.EventRelayActivated:
		// Confirmation for an active call, or a walk-up open while the
		// terminal sits idle; both show the confirmed screen.
		if s.state == StateCalling || s.state == StateDirectory {
			s.state = StateDoorConfirmed
			s.confirmGen++
			s.armTimer(timerConfirm, s.confirmGen, s.cfg.ConfirmDuration)
		}
	case gateway.EventCallDispatchFailed:
		if s.state == StateCalling {
			s.notify(Notice{Kind: NoticeDispatchFailed, Text: "Call could not be placed"})
			s.toDirectory("dispatch failed")
		}
	case gateway.EventConnected, gateway.EventReconnecting:
		// Display-only; Snapshot reads the live state from the gateway.
		s.logger.Info("broker state changed", zap.Stringer("state", s.gw.State()))
	}
}

func (s *Supervisor) handleTimer(ctx context.Context, ev timerFired) {
	switch ev.kind {
	case timerIdle:
		if ev.gen != s.idleGen {
			return // stale: activity re-armed the deadline since
		}
		if s.state != StateDirectory {
			// Never reset out from under an open dialog; give it one more
			// full idle period.
			s.armIdle()
			return
		}
		s.logger.Info("idle reset")
		s.selected = nil
		s.refreshDirectory(ctx)
		s.armIdle()

	case timerConfirm:
		if ev.gen != s.confirmGen || s.state != StateDoorConfirmed {
			return
		}
		s.toDirectory("confirm screen elapsed")

	case timerCall:
		if ev.gen != s.callGen || s.state != StateCalling {
			return
		}
		s.notify(Notice{Kind: NoticeDispatchFailed, Text: "No answer from the door system"})
		s.toDirectory("call timed out")
	}
}

// ── helpers (loop goroutine only) ────────────────────────────────────────────

func (s *Supervisor) toDirectory(reason string) {
	s.logger.Debug("returning to directory", zap.String("reason", reason))
	s.state = StateDirectory
	s.selected = nil
}

func (s *Supervisor) armIdle() {
	s.idleGen++
	s.armTimer(timerIdle, s.idleGen, s.cfg.IdleTimeout)
}

// armTimer schedules a timer expiry back onto the event loop.  Stale fires
// are filtered by generation, so re-arming is a plain reschedule — no
// cancellation bookkeeping needed.
func (s *Supervisor) armTimer(kind timerKind, gen int, d time.Duration) {
	time.AfterFunc(d, func() {
		select {
		case s.events <- timerFired{kind: kind, gen: gen}:
		default:
		}
	})
}

func (s *Supervisor) refreshDirectory(ctx context.Context) {
	if s.source == nil {
		return
	}
	entries, err := s.source(ctx)
	if err != nil {
		// Keep showing the last good listing.
		s.logger.Warn("directory refresh failed", zap.Error(err))
		return
	}
	s.directory = entries
}

func (s *Supervisor) notify(n Notice) {
	select {
	case s.notices <- n:
	default:
	}
}

func (s *Supervisor) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{
		State:     s.state,
		Selected:  s.selected,
		Directory: s.directory,
		ConnState: s.gw.State(),
	}
}
