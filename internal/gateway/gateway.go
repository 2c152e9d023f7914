// Package gateway maintains the kiosk's connection to the device broker:
// one outbound topic that carries call commands toward the intercom
// hardware, and one inbound topic where the door relay reports its state.
//
// Everything asynchronous — connection changes, relay activations, publish
// failures — is surfaced as events on a single channel so the consumer can
// serialize them onto its own loop and tests can feed synthetic events.
package gateway

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// ConnState is the broker connection state, for display only.  Consumers
// must never gate actions on it: a call attempted while reconnecting
// simply fails through the normal dispatch-failure path.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateConnected
	StateReconnecting
	StateOffline
	StateError
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateOffline:
		return "offline"
	default:
		return "error"
	}
}

// EventKind discriminates gateway events.
type EventKind int

const (
	EventConnected EventKind = iota
	EventReconnecting
	EventRelayActivated
	EventCallDispatchFailed
)

// Event is one asynchronous occurrence on the broker link.  Target and Err
// are set for EventCallDispatchFailed.
type Event struct {
	Kind   EventKind
	Target string
	Err    error
}

// Config holds the broker connection parameters.
type Config struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string

	CallTopic  string // outbound: payload is the destination address
	RelayTopic string // inbound: payload carries the relay status

	ReconnectInterval time.Duration // fixed backoff; default 5s
	PublishTimeout    time.Duration // per-publish bound; default 10s
}

const eventBuffer = 16

// MQTTGateway is the production gateway over paho.  Create with New, then
// Connect; Close when done.
type MQTTGateway struct {
	client mqtt.Client
	cfg    Config
	logger *zap.Logger
	events chan Event
	state  atomic.Int32
}

func New(cfg Config, logger *zap.Logger) *MQTTGateway {
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 5 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 10 * time.Second
	}

	g := &MQTTGateway{
		cfg:    cfg,
		logger: logger,
		events: make(chan Event, eventBuffer),
	}
	g.state.Store(int32(StateConnecting))

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(cfg.ReconnectInterval)
	opts.SetMaxReconnectInterval(cfg.ReconnectInterval)
	opts.SetCleanSession(true)

	opts.SetOnConnectHandler(g.onConnect)
	opts.SetConnectionLostHandler(g.onConnectionLost)
	opts.SetReconnectingHandler(g.onReconnecting)

	g.client = mqtt.NewClient(opts)
	return g
}

// Connect starts the connection attempt.  It does not block waiting for
// the broker: with connect-retry enabled paho keeps retrying network
// failures in the background and the OnConnect handler reports success as
// an event.  A terminal error (no usable broker URL) is logged and moves
// the state to Error so the kiosk can show a degraded banner.
func (g *MQTTGateway) Connect() {
	token := g.client.Connect()
	go func() {
		if token.Wait() && token.Error() != nil {
			g.logger.Error("broker connect failed", zap.Error(token.Error()))
			g.state.Store(int32(StateError))
		}
	}()
}

// Events returns the gateway's event stream.  The channel is never closed
// while the gateway is open.
func (g *MQTTGateway) Events() <-chan Event {
	return g.events
}

// State returns the current connection state for display.
func (g *MQTTGateway) State() ConnState {
	return ConnState(g.state.Load())
}

// PublishCall publishes the destination address to the call topic.
// Fire-and-forget: delivery failure arrives later as an
// EventCallDispatchFailed event, never as a return value.
func (g *MQTTGateway) PublishCall(target string) {
	token := g.client.Publish(g.cfg.CallTopic, 1, false, target)

	go func() {
		if !token.WaitTimeout(g.cfg.PublishTimeout) {
			g.emit(Event{Kind: EventCallDispatchFailed, Target: target, Err: errPublishTimeout})
			return
		}
		if err := token.Error(); err != nil {
			g.logger.Warn("call publish failed",
				zap.String("target", target),
				zap.Error(err))
			g.emit(Event{Kind: EventCallDispatchFailed, Target: target, Err: err})
		}
	}()
}

// Close disconnects from the broker.  Pending events are discarded.
func (g *MQTTGateway) Close() {
	g.state.Store(int32(StateOffline))
	g.client.Disconnect(250)
}

func (g *MQTTGateway) onConnect(c mqtt.Client) {
	g.state.Store(int32(StateConnected))
	g.logger.Info("broker connected", zap.String("broker", g.cfg.BrokerURL))

	// (Re)subscribe on every connect: subscriptions do not survive a
	// clean-session reconnect.
	token := c.Subscribe(g.cfg.RelayTopic, 1, g.onRelayMessage)
	go func() {
		if token.Wait() && token.Error() != nil {
			g.logger.Error("relay subscribe failed",
				zap.String("topic", g.cfg.RelayTopic),
				zap.Error(token.Error()))
			g.state.Store(int32(StateError))
		}
	}()

	g.emit(Event{Kind: EventConnected})
}

func (g *MQTTGateway) onConnectionLost(_ mqtt.Client, err error) {
	g.state.Store(int32(StateReconnecting))
	g.logger.Warn("broker connection lost", zap.Error(err))
	g.emit(Event{Kind: EventReconnecting})
}

func (g *MQTTGateway) onReconnecting(_ mqtt.Client, _ *mqtt.ClientOptions) {
	g.state.Store(int32(StateReconnecting))
}

func (g *MQTTGateway) onRelayMessage(_ mqtt.Client, msg mqtt.Message) {
	if !relayActivated(msg.Payload()) {
		return
	}
	g.logger.Info("relay activated", zap.String("topic", msg.Topic()))
	g.emit(Event{Kind: EventRelayActivated})
}

// emit delivers an event without ever blocking a paho callback.  If the
// consumer has fallen this far behind, dropping is safer than stalling
// the broker client.
func (g *MQTTGateway) emit(ev Event) {
	select {
	case g.events <- ev:
	default:
		g.logger.Warn("gateway event dropped", zap.Int("kind", int(ev.Kind)))
	}
}

// relayActivated recognizes the hardware's "activated" marker anywhere in
// the status payload; everything else on the topic is ignored.
func relayActivated(payload []byte) bool {
	return strings.Contains(strings.ToLower(string(payload)), "activated")
}

var errPublishTimeout = errors.New("publish timed out")
