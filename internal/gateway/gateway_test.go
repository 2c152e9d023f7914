package gateway

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRelayActivated(t *testing.T) {
	cases := []struct {
		payload string
		want    bool
	}{
		{"activated", true},
		{"relay1:ACTIVATED", true},
		{`{"status":"Activated","relay":1}`, true},
		{"deactivated", true}, // marker is a substring match, per the hardware protocol
		{"idle", false},
		{"", false},
		{"active", false},
	}

	for _, tc := range cases {
		if got := relayActivated([]byte(tc.payload)); got != tc.want {
			t.Errorf("relayActivated(%q) = %v, want %v", tc.payload, got, tc.want)
		}
	}
}

func TestConnect_UnusableBrokerURL_EntersErrorState(t *testing.T) {
	// A URL paho cannot parse leaves the client with no servers, which is
	// a terminal error rather than something retry can fix.
	g := New(Config{
		BrokerURL:  "://not-a-url",
		ClientID:   "kiosk-test",
		CallTopic:  "building/intercom/call",
		RelayTopic: "building/door/relay",
	}, zap.NewNop())
	g.Connect()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if g.State() == StateError {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected StateError, still %s", g.State())
}

func TestConnStateString(t *testing.T) {
	cases := map[ConnState]string{
		StateConnecting:   "connecting",
		StateConnected:    "connected",
		StateReconnecting: "reconnecting",
		StateOffline:      "offline",
		StateError:        "error",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
