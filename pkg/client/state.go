package client

import "time"

// State is the client connection state machine:
//
//	DISCONNECTED -> CONNECTED -> RECONNECTING -> CONNECTED
//	                                   |
//	                                   v
//	                              EXHAUSTED (terminal until Disconnect)
//
// While anything but CONNECTED, Send fails fast instead of blocking.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateReconnecting
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Clock abstracts timer scheduling so reconnection delays are
// deterministic under test.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
