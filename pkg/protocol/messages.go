package protocol

import (
	"encoding/json"
	"time"
)

// EventType enumerates the collaboration envelope types exchanged between
// instances. The relay treats the payload as opaque; only the type and the
// addressing fields matter for routing.
type EventType string

const (
	EventItemShared   EventType = "item_shared"
	EventCommentAdded EventType = "comment_added"
	EventItemUpdated  EventType = "item_updated"
	EventShareRevoked EventType = "share_revoked"
)

// Envelope is the routed unit. It exists only for the duration of one
// routing pass and is never persisted by the relay.
type Envelope struct {
	Type            EventType       `json:"type" validate:"required"`
	FromParticipant string          `json:"from_participant" validate:"required"`
	ToParticipants  []string        `json:"to_participants" validate:"required,min=1,dive,required"`
	Data            json.RawMessage `json:"data,omitempty"`
}

// ShareReference is the control-plane pointer carried by an item_shared
// envelope. The recipient resolves it with a pull against the origin
// instance; the relay never interprets it.
type ShareReference struct {
	ItemID         string `json:"item_id" validate:"required"`
	OriginFetchURL string `json:"origin_fetch_url" validate:"required,url"`
	AccessLevel    string `json:"access_level,omitempty"`
	// Optional bearer token the origin may require on the pull.
	ShareToken string `json:"share_token,omitempty"`
}

// Handshake carries the connection-establishment parameters. DisplayName is
// optional and defaults to "Unknown".
type Handshake struct {
	ParticipantID string `validate:"required"`
	OriginAddress string `validate:"required,url"`
	DisplayName   string
}

const DefaultDisplayName = "Unknown"

// WebSocketPath is the relay endpoint where instances establish their
// persistent connection; handshake parameters travel as query parameters.
const WebSocketPath = "/ws/collaborate"

// Frame is the outer shape of every message on the wire, both directions.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> relay frame kinds.
const (
	FrameCollabEvent = "collab_event"
	FramePing        = "ping"
)

// Relay -> client frame kinds.
const (
	FrameConnected          = "connected"
	FrameParticipantOnline  = "participant_online"
	FrameParticipantOffline = "participant_offline"
	FrameEventAck           = "event_ack"
	FrameError              = "error"
	FramePong               = "pong"
	FrameServiceShutdown    = "service_shutdown"
)

// Connected confirms a successful handshake.
type Connected struct {
	ParticipantID string `json:"participant_id"`
	Message       string `json:"message"`
	ActiveCount   int    `json:"active_count"`
}

// ParticipantOnline announces a participant joining.
type ParticipantOnline struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
}

// ParticipantOffline announces a participant leaving.
type ParticipantOffline struct {
	ParticipantID string `json:"participant_id"`
}

// EventAck reports the delivery outcome of one routed envelope back to its
// sender. Zero-of-N is a valid, non-error outcome.
type EventAck struct {
	EventType       EventType `json:"event_type"`
	DeliveredTo     int       `json:"delivered_to"`
	TotalRecipients int       `json:"total_recipients"`
}

// ErrorMessage is the relay's reply to a malformed or unroutable input.
type ErrorMessage struct {
	Message string `json:"message"`
}

// Pong answers a client ping at the transport keepalive layer.
type Pong struct {
	Timestamp time.Time `json:"timestamp"`
}

// ServiceShutdown is broadcast to every connection before the relay stops.
type ServiceShutdown struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
