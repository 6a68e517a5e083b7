package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// MarshalFrame wraps a payload in the outer frame shape.
func MarshalFrame(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Payload: raw})
}

// FrameKind sniffs the frame discriminator without decoding the payload.
func FrameKind(raw []byte) string {
	return gjson.GetBytes(raw, "event").String()
}

// ServerMessage is the tagged union of everything the relay can send to a
// client. Exactly one field is non-nil after a successful decode, so client
// dispatch is an explicit switch rather than ad-hoc callbacks per name.
type ServerMessage struct {
	Connected *Connected
	Online    *ParticipantOnline
	Offline   *ParticipantOffline
	Event     *Envelope
	Ack       *EventAck
	Err       *ErrorMessage
	Pong      *Pong
	Shutdown  *ServiceShutdown
}

// DecodeServerFrame parses one relay -> client frame into the tagged union.
func DecodeServerFrame(raw []byte) (ServerMessage, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return ServerMessage{}, fmt.Errorf("decode frame: %w", err)
	}

	var msg ServerMessage
	var target any
	switch frame.Event {
	case FrameConnected:
		msg.Connected = &Connected{}
		target = msg.Connected
	case FrameParticipantOnline:
		msg.Online = &ParticipantOnline{}
		target = msg.Online
	case FrameParticipantOffline:
		msg.Offline = &ParticipantOffline{}
		target = msg.Offline
	case FrameCollabEvent:
		msg.Event = &Envelope{}
		target = msg.Event
	case FrameEventAck:
		msg.Ack = &EventAck{}
		target = msg.Ack
	case FrameError:
		msg.Err = &ErrorMessage{}
		target = msg.Err
	case FramePong:
		msg.Pong = &Pong{}
		target = msg.Pong
	case FrameServiceShutdown:
		msg.Shutdown = &ServiceShutdown{}
		target = msg.Shutdown
	default:
		return ServerMessage{}, fmt.Errorf("unknown frame kind %q", frame.Event)
	}

	if len(frame.Payload) > 0 {
		if err := json.Unmarshal(frame.Payload, target); err != nil {
			return ServerMessage{}, fmt.Errorf("decode %s payload: %w", frame.Event, err)
		}
	}
	return msg, nil
}

// ShareReferenceFromData extracts and validates the share reference carried
// by an item_shared envelope.
func ShareReferenceFromData(data []byte) (ShareReference, error) {
	var ref ShareReference
	if err := json.Unmarshal(data, &ref); err != nil {
		return ShareReference{}, fmt.Errorf("decode share reference: %w", err)
	}
	if err := ref.Validate(); err != nil {
		return ShareReference{}, err
	}
	return ref, nil
}
