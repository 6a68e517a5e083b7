package protocol_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Guarrdon/portfolioplanner-sub001/pkg/protocol"
	"github.com/stretchr/testify/require"
)

func TestFrameKind(t *testing.T) {
	req := require.New(t)

	raw, err := protocol.MarshalFrame(protocol.FramePing, struct{}{})
	req.NoError(err)
	req.Equal(protocol.FramePing, protocol.FrameKind(raw))

	req.Empty(protocol.FrameKind([]byte(`{"payload":{}}`)))
	req.Empty(protocol.FrameKind([]byte(`not json`)))
}

func TestDecodeServerFrameCollabEvent(t *testing.T) {
	req := require.New(t)

	raw, err := protocol.MarshalFrame(protocol.FrameCollabEvent, protocol.Envelope{
		Type:            protocol.EventItemShared,
		FromParticipant: "alice",
		ToParticipants:  []string{"bob"},
		Data:            json.RawMessage(`{"item_id":"42"}`),
	})
	req.NoError(err)

	msg, err := protocol.DecodeServerFrame(raw)
	req.NoError(err)
	req.NotNil(msg.Event)
	req.Equal(protocol.EventItemShared, msg.Event.Type)
	req.Equal("alice", msg.Event.FromParticipant)
}

func TestDecodeServerFrameAck(t *testing.T) {
	req := require.New(t)

	raw, err := protocol.MarshalFrame(protocol.FrameEventAck, protocol.EventAck{
		EventType:       protocol.EventCommentAdded,
		DeliveredTo:     1,
		TotalRecipients: 3,
	})
	req.NoError(err)

	msg, err := protocol.DecodeServerFrame(raw)
	req.NoError(err)
	req.NotNil(msg.Ack)
	req.Equal(1, msg.Ack.DeliveredTo)
	req.Equal(3, msg.Ack.TotalRecipients)
}

func TestDecodeServerFrameUnknownKind(t *testing.T) {
	req := require.New(t)

	_, err := protocol.DecodeServerFrame([]byte(`{"event":"teleport","payload":{}}`))
	req.Error(err)
	req.Contains(err.Error(), "teleport")
}

func TestEnvelopeValidation(t *testing.T) {
	req := require.New(t)

	valid := protocol.Envelope{
		Type:            protocol.EventItemUpdated,
		FromParticipant: "alice",
		ToParticipants:  []string{"bob"},
	}
	req.NoError(valid.Validate())

	missingType := valid
	missingType.Type = ""
	err := missingType.Validate()
	req.Error(err)
	req.Contains(err.Error(), "type is required")

	noRecipients := valid
	noRecipients.ToParticipants = nil
	req.Error(noRecipients.Validate())

	blankRecipient := valid
	blankRecipient.ToParticipants = []string{""}
	req.Error(blankRecipient.Validate())
}

func TestShareReferenceFromData(t *testing.T) {
	req := require.New(t)

	ref, err := protocol.ShareReferenceFromData([]byte(`{
		"item_id": "42",
		"origin_fetch_url": "http://alice.test/items/42",
		"access_level": "read"
	}`))
	req.NoError(err)
	req.Equal("42", ref.ItemID)
	req.Equal("http://alice.test/items/42", ref.OriginFetchURL)

	_, err = protocol.ShareReferenceFromData([]byte(`{"item_id":"42","origin_fetch_url":"::bad::"}`))
	req.Error(err)

	_, err = protocol.ShareReferenceFromData([]byte(`{"origin_fetch_url":"http://alice.test/items/42"}`))
	req.Error(err)
	req.Contains(err.Error(), "item_id is required")
}

func TestPongTimestampRoundTrip(t *testing.T) {
	req := require.New(t)

	now := time.Now().UTC().Truncate(time.Second)
	raw, err := protocol.MarshalFrame(protocol.FramePong, protocol.Pong{Timestamp: now})
	req.NoError(err)

	msg, err := protocol.DecodeServerFrame(raw)
	req.NoError(err)
	req.NotNil(msg.Pong)
	req.True(msg.Pong.Timestamp.Equal(now))
}
