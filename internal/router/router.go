package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Guarrdon/portfolioplanner-sub001/internal/registry"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/protocol"
	"github.com/google/uuid"
)

// Router resolves recipients from the presence registry and forwards
// envelopes. Delivery is best-effort fan-out to currently connected
// recipients only: offline recipients are skipped silently and the sender
// learns the outcome from the delivered/total ratio in the ack.
type Router struct {
	reg    *registry.Registry
	logger *slog.Logger
}

func New(reg *registry.Registry, logger *slog.Logger) *Router {
	return &Router{
		reg:    reg,
		logger: logger.With(slog.String("component", "router")),
	}
}

// HandleMessage is the inbound entry point for every frame a registered
// connection produces. Errors never propagate past the offending
// connection: a bad frame earns its sender an error reply and nothing else.
func (r *Router) HandleMessage(ctx context.Context, connID uuid.UUID, raw []byte) {
	senderID, ok := r.reg.Resolve(connID)
	if !ok {
		// A frame from a connection that was displaced or already torn
		// down; there is nobody to reply to.
		r.logger.Debug("dropping frame from unregistered connection", slog.String("connID", connID.String()))
		return
	}
	sender, ok := r.reg.Lookup(senderID)
	if !ok {
		return
	}

	switch kind := protocol.FrameKind(raw); kind {
	case protocol.FramePing:
		r.reply(sender.Conn, protocol.FramePong, protocol.Pong{Timestamp: time.Now().UTC()})
	case protocol.FrameCollabEvent:
		r.route(senderID, sender.Conn, raw)
	default:
		r.logger.Warn("unknown frame kind",
			slog.String("participantID", senderID),
			slog.String("kind", kind),
		)
		r.reply(sender.Conn, protocol.FrameError, protocol.ErrorMessage{
			Message: "unknown frame kind " + kind,
		})
	}
}

// route validates one envelope and fans it out. The envelope is transient:
// it exists only for the duration of this pass and is never persisted or
// queued for offline recipients.
func (r *Router) route(senderID string, sender registry.Conn, raw []byte) {
	var frame protocol.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		r.reply(sender, protocol.FrameError, protocol.ErrorMessage{Message: "malformed frame: " + err.Error()})
		return
	}

	var env protocol.Envelope
	if err := json.Unmarshal(frame.Payload, &env); err != nil {
		r.reply(sender, protocol.FrameError, protocol.ErrorMessage{Message: "malformed envelope: " + err.Error()})
		return
	}
	if err := env.Validate(); err != nil {
		r.logger.Warn("rejected envelope",
			slog.String("participantID", senderID),
			slog.Any("error", err),
		)
		r.reply(sender, protocol.FrameError, protocol.ErrorMessage{Message: err.Error()})
		return
	}
	if env.FromParticipant != senderID {
		r.logger.Warn("envelope sender does not match connection",
			slog.String("participantID", senderID),
			slog.String("fromParticipant", env.FromParticipant),
		)
	}

	r.reg.MarkRouted()

	forward, err := protocol.MarshalFrame(protocol.FrameCollabEvent, env)
	if err != nil {
		r.reply(sender, protocol.FrameError, protocol.ErrorMessage{Message: "failed to encode envelope: " + err.Error()})
		return
	}

	delivered := 0
	for _, recipientID := range env.ToParticipants {
		rec, online := r.reg.Lookup(recipientID)
		if !online {
			// Offline is an expected state, not an error.
			continue
		}
		rec.Conn.Send(forward)
		delivered++
	}

	r.logger.Debug("routed envelope",
		slog.String("type", string(env.Type)),
		slog.String("from", env.FromParticipant),
		slog.Int("delivered", delivered),
		slog.Int("recipients", len(env.ToParticipants)),
	)

	r.reply(sender, protocol.FrameEventAck, protocol.EventAck{
		EventType:       env.Type,
		DeliveredTo:     delivered,
		TotalRecipients: len(env.ToParticipants),
	})
}

// reply queues a frame back to one connection, fire-and-forget.
func (r *Router) reply(conn registry.Conn, event string, payload any) {
	raw, err := protocol.MarshalFrame(event, payload)
	if err != nil {
		r.logger.Error("failed to marshal reply", slog.String("event", event), slog.Any("error", err))
		return
	}
	conn.Send(raw)
}
