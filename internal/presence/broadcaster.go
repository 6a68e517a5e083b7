package presence

import (
	"log/slog"
	"time"

	"github.com/Guarrdon/portfolioplanner-sub001/internal/registry"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/protocol"
	"github.com/samber/lo"
)

// Broadcaster tells every other connected instance when a participant
// joins or leaves. Each call iterates a snapshot of the registry taken at
// call time, so a send to one connection can never observe, or be blocked
// by, teardown of another. The notified set is returned for assertions.
type Broadcaster struct {
	reg    *registry.Registry
	logger *slog.Logger
}

func NewBroadcaster(reg *registry.Registry, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		reg:    reg,
		logger: logger.With(slog.String("component", "presence")),
	}
}

// ParticipantOnline announces a join to everyone but the joiner.
func (b *Broadcaster) ParticipantOnline(rec *registry.Record) []string {
	raw, err := protocol.MarshalFrame(protocol.FrameParticipantOnline, protocol.ParticipantOnline{
		ParticipantID: rec.ParticipantID,
		DisplayName:   rec.DisplayName,
	})
	if err != nil {
		b.logger.Error("failed to marshal online notice", slog.Any("error", err))
		return nil
	}
	return b.fanOut(rec.ParticipantID, raw)
}

// ParticipantOffline announces a leave to everyone still connected.
func (b *Broadcaster) ParticipantOffline(participantID string) []string {
	raw, err := protocol.MarshalFrame(protocol.FrameParticipantOffline, protocol.ParticipantOffline{
		ParticipantID: participantID,
	})
	if err != nil {
		b.logger.Error("failed to marshal offline notice", slog.Any("error", err))
		return nil
	}
	return b.fanOut(participantID, raw)
}

// Shutdown pushes a service_shutdown notice to every connection; nobody
// is excluded since the relay itself is going away.
func (b *Broadcaster) Shutdown(message string) []string {
	raw, err := protocol.MarshalFrame(protocol.FrameServiceShutdown, protocol.ServiceShutdown{
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		b.logger.Error("failed to marshal shutdown notice", slog.Any("error", err))
		return nil
	}
	return b.fanOut("", raw)
}

// fanOut sends to each snapshot entry. Delivery is queue-and-forget per
// connection; a slow or dying connection affects only itself.
func (b *Broadcaster) fanOut(excludeParticipant string, raw []byte) []string {
	snapshot := b.reg.Snapshot(excludeParticipant)
	for _, rec := range snapshot {
		rec.Conn.Send(raw)
	}
	return lo.Map(snapshot, func(rec registry.Record, _ int) string {
		return rec.ParticipantID
	})
}
