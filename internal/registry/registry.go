package registry

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conn is the slice of a transport connection the registry needs. Keeping
// it an interface lets routing and broadcast fan-out be asserted against
// fakes without opening sockets.
type Conn interface {
	ID() uuid.UUID
	Send(raw []byte)
	Close(err error)
}

// Record is the presence entry for one participant. Exclusively owned by
// the registry: created on a successful handshake, destroyed on disconnect.
type Record struct {
	ParticipantID string
	OriginAddress string
	DisplayName   string
	ConnectedAt   time.Time
	Conn          Conn
}

// Stats are process-wide lifetime counters, reset only on restart.
type Stats struct {
	LifetimeConnections  uint64
	LifetimeEventsRouted uint64
}

// Registry maps participant ids to their live connection plus a reverse
// index from connection handle to participant. One mutex covers both maps
// and the counters, so connect, route and disconnect appear atomic with
// respect to one another.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
	byConn  map[uuid.UUID]string
	stats   Stats

	logger *slog.Logger
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		records: make(map[string]*Record),
		byConn:  make(map[uuid.UUID]string),
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// Install registers a participant's connection and increments the lifetime
// connection counter. A second handshake for the same participant
// atomically replaces the first; the displaced connection is returned so
// the caller can close it, and its reverse-index entry is removed here so
// its eventual teardown cannot touch the new record.
func (r *Registry) Install(rec *Record) (displaced Conn, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.records[rec.ParticipantID]; ok {
		delete(r.byConn, prev.Conn.ID())
		displaced = prev.Conn
		replaced = true
	}
	r.records[rec.ParticipantID] = rec
	r.byConn[rec.Conn.ID()] = rec.ParticipantID
	r.stats.LifetimeConnections++

	r.logger.Debug("participant registered",
		slog.String("participantID", rec.ParticipantID),
		slog.Bool("replaced", replaced),
	)
	return displaced, replaced
}

// Remove resolves the participant through the reverse index and deletes
// both entries. It reports false when the handle was never installed or
// was already displaced by a newer handshake, in which case the caller
// must not announce an offline transition.
func (r *Registry) Remove(connID uuid.UUID) (*Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	participantID, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}
	rec := r.records[participantID]
	delete(r.records, participantID)
	delete(r.byConn, connID)

	r.logger.Debug("participant deregistered", slog.String("participantID", participantID))
	return rec, true
}

// Lookup returns the live record for a participant, if any.
func (r *Registry) Lookup(participantID string) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[participantID]
	return rec, ok
}

// Resolve maps a connection handle back to its participant id.
func (r *Registry) Resolve(connID uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byConn[connID]
	return id, ok
}

// Snapshot copies the current records, excluding at most one participant,
// sorted by participant id. Iterating the copy keeps broadcasts off the
// registry lock.
func (r *Registry) Snapshot(excludeParticipant string) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, 0, len(r.records))
	for id, rec := range r.records {
		if id == excludeParticipant {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out
}

// ActiveCount reports the number of currently registered participants.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// MarkRouted bumps the lifetime routed-event counter; called once per
// accepted envelope, not per recipient.
func (r *Registry) MarkRouted() {
	r.mu.Lock()
	r.stats.LifetimeEventsRouted++
	r.mu.Unlock()
}

// Stats returns a copy of the lifetime counters.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}
