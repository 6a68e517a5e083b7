package registry_test

import (
	"log/slog"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Guarrdon/portfolioplanner-sub001/internal/registry"
	"github.com/google/uuid"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

type fakeConn struct {
	id     uuid.UUID
	mu     sync.Mutex
	sent   [][]byte
	closed error
	wasSet bool
}

func newFakeConn() *fakeConn { return &fakeConn{id: uuid.New()} }

func (f *fakeConn) ID() uuid.UUID { return f.id }

func (f *fakeConn) Send(raw []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, raw)
}

func (f *fakeConn) Close(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = err
	f.wasSet = true
}

func (f *fakeConn) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func record(participantID string, conn registry.Conn) *registry.Record {
	return &registry.Record{
		ParticipantID: participantID,
		OriginAddress: "http://" + participantID + ".local",
		DisplayName:   participantID,
		ConnectedAt:   time.Now(),
		Conn:          conn,
	}
}

func TestInstallLookupRemove(t *testing.T) {
	r := registry.New(newTestLogger())
	conn := newFakeConn()

	displaced, replaced := r.Install(record("alice", conn))
	if replaced || displaced != nil {
		t.Fatalf("first install reported a replacement")
	}

	rec, ok := r.Lookup("alice")
	if !ok {
		t.Fatal("Lookup failed after install")
	}
	if rec.Conn.ID() != conn.ID() {
		t.Errorf("Lookup returned wrong connection")
	}

	// Reverse index must map the handle back to the participant.
	participantID, ok := r.Resolve(conn.ID())
	if !ok || participantID != "alice" {
		t.Errorf("Resolve(%v) = %q, %v; want alice, true", conn.ID(), participantID, ok)
	}

	removed, ok := r.Remove(conn.ID())
	if !ok {
		t.Fatal("Remove failed for installed connection")
	}
	if removed.ParticipantID != "alice" {
		t.Errorf("Remove returned record for %q", removed.ParticipantID)
	}
	if _, ok := r.Lookup("alice"); ok {
		t.Error("Lookup succeeded after remove")
	}
	if _, ok := r.Resolve(conn.ID()); ok {
		t.Error("reverse index entry survived remove")
	}
}

func TestRemoveUnknownConnection(t *testing.T) {
	r := registry.New(newTestLogger())
	if _, ok := r.Remove(uuid.New()); ok {
		t.Error("Remove reported success for unknown handle")
	}
}

func TestRehandshakeReplacesRecord(t *testing.T) {
	r := registry.New(newTestLogger())
	first := newFakeConn()
	second := newFakeConn()

	r.Install(record("alice", first))
	displaced, replaced := r.Install(record("alice", second))
	if !replaced {
		t.Fatal("second handshake did not report replacement")
	}
	if displaced.ID() != first.ID() {
		t.Errorf("displaced wrong connection")
	}
	if r.ActiveCount() != 1 {
		t.Errorf("ActiveCount = %d, want 1", r.ActiveCount())
	}

	// The displaced handle must no longer resolve, so its late teardown
	// cannot remove the new record.
	if _, ok := r.Resolve(first.ID()); ok {
		t.Error("displaced handle still resolves")
	}
	if _, ok := r.Remove(first.ID()); ok {
		t.Error("removing the displaced handle reported success")
	}
	rec, ok := r.Lookup("alice")
	if !ok || rec.Conn.ID() != second.ID() {
		t.Error("replacement record is not the live one")
	}
}

func TestSnapshotExcludesOrigin(t *testing.T) {
	r := registry.New(newTestLogger())
	for _, id := range []string{"alice", "bob", "carol"} {
		r.Install(record(id, newFakeConn()))
	}

	snap := r.Snapshot("bob")
	if len(snap) != 2 {
		t.Fatalf("Snapshot returned %d records, want 2", len(snap))
	}
	for _, rec := range snap {
		if rec.ParticipantID == "bob" {
			t.Error("Snapshot included the excluded participant")
		}
	}
	// Sorted copy: deterministic iteration for assertions.
	if snap[0].ParticipantID != "alice" || snap[1].ParticipantID != "carol" {
		t.Errorf("Snapshot order = [%s %s]", snap[0].ParticipantID, snap[1].ParticipantID)
	}
}

func TestLifetimeCounters(t *testing.T) {
	r := registry.New(newTestLogger())
	for i := 0; i < 3; i++ {
		r.Install(record("p"+strconv.Itoa(i), newFakeConn()))
	}
	for i := 0; i < 5; i++ {
		r.MarkRouted()
	}

	stats := r.Stats()
	if stats.LifetimeConnections != 3 {
		t.Errorf("LifetimeConnections = %d, want 3", stats.LifetimeConnections)
	}
	if stats.LifetimeEventsRouted != 5 {
		t.Errorf("LifetimeEventsRouted = %d, want 5", stats.LifetimeEventsRouted)
	}

	// Disconnects do not roll lifetime counters back.
	for i := 0; i < 3; i++ {
		rec, _ := r.Lookup("p" + strconv.Itoa(i))
		r.Remove(rec.Conn.ID())
	}
	if got := r.Stats().LifetimeConnections; got != 3 {
		t.Errorf("LifetimeConnections after removals = %d, want 3", got)
	}
}

func TestConcurrentInstallRemove(t *testing.T) {
	r := registry.New(newTestLogger())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			conn := newFakeConn()
			r.Install(record("p"+strconv.Itoa(n%4), conn))
			r.Snapshot("")
			r.Remove(conn.ID())
		}(i)
	}
	wg.Wait()

	// Whatever interleaving happened, both maps must agree.
	for _, rec := range r.Snapshot("") {
		id, ok := r.Resolve(rec.Conn.ID())
		if !ok || id != rec.ParticipantID {
			t.Errorf("registry and reverse index disagree for %s", rec.ParticipantID)
		}
	}
}
