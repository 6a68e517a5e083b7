package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Guarrdon/portfolioplanner-sub001/internal/server"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/config"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/protocol"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*server.App, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	cfg := &config.Config{
		Server:    config.ServerConfig{Address: ":0"},
		Transport: config.TransportConfig{ReadTimeout: 90 * time.Second, WriteTimeout: 10 * time.Second},
		Shutdown:  config.ShutdownConfig{GracePeriod: time.Second, Message: "relay restarting"},
	}
	app := server.NewApp(logger, context.Background(), cfg)
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	return app, srv
}

func wsURL(srv *httptest.Server, participantID, originAddress string) string {
	base := strings.Replace(srv.URL, "http", "ws", 1) + protocol.WebSocketPath
	if participantID == "" && originAddress == "" {
		return base
	}
	return base + "?participant_id=" + participantID + "&origin_address=" + originAddress
}

func dialParticipant(t *testing.T, srv *httptest.Server, id, origin string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(srv, id, origin), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn
}

func readServerMessage(t *testing.T, conn *websocket.Conn) *protocol.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, raw, err := conn.Read(ctx)
	require.NoError(t, err)
	msg, err := protocol.DecodeServerFrame(raw)
	require.NoError(t, err)
	return &msg
}

// waitFor reads frames until pick returns true, skipping interleaved
// presence traffic.
func waitFor(t *testing.T, conn *websocket.Conn, pick func(*protocol.ServerMessage) bool) *protocol.ServerMessage {
	t.Helper()
	for i := 0; i < 10; i++ {
		msg := readServerMessage(t, conn)
		if pick(msg) {
			return msg
		}
	}
	t.Fatal("expected frame never arrived")
	return nil
}

func TestHandshakeConfirmation(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t)

	alice := dialParticipant(t, srv, "alice", "http://alice.test")
	msg := readServerMessage(t, alice)
	req.NotNil(msg.Connected)
	req.Equal("alice", msg.Connected.ParticipantID)
	req.Equal(1, msg.Connected.ActiveCount)
}

func TestHandshakeRejectedInsideSocket(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t)

	// The upgrade succeeds; the rejection arrives as an error frame
	// before the relay closes the socket.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(srv, "", ""), nil)
	req.NoError(err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	msg := readServerMessage(t, conn)
	req.NotNil(msg.Err)
	req.Contains(msg.Err.Message, "participant_id")

	_, _, err = conn.Read(ctx)
	req.Error(err)
}

func TestPresenceBroadcastOnJoinAndLeave(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t)

	alice := dialParticipant(t, srv, "alice", "http://alice.test")
	readServerMessage(t, alice) // connected

	bob := dialParticipant(t, srv, "bob", "http://bob.test")
	readServerMessage(t, bob) // connected

	online := waitFor(t, alice, func(m *protocol.ServerMessage) bool { return m.Online != nil })
	req.Equal("bob", online.Online.ParticipantID)

	req.NoError(bob.Close(websocket.StatusNormalClosure, "leaving"))
	offline := waitFor(t, alice, func(m *protocol.ServerMessage) bool { return m.Offline != nil })
	req.Equal("bob", offline.Offline.ParticipantID)
}

func TestEventRoutingWithAck(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t)

	alice := dialParticipant(t, srv, "alice", "http://alice.test")
	readServerMessage(t, alice)
	bob := dialParticipant(t, srv, "bob", "http://bob.test")
	readServerMessage(t, bob)

	raw, err := protocol.MarshalFrame(protocol.FrameCollabEvent, protocol.Envelope{
		Type:            protocol.EventCommentAdded,
		FromParticipant: "alice",
		ToParticipants:  []string{"bob", "carol"},
		Data:            json.RawMessage(`{"item_id":"42","text":"hi"}`),
	})
	req.NoError(err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req.NoError(alice.Write(ctx, websocket.MessageText, raw))

	// Bob is online and gets the event; carol is not, so the ack reports
	// one delivery out of two recipients.
	event := waitFor(t, bob, func(m *protocol.ServerMessage) bool { return m.Event != nil })
	req.Equal(protocol.EventCommentAdded, event.Event.Type)

	ack := waitFor(t, alice, func(m *protocol.ServerMessage) bool { return m.Ack != nil })
	req.Equal(1, ack.Ack.DeliveredTo)
	req.Equal(2, ack.Ack.TotalRecipients)
}

func TestHealthReportsLifetimeCounters(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t)

	alice := dialParticipant(t, srv, "alice", "http://alice.test")
	readServerMessage(t, alice)
	bob := dialParticipant(t, srv, "bob", "http://bob.test")
	readServerMessage(t, bob)

	raw, err := protocol.MarshalFrame(protocol.FrameCollabEvent, protocol.Envelope{
		Type:            protocol.EventItemUpdated,
		FromParticipant: "alice",
		ToParticipants:  []string{"bob"},
	})
	req.NoError(err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 5; i++ {
		req.NoError(alice.Write(ctx, websocket.MessageText, raw))
		waitFor(t, alice, func(m *protocol.ServerMessage) bool { return m.Ack != nil })
	}

	resp, err := http.Get(srv.URL + "/health")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var health struct {
		Status             string `json:"status"`
		ActiveParticipants int    `json:"active_participants"`
		TotalConnections   uint64 `json:"total_connections"`
		TotalEventsRouted  uint64 `json:"total_events_routed"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&health))
	req.Equal("ok", health.Status)
	req.Equal(2, health.ActiveParticipants)
	req.EqualValues(2, health.TotalConnections)
	req.EqualValues(5, health.TotalEventsRouted)
}

func TestParticipantsOnlineEndpoint(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t)

	alice := dialParticipant(t, srv, "alice", "http://alice.test")
	readServerMessage(t, alice)

	resp, err := http.Get(srv.URL + "/api/participants/online")
	req.NoError(err)
	defer resp.Body.Close()

	var body struct {
		Participants []struct {
			ID            string `json:"id"`
			DisplayName   string `json:"display_name"`
			OriginAddress string `json:"origin_address"`
		} `json:"participants"`
		Count int `json:"count"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&body))
	req.Equal(1, body.Count)
	req.Equal("alice", body.Participants[0].ID)
	req.Equal("http://alice.test", body.Participants[0].OriginAddress)
	// No display_name in the handshake falls back to the default.
	req.Equal(protocol.DefaultDisplayName, body.Participants[0].DisplayName)
}

func TestRegisterEndpoint(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t)

	resp, err := http.Post(srv.URL+"/api/register", "application/json",
		strings.NewReader(`{"participant_id":"alice","origin_address":"http://alice.test"}`))
	req.NoError(err)
	var body struct {
		Registered bool `json:"registered"`
		Connected  bool `json:"connected"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	req.True(body.Registered)
	req.False(body.Connected)

	resp, err = http.Post(srv.URL+"/api/register", "application/json",
		strings.NewReader(`{"origin_address":"http://alice.test"}`))
	req.NoError(err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestRehandshakeDisplacesOldSocket(t *testing.T) {
	req := require.New(t)
	app, srv := newTestApp(t)

	first := dialParticipant(t, srv, "alice", "http://alice.test")
	readServerMessage(t, first)

	second := dialParticipant(t, srv, "alice", "http://alice.test")
	readServerMessage(t, second)

	// The displaced socket gets closed by the relay.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := first.Read(ctx)
	req.Error(err)

	require.Eventually(t, func() bool { return app.Registry().ActiveCount() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestShutdownBroadcastsNotice(t *testing.T) {
	req := require.New(t)
	app, srv := newTestApp(t)

	alice := dialParticipant(t, srv, "alice", "http://alice.test")
	readServerMessage(t, alice)

	done := make(chan error, 1)
	go func() { done <- app.Shutdown() }()

	msg := waitFor(t, alice, func(m *protocol.ServerMessage) bool { return m.Shutdown != nil })
	req.Equal("relay restarting", msg.Shutdown.Message)
	req.NoError(<-done)
}
