package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Guarrdon/portfolioplanner-sub001/pkg/protocol"
	"github.com/coder/websocket"
)

// ErrNotConnected is returned by Send while the client is disconnected,
// reconnecting or exhausted. Callers treat it as a degraded no-op: the
// local workflow continues, only the collaboration notice is lost.
var ErrNotConnected = errors.New("not connected to collaboration relay")

// Handler consumes one inbound envelope of a subscribed type.
type Handler func(env protocol.Envelope)

// PresenceChange reports another participant joining or leaving.
type PresenceChange struct {
	ParticipantID string
	DisplayName   string
	Online        bool
}

type Config struct {
	// BrokerURL is the relay base URL, ws:// or http:// scheme.
	BrokerURL     string
	ParticipantID string
	OriginAddress string
	DisplayName   string
	// AuthToken, when set, is presented as a bearer token on the handshake.
	AuthToken string

	// Bounded fixed-delay reconnection. Exhaustion is terminal until the
	// caller disconnects and connects again.
	ReconnectAttempts int
	ReconnectDelay    time.Duration

	// PingInterval keeps the relay's read deadline fed. Zero disables
	// keepalive pings.
	PingInterval time.Duration
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.ReconnectAttempts == 0 {
		c.ReconnectAttempts = 5
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
}

// wireConn is the slice of *websocket.Conn the client drives; injectable
// so the reconnection machinery is testable without sockets.
type wireConn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

type dialFunc func(ctx context.Context) (wireConn, error)

// Client maintains the single outbound connection from one instance to the
// relay and fans inbound envelopes out to type-keyed handlers. All methods
// are safe for concurrent use.
type Client struct {
	cfg    Config
	logger *slog.Logger
	clock  Clock
	dial   dialFunc

	mu         sync.RWMutex
	state      State
	conn       wireConn
	handlers   map[protocol.EventType][]Handler
	onPresence func(PresenceChange)
	onAck      func(protocol.EventAck)

	runCtx    context.Context
	runCancel context.CancelFunc
	runDone   chan struct{}
}

func New(cfg Config, logger *slog.Logger) *Client {
	cfg.applyDefaults()
	c := &Client{
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "collab_client"), slog.String("participantID", cfg.ParticipantID)),
		clock:    systemClock{},
		state:    StateDisconnected,
		handlers: make(map[protocol.EventType][]Handler),
	}
	c.dial = c.dialWebSocket
	return c
}

// Subscribe registers a handler for one envelope type. Multiple handlers
// per type are invoked in registration order.
func (c *Client) Subscribe(eventType protocol.EventType, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = append(c.handlers[eventType], handler)
}

// OnPresence registers the presence callback.
func (c *Client) OnPresence(fn func(PresenceChange)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPresence = fn
}

// OnAck registers the delivery-acknowledgment callback.
func (c *Client) OnAck(fn func(protocol.EventAck)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAck = fn
}

// State reports the connection state machine's current position.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Connect dials the relay and starts the read loop and keepalive. The
// first dial failing is an error; drops after that feed the bounded
// reconnection loop instead.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateReconnecting {
		c.mu.Unlock()
		return errors.New("client already connected")
	}
	c.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()
	conn, err := c.dial(dialCtx)
	if err != nil {
		return fmt.Errorf("connect to relay: %w", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.runCtx = runCtx
	c.runCancel = runCancel
	c.runDone = make(chan struct{})
	c.mu.Unlock()

	c.logger.Info("connected to collaboration relay")
	go c.run(conn)
	if c.cfg.PingInterval > 0 {
		go c.keepalive(runCtx)
	}
	return nil
}

// Disconnect stops the client deliberately: no reconnection follows.
// It is safe to call in any state.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel := c.runCancel
	conn := c.conn
	done := c.runDone
	c.state = StateDisconnected
	c.conn = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "client disconnect")
	}
	if done != nil {
		<-done
	}
	c.logger.Info("disconnected from collaboration relay")
}

// Send routes one envelope through the relay. It fails fast while the
// connection is down; it never blocks beyond the configured write timeout
// and never panics, so the caller's local workflow is unaffected.
func (c *Client) Send(env protocol.Envelope) error {
	c.mu.RLock()
	state := c.state
	conn := c.conn
	runCtx := c.runCtx
	c.mu.RUnlock()

	if state != StateConnected || conn == nil {
		c.logger.Warn("dropping outbound envelope while disconnected",
			slog.String("type", string(env.Type)),
			slog.String("state", state.String()),
		)
		return ErrNotConnected
	}

	raw, err := protocol.MarshalFrame(protocol.FrameCollabEvent, env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(runCtx, c.cfg.WriteTimeout)
	defer cancel()
	if err := conn.Write(writeCtx, websocket.MessageText, raw); err != nil {
		return fmt.Errorf("send envelope: %w", err)
	}
	return nil
}

// run owns the connection lifecycle: read until the connection drops, then
// walk the reconnection state machine until it lands on CONNECTED again or
// exhausts its attempts.
func (c *Client) run(conn wireConn) {
	defer close(c.runDone)

	for {
		c.readLoop(conn)
		if c.runCtx.Err() != nil {
			return
		}

		c.setState(StateReconnecting)
		next := c.reconnect()
		if next == nil {
			if c.runCtx.Err() == nil {
				c.setState(StateExhausted)
				c.logger.Warn("reconnection attempts exhausted, collaboration degraded",
					slog.Int("attempts", c.cfg.ReconnectAttempts),
				)
			}
			return
		}

		conn = next
		c.mu.Lock()
		c.conn = conn
		c.state = StateConnected
		c.mu.Unlock()
		c.logger.Info("reconnected to collaboration relay")
	}
}

func (c *Client) readLoop(conn wireConn) {
	for {
		typ, raw, err := conn.Read(c.runCtx)
		if err != nil {
			if c.runCtx.Err() == nil {
				c.logger.Warn("connection to relay dropped", slog.Any("error", err))
			}
			return
		}
		if typ != websocket.MessageText && typ != websocket.MessageBinary {
			continue
		}
		c.dispatch(raw)
	}
}

// reconnect runs the bounded fixed-delay retry loop. A nil return means
// the attempts are exhausted or the client was told to stop.
func (c *Client) reconnect() wireConn {
	for attempt := 1; attempt <= c.cfg.ReconnectAttempts; attempt++ {
		select {
		case <-c.runCtx.Done():
			return nil
		case <-c.clock.After(c.cfg.ReconnectDelay):
		}

		c.logger.Info("attempting reconnection",
			slog.Int("attempt", attempt),
			slog.Int("maxAttempts", c.cfg.ReconnectAttempts),
		)
		dialCtx, cancel := context.WithTimeout(c.runCtx, c.cfg.DialTimeout)
		conn, err := c.dial(dialCtx)
		cancel()
		if err != nil {
			c.logger.Warn("reconnection attempt failed", slog.Int("attempt", attempt), slog.Any("error", err))
			continue
		}
		return conn
	}
	return nil
}

func (c *Client) dispatch(raw []byte) {
	msg, err := protocol.DecodeServerFrame(raw)
	if err != nil {
		c.logger.Warn("dropping undecodable frame", slog.Any("error", err))
		return
	}

	switch {
	case msg.Event != nil:
		for _, handler := range c.handlersFor(msg.Event.Type) {
			handler(*msg.Event)
		}
	case msg.Online != nil:
		c.notifyPresence(PresenceChange{
			ParticipantID: msg.Online.ParticipantID,
			DisplayName:   msg.Online.DisplayName,
			Online:        true,
		})
	case msg.Offline != nil:
		c.notifyPresence(PresenceChange{ParticipantID: msg.Offline.ParticipantID})
	case msg.Ack != nil:
		c.mu.RLock()
		onAck := c.onAck
		c.mu.RUnlock()
		if onAck != nil {
			onAck(*msg.Ack)
		} else {
			c.logger.Debug("event acknowledged",
				slog.String("type", string(msg.Ack.EventType)),
				slog.Int("delivered", msg.Ack.DeliveredTo),
				slog.Int("recipients", msg.Ack.TotalRecipients),
			)
		}
	case msg.Connected != nil:
		c.logger.Info("relay confirmed connection", slog.Int("activeCount", msg.Connected.ActiveCount))
	case msg.Err != nil:
		c.logger.Error("relay reported error", slog.String("message", msg.Err.Message))
	case msg.Shutdown != nil:
		c.logger.Warn("relay announced shutdown", slog.String("message", msg.Shutdown.Message))
	case msg.Pong != nil:
		c.logger.Debug("pong", slog.Time("timestamp", msg.Pong.Timestamp))
	}
}

func (c *Client) handlersFor(eventType protocol.EventType) []Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Handler(nil), c.handlers[eventType]...)
}

func (c *Client) notifyPresence(change PresenceChange) {
	c.mu.RLock()
	onPresence := c.onPresence
	c.mu.RUnlock()
	if onPresence != nil {
		onPresence(change)
	}
}

func (c *Client) keepalive(ctx context.Context) {
	ping, err := protocol.MarshalFrame(protocol.FramePing, struct{}{})
	if err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(c.cfg.PingInterval):
		}

		c.mu.RLock()
		state := c.state
		conn := c.conn
		c.mu.RUnlock()
		if state != StateConnected || conn == nil {
			continue
		}
		writeCtx, cancel := context.WithTimeout(ctx, c.cfg.WriteTimeout)
		if err := conn.Write(writeCtx, websocket.MessageText, ping); err != nil {
			c.logger.Debug("keepalive write failed", slog.Any("error", err))
		}
		cancel()
	}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) dialWebSocket(ctx context.Context) (wireConn, error) {
	target, err := c.handshakeURL()
	if err != nil {
		return nil, err
	}
	opts := &websocket.DialOptions{}
	if c.cfg.AuthToken != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + c.cfg.AuthToken}}
	}
	conn, _, err := websocket.Dial(ctx, target, opts)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Client) handshakeURL() (string, error) {
	base, err := url.Parse(strings.TrimRight(c.cfg.BrokerURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid broker URL: %w", err)
	}
	base.Path += protocol.WebSocketPath

	q := url.Values{}
	q.Set("participant_id", c.cfg.ParticipantID)
	q.Set("origin_address", c.cfg.OriginAddress)
	if c.cfg.DisplayName != "" {
		q.Set("display_name", c.cfg.DisplayName)
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}
