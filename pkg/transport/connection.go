package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// MessageHandler is invoked for every text frame read off the wire.
type MessageHandler func(ctx context.Context, connID uuid.UUID, raw []byte)

// CloseHandler is invoked exactly once when the connection is torn down.
type CloseHandler func(connID uuid.UUID, err error)

type Config struct {
	// ReadTimeout bounds the gap between inbound frames; clients are
	// expected to ping well inside it. Zero disables the deadline.
	ReadTimeout time.Duration
	// WriteTimeout bounds a single outbound write. Zero disables it.
	WriteTimeout time.Duration
}

const sendBuffer = 64

// Connection wraps one WebSocket with a read pump, a buffered write pump
// and a single teardown path. Send is safe for concurrent use and never
// blocks the caller once the connection is closing.
type Connection struct {
	id     uuid.UUID
	ws     *websocket.Conn
	config Config

	onMessage MessageHandler
	onClose   CloseHandler

	send      chan []byte
	done      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        *sync.WaitGroup

	logger *slog.Logger
}

// NewConnection wires a freshly accepted WebSocket. The waitgroup may be
// nil; when set it is released on teardown so the owner can drain
// connections during shutdown. Handlers may be installed via the setters,
// but must be in place before Run.
func NewConnection(parent context.Context, wg *sync.WaitGroup, ws *websocket.Conn, cfg Config, logger *slog.Logger) *Connection {
	id := uuid.New()
	ctx, cancel := context.WithCancel(parent)
	return &Connection{
		id:     id,
		ws:     ws,
		config: cfg,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		wg:     wg,
		logger: logger.With(slog.String("connID", id.String())),
	}
}

func (c *Connection) SetOnMessage(handler MessageHandler) { c.onMessage = handler }
func (c *Connection) SetOnClose(handler CloseHandler)     { c.onClose = handler }

// Run starts both pumps. It returns immediately; Done signals teardown.
func (c *Connection) Run() {
	if c.wg != nil {
		c.wg.Add(1)
	}
	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	var readErr error
	defer func() { c.Close(readErr) }()

	for {
		raw, err := c.readOne()
		if err != nil {
			readErr = err
			return
		}
		if raw == nil {
			continue
		}
		if c.onMessage != nil {
			c.onMessage(c.ctx, c.id, raw)
		}
	}
}

// readOne reads a single frame under the configured deadline. A nil slice
// with nil error means the frame type was not text/binary and was skipped.
func (c *Connection) readOne() ([]byte, error) {
	ctx := c.ctx
	if c.config.ReadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(c.ctx, c.config.ReadTimeout)
		defer cancel()
	}
	typ, raw, err := c.ws.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageText && typ != websocket.MessageBinary {
		return nil, nil
	}
	return raw, nil
}

func (c *Connection) writePump() {
	var writeErr error
	defer func() { c.Close(writeErr) }()

	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.writeOne(raw); err != nil {
				writeErr = err
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) writeOne(raw []byte) error {
	ctx := c.ctx
	if c.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(c.ctx, c.config.WriteTimeout)
		defer cancel()
	}
	return c.ws.Write(ctx, websocket.MessageText, raw)
}

// Send queues a frame for delivery. Frames queued on one connection are
// written in order; a closing connection drops the frame silently.
func (c *Connection) Send(raw []byte) {
	select {
	case c.send <- raw:
	case <-c.ctx.Done():
		c.logger.Debug("dropped frame for closing connection")
	}
}

// Close tears the connection down exactly once. The error records why;
// nil means a deliberate local close. Frames already queued are flushed
// first so a shutdown notice still reaches the peer.
func (c *Connection) Close(err error) {
	c.closeOnce.Do(func() {
		if err != nil {
			c.logger.Debug("connection closing", slog.Any("reason", err))
		}
		c.drainSend()
		c.cancel()
		c.ws.Close(websocket.StatusNormalClosure, "")
		if c.onClose != nil {
			c.onClose(c.id, err)
		}
		if c.wg != nil {
			c.wg.Done()
		}
		close(c.done)
	})
}

// drainSend flushes whatever is already queued, bounded by one write
// timeout in total. A dead peer fails the first write and ends the flush.
func (c *Connection) drainSend() {
	deadline := c.config.WriteTimeout
	if deadline <= 0 {
		deadline = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()
	for {
		select {
		case raw := <-c.send:
			if err := c.ws.Write(ctx, websocket.MessageText, raw); err != nil {
				return
			}
		default:
			return
		}
	}
}

// Done is closed when teardown has completed.
func (c *Connection) Done() <-chan struct{} { return c.done }

func (c *Connection) ID() uuid.UUID { return c.id }
