package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Guarrdon/portfolioplanner-sub001/internal/presence"
	"github.com/Guarrdon/portfolioplanner-sub001/internal/registry"
	"github.com/Guarrdon/portfolioplanner-sub001/internal/router"
	"github.com/Guarrdon/portfolioplanner-sub001/internal/server/middleware"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/config"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/protocol"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/transport"
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// App is the relay process: presence registry, event router, presence
// broadcaster and the HTTP surface that carries both the WebSocket upgrade
// endpoint and the control plane.
type App struct {
	logger      *slog.Logger
	reg         *registry.Registry
	eventRouter *router.Router
	broadcaster *presence.Broadcaster
	config      *config.Config

	wg      sync.WaitGroup
	http    *http.Server
	mux     *http.ServeMux
	started time.Time

	ctx context.Context
}

func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config) *App {
	reg := registry.New(logger)

	app := &App{
		logger:      logger,
		reg:         reg,
		eventRouter: router.New(reg, logger),
		broadcaster: presence.NewBroadcaster(reg, logger),
		config:      cfg,
		started:     time.Now(),
		ctx:         rootCtx,
	}

	mux := http.NewServeMux()
	mux.Handle(protocol.WebSocketPath, middleware.Chain(
		http.HandlerFunc(app.upgradeHandler),
		middleware.RequestMetadataMiddleware(),
		middleware.NewRequestLogger(logger),
		middleware.NewAuthMiddleware(logger, cfg.Server.Auth),
	))
	mux.HandleFunc("GET /health", app.handleHealth)
	mux.HandleFunc("GET /api/participants/online", app.handleParticipantsOnline)
	mux.HandleFunc("POST /api/register", app.handleRegister)
	app.mux = mux

	app.http = &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
		BaseContext: func(net.Listener) context.Context {
			return rootCtx
		},
	}
	return app
}

// Handler exposes the full HTTP surface; tests mount it on httptest.
func (a *App) Handler() http.Handler { return a.mux }

// Registry exposes the presence registry for the control plane and tests.
func (a *App) Registry() *registry.Registry { return a.reg }

func (a *App) Run() error {
	go func() {
		a.logger.Info("relay listening", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server failed", slog.Any("error", err))
		}
	}()

	<-a.ctx.Done()
	return a.Shutdown()
}

func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())
	connLogger := a.logger.With(
		slog.String("remoteAddr", reqMeta.IP),
		slog.String("participantID", reqMeta.Handshake.ParticipantID),
	)

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		connLogger.Error("failed to accept websocket connection", slog.Any("error", err))
		return
	}

	// Validate the handshake inside the socket so the client learns why it
	// was rejected. A reject is terminal: no registry entry, no presence
	// broadcast, no retry from the relay side.
	handshake := reqMeta.Handshake
	if err := handshake.Validate(); err != nil {
		connLogger.Warn("handshake rejected", slog.Any("error", err))
		a.rejectConnection(r.Context(), wsConn, err.Error())
		return
	}
	if handshake.DisplayName == "" {
		handshake.DisplayName = protocol.DefaultDisplayName
	}

	conn := transport.NewConnection(r.Context(), &a.wg, wsConn, transport.Config{
		ReadTimeout:  a.config.Transport.ReadTimeout,
		WriteTimeout: a.config.Transport.WriteTimeout,
	}, a.logger)

	rec := &registry.Record{
		ParticipantID: handshake.ParticipantID,
		OriginAddress: handshake.OriginAddress,
		DisplayName:   handshake.DisplayName,
		ConnectedAt:   time.Now().UTC(),
		Conn:          conn,
	}

	displaced, replaced := a.reg.Install(rec)
	if replaced {
		// The prior connection's reverse-index entry is already gone, so
		// closing it cannot remove the new record or announce an offline.
		connLogger.Info("displacing previous connection for participant")
		displaced.Close(errors.New("replaced by a newer connection"))
	}

	conn.SetOnMessage(a.eventRouter.HandleMessage)
	conn.SetOnClose(func(id uuid.UUID, err error) {
		removed, ok := a.reg.Remove(id)
		if !ok {
			return
		}
		connLogger.Info("participant disconnected", slog.String("connID", id.String()))
		a.broadcaster.ParticipantOffline(removed.ParticipantID)
	})

	conn.Run()

	confirm, err := protocol.MarshalFrame(protocol.FrameConnected, protocol.Connected{
		ParticipantID: handshake.ParticipantID,
		Message:       "connection established",
		ActiveCount:   a.reg.ActiveCount(),
	})
	if err == nil {
		conn.Send(confirm)
	}
	a.broadcaster.ParticipantOnline(rec)

	connLogger.Info("participant connection established")
	<-conn.Done()
}

// rejectConnection sends one error frame and closes the socket.
func (a *App) rejectConnection(ctx context.Context, wsConn *websocket.Conn, message string) {
	raw, err := protocol.MarshalFrame(protocol.FrameError, protocol.ErrorMessage{Message: message})
	if err == nil {
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = wsConn.Write(writeCtx, websocket.MessageText, raw)
	}
	wsConn.Close(websocket.StatusPolicyViolation, "handshake rejected")
}

// Shutdown broadcasts service_shutdown, stops accepting connections,
// closes every live socket and waits for pump goroutines up to the
// configured grace period before giving up on a clean drain.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down relay")
	a.broadcaster.Shutdown(a.config.Shutdown.Message)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Shutdown.GracePeriod)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown did not complete cleanly", slog.Any("error", err))
	}

	for _, rec := range a.reg.Snapshot("") {
		rec.Conn.Close(errors.New("relay shutdown"))
	}

	drained := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		a.logger.Info("relay shut down cleanly")
	case <-time.After(a.config.Shutdown.GracePeriod):
		a.logger.Warn("grace period elapsed with connections still draining, exiting anyway")
	}
	return nil
}
