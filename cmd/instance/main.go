// Command instance runs one participant's local planner node: it serves
// the instance's own items over HTTP, connects outbound to the
// collaboration relay and keeps local copies of items shared with it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"github.com/Guarrdon/portfolioplanner-sub001/pkg/client"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/collab"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/logging"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/protocol"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/store"
)

type Config struct {
	BrokerURL     string `env:"BROKER_URL,required=true"`
	ParticipantID string `env:"PARTICIPANT_ID,required=true"`
	OriginAddress string `env:"ORIGIN_ADDRESS,required=true"`
	DisplayName   string `env:"DISPLAY_NAME"`
	ListenAddr    string `env:"LISTEN_ADDR,default=:8080"`
	BadgerPath    string `env:"BADGER_FILEPATH,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
	// ShareToken, when set, is attached to outbound share references and
	// presented when pulling items from other origins.
	ShareToken string `env:"SHARE_TOKEN"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the instance together and blocks until a shutdown signal, so
// deferred cleanup always executes on the way out.
func run() error {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logging.New(config.LogLevel)

	db, err := store.Open(config.BadgerPath, log)
	if err != nil {
		return fmt.Errorf("open instance store: %w", err)
	}
	defer func() {
		log.Info("closing instance store")
		_ = db.Close()
	}()

	items := store.NewItemStore(db, log)
	shared := store.NewSharedStore(db, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relay := client.New(client.Config{
		BrokerURL:     config.BrokerURL,
		ParticipantID: config.ParticipantID,
		OriginAddress: config.OriginAddress,
		DisplayName:   config.DisplayName,
		AuthToken:     config.ShareToken,
		PingInterval:  30 * time.Second,
	}, log)

	svc := collab.NewService(
		config.ParticipantID, config.OriginAddress, config.ShareToken,
		items, shared,
		relay, client.NewFetcher(30*time.Second, log), nil, log,
	)
	bindHandlers(ctx, relay, svc, log)

	// The relay being down never blocks the instance: local routes keep
	// working, only collaboration events are lost.
	if err := relay.Connect(ctx); err != nil {
		log.Warn("relay unreachable at startup, running degraded", "error", err)
	} else {
		defer relay.Disconnect()
	}

	api := newAPI(config.ParticipantID, items, shared, svc, log)
	return api.serve(ctx, config.ListenAddr)
}

func bindHandlers(ctx context.Context, relay *client.Client, svc *collab.Service, log *slog.Logger) {
	handle := func(name string, fn func(context.Context, protocol.Envelope) error) client.Handler {
		return func(env protocol.Envelope) {
			if err := fn(ctx, env); err != nil {
				log.Warn("inbound event failed", "event", name, "from", env.FromParticipant, "error", err)
			}
		}
	}
	relay.Subscribe(protocol.EventItemShared, handle("item_shared", svc.HandleItemShared))
	relay.Subscribe(protocol.EventCommentAdded, handle("comment_added", svc.HandleCommentAdded))
	relay.Subscribe(protocol.EventItemUpdated, handle("item_updated", svc.HandleItemUpdated))
	relay.Subscribe(protocol.EventShareRevoked, handle("share_revoked", svc.HandleShareRevoked))
}
