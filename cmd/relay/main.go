package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Guarrdon/portfolioplanner-sub001/internal/server"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/config"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/logging"
)

func main() {
	bootLogger := logging.New("info")

	cfg, err := config.Load(bootLogger, "config")
	if err != nil {
		bootLogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := server.NewApp(logger, ctx, cfg)
	if err := app.Run(); err != nil {
		logger.Error("relay run failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("relay shut down")
}
