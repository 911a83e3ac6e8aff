package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/halolight/officehub/internal/auth/app"
	"github.com/halolight/officehub/pkg/slogx"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slogx.Default("officehub").Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slogx.New(slogx.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "officehub",
	})
	slog.SetDefault(logger)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
