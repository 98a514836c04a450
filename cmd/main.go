package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/PocketPalCo/voicecart/config"
	"github.com/PocketPalCo/voicecart/internal/infra/postgres"
	"github.com/PocketPalCo/voicecart/internal/infra/server"
	"github.com/PocketPalCo/voicecart/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	mainContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.SetDefault(logger.NewLogger(cfg))

	var loggerProvider interface{ Shutdown(context.Context) error }
	if cfg.LogExport {
		observableLogger, provider, err := logger.NewObservableLogger(mainContext, cfg, version)
		if err != nil {
			slog.Error("failed to initialize observable logger", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slog.SetDefault(observableLogger)
		loggerProvider = provider
	}

	var conn *pgxpool.Pool
	if strings.EqualFold(cfg.CatalogSource, "postgres") {
		conn, err = postgres.Init(mainContext, cfg)
		if err != nil {
			slog.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	srv, err := server.New(mainContext, &cfg, conn, loggerProvider)
	if err != nil {
		slog.Error("failed to initialize server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Starting voicecart",
		slog.String("version", version),
		slog.String("environment", cfg.Environment),
		slog.String("feed", cfg.FeedProvider),
		slog.String("archive", cfg.ArchiveProvider))

	srv.Start()

	<-mainContext.Done()
	srv.Shutdown()
}
