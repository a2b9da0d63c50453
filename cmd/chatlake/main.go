package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chatlake/chatlake/internal/api"
	"github.com/chatlake/chatlake/internal/blob"
	"github.com/chatlake/chatlake/internal/bronze"
	"github.com/chatlake/chatlake/internal/bus"
	"github.com/chatlake/chatlake/internal/config"
	"github.com/chatlake/chatlake/internal/engine"
	"github.com/chatlake/chatlake/internal/executor"
	"github.com/chatlake/chatlake/internal/ingest"
	"github.com/chatlake/chatlake/internal/silver"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("chatlake starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Object store (bronze layer)
	blobs, err := newBlobStore(cfg)
	if err != nil {
		slog.Error("failed to open object store", "backend", cfg.BlobBackend, "error", err)
		os.Exit(1)
	}
	slog.Info("object store ready", "backend", cfg.BlobBackend)

	// NATS
	events, err := bus.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer events.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Silver store (Postgres)
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	store, err := silver.New(ctx, cfg.DatabaseURL, events, slog.Default())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected")

	// Ingestion pipeline
	archiver := bronze.New(blobs, slog.Default())
	proc := ingest.New(blobs, store, archiver, slog.Default())

	if err := events.Subscribe(bus.SubjectRawStored, proc.HandleRawStored); err != nil {
		slog.Error("failed to subscribe to raw-stored events", "error", err)
		os.Exit(1)
	}
	if err := events.Subscribe(bus.SubjectIngestRun, proc.HandleIngestRun); err != nil {
		slog.Error("failed to subscribe to ingest triggers", "error", err)
		os.Exit(1)
	}

	if cfg.IngestOnStart {
		go func() {
			if _, err := proc.RunSilver(ctx); err != nil {
				slog.Error("startup ingestion failed", "error", err)
			}
		}()
	}

	// Query path
	eng := engine.NewPG(store.Pool(), slog.Default())
	exec := executor.New(eng, cfg.PollInterval, cfg.MaxPolls, slog.Default())

	// HTTP API
	srv := api.NewServer(cfg.Port, exec, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("chatlake ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("chatlake stopped")
}

func newBlobStore(cfg config.Config) (blob.Store, error) {
	if cfg.BlobBackend == "s3" {
		return blob.NewS3(cfg.AWSRegion, cfg.BlobBucket)
	}
	return blob.NewFS(cfg.BlobRoot)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
