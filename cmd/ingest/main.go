// Package main is the entry point for the stream ingest worker. It
// consumes the collector's WebSocket event stream and applies review
// and restaurant upserts to storage.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tablerank/tablerank/internal/config"
	"github.com/tablerank/tablerank/internal/db"
	"github.com/tablerank/tablerank/internal/ingest"
	"github.com/tablerank/tablerank/internal/middleware"
	"github.com/tablerank/tablerank/internal/restaurant"
	"github.com/tablerank/tablerank/internal/review"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("TableRank Ingest Worker")
		fmt.Println()
		fmt.Println("Usage: ingest [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}
	if cfg.IngestStreamURL == "" {
		fmt.Fprintln(os.Stderr, "config: TABLERANK_INGEST_STREAM_URL is required for the ingest worker")
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	streamCfg := ingest.DefaultConfig(cfg.IngestStreamURL)
	handler := ingest.NewHandler(ingest.HandlerConfig{
		Logger:            logger,
		Metrics:           ingest.NewMetrics(),
		Workers:           streamCfg.Workers,
		MaxEntityAttempts: streamCfg.MaxEntityAttempts,
	}, review.NewPostgresRepository(conn), restaurant.NewPostgresRepository(conn))
	handler.Start(ctx)

	client, err := ingest.NewClient(streamCfg, handler.HandleMessage, logger)
	if err != nil {
		logger.Error("failed to create stream client", "error", err)
		os.Exit(1)
	}

	logger.Info("starting ingest worker", "url", cfg.IngestStreamURL)
	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stream consumer stopped", "error", err)
		handler.Close()
		os.Exit(1)
	}

	logger.Info("shutting down ingest worker...")
	handler.Close()
	logger.Info("ingest worker stopped")
}
