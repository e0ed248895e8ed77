// Package main is the entry point for the offline indexing jobs: the
// trust recompute and the embedding coordinator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/tablerank/tablerank/internal/config"
	"github.com/tablerank/tablerank/internal/db"
	"github.com/tablerank/tablerank/internal/jobs"
	"github.com/tablerank/tablerank/internal/middleware"
	"github.com/tablerank/tablerank/internal/review"
	"github.com/tablerank/tablerank/internal/trust"
	"github.com/tablerank/tablerank/internal/vector"
)

// reviewSource adapts the review repository to the trust scorer's input.
type reviewSource struct {
	repo *review.PostgresRepository
}

func (s *reviewSource) ListForTrust(ctx context.Context) ([]trust.Review, error) {
	reviews, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]trust.Review, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, trust.Review{
			ID:                   r.ID,
			RestaurantID:         r.RestaurantID,
			Rating:               r.Rating,
			DateCreated:          r.DateCreated,
			ReviewerHistoryCount: r.ReviewerHistoryCount,
		})
	}
	return out, nil
}

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	job := flag.String("job", "all", "job to run: trust, embed, or all")
	rebuild := flag.Bool("rebuild", false, "drop and rebuild the vector index before embedding")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("TableRank Indexer")
		fmt.Println()
		fmt.Println("Usage: indexer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	runTrust := *job == "trust" || *job == "all"
	runEmbed := *job == "embed" || *job == "all"
	if !runTrust && !runEmbed {
		fmt.Fprintf(os.Stderr, "unknown job %q: expected trust, embed, or all\n", *job)
		os.Exit(1)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx := context.Background()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	reviews := review.NewPostgresRepository(conn)
	jobMetrics := jobs.NewMetrics()

	if runTrust {
		trustJob := trust.NewJob(trust.JobConfig{
			Logger:     logger,
			Metrics:    trust.NewMetrics(),
			JobMetrics: jobMetrics,
		}, &reviewSource{repo: reviews}, trust.NewPostgresStore(conn))

		if err := trustJob.Run(ctx); err != nil {
			logger.Error("trust recompute failed", "error", err)
			os.Exit(1)
		}
	}

	if runEmbed {
		qdrantConn, err := grpc.NewClient(cfg.QdrantAddr,
			grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			logger.Error("failed to create qdrant connection", "error", err)
			os.Exit(1)
		}
		defer func() { _ = qdrantConn.Close() }()

		vecIndex := vector.NewQdrantIndex(qdrantConn, cfg.QdrantCollection, uint64(cfg.EmbedDimension))
		if err := vecIndex.EnsureCollection(ctx); err != nil {
			logger.Error("failed to ensure qdrant collection", "error", err)
			os.Exit(1)
		}

		embedder, err := vector.NewOllamaEmbedder(cfg.EmbedderURL, cfg.EmbedModel)
		if err != nil {
			logger.Error("failed to create embedder", "error", err)
			os.Exit(1)
		}

		coordinator := vector.NewCoordinator(vector.CoordinatorConfig{
			Logger:     logger,
			Metrics:    vector.NewMetrics(),
			JobMetrics: jobMetrics,
			MinTrust:   cfg.MinTrust,
		}, reviews, embedder, vecIndex)

		result, err := coordinator.Run(ctx, *rebuild)
		if err != nil {
			logger.Error("embedding run failed", "error", err)
			os.Exit(1)
		}
		logger.Info("embedding run finished",
			"planned", result.Planned,
			"embedded", result.Embedded,
			"failed", result.Failed)
	}
}
