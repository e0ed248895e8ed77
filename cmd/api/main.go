// Package main is the entry point for the ranking API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/tablerank/tablerank/internal/api"
	"github.com/tablerank/tablerank/internal/config"
	"github.com/tablerank/tablerank/internal/db"
	"github.com/tablerank/tablerank/internal/health"
	"github.com/tablerank/tablerank/internal/keyword"
	"github.com/tablerank/tablerank/internal/middleware"
	"github.com/tablerank/tablerank/internal/restaurant"
	"github.com/tablerank/tablerank/internal/review"
	"github.com/tablerank/tablerank/internal/search"
	"github.com/tablerank/tablerank/internal/tracing"
	"github.com/tablerank/tablerank/internal/trust"
	"github.com/tablerank/tablerank/internal/vector"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("TableRank API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
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

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	ctx := context.Background()

	tracingProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "tablerank-api",
		Enabled:      cfg.OTLPEndpoint != "",
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: 1.0,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracing shutdown failed", "error", err)
		}
	}()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	qdrantConn, err := grpc.NewClient(cfg.QdrantAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Error("failed to create qdrant connection", "error", err)
		os.Exit(1)
	}
	defer func() { _ = qdrantConn.Close() }()

	vecIndex := vector.NewQdrantIndex(qdrantConn, cfg.QdrantCollection, uint64(cfg.EmbedDimension))
	if err := vecIndex.EnsureCollection(ctx); err != nil {
		// Search degrades without the vector oracle; keyword retrieval
		// still answers, so this is not fatal.
		logger.Warn("failed to ensure qdrant collection", "error", err)
	}

	embedder, err := vector.NewOllamaEmbedder(cfg.EmbedderURL, cfg.EmbedModel)
	if err != nil {
		logger.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}

	restaurants := restaurant.NewPostgresRepository(conn)
	reviews := review.NewPostgresRepository(conn)
	trustStore := trust.NewPostgresStore(conn)

	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	searchMetrics := search.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register http metrics", "error", err)
		os.Exit(1)
	}
	if err := searchMetrics.Register(registry); err != nil {
		logger.Error("failed to register search metrics", "error", err)
		os.Exit(1)
	}

	searchService := search.NewService(
		search.ServiceConfig{Logger: logger, Metrics: searchMetrics},
		restaurants,
		reviews,
		trustStore,
		vector.NewOracle(embedder, vecIndex, vector.DefaultQueryLimit),
		keyword.NewPostgresSearcher(conn, keyword.DefaultLimit),
	)

	searchHandlers := api.NewSearchHandlers(searchService)
	restaurantHandlers := api.NewRestaurantHandlers(restaurants, reviews, trustStore)
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		DBChecker:     health.NewDBChecker(conn),
		VectorChecker: vecIndex,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/search", searchHandlers.Search)
	mux.HandleFunc("/restaurants/", restaurantHandlers.Restaurants)
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			api.WriteError(w, r.Context(), http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"tablerank-api","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Middleware chain: RequestID -> Logging -> HTTPMetrics -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		MaxAge:         600,
	})(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = otelhttp.NewHandler(handler, "tablerank-api")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
