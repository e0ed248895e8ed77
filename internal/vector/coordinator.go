package vector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tablerank/tablerank/internal/review"
	"github.com/tablerank/tablerank/internal/trust"
)

// TrustedSource lists the reviews eligible for embedding: non-empty
// text with composite trust at or above the given minimum.
type TrustedSource interface {
	ListTrusted(ctx context.Context, minTrust float64) ([]review.Review, error)
}

// JobMetrics provides centralized background job metrics tracking.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// DefaultBatchSize is how many points an upsert batch carries.
const DefaultBatchSize = 100

// CoordinatorConfig configures the embedding coordinator job.
type CoordinatorConfig struct {
	// Logger for job activity.
	Logger *slog.Logger
	// Metrics for performance tracking.
	Metrics *Metrics
	// JobMetrics for centralized background job tracking.
	JobMetrics JobMetrics
	// MinTrust is the composite-trust floor for embedding eligibility.
	// Non-positive falls back to the trusted threshold.
	MinTrust float64
	// BatchSize is the upsert batch size. Non-positive falls back to
	// DefaultBatchSize.
	BatchSize int
}

// Coordinator keeps the vector index in sync with the trusted review
// set. Incremental runs embed only reviews not yet indexed, so
// re-indexing cost scales with new data rather than corpus size.
type Coordinator struct {
	logger     *slog.Logger
	metrics    *Metrics
	jobMetrics JobMetrics
	minTrust   float64
	batchSize  int
	source     TrustedSource
	embedder   Embedder
	index      Index
}

// RunResult summarizes one coordinator run.
type RunResult struct {
	// Planned is how many reviews needed embedding.
	Planned int
	// Embedded is how many were embedded and upserted.
	Embedded int
	// Failed is how many were skipped after embedding failures.
	Failed int
}

// NewCoordinator creates an embedding coordinator.
func NewCoordinator(cfg CoordinatorConfig, source TrustedSource, embedder Embedder, index Index) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	minTrust := cfg.MinTrust
	if minTrust <= 0 {
		minTrust = trust.TrustedThreshold
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Coordinator{
		logger:     logger,
		metrics:    cfg.Metrics,
		jobMetrics: cfg.JobMetrics,
		minTrust:   minTrust,
		batchSize:  batchSize,
		source:     source,
		embedder:   embedder,
		index:      index,
	}
}

// Plan returns the reviews needing embedding: the trusted set minus
// what the index already holds, ordered by review ID. The existing-ID
// set is re-read in full every run.
func (c *Coordinator) Plan(ctx context.Context) ([]review.Review, error) {
	trusted, err := c.source.ListTrusted(ctx, c.minTrust)
	if err != nil {
		return nil, fmt.Errorf("list trusted reviews: %w", err)
	}
	existing, err := c.index.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexed ids: %w", err)
	}

	var pending []review.Review
	for _, r := range trusted {
		if !existing[r.ID] {
			pending = append(pending, r)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

// Run executes one coordinator pass. With rebuild set, the index is
// dropped first so every trusted review is re-embedded.
//
// A single review's embedding failure is logged and skipped, never
// fatal; the index keeps whatever was already upserted. Running again
// with nothing new embeds nothing.
func (c *Coordinator) Run(ctx context.Context, rebuild bool) (*RunResult, error) {
	start := time.Now()
	result, err := c.run(ctx, rebuild)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "failure"
		if c.metrics != nil {
			c.metrics.IncRunErrors()
		}
		if c.jobMetrics != nil {
			c.jobMetrics.IncJobErrors("index_embed", "run_error")
		}
	}
	if c.metrics != nil {
		c.metrics.IncRunsTotal()
		c.metrics.ObserveRunDuration(duration)
	}
	if c.jobMetrics != nil {
		c.jobMetrics.IncJobsTotal("index_embed", status)
		c.jobMetrics.ObserveJobDuration("index_embed", duration)
	}
	return result, err
}

func (c *Coordinator) run(ctx context.Context, rebuild bool) (*RunResult, error) {
	if rebuild {
		c.logger.Info("rebuilding vector index from scratch")
		if err := c.index.Drop(ctx); err != nil {
			return nil, fmt.Errorf("drop index: %w", err)
		}
	}

	pending, err := c.Plan(ctx)
	if err != nil {
		return nil, err
	}
	result := &RunResult{Planned: len(pending)}
	if c.metrics != nil {
		c.metrics.SetLastRunPlanned(float64(len(pending)))
	}
	c.logger.Info("embedding plan computed", "pending", len(pending), "rebuild", rebuild)

	batch := make([]Point, 0, c.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.index.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}
		result.Embedded += len(batch)
		if c.metrics != nil {
			c.metrics.AddEmbedded(float64(len(batch)))
		}
		batch = batch[:0]
		return nil
	}

	for _, r := range pending {
		vec, err := c.embedder.Embed(ctx, r.Text)
		if err != nil {
			result.Failed++
			if c.metrics != nil {
				c.metrics.IncEmbedFailures()
			}
			c.logger.Warn("embedding failed, skipping review", "review_id", r.ID, "error", err)
			continue
		}
		batch = append(batch, Point{ReviewID: r.ID, RestaurantID: r.RestaurantID, Vector: vec})
		if len(batch) >= c.batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	c.logger.Info("embedding run completed",
		"planned", result.Planned,
		"embedded", result.Embedded,
		"failed", result.Failed)
	return result, nil
}
