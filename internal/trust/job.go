package trust

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// JobMetrics provides centralized background job metrics tracking.
// This interface allows the job to report to the centralized job metrics system.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// JobConfig configures the trust recompute batch job.
type JobConfig struct {
	// Logger for job activity.
	Logger *slog.Logger
	// Metrics for performance tracking.
	Metrics *Metrics
	// JobMetrics for centralized background job tracking.
	JobMetrics JobMetrics
}

// Job recomputes the review_trust and restaurant_stats tables from scratch.
// It is an offline batch job: run-to-completion, single writer, no
// overlapping runs against the same dataset.
type Job struct {
	config Config
	source ReviewSource
	store  Store
}

// Config is the resolved job configuration.
type Config struct {
	logger     *slog.Logger
	metrics    *Metrics
	jobMetrics JobMetrics
}

// NewJob creates a new trust recompute job.
func NewJob(cfg JobConfig, source ReviewSource, store Store) *Job {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{
		config: Config{logger: logger, metrics: cfg.Metrics, jobMetrics: cfg.JobMetrics},
		source: source,
		store:  store,
	}
}

// Run executes one full recompute: load all reviews, derive the reference
// date, recompute both tables, and replace them atomically.
//
// Determinism: identical raw input produces identical tables, because the
// reference date is the dataset's own most recent review date and all
// outputs are sorted by ID before persistence.
//
// A malformed review date is fatal to the run; no partial table is written.
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()
	err := j.run(ctx)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "failure"
		if j.config.metrics != nil {
			j.config.metrics.IncRunErrors()
		}
		if j.config.jobMetrics != nil {
			j.config.jobMetrics.IncJobErrors("trust_recompute", "run_error")
		}
	}
	if j.config.metrics != nil {
		j.config.metrics.IncRunsTotal()
		j.config.metrics.ObserveRunDuration(duration)
	}
	if j.config.jobMetrics != nil {
		j.config.jobMetrics.IncJobsTotal("trust_recompute", status)
		j.config.jobMetrics.ObserveJobDuration("trust_recompute", duration)
	}
	return err
}

func (j *Job) run(ctx context.Context) error {
	reviews, err := j.source.ListForTrust(ctx)
	if err != nil {
		return fmt.Errorf("load reviews: %w", err)
	}
	j.config.logger.Info("loaded reviews for trust recompute", "count", len(reviews))

	if len(reviews) == 0 {
		// An empty corpus still replaces both tables so stale rows from a
		// previous dataset cannot leak into query results.
		if err := j.store.Replace(ctx, nil, nil); err != nil {
			return fmt.Errorf("replace trust tables: %w", err)
		}
		j.config.logger.Info("trust recompute completed", "reviews", 0, "restaurants", 0)
		return nil
	}

	reference := ReferenceDate(reviews)
	j.config.logger.Info("derived reference date", "reference_date", reference.Format("2006-01-02"))

	reviewTrust, err := ComputeReviewTrust(reviews, reference)
	if err != nil {
		return fmt.Errorf("compute review trust: %w", err)
	}

	composite := make(map[string]float64, len(reviewTrust))
	for _, t := range reviewTrust {
		composite[t.ReviewID] = t.Composite()
	}
	rated := make([]RatedReview, 0, len(reviews))
	for _, r := range reviews {
		rated = append(rated, RatedReview{
			RestaurantID: r.RestaurantID,
			Rating:       r.Rating,
			Trust:        composite[r.ID],
		})
	}

	globalAvg := GlobalAverage(rated)
	stats := ComputeRestaurantStats(rated, globalAvg)

	if err := j.store.Replace(ctx, reviewTrust, stats); err != nil {
		return fmt.Errorf("replace trust tables: %w", err)
	}

	if j.config.metrics != nil {
		j.config.metrics.SetLastRunTimestamp(float64(time.Now().Unix()))
		j.config.metrics.SetLastRunReviewCount(float64(len(reviewTrust)))
		j.config.metrics.SetLastRunRestaurantCount(float64(len(stats)))
	}

	j.config.logger.Info("trust recompute completed",
		"reviews", len(reviewTrust),
		"restaurants", len(stats),
		"global_avg", globalAvg)
	return nil
}
