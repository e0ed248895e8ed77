package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tablerank/tablerank/internal/restaurant"
	"github.com/tablerank/tablerank/internal/review"
)

// Handler applies stream events to storage through a bounded worker
// pool. Entities whose writes keep failing are marked failed and their
// later events skipped, so one broken record never blocks the stream.
type Handler struct {
	reviews     review.Repository
	restaurants restaurant.Repository
	logger      *slog.Logger
	metrics     *Metrics
	maxAttempts int

	mu       sync.Mutex
	attempts map[string]int
	failed   map[string]bool

	ctx    context.Context
	events chan *Event
	wg     sync.WaitGroup
}

// HandlerConfig carries the handler's dependencies and tuning.
type HandlerConfig struct {
	Logger  *slog.Logger
	Metrics *Metrics
	// Workers is the worker pool size. Non-positive falls back to
	// DefaultWorkers.
	Workers int
	// MaxEntityAttempts caps per-entity write failures. Non-positive
	// falls back to DefaultMaxEntityAttempts.
	MaxEntityAttempts int
}

// NewHandler creates a stream handler writing to the given repositories.
func NewHandler(cfg HandlerConfig, reviews review.Repository, restaurants restaurant.Repository) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	maxAttempts := cfg.MaxEntityAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxEntityAttempts
	}

	h := &Handler{
		reviews:     reviews,
		restaurants: restaurants,
		logger:      logger,
		metrics:     cfg.Metrics,
		maxAttempts: maxAttempts,
		attempts:    make(map[string]int),
		failed:      make(map[string]bool),
		events:      make(chan *Event, workers*2),
	}
	h.startWorkers(workers)
	return h
}

func (h *Handler) startWorkers(n int) {
	for i := 0; i < n; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for event := range h.events {
				h.process(event)
			}
		}()
	}
}

// Start binds the handler to a context used for enqueue cancellation.
func (h *Handler) Start(ctx context.Context) {
	h.ctx = ctx
}

// Close drains the queue and stops the workers.
func (h *Handler) Close() {
	close(h.events)
	h.wg.Wait()
}

// HandleMessage is the stream client callback. Decode failures are
// counted and dropped, not returned: a malformed frame should not
// force a reconnect.
func (h *Handler) HandleMessage(messageType int, payload []byte) error {
	event, err := DecodeEvent(messageType, payload)
	if err != nil {
		h.logger.Warn("dropping undecodable stream event", "error", err)
		if h.metrics != nil {
			h.metrics.IncDecodeFailures()
		}
		return nil
	}

	if h.ctx != nil {
		select {
		case h.events <- event:
		case <-h.ctx.Done():
			return h.ctx.Err()
		}
		return nil
	}
	h.events <- event
	return nil
}

func (h *Handler) process(event *Event) {
	entityID := event.EntityID()

	h.mu.Lock()
	skip := h.failed[entityID]
	h.mu.Unlock()
	if skip {
		if h.metrics != nil {
			h.metrics.IncEvents(event.Kind, "skipped")
		}
		return
	}

	var err error
	switch event.Kind {
	case KindReview:
		_, err = h.reviews.Upsert(context.Background(), event.Review)
	case KindRestaurant:
		err = h.restaurants.Upsert(context.Background(), event.Restaurant)
	}
	if err == nil {
		h.mu.Lock()
		delete(h.attempts, entityID)
		h.mu.Unlock()
		if h.metrics != nil {
			h.metrics.IncEvents(event.Kind, "applied")
		}
		return
	}

	h.mu.Lock()
	h.attempts[entityID]++
	attempts := h.attempts[entityID]
	exhausted := attempts >= h.maxAttempts
	if exhausted {
		h.failed[entityID] = true
	}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.IncEvents(event.Kind, "error")
	}
	if exhausted {
		h.logger.Error("entity exceeded failure cap, skipping future events",
			"entity", entityID, "attempts", attempts, "error", err)
		if h.metrics != nil {
			h.metrics.IncFailedEntities()
		}
		return
	}
	h.logger.Warn("event write failed", "entity", entityID, "attempts", attempts, "error", err)
}

// FailedEntities returns the entities currently marked failed (for testing).
func (h *Handler) FailedEntities() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.failed))
	for id := range h.failed {
		out = append(out, id)
	}
	return out
}
