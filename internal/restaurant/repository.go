package restaurant

import (
	"context"
	"sync"
	"time"
)

// Repository defines restaurant data operations.
type Repository interface {
	// Upsert inserts a restaurant or refreshes an existing one by ID.
	Upsert(ctx context.Context, r *Restaurant) error

	// GetByIDs returns the stored subset of the given IDs keyed by ID.
	GetByIDs(ctx context.Context, ids []string) (map[string]Restaurant, error)

	// FilterIDs returns the set of restaurant IDs matching the filter, or
	// nil when the filter is empty (meaning: no restriction). The open-now
	// predicate is evaluated against now.
	FilterIDs(ctx context.Context, f Filter, now time.Time) (map[string]bool, error)
}

// InMemoryRepository is an in-memory implementation of Repository for testing.
type InMemoryRepository struct {
	mu          sync.RWMutex
	restaurants map[string]Restaurant
}

// NewInMemoryRepository creates an empty in-memory restaurant repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{restaurants: make(map[string]Restaurant)}
}

// Upsert inserts or replaces the restaurant by ID.
func (r *InMemoryRepository) Upsert(_ context.Context, rest *Restaurant) error {
	if err := rest.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restaurants[rest.ID] = *rest
	return nil
}

// GetByIDs returns the stored subset of the given IDs.
func (r *InMemoryRepository) GetByIDs(_ context.Context, ids []string) (map[string]Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]Restaurant)
	for _, id := range ids {
		if rest, ok := r.restaurants[id]; ok {
			result[id] = rest
		}
	}
	return result, nil
}

// FilterIDs returns matching restaurant IDs, or nil for an empty filter.
func (r *InMemoryRepository) FilterIDs(_ context.Context, f Filter, now time.Time) (map[string]bool, error) {
	if f.Empty() {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]bool)
	for id, rest := range r.restaurants {
		if f.PriceMax > 0 && (rest.AvgPrice == 0 || rest.AvgPrice > f.PriceMax) {
			continue
		}
		if f.BBox != nil {
			p, ok := rest.Point()
			if !ok || !f.BBox.Contains(p) {
				continue
			}
		}
		if f.OpenNow && !rest.Schedule.OpenAt(now) {
			continue
		}
		result[id] = true
	}
	return result, nil
}
