package review

import (
	"context"
	"sort"
	"sync"
)

// Repository defines review data operations.
type Repository interface {
	// Upsert inserts a review or refreshes an existing one by ID, keeping
	// ingestion idempotent across stream reconnects.
	Upsert(ctx context.Context, r *Review) (*UpsertResult, error)

	// GetByID retrieves a review by ID. Returns ErrReviewNotFound if absent.
	GetByID(ctx context.Context, id string) (*Review, error)

	// ListAll returns every review in the corpus, ordered by ID.
	ListAll(ctx context.Context) ([]Review, error)

	// ListByIDs returns the subset of the given IDs that exist, keyed by ID.
	ListByIDs(ctx context.Context, ids []string) (map[string]Review, error)

	// ListByRestaurant returns a restaurant's reviews, newest first.
	ListByRestaurant(ctx context.Context, restaurantID string) ([]Review, error)
}

// InMemoryRepository is an in-memory implementation of Repository for testing.
type InMemoryRepository struct {
	mu      sync.RWMutex
	reviews map[string]Review
}

// NewInMemoryRepository creates an empty in-memory review repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{reviews: make(map[string]Review)}
}

// Upsert inserts or replaces the review by ID.
func (r *InMemoryRepository) Upsert(_ context.Context, rev *Review) (*UpsertResult, error) {
	if err := rev.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.reviews[rev.ID]
	r.reviews[rev.ID] = *rev
	return &UpsertResult{Inserted: !exists, ID: rev.ID}, nil
}

// GetByID retrieves a review by ID.
func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rev, ok := r.reviews[id]
	if !ok {
		return nil, ErrReviewNotFound
	}
	return &rev, nil
}

// ListAll returns all reviews ordered by ID.
func (r *InMemoryRepository) ListAll(_ context.Context) ([]Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Review, 0, len(r.reviews))
	for _, rev := range r.reviews {
		result = append(result, rev)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListByIDs returns the stored subset of the given IDs.
func (r *InMemoryRepository) ListByIDs(_ context.Context, ids []string) (map[string]Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]Review)
	for _, id := range ids {
		if rev, ok := r.reviews[id]; ok {
			result[id] = rev
		}
	}
	return result, nil
}

// ListByRestaurant returns the restaurant's reviews, newest first with
// ID as tie-break.
func (r *InMemoryRepository) ListByRestaurant(_ context.Context, restaurantID string) ([]Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Review
	for _, rev := range r.reviews {
		if rev.RestaurantID == restaurantID {
			result = append(result, rev)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DateCreated.Equal(result[j].DateCreated) {
			return result[i].DateCreated.After(result[j].DateCreated)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Count returns the number of stored reviews (for testing).
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.reviews)
}
