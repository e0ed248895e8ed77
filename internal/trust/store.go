package trust

import (
	"context"
	"sync"
)

// ReviewSource provides the raw reviews the scorer consumes.
type ReviewSource interface {
	// ListForTrust returns every review in the corpus.
	ListForTrust(ctx context.Context) ([]Review, error)
}

// Store persists computed trust artifacts.
type Store interface {
	// Replace atomically drops and rebuilds both the review_trust and
	// restaurant_stats tables. Either both tables reflect the new run or
	// neither does; a failed run must never leave a partial write.
	Replace(ctx context.Context, reviewTrust []ReviewTrust, stats []RestaurantStats) error

	// TrustByReviewIDs returns the composite trust for each of the given
	// review IDs. IDs absent from the trust table are omitted from the
	// result, not an error.
	TrustByReviewIDs(ctx context.Context, ids []string) (map[string]float64, error)

	// StatsByRestaurantIDs returns stats rows for the given restaurants.
	// Restaurants without a stats row are omitted.
	StatsByRestaurantIDs(ctx context.Context, ids []string) (map[string]RestaurantStats, error)
}

// InMemoryStore is an in-memory implementation of Store for testing.
type InMemoryStore struct {
	mu          sync.RWMutex
	reviewTrust map[string]ReviewTrust
	stats       map[string]RestaurantStats
	replaces    int
}

// NewInMemoryStore creates a new in-memory trust store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		reviewTrust: make(map[string]ReviewTrust),
		stats:       make(map[string]RestaurantStats),
	}
}

// Replace atomically swaps both tables.
func (s *InMemoryStore) Replace(_ context.Context, reviewTrust []ReviewTrust, stats []RestaurantStats) error {
	rt := make(map[string]ReviewTrust, len(reviewTrust))
	for _, t := range reviewTrust {
		rt[t.ReviewID] = t
	}
	st := make(map[string]RestaurantStats, len(stats))
	for _, r := range stats {
		st[r.RestaurantID] = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviewTrust = rt
	s.stats = st
	s.replaces++
	return nil
}

// TrustByReviewIDs returns composite trust for the known subset of ids.
func (s *InMemoryStore) TrustByReviewIDs(_ context.Context, ids []string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]float64)
	for _, id := range ids {
		if t, ok := s.reviewTrust[id]; ok {
			result[id] = t.Composite()
		}
	}
	return result, nil
}

// StatsByRestaurantIDs returns stats for the known subset of ids.
func (s *InMemoryStore) StatsByRestaurantIDs(_ context.Context, ids []string) (map[string]RestaurantStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]RestaurantStats)
	for _, id := range ids {
		if st, ok := s.stats[id]; ok {
			result[id] = st
		}
	}
	return result, nil
}

// ReviewTrustRows returns all stored trust rows keyed by review ID (for testing).
func (s *InMemoryStore) ReviewTrustRows() map[string]ReviewTrust {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]ReviewTrust, len(s.reviewTrust))
	for k, v := range s.reviewTrust {
		result[k] = v
	}
	return result
}

// StatsRows returns all stored stats rows keyed by restaurant ID (for testing).
func (s *InMemoryStore) StatsRows() map[string]RestaurantStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]RestaurantStats, len(s.stats))
	for k, v := range s.stats {
		result[k] = v
	}
	return result
}

// ReplaceCount returns how many times Replace has been called (for testing).
func (s *InMemoryStore) ReplaceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.replaces
}

// InMemoryReviewSource is an in-memory implementation of ReviewSource for testing.
type InMemoryReviewSource struct {
	mu      sync.RWMutex
	reviews []Review
}

// NewInMemoryReviewSource creates a review source seeded with the given reviews.
func NewInMemoryReviewSource(reviews ...Review) *InMemoryReviewSource {
	return &InMemoryReviewSource{reviews: reviews}
}

// ListForTrust returns a copy of the seeded reviews.
func (s *InMemoryReviewSource) ListForTrust(_ context.Context) ([]Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Review, len(s.reviews))
	copy(result, s.reviews)
	return result, nil
}

// Add appends reviews to the source.
func (s *InMemoryReviewSource) Add(reviews ...Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, reviews...)
}
