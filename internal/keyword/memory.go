package keyword

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tablerank/tablerank/internal/search"
)

type memoryDoc struct {
	reviewID     string
	restaurantID string
	terms        []string
}

// InMemorySearcher is an in-memory keyword oracle for testing. Rank is
// the count of query terms occurring in the review text.
type InMemorySearcher struct {
	mu    sync.RWMutex
	docs  map[string]memoryDoc
	limit int
}

// NewInMemorySearcher creates an empty in-memory keyword oracle.
func NewInMemorySearcher() *InMemorySearcher {
	return &InMemorySearcher{docs: make(map[string]memoryDoc), limit: DefaultLimit}
}

// Index adds or replaces a review document.
func (s *InMemorySearcher) Index(reviewID, restaurantID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[reviewID] = memoryDoc{
		reviewID:     reviewID,
		restaurantID: restaurantID,
		terms:        Terms(text),
	}
}

// QueryKeyword returns matching reviews ordered by rank descending,
// review ID ascending on ties.
func (s *InMemorySearcher) QueryKeyword(_ context.Context, query string, allowed map[string]bool) ([]search.KeywordHit, error) {
	queryTerms := Terms(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []search.KeywordHit
	for _, doc := range s.docs {
		if allowed != nil && !allowed[doc.restaurantID] {
			continue
		}
		var rank float64
		for _, qt := range queryTerms {
			for _, dt := range doc.terms {
				if strings.HasPrefix(dt, qt) {
					rank++
				}
			}
		}
		if rank > 0 {
			hits = append(hits, search.KeywordHit{ReviewID: doc.reviewID, Rank: rank})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Rank != hits[j].Rank {
			return hits[i].Rank > hits[j].Rank
		}
		return hits[i].ReviewID < hits[j].ReviewID
	})
	if len(hits) > s.limit {
		hits = hits[:s.limit]
	}
	return hits, nil
}
