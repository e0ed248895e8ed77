package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/tablerank/tablerank/internal/search"
)

// InMemoryIndex is an in-memory implementation of Index for testing,
// ranking by exact cosine similarity.
type InMemoryIndex struct {
	mu     sync.RWMutex
	points map[string]Point
}

// NewInMemoryIndex creates an empty in-memory index.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{points: make(map[string]Point)}
}

// ListIDs returns the review IDs present in the index.
func (idx *InMemoryIndex) ListIDs(_ context.Context) (map[string]bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make(map[string]bool, len(idx.points))
	for id := range idx.points {
		ids[id] = true
	}
	return ids, nil
}

// Upsert adds or replaces points keyed by review ID.
func (idx *InMemoryIndex) Upsert(_ context.Context, points []Point) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, p := range points {
		idx.points[p.ReviewID] = p
	}
	return nil
}

// Drop removes every point.
func (idx *InMemoryIndex) Drop(_ context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.points = make(map[string]Point)
	return nil
}

// Query ranks stored points by cosine similarity to the vector,
// discarding anything below MinSimilarity.
func (idx *InMemoryIndex) Query(_ context.Context, vector []float32, allowed map[string]bool, limit int) ([]search.SemanticHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var hits []search.SemanticHit
	for _, p := range idx.points {
		if allowed != nil && !allowed[p.RestaurantID] {
			continue
		}
		sim := cosineSimilarity(vector, p.Vector)
		if sim < MinSimilarity {
			continue
		}
		hits = append(hits, search.SemanticHit{
			ReviewID:     p.ReviewID,
			RestaurantID: p.RestaurantID,
			Similarity:   sim,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ReviewID < hits[j].ReviewID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
