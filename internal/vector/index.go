// Package vector provides the semantic retrieval oracle (a Qdrant
// collection of review embeddings) and the incremental coordinator
// that keeps it in sync with the trusted review set.
package vector

import (
	"context"

	"github.com/tablerank/tablerank/internal/search"
)

// MinSimilarity is the floor below which semantic matches are discarded.
const MinSimilarity = 0.7

// Point is one embedded review stored in the index.
type Point struct {
	ReviewID     string
	RestaurantID string
	Vector       []float32
}

// Index is a similarity index over review embeddings.
type Index interface {
	// ListIDs returns the review IDs currently present in the index.
	ListIDs(ctx context.Context) (map[string]bool, error)

	// Upsert adds or replaces the given points.
	Upsert(ctx context.Context, points []Point) error

	// Drop removes every point, leaving an empty index.
	Drop(ctx context.Context) error

	// Query returns reviews most similar to the vector, at or above
	// MinSimilarity, scoped to allowed restaurants when allowed is
	// non-nil, best first.
	Query(ctx context.Context, vector []float32, allowed map[string]bool, limit int) ([]search.SemanticHit, error)
}

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
