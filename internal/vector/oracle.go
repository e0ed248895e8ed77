package vector

import (
	"context"
	"fmt"

	"github.com/tablerank/tablerank/internal/search"
)

// DefaultQueryLimit caps semantic hits per query.
const DefaultQueryLimit = 50

// Oracle adapts an Embedder plus an Index into the query path's
// semantic retrieval interface.
type Oracle struct {
	embedder Embedder
	index    Index
	limit    int
}

// NewOracle creates a semantic oracle. A non-positive limit falls back
// to DefaultQueryLimit.
func NewOracle(embedder Embedder, index Index, limit int) *Oracle {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	return &Oracle{embedder: embedder, index: index, limit: limit}
}

// QuerySimilar embeds the query and returns matching reviews at or
// above the similarity floor.
func (o *Oracle) QuerySimilar(ctx context.Context, query string, allowed map[string]bool) ([]search.SemanticHit, error) {
	vec, err := o.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return o.index.Query(ctx, vec, allowed, o.limit)
}
