package keyword

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/tablerank/tablerank/internal/search"
)

// PostgresSearcher ranks reviews with Postgres full-text search
// (ts_rank_cd over a simple-dictionary tsvector).
type PostgresSearcher struct {
	db    *sql.DB
	limit int
}

// NewPostgresSearcher creates a keyword oracle over the given database.
// A non-positive limit falls back to DefaultLimit.
func NewPostgresSearcher(db *sql.DB, limit int) *PostgresSearcher {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &PostgresSearcher{db: db, limit: limit}
}

// QueryKeyword returns reviews matching any query term, ordered by rank
// descending. A query with no usable terms matches nothing.
func (s *PostgresSearcher) QueryKeyword(ctx context.Context, query string, allowed map[string]bool) ([]search.KeywordHit, error) {
	tsquery := DeriveQuery(query)
	if tsquery == "" {
		return nil, nil
	}

	var rows *sql.Rows
	var err error
	if allowed == nil {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, ts_rank_cd(to_tsvector('simple', text), query) AS rank
			FROM reviews, to_tsquery('simple', $1) query
			WHERE to_tsvector('simple', text) @@ query
			ORDER BY rank DESC, id
			LIMIT $2`, tsquery, s.limit)
	} else {
		ids := make([]string, 0, len(allowed))
		for id := range allowed {
			ids = append(ids, id)
		}
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, ts_rank_cd(to_tsvector('simple', text), query) AS rank
			FROM reviews, to_tsquery('simple', $1) query
			WHERE to_tsvector('simple', text) @@ query
			  AND restaurant_id = ANY($2)
			ORDER BY rank DESC, id
			LIMIT $3`, tsquery, pq.Array(ids), s.limit)
	}
	if err != nil {
		return nil, fmt.Errorf("keyword query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []search.KeywordHit
	for rows.Next() {
		var h search.KeywordHit
		if err := rows.Scan(&h.ReviewID, &h.Rank); err != nil {
			return nil, fmt.Errorf("scan keyword hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
