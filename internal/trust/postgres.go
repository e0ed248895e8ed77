package trust

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/tablerank/tablerank/internal/tracing"
)

// PostgresStore is the Postgres-backed implementation of Store.
//
// Replace rebuilds both tables inside a single transaction so downstream
// readers never observe a half-written run. Column names and semantics are
// preserved exactly for downstream compatibility.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a trust store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Replace drops and rebuilds review_trust and restaurant_stats atomically.
func (s *PostgresStore) Replace(ctx context.Context, reviewTrust []ReviewTrust, stats []RestaurantStats) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "review_trust", tracing.DBOperationExec)
	defer func() { endSpan(err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM review_trust`); err != nil {
		return fmt.Errorf("clear review_trust: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM restaurant_stats`); err != nil {
		return fmt.Errorf("clear restaurant_stats: %w", err)
	}

	trustStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO review_trust (review_id, base_trust, burst, recency)
		VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("prepare review_trust insert: %w", err)
	}
	defer func() { _ = trustStmt.Close() }()
	for _, t := range reviewTrust {
		if _, err := trustStmt.ExecContext(ctx, t.ReviewID, t.BaseTrust, t.Burst, t.Recency); err != nil {
			return fmt.Errorf("insert review_trust %s: %w", t.ReviewID, err)
		}
	}

	statsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO restaurant_stats (restaurant_id, weighted_rating, trusted_review_count, confidence_score)
		VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("prepare restaurant_stats insert: %w", err)
	}
	defer func() { _ = statsStmt.Close() }()
	for _, r := range stats {
		if _, err := statsStmt.ExecContext(ctx, r.RestaurantID, r.WeightedRating, r.TrustedReviewCount, r.ConfidenceScore); err != nil {
			return fmt.Errorf("insert restaurant_stats %s: %w", r.RestaurantID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

// TrustByReviewIDs returns composite trust for the given review IDs.
// IDs missing from the table are omitted from the result.
func (s *PostgresStore) TrustByReviewIDs(ctx context.Context, ids []string) (map[string]float64, error) {
	result := make(map[string]float64)
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT review_id, base_trust * burst * recency
		FROM review_trust
		WHERE review_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query review_trust: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		var composite float64
		if err := rows.Scan(&id, &composite); err != nil {
			return nil, fmt.Errorf("scan review_trust row: %w", err)
		}
		result[id] = composite
	}
	return result, rows.Err()
}

// StatsByRestaurantIDs returns stats rows for the given restaurant IDs.
// Restaurants without a stats row are omitted.
func (s *PostgresStore) StatsByRestaurantIDs(ctx context.Context, ids []string) (map[string]RestaurantStats, error) {
	result := make(map[string]RestaurantStats)
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT restaurant_id, weighted_rating, trusted_review_count, confidence_score
		FROM restaurant_stats
		WHERE restaurant_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query restaurant_stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var st RestaurantStats
		if err := rows.Scan(&st.RestaurantID, &st.WeightedRating, &st.TrustedReviewCount, &st.ConfidenceScore); err != nil {
			return nil, fmt.Errorf("scan restaurant_stats row: %w", err)
		}
		result[st.RestaurantID] = st
	}
	return result, rows.Err()
}
