package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresRepository is the Postgres-backed implementation of Repository.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a review repository backed by the given database.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts a review or refreshes an existing one by ID.
func (r *PostgresRepository) Upsert(ctx context.Context, rev *Review) (*UpsertResult, error) {
	if err := rev.Validate(); err != nil {
		return nil, err
	}

	var inserted bool
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (id, restaurant_id, rating, text, date_created, reviewer_history_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			rating = EXCLUDED.rating,
			text = EXCLUDED.text,
			reviewer_history_count = EXCLUDED.reviewer_history_count
		RETURNING (xmax = 0)`,
		rev.ID, rev.RestaurantID, rev.Rating, rev.Text, rev.DateCreated, rev.ReviewerHistoryCount,
	).Scan(&inserted)
	if err != nil {
		return nil, fmt.Errorf("upsert review %s: %w", rev.ID, err)
	}
	return &UpsertResult{Inserted: inserted, ID: rev.ID}, nil
}

// GetByID retrieves a review by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Review, error) {
	var rev Review
	err := r.db.QueryRowContext(ctx, `
		SELECT id, restaurant_id, rating, text, date_created, reviewer_history_count
		FROM reviews WHERE id = $1`, id,
	).Scan(&rev.ID, &rev.RestaurantID, &rev.Rating, &rev.Text, &rev.DateCreated, &rev.ReviewerHistoryCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review %s: %w", id, err)
	}
	return &rev, nil
}

// ListAll returns every review ordered by ID.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, restaurant_id, rating, text, date_created, reviewer_history_count
		FROM reviews ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanReviews(rows)
}

// ListByIDs returns the stored subset of the given IDs keyed by ID.
func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []string) (map[string]Review, error) {
	result := make(map[string]Review)
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, restaurant_id, rating, text, date_created, reviewer_history_count
		FROM reviews WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list reviews by ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	reviews, err := scanReviews(rows)
	if err != nil {
		return nil, err
	}
	for _, rev := range reviews {
		result[rev.ID] = rev
	}
	return result, nil
}

// ListByRestaurant returns the restaurant's reviews, newest first with
// ID as tie-break.
func (r *PostgresRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, restaurant_id, rating, text, date_created, reviewer_history_count
		FROM reviews WHERE restaurant_id = $1
		ORDER BY date_created DESC, id`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for restaurant %s: %w", restaurantID, err)
	}
	defer func() { _ = rows.Close() }()
	return scanReviews(rows)
}

// ListTrusted returns reviews whose composite trust meets minTrust and
// whose text is non-empty, ordered by ID. Used by the embedding
// coordinator to select index candidates.
func (r *PostgresRepository) ListTrusted(ctx context.Context, minTrust float64) ([]Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.restaurant_id, r.rating, r.text, r.date_created, r.reviewer_history_count
		FROM reviews r
		JOIN review_trust rt ON r.id = rt.review_id
		WHERE r.text <> ''
		  AND rt.base_trust * rt.burst * rt.recency >= $1
		ORDER BY r.id`, minTrust)
	if err != nil {
		return nil, fmt.Errorf("list trusted reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanReviews(rows)
}

func scanReviews(rows *sql.Rows) ([]Review, error) {
	var result []Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.RestaurantID, &rev.Rating, &rev.Text, &rev.DateCreated, &rev.ReviewerHistoryCount); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		result = append(result, rev)
	}
	return result, rows.Err()
}
