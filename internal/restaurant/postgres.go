package restaurant

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// PostgresRepository is the Postgres-backed implementation of Repository.
// Dynamic filter queries are built with squirrel so optional predicates
// compose without string assembly.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

// NewPostgresRepository creates a restaurant repository backed by the given database.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Upsert inserts a restaurant or refreshes an existing one by ID.
func (r *PostgresRepository) Upsert(ctx context.Context, rest *Restaurant) error {
	if err := rest.Validate(); err != nil {
		return err
	}

	scheduleJSON, err := json.Marshal(rest.Schedule)
	if err != nil {
		return fmt.Errorf("marshal schedule for %s: %w", rest.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO restaurants (id, name, address, lat, lon, category, cuisine, avg_price, source_rating, reviews_count, schedule)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			category = EXCLUDED.category,
			cuisine = EXCLUDED.cuisine,
			avg_price = EXCLUDED.avg_price,
			source_rating = EXCLUDED.source_rating,
			reviews_count = EXCLUDED.reviews_count,
			schedule = EXCLUDED.schedule`,
		rest.ID, rest.Name, rest.Address, rest.Lat, rest.Lon, rest.Category,
		pq.Array(rest.Cuisine), rest.AvgPrice, rest.SourceRating, rest.ReviewsCount, scheduleJSON)
	if err != nil {
		return fmt.Errorf("upsert restaurant %s: %w", rest.ID, err)
	}
	return nil
}

// GetByIDs returns the stored subset of the given IDs keyed by ID.
func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []string) (map[string]Restaurant, error) {
	result := make(map[string]Restaurant)
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, address, lat, lon, category, cuisine, avg_price, source_rating, reviews_count, schedule
		FROM restaurants WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get restaurants by ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		result[rest.ID] = rest
	}
	return result, rows.Err()
}

// FilterIDs returns matching restaurant IDs, or nil for an empty filter.
// Price and bounding-box predicates run in SQL; the open-now predicate is
// evaluated in Go against the decoded schedule.
func (r *PostgresRepository) FilterIDs(ctx context.Context, f Filter, now time.Time) (map[string]bool, error) {
	if f.Empty() {
		return nil, nil
	}

	q := r.builder.Select("id", "schedule").From("restaurants")
	if f.PriceMax > 0 {
		q = q.Where(sq.And{sq.Gt{"avg_price": 0}, sq.LtOrEq{"avg_price": f.PriceMax}})
	}
	if f.BBox != nil {
		q = q.Where(sq.And{
			sq.GtOrEq{"lat": f.BBox.MinLat},
			sq.LtOrEq{"lat": f.BBox.MaxLat},
			sq.GtOrEq{"lon": f.BBox.MinLon},
			sq.LtOrEq{"lon": f.BBox.MaxLon},
		})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build filter query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter restaurants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]bool)
	for rows.Next() {
		var id string
		var rawSchedule []byte
		if err := rows.Scan(&id, &rawSchedule); err != nil {
			return nil, fmt.Errorf("scan filter row: %w", err)
		}
		if f.OpenNow && !ParseSchedule(rawSchedule).OpenAt(now) {
			continue
		}
		result[id] = true
	}
	return result, rows.Err()
}

func scanRestaurant(rows *sql.Rows) (Restaurant, error) {
	var rest Restaurant
	var cuisine pq.StringArray
	var rawSchedule []byte
	if err := rows.Scan(&rest.ID, &rest.Name, &rest.Address, &rest.Lat, &rest.Lon,
		&rest.Category, &cuisine, &rest.AvgPrice, &rest.SourceRating, &rest.ReviewsCount, &rawSchedule); err != nil {
		return Restaurant{}, fmt.Errorf("scan restaurant row: %w", err)
	}
	rest.Cuisine = cuisine
	rest.Schedule = ParseSchedule(rawSchedule)
	return rest, nil
}
