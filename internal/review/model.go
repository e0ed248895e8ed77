// Package review provides the raw review record and its repositories.
// Reviews are immutable once ingested; the external collector creates them
// and the trust scorer consumes them.
package review

import (
	"errors"
	"time"
)

// Common errors for review operations.
var (
	ErrReviewNotFound      = errors.New("review not found")
	ErrMissingID           = errors.New("review id is required")
	ErrMissingRestaurantID = errors.New("review restaurant_id is required")
	ErrInvalidRating       = errors.New("review rating must be between 1 and 5")
	ErrZeroDate            = errors.New("review date_created is required")
)

// Review is a raw crowd-sourced review as delivered by the collector.
type Review struct {
	ID                   string    `json:"id"`
	RestaurantID         string    `json:"restaurant_id"`
	Rating               int       `json:"rating"`
	Text                 string    `json:"text"`
	DateCreated          time.Time `json:"date_created"`
	ReviewerHistoryCount int       `json:"reviewer_history_count"`
}

// Validate checks the record at the ingestion boundary. Loosely-shaped
// upstream data must be rejected here, before it reaches storage.
func (r *Review) Validate() error {
	if r.ID == "" {
		return ErrMissingID
	}
	if r.RestaurantID == "" {
		return ErrMissingRestaurantID
	}
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	if r.DateCreated.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// UpsertResult tracks whether an upsert inserted a new record.
type UpsertResult struct {
	Inserted bool
	ID       string
}
