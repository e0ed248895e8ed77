// Package trust converts raw crowd-sourced reviews into per-review trust
// components and per-restaurant aggregates resistant to review-spam bursts
// and low-credibility authors.
package trust

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Trust component constants.
const (
	// RecencyDecayPerMonth is the linear decay applied per month of review age.
	RecencyDecayPerMonth = 0.02

	// RecencyFloor is the minimum recency weight regardless of age.
	RecencyFloor = 0.5

	// DaysPerMonth is the fixed month length used for recency arithmetic.
	DaysPerMonth = 30

	// TrustedThreshold is the minimum composite trust for a review to count
	// as "trusted" in restaurant aggregates and in the embedding index.
	TrustedThreshold = 0.3

	// BayesianPriorCount is the number of virtual reviews at the corpus
	// average blended into each restaurant's confidence score.
	BayesianPriorCount = 10
)

// burstTier maps a baseline multiple to its burst penalty.
type burstTier struct {
	multiple float64
	penalty  float64
}

// burstTiers is evaluated in order; the first matching tier wins.
// >10x baseline -> 0.1, >5x -> 0.3, >3x -> 0.5, otherwise 1.0.
var burstTiers = []burstTier{
	{10, 0.1},
	{5, 0.3},
	{3, 0.5},
}

// Validation errors.
var (
	ErrZeroReviewDate = errors.New("review has zero creation date")
	ErrInvalidRating  = errors.New("review rating must be between 1 and 5")
)

// Review is the slice of a raw review the trust scorer consumes.
type Review struct {
	ID                   string
	RestaurantID         string
	Rating               int
	DateCreated          time.Time
	ReviewerHistoryCount int
}

// ReviewTrust holds the per-review trust components. One row per review,
// fully recomputed on every scorer run.
type ReviewTrust struct {
	ReviewID  string  `json:"review_id"`
	BaseTrust float64 `json:"base_trust"`
	Burst     float64 `json:"burst"`
	Recency   float64 `json:"recency"`
}

// Composite returns the combined trust weight base_trust * burst * recency.
// The result is always in (0, 1].
func (t ReviewTrust) Composite() float64 {
	return t.BaseTrust * t.Burst * t.Recency
}

// BaseTrust maps a reviewer's history length to a credibility step.
// 1 -> 0.1, 2-3 -> 0.3, 4-6 -> 0.5, 7-10 -> 0.7, 11+ -> 1.0.
// A missing or zero history count is treated as 1.
func BaseTrust(historyCount int) float64 {
	count := historyCount
	if count <= 0 {
		count = 1
	}
	switch {
	case count == 1:
		return 0.1
	case count <= 3:
		return 0.3
	case count <= 6:
		return 0.5
	case count <= 10:
		return 0.7
	default:
		return 1.0
	}
}

// Recency returns the linear time-decay weight for a review relative to the
// dataset's reference date, floored at RecencyFloor. Months are measured as
// elapsed days / 30.
func Recency(date, reference time.Time) float64 {
	monthsOld := reference.Sub(date).Hours() / 24 / DaysPerMonth
	weight := 1.0 - RecencyDecayPerMonth*monthsOld
	if weight < RecencyFloor {
		return RecencyFloor
	}
	return weight
}

// Burst returns the same-day volume penalty for a review, given the number
// of reviews its restaurant received that calendar day and the restaurant's
// daily baseline.
func Burst(dayCount int, baseline float64) float64 {
	for _, tier := range burstTiers {
		if float64(dayCount) > tier.multiple*baseline {
			return tier.penalty
		}
	}
	return 1.0
}

// ReferenceDate returns the most recent creation date across all reviews.
// The reference date is derived from the dataset, never from the wall
// clock, so reruns on identical input are byte-identical.
func ReferenceDate(reviews []Review) time.Time {
	var ref time.Time
	for _, r := range reviews {
		if r.DateCreated.After(ref) {
			ref = r.DateCreated
		}
	}
	return ref
}

// ComputeReviewTrust computes trust components for every review. Results
// are ordered by review ID for deterministic persistence.
//
// A review with a zero creation date aborts the whole computation: the
// batch prefers correctness over availability, and the caller must not
// write a partial table.
func ComputeReviewTrust(reviews []Review, reference time.Time) ([]ReviewTrust, error) {
	byRestaurant := make(map[string][]Review)
	for _, r := range reviews {
		if r.DateCreated.IsZero() {
			return nil, fmt.Errorf("review %s: %w", r.ID, ErrZeroReviewDate)
		}
		byRestaurant[r.RestaurantID] = append(byRestaurant[r.RestaurantID], r)
	}

	// Burst score per review, derived from each restaurant's daily volume
	// versus its baseline rate.
	burstScores := make(map[string]float64, len(reviews))
	for _, rest := range byRestaurant {
		if len(rest) < 2 {
			// Insufficient data to establish a baseline.
			for _, r := range rest {
				burstScores[r.ID] = 1.0
			}
			continue
		}

		minDate, maxDate := rest[0].DateCreated, rest[0].DateCreated
		for _, r := range rest[1:] {
			if r.DateCreated.Before(minDate) {
				minDate = r.DateCreated
			}
			if r.DateCreated.After(maxDate) {
				maxDate = r.DateCreated
			}
		}
		spanDays := int(maxDate.Sub(minDate).Hours()/24) + 1
		baseline := float64(len(rest)) / float64(spanDays)
		if baseline < 1.0 {
			baseline = 1.0
		}

		dailyCounts := make(map[string]int)
		for _, r := range rest {
			dailyCounts[dayKey(r.DateCreated)]++
		}
		for _, r := range rest {
			burstScores[r.ID] = Burst(dailyCounts[dayKey(r.DateCreated)], baseline)
		}
	}

	result := make([]ReviewTrust, 0, len(reviews))
	for _, r := range reviews {
		result = append(result, ReviewTrust{
			ReviewID:  r.ID,
			BaseTrust: BaseTrust(r.ReviewerHistoryCount),
			Burst:     burstScores[r.ID],
			Recency:   Recency(r.DateCreated, reference),
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ReviewID < result[j].ReviewID })
	return result, nil
}

// dayKey buckets a timestamp into its UTC calendar date for burst counting.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
