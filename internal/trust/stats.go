package trust

import "sort"

// RestaurantStats holds the per-restaurant aggregates derived from review
// trust. A restaurant with zero reviews has no stats row (sparse, not
// zero-valued).
type RestaurantStats struct {
	RestaurantID       string  `json:"restaurant_id"`
	WeightedRating     float64 `json:"weighted_rating"`
	TrustedReviewCount int     `json:"trusted_review_count"`
	ConfidenceScore    float64 `json:"confidence_score"`
}

// RatedReview pairs a review's rating with its composite trust for
// aggregate computation.
type RatedReview struct {
	RestaurantID string
	Rating       int
	Trust        float64
}

// GlobalAverage returns the trust-weighted mean rating across the entire
// corpus, used as the Bayesian prior. Returns 0 if total trust is zero.
func GlobalAverage(reviews []RatedReview) float64 {
	var sumWeighted, sumTrust float64
	for _, r := range reviews {
		sumWeighted += float64(r.Rating) * r.Trust
		sumTrust += r.Trust
	}
	if sumTrust == 0 {
		return 0
	}
	return sumWeighted / sumTrust
}

// ComputeRestaurantStats aggregates reviews by restaurant. All reviews
// participate in the weighted rating, not only trusted ones; trust acts as
// the weight. The confidence score shrinks the weighted rating toward the
// corpus average with an effective prior of BayesianPriorCount virtual
// reviews: it converges to the restaurant's own rating as the trusted
// count grows and to the corpus average as it shrinks to zero.
//
// Results are ordered by restaurant ID for deterministic persistence.
func ComputeRestaurantStats(reviews []RatedReview, globalAvg float64) []RestaurantStats {
	type agg struct {
		sumWeighted  float64
		sumTrust     float64
		trustedCount int
	}
	byRestaurant := make(map[string]*agg)
	for _, r := range reviews {
		a := byRestaurant[r.RestaurantID]
		if a == nil {
			a = &agg{}
			byRestaurant[r.RestaurantID] = a
		}
		a.sumWeighted += float64(r.Rating) * r.Trust
		a.sumTrust += r.Trust
		if r.Trust >= TrustedThreshold {
			a.trustedCount++
		}
	}

	result := make([]RestaurantStats, 0, len(byRestaurant))
	for id, a := range byRestaurant {
		weighted := 0.0
		if a.sumTrust > 0 {
			weighted = a.sumWeighted / a.sumTrust
		}
		n := float64(a.trustedCount)
		confidence := (n*weighted + BayesianPriorCount*globalAvg) / (n + BayesianPriorCount)
		result = append(result, RestaurantStats{
			RestaurantID:       id,
			WeightedRating:     weighted,
			TrustedReviewCount: a.trustedCount,
			ConfidenceScore:    confidence,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RestaurantID < result[j].RestaurantID })
	return result
}
