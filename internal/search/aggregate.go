package search

import "sort"

// Aggregate groups fused review scores by restaurant.
//
// A restaurant's aggregate score is the sum over its matched reviews
// only, so it can go negative when low-rated matches dominate. Matched
// reviews are attached sorted by relevance descending, uncapped;
// callers truncate for display. Restaurants sort by aggregate score
// descending with restaurant ID as the deterministic tie-break.
func Aggregate(fused []FusedReviewScore) []RankedRestaurant {
	byRestaurant := make(map[string]*RankedRestaurant)
	for _, f := range fused {
		r, ok := byRestaurant[f.RestaurantID]
		if !ok {
			r = &RankedRestaurant{RestaurantID: f.RestaurantID}
			byRestaurant[f.RestaurantID] = r
		}
		r.AggregateScore += f.Score
		r.Reviews = append(r.Reviews, f)
	}

	ranked := make([]RankedRestaurant, 0, len(byRestaurant))
	for _, r := range byRestaurant {
		sort.Slice(r.Reviews, func(i, j int) bool {
			if r.Reviews[i].Relevance != r.Reviews[j].Relevance {
				return r.Reviews[i].Relevance > r.Reviews[j].Relevance
			}
			return r.Reviews[i].ReviewID < r.Reviews[j].ReviewID
		})
		ranked = append(ranked, *r)
	}

	sortRanked(ranked)
	return ranked
}

func sortRanked(ranked []RankedRestaurant) {
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AggregateScore != ranked[j].AggregateScore {
			return ranked[i].AggregateScore > ranked[j].AggregateScore
		}
		return ranked[i].RestaurantID < ranked[j].RestaurantID
	})
}
