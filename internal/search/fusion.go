package search

import (
	"math"
	"sort"
)

// Fuse combines semantic and keyword hits into per-review scores.
//
// Relevance per mode: semantic uses similarity only; keyword uses
// |rank| normalized by the result set's max |rank|; hybrid prefers the
// semantic similarity and falls back to the normalized keyword
// relevance; the two sources are never averaged.
//
// Trust is a multiplicative dampener, never a cutoff: arbitrarily low
// trust still yields a nonzero contribution. Reviews missing from the
// trust table or from meta (stale index entries) are dropped silently.
// Output is ordered by review ID.
func Fuse(semantic []SemanticHit, keyword []KeywordHit, trust map[string]float64, meta map[string]ReviewMeta, mode Mode) []FusedReviewScore {
	relevance := make(map[string]float64)

	if mode == ModeSemantic || mode == ModeHybrid {
		for _, h := range semantic {
			relevance[h.ReviewID] = h.Similarity
		}
	}

	if mode == ModeKeyword || mode == ModeHybrid {
		var maxRank float64
		for _, h := range keyword {
			if r := math.Abs(h.Rank); r > maxRank {
				maxRank = r
			}
		}
		if maxRank > 0 {
			for _, h := range keyword {
				if _, ok := relevance[h.ReviewID]; ok {
					// Semantic relevance wins for reviews in both sources.
					continue
				}
				relevance[h.ReviewID] = math.Abs(h.Rank) / maxRank
			}
		}
	}

	fused := make([]FusedReviewScore, 0, len(relevance))
	for reviewID, rel := range relevance {
		t, ok := trust[reviewID]
		if !ok {
			continue
		}
		m, ok := meta[reviewID]
		if !ok {
			continue
		}
		sentiment := Sentiment(m.Rating)
		fused = append(fused, FusedReviewScore{
			ReviewID:     reviewID,
			RestaurantID: m.RestaurantID,
			Relevance:    rel,
			Trust:        t,
			Sentiment:    sentiment,
			Score:        rel * t * sentiment,
			Text:         m.Text,
		})
	}

	sort.Slice(fused, func(i, j int) bool { return fused[i].ReviewID < fused[j].ReviewID })
	return fused
}
