// Package search implements the hybrid query path: fusing semantic and
// keyword retrieval signals with review trust, aggregating per-review
// scores into restaurant rankings, and applying geographic filtering
// and decay.
package search

import (
	"github.com/tablerank/tablerank/internal/geo"
)

// Mode selects which retrieval signals contribute relevance.
type Mode string

const (
	ModeSemantic Mode = "semantic"
	ModeKeyword  Mode = "keyword"
	ModeHybrid   Mode = "hybrid"
)

// ParseMode maps a request string onto a Mode, defaulting to hybrid.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeSemantic, ModeKeyword:
		return Mode(s)
	default:
		return ModeHybrid
	}
}

// SemanticHit is a vector-oracle match, already filtered to
// similarity >= MinSimilarity by the oracle adapter.
type SemanticHit struct {
	ReviewID     string
	RestaurantID string
	Similarity   float64
}

// KeywordHit is a full-text-oracle match with its raw rank.
type KeywordHit struct {
	ReviewID string
	Rank     float64
}

// ReviewMeta is the per-review context fusion needs beyond the hit
// itself: where the review belongs, its star rating, and display text.
type ReviewMeta struct {
	RestaurantID string
	Rating       int
	Text         string
}

// FusedReviewScore is one review's contribution to its restaurant,
// score = relevance x trust x sentiment.
type FusedReviewScore struct {
	ReviewID     string  `json:"review_id"`
	RestaurantID string  `json:"restaurant_id"`
	Relevance    float64 `json:"relevance"`
	Trust        float64 `json:"trust"`
	Sentiment    float64 `json:"sentiment"`
	Score        float64 `json:"score"`
	Text         string  `json:"text,omitempty"`
}

// RankedRestaurant is one entry of a search response. DistanceKm is set
// only when the request carried a location.
type RankedRestaurant struct {
	RestaurantID   string             `json:"restaurant_id"`
	Name           string             `json:"name,omitempty"`
	Address        string             `json:"address,omitempty"`
	AvgPrice       int                `json:"avg_price,omitempty"`
	Rating         float64            `json:"rating,omitempty"`
	AggregateScore float64            `json:"aggregate_score"`
	DistanceKm     *float64           `json:"distance_km,omitempty"`
	Reviews        []FusedReviewScore `json:"reviews"`
}

// Request is a single search invocation.
type Request struct {
	Query    string
	Mode     Mode
	Location *geo.Point
	RadiusKm float64
	PriceMax int
	OpenNow  bool
	Limit    int
}

// DefaultLimit caps the response when the request does not set one.
const DefaultLimit = 10

// sentimentByRating maps star ratings onto signed sentiment weight.
// Unknown ratings contribute nothing.
var sentimentByRating = map[int]float64{
	1: -1.0,
	2: -0.5,
	3: 0.0,
	4: 0.5,
	5: 1.0,
}

// Sentiment returns the signed sentiment weight for a star rating.
func Sentiment(rating int) float64 {
	return sentimentByRating[rating]
}
