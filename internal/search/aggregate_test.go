package search

import (
	"testing"

	"github.com/tablerank/tablerank/internal/geo"
)

func TestAggregate(t *testing.T) {
	fused := []FusedReviewScore{
		{ReviewID: "a1", RestaurantID: "alpha", Relevance: 0.9, Score: 0.5},
		{ReviewID: "a2", RestaurantID: "alpha", Relevance: 0.95, Score: -0.2},
		{ReviewID: "b1", RestaurantID: "beta", Relevance: 0.8, Score: 0.7},
	}

	ranked := Aggregate(fused)
	if len(ranked) != 2 {
		t.Fatalf("Aggregate() returned %d restaurants, want 2", len(ranked))
	}

	t.Run("scores sum over matched reviews", func(t *testing.T) {
		if ranked[0].RestaurantID != "beta" || !almostEqual(ranked[0].AggregateScore, 0.7) {
			t.Errorf("first = %s (%v), want beta (0.7)", ranked[0].RestaurantID, ranked[0].AggregateScore)
		}
		if ranked[1].RestaurantID != "alpha" || !almostEqual(ranked[1].AggregateScore, 0.3) {
			t.Errorf("second = %s (%v), want alpha (0.3)", ranked[1].RestaurantID, ranked[1].AggregateScore)
		}
	})

	t.Run("reviews attached by relevance descending", func(t *testing.T) {
		alpha := ranked[1]
		if len(alpha.Reviews) != 2 {
			t.Fatalf("alpha has %d reviews, want 2", len(alpha.Reviews))
		}
		if alpha.Reviews[0].ReviewID != "a2" {
			t.Errorf("top review = %s, want a2 (higher relevance)", alpha.Reviews[0].ReviewID)
		}
	})
}

func TestAggregateTieBreak(t *testing.T) {
	fused := []FusedReviewScore{
		{ReviewID: "z1", RestaurantID: "zeta", Relevance: 0.9, Score: 0.5},
		{ReviewID: "a1", RestaurantID: "alpha", Relevance: 0.9, Score: 0.5},
	}
	ranked := Aggregate(fused)
	if ranked[0].RestaurantID != "alpha" || ranked[1].RestaurantID != "zeta" {
		t.Errorf("tie order = [%s, %s], want [alpha, zeta]", ranked[0].RestaurantID, ranked[1].RestaurantID)
	}
}

func TestAggregateNegativeTotal(t *testing.T) {
	fused := []FusedReviewScore{
		{ReviewID: "a1", RestaurantID: "alpha", Score: -0.72},
		{ReviewID: "a2", RestaurantID: "alpha", Score: 0.1},
	}
	ranked := Aggregate(fused)
	if !almostEqual(ranked[0].AggregateScore, -0.62) {
		t.Errorf("AggregateScore = %v, want -0.62", ranked[0].AggregateScore)
	}
}

func TestApplyGeo(t *testing.T) {
	origin := geo.Point{Lat: 42.8746, Lon: 74.5698}
	// ~1.11 km north and ~5.5 km north of origin.
	points := map[string]geo.Point{
		"near": {Lat: origin.Lat + 0.01, Lon: origin.Lon},
		"far":  {Lat: origin.Lat + 0.05, Lon: origin.Lon},
	}
	ranked := []RankedRestaurant{
		{RestaurantID: "near", AggregateScore: 1.0},
		{RestaurantID: "far", AggregateScore: 2.0},
		{RestaurantID: "no-coords", AggregateScore: 3.0},
	}

	t.Run("nil origin passes through", func(t *testing.T) {
		got := ApplyGeo(ranked, points, nil, 3)
		if len(got) != 3 {
			t.Errorf("ApplyGeo(nil origin) kept %d, want all 3", len(got))
		}
	})

	t.Run("hard cutoff and missing coordinates", func(t *testing.T) {
		got := ApplyGeo(cloneRanked(ranked), points, &origin, 3)
		if len(got) != 1 || got[0].RestaurantID != "near" {
			t.Fatalf("ApplyGeo() = %v, want only near", got)
		}
		if got[0].DistanceKm == nil || *got[0].DistanceKm > 1.2 || *got[0].DistanceKm < 1.0 {
			t.Errorf("DistanceKm = %v, want ~1.11", got[0].DistanceKm)
		}
	})

	t.Run("walking radius decays score", func(t *testing.T) {
		got := ApplyGeo(cloneRanked(ranked[:1]), points, &origin, 3)
		d := *got[0].DistanceKm
		want := 1.0 * (1 - 0.4*d/3)
		if !almostEqual(got[0].AggregateScore, want) {
			t.Errorf("AggregateScore = %v, want %v", got[0].AggregateScore, want)
		}
	})

	t.Run("larger radius has cutoff but no decay", func(t *testing.T) {
		got := ApplyGeo(cloneRanked(ranked), points, &origin, 10)
		if len(got) != 2 {
			t.Fatalf("ApplyGeo(radius 10) kept %d, want 2", len(got))
		}
		for _, r := range got {
			want := map[string]float64{"near": 1.0, "far": 2.0}[r.RestaurantID]
			if !almostEqual(r.AggregateScore, want) {
				t.Errorf("%s score = %v, want %v (no decay beyond walking radius)", r.RestaurantID, r.AggregateScore, want)
			}
		}
	})

	t.Run("decay can reorder", func(t *testing.T) {
		// Both within 3 km; the nearer one overtakes after decay.
		closePoints := map[string]geo.Point{
			"near": {Lat: origin.Lat + 0.001, Lon: origin.Lon},
			"far":  {Lat: origin.Lat + 0.025, Lon: origin.Lon},
		}
		in := []RankedRestaurant{
			{RestaurantID: "far", AggregateScore: 1.0},
			{RestaurantID: "near", AggregateScore: 0.95},
		}
		got := ApplyGeo(in, closePoints, &origin, 3)
		if got[0].RestaurantID != "near" {
			t.Errorf("first = %s, want near after decay reordering", got[0].RestaurantID)
		}
	})
}

func cloneRanked(in []RankedRestaurant) []RankedRestaurant {
	out := make([]RankedRestaurant, len(in))
	copy(out, in)
	return out
}
