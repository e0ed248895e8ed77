package search

import (
	"github.com/tablerank/tablerank/internal/geo"
)

// ApplyGeo filters and re-weights a ranked list by distance from origin.
//
// With no origin the list passes through untouched. With an origin,
// restaurants absent from points (no coordinates on record) are dropped,
// distance is annotated, anything beyond radiusKm is cut, and within
// walking radii the linear decay attenuates the score. Decay can change
// relative order, so the list is re-sorted.
func ApplyGeo(ranked []RankedRestaurant, points map[string]geo.Point, origin *geo.Point, radiusKm float64) []RankedRestaurant {
	if origin == nil {
		return ranked
	}

	out := make([]RankedRestaurant, 0, len(ranked))
	for _, r := range ranked {
		p, ok := points[r.RestaurantID]
		if !ok {
			continue
		}
		d := geo.Haversine(*origin, p)
		if !geo.WithinRadius(d, radiusKm) {
			continue
		}
		r.AggregateScore *= geo.DecayFactor(d, radiusKm)
		dist := d
		r.DistanceKm = &dist
		out = append(out, r)
	}

	sortRanked(out)
	return out
}
