// Package geo provides geographic distance, filtering, and score decay for
// restaurant ranking.
package geo

import "math"

// EarthRadiusKm is the Earth radius used for haversine distance.
const EarthRadiusKm = 6371

// DegreesPerKm approximates how many kilometers one degree of latitude
// spans. Used for the cheap bounding-box pre-filter.
const DegreesPerKm = 1.0 / 111.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Haversine returns the great-circle distance in kilometers between two
// points.
func Haversine(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// BoundingBox is a rectangular lat/lon region for coarse pre-filtering.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// NewBoundingBox returns a box of ±radiusKm/111 degrees around the origin.
//
// This is a deliberate approximation: it ignores latitude-dependent degree
// length, so the box is wider than the true radius away from the equator.
// That is acceptable because the precise haversine filter is re-applied to
// everything the box admits.
func NewBoundingBox(origin Point, radiusKm float64) BoundingBox {
	delta := radiusKm * DegreesPerKm
	return BoundingBox{
		MinLat: origin.Lat - delta,
		MaxLat: origin.Lat + delta,
		MinLon: origin.Lon - delta,
		MaxLon: origin.Lon + delta,
	}
}

// Contains reports whether the point falls inside the box.
func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}
