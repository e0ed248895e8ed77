// Package restaurant provides restaurant records, weekly schedules, and
// the filtered lookups the search pipeline uses to narrow candidates
// before retrieval.
package restaurant

import (
	"errors"

	"github.com/tablerank/tablerank/internal/geo"
)

// Common errors for restaurant operations.
var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrMissingID          = errors.New("restaurant id is required")
	ErrMissingName        = errors.New("restaurant name is required")
)

// Restaurant is a venue record as collected upstream. Coordinates are
// optional: venues without them are silently excluded from geo-filtered
// results and included otherwise.
type Restaurant struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	Category     string   `json:"category,omitempty"`
	Cuisine      []string `json:"cuisine,omitempty"`
	AvgPrice     int      `json:"avg_price,omitempty"`
	SourceRating float64  `json:"source_rating,omitempty"`
	ReviewsCount int      `json:"reviews_count,omitempty"`
	Schedule     Schedule `json:"schedule,omitempty"`
}

// Validate checks the record at the ingestion boundary.
func (r *Restaurant) Validate() error {
	if r.ID == "" {
		return ErrMissingID
	}
	if r.Name == "" {
		return ErrMissingName
	}
	return nil
}

// Point returns the restaurant's coordinates, or false if either is missing.
func (r *Restaurant) Point() (geo.Point, bool) {
	if r.Lat == nil || r.Lon == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *r.Lat, Lon: *r.Lon}, true
}

// Filter narrows the candidate restaurant set before retrieval.
// The zero value matches everything.
type Filter struct {
	// PriceMax excludes restaurants with a higher average price. Zero
	// disables the filter.
	PriceMax int

	// BBox is the coarse bounding-box pre-filter. The precise haversine
	// filter is re-applied downstream, so the box may over-admit.
	BBox *geo.BoundingBox

	// OpenNow keeps only restaurants open at Now per their schedule.
	OpenNow bool
}

// Empty reports whether the filter matches everything, in which case
// callers skip the candidate lookup entirely.
func (f Filter) Empty() bool {
	return f.PriceMax == 0 && f.BBox == nil && !f.OpenNow
}
