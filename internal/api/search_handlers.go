package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tablerank/tablerank/internal/geo"
	"github.com/tablerank/tablerank/internal/search"
)

// Searcher runs a search request through the ranking pipeline.
type Searcher interface {
	Search(ctx context.Context, req search.Request) ([]search.RankedRestaurant, error)
}

// SearchHandlers holds dependencies for search HTTP handlers.
type SearchHandlers struct {
	searcher Searcher
}

// NewSearchHandlers creates a new SearchHandlers instance.
func NewSearchHandlers(searcher Searcher) *SearchHandlers {
	return &SearchHandlers{searcher: searcher}
}

// Request limits.
const (
	MaxSearchLimit = 50
	MaxQueryLength = 500
)

// SearchResponse represents the response for restaurant search.
type SearchResponse struct {
	Results []search.RankedRestaurant `json:"results"`
	Count   int                       `json:"count"`
}

// Search handles GET /search - runs the hybrid ranking pipeline.
//
// Query parameters:
//   - q: search text (required)
//   - mode: semantic | keyword | hybrid (default hybrid)
//   - lat, lon: search origin; both or neither must be set
//   - radius_km: geographic cutoff, requires lat/lon
//   - price_max: maximum average price
//   - open_now: true to keep only currently open restaurants
//   - limit: maximum results, capped at 50
func (h *SearchHandlers) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	params := r.URL.Query()

	q := strings.TrimSpace(params.Get("q"))
	if q == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Query parameter 'q' is required")
		return
	}
	if len(q) > MaxQueryLength {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation,
			fmt.Sprintf("Query must be at most %d characters", MaxQueryLength))
		return
	}

	req := search.Request{
		Query: q,
		Mode:  search.ParseMode(params.Get("mode")),
		Limit: search.DefaultLimit,
	}

	latStr, lonStr := params.Get("lat"), params.Get("lon")
	if (latStr == "") != (lonStr == "") {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Parameters 'lat' and 'lon' must be provided together")
		return
	}
	if latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil || lat < -90 || lat > 90 {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Parameter 'lat' must be a number between -90 and 90")
			return
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil || lon < -180 || lon > 180 {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Parameter 'lon' must be a number between -180 and 180")
			return
		}
		req.Location = &geo.Point{Lat: lat, Lon: lon}
	}

	if radiusStr := params.Get("radius_km"); radiusStr != "" {
		radius, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil || radius <= 0 {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Parameter 'radius_km' must be a positive number")
			return
		}
		if req.Location == nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Parameter 'radius_km' requires 'lat' and 'lon'")
			return
		}
		req.RadiusKm = radius
	}

	if priceStr := params.Get("price_max"); priceStr != "" {
		price, err := strconv.Atoi(priceStr)
		if err != nil || price <= 0 {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Parameter 'price_max' must be a positive integer")
			return
		}
		req.PriceMax = price
	}

	if openStr := params.Get("open_now"); openStr != "" {
		open, err := strconv.ParseBool(openStr)
		if err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Parameter 'open_now' must be a boolean")
			return
		}
		req.OpenNow = open
	}

	if limitStr := params.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Parameter 'limit' must be a positive integer")
			return
		}
		if limit > MaxSearchLimit {
			limit = MaxSearchLimit
		}
		req.Limit = limit
	}

	results, err := h.searcher.Search(r.Context(), req)
	if err != nil {
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Search failed")
		return
	}
	if results == nil {
		results = []search.RankedRestaurant{}
	}

	writeJSON(w, r.Context(), http.StatusOK, SearchResponse{
		Results: results,
		Count:   len(results),
	})
}
