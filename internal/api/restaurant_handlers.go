package api

import (
	"net/http"
	"strings"

	"github.com/tablerank/tablerank/internal/restaurant"
	"github.com/tablerank/tablerank/internal/review"
	"github.com/tablerank/tablerank/internal/trust"
)

// RestaurantHandlers holds dependencies for restaurant HTTP handlers.
type RestaurantHandlers struct {
	restaurants restaurant.Repository
	reviews     review.Repository
	trustStore  trust.Store
}

// NewRestaurantHandlers creates a new RestaurantHandlers instance.
func NewRestaurantHandlers(restaurants restaurant.Repository, reviews review.Repository, trustStore trust.Store) *RestaurantHandlers {
	return &RestaurantHandlers{
		restaurants: restaurants,
		reviews:     reviews,
		trustStore:  trustStore,
	}
}

// RestaurantResponse is the detail view of a single restaurant with its
// trust-weighted rating attached when stats exist.
type RestaurantResponse struct {
	restaurant.Restaurant
	TrustedReviewCount int     `json:"trusted_review_count"`
	ConfidenceScore    float64 `json:"confidence_score"`
}

// ReviewResponse is one review with its composite trust attached when
// a trust row exists.
type ReviewResponse struct {
	review.Review
	Trust float64 `json:"trust"`
}

// ReviewListResponse is the payload for a restaurant's review listing.
type ReviewListResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
	Count   int              `json:"count"`
}

// Restaurants routes GET /restaurants/{id} and
// GET /restaurants/{id}/reviews.
func (h *RestaurantHandlers) Restaurants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/restaurants/")
	id, sub, _ := strings.Cut(rest, "/")
	switch {
	case id == "":
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Restaurant id is required")
	case sub == "":
		h.getRestaurant(w, r, id)
	case sub == "reviews":
		h.listReviews(w, r, id)
	default:
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
	}
}

func (h *RestaurantHandlers) getRestaurant(w http.ResponseWriter, r *http.Request, id string) {
	found, err := h.restaurants.GetByIDs(r.Context(), []string{id})
	if err != nil {
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load restaurant")
		return
	}
	rec, ok := found[id]
	if !ok {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Restaurant not found")
		return
	}

	resp := RestaurantResponse{Restaurant: rec}
	stats, err := h.trustStore.StatsByRestaurantIDs(r.Context(), []string{id})
	if err != nil {
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load restaurant stats")
		return
	}
	if st, ok := stats[id]; ok {
		resp.TrustedReviewCount = st.TrustedReviewCount
		resp.ConfidenceScore = st.ConfidenceScore
	}

	writeJSON(w, r.Context(), http.StatusOK, resp)
}

func (h *RestaurantHandlers) listReviews(w http.ResponseWriter, r *http.Request, id string) {
	found, err := h.restaurants.GetByIDs(r.Context(), []string{id})
	if err != nil {
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load restaurant")
		return
	}
	if _, ok := found[id]; !ok {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Restaurant not found")
		return
	}

	reviews, err := h.reviews.ListByRestaurant(r.Context(), id)
	if err != nil {
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load reviews")
		return
	}

	ids := make([]string, 0, len(reviews))
	for _, rev := range reviews {
		ids = append(ids, rev.ID)
	}
	trustByReview, err := h.trustStore.TrustByReviewIDs(r.Context(), ids)
	if err != nil {
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load review trust")
		return
	}

	resp := ReviewListResponse{Reviews: make([]ReviewResponse, 0, len(reviews))}
	for _, rev := range reviews {
		resp.Reviews = append(resp.Reviews, ReviewResponse{Review: rev, Trust: trustByReview[rev.ID]})
	}
	resp.Count = len(resp.Reviews)

	writeJSON(w, r.Context(), http.StatusOK, resp)
}
