package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tablerank/tablerank/internal/restaurant"
	"github.com/tablerank/tablerank/internal/review"
	"github.com/tablerank/tablerank/internal/trust"
)

func newRestaurantHandlers(t *testing.T) (*RestaurantHandlers, *restaurant.InMemoryRepository, *review.InMemoryRepository, *trust.InMemoryStore) {
	t.Helper()
	restaurants := restaurant.NewInMemoryRepository()
	reviews := review.NewInMemoryRepository()
	store := trust.NewInMemoryStore()
	return NewRestaurantHandlers(restaurants, reviews, store), restaurants, reviews, store
}

func TestGetRestaurant(t *testing.T) {
	h, repo, _, store := newRestaurantHandlers(t)
	if err := repo.Upsert(context.Background(), &restaurant.Restaurant{
		ID:      "rest-1",
		Name:    "Lagman House",
		Address: "12 Chuy Ave",
	}); err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}
	if err := store.Replace(context.Background(), nil, []trust.RestaurantStats{
		{RestaurantID: "rest-1", TrustedReviewCount: 7, ConfidenceScore: 4.2},
	}); err != nil {
		t.Fatalf("seed stats: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Restaurants(rec, httptest.NewRequest(http.MethodGet, "/restaurants/rest-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var resp RestaurantResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Name != "Lagman House" {
		t.Errorf("Name = %q, want Lagman House", resp.Name)
	}
	if resp.TrustedReviewCount != 7 || resp.ConfidenceScore != 4.2 {
		t.Errorf("stats = %d/%g, want 7/4.2", resp.TrustedReviewCount, resp.ConfidenceScore)
	}
}

func TestGetRestaurantWithoutStats(t *testing.T) {
	h, repo, _, _ := newRestaurantHandlers(t)
	if err := repo.Upsert(context.Background(), &restaurant.Restaurant{ID: "rest-2", Name: "Plov Corner"}); err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Restaurants(rec, httptest.NewRequest(http.MethodGet, "/restaurants/rest-2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp RestaurantResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.TrustedReviewCount != 0 || resp.ConfidenceScore != 0 {
		t.Errorf("stats = %d/%g, want zero values without a stats row", resp.TrustedReviewCount, resp.ConfidenceScore)
	}
}

func TestGetRestaurantNotFound(t *testing.T) {
	h, _, _, _ := newRestaurantHandlers(t)

	rec := httptest.NewRecorder()
	h.Restaurants(rec, httptest.NewRequest(http.MethodGet, "/restaurants/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error.Code != ErrCodeNotFound {
		t.Errorf("error code = %q, want %q", resp.Error.Code, ErrCodeNotFound)
	}
}

func TestRestaurantsBadPaths(t *testing.T) {
	h, repo, _, _ := newRestaurantHandlers(t)
	if err := repo.Upsert(context.Background(), &restaurant.Restaurant{ID: "rest-1", Name: "Lagman House"}); err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/restaurants/", http.StatusBadRequest},
		{"/restaurants/rest-1/photos", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.Restaurants(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("Restaurants(%q) status = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestListReviews(t *testing.T) {
	h, restaurants, reviews, store := newRestaurantHandlers(t)
	if err := restaurants.Upsert(context.Background(), &restaurant.Restaurant{ID: "rest-1", Name: "Lagman House"}); err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	seed := []review.Review{
		{ID: "rev-old", RestaurantID: "rest-1", Rating: 4, Text: "good lagman", DateCreated: base},
		{ID: "rev-new", RestaurantID: "rest-1", Rating: 5, Text: "great lagman", DateCreated: base.AddDate(0, 1, 0)},
		{ID: "rev-other", RestaurantID: "rest-2", Rating: 2, Text: "not here", DateCreated: base},
	}
	for i := range seed {
		if _, err := reviews.Upsert(context.Background(), &seed[i]); err != nil {
			t.Fatalf("seed review %s: %v", seed[i].ID, err)
		}
	}
	if err := store.Replace(context.Background(), []trust.ReviewTrust{
		{ReviewID: "rev-new", BaseTrust: 0.5, Burst: 1.0, Recency: 0.9},
	}, nil); err != nil {
		t.Fatalf("seed trust: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Restaurants(rec, httptest.NewRequest(http.MethodGet, "/restaurants/rest-1/reviews", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var resp ReviewListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Count != 2 || len(resp.Reviews) != 2 {
		t.Fatalf("count = %d with %d reviews, want 2", resp.Count, len(resp.Reviews))
	}
	if resp.Reviews[0].ID != "rev-new" || resp.Reviews[1].ID != "rev-old" {
		t.Errorf("order = [%s %s], want newest first", resp.Reviews[0].ID, resp.Reviews[1].ID)
	}
	if got := resp.Reviews[0].Trust; got != 0.5*1.0*0.9 {
		t.Errorf("trust = %g, want %g", got, 0.5*1.0*0.9)
	}
	if got := resp.Reviews[1].Trust; got != 0 {
		t.Errorf("trust without a row = %g, want 0", got)
	}
}

func TestListReviewsUnknownRestaurant(t *testing.T) {
	h, _, _, _ := newRestaurantHandlers(t)

	rec := httptest.NewRecorder()
	h.Restaurants(rec, httptest.NewRequest(http.MethodGet, "/restaurants/nope/reviews", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
