package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tablerank/tablerank/internal/search"
)

// stubSearcher captures the last request and returns canned results.
type stubSearcher struct {
	lastReq search.Request
	results []search.RankedRestaurant
	err     error
}

func (s *stubSearcher) Search(_ context.Context, req search.Request) ([]search.RankedRestaurant, error) {
	s.lastReq = req
	return s.results, s.err
}

func doSearch(t *testing.T, h *SearchHandlers, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	return resp
}

func TestSearchRequestParsing(t *testing.T) {
	stub := &stubSearcher{results: []search.RankedRestaurant{{RestaurantID: "rest-1", AggregateScore: 0.8}}}
	h := NewSearchHandlers(stub)

	rec := doSearch(t, h, "/search?q=lagman&mode=semantic&lat=42.87&lon=74.59&radius_km=2&price_max=500&open_now=true&limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	req := stub.lastReq
	if req.Query != "lagman" {
		t.Errorf("Query = %q, want lagman", req.Query)
	}
	if req.Mode != search.ModeSemantic {
		t.Errorf("Mode = %q, want semantic", req.Mode)
	}
	if req.Location == nil || req.Location.Lat != 42.87 || req.Location.Lon != 74.59 {
		t.Errorf("Location = %+v, want 42.87/74.59", req.Location)
	}
	if req.RadiusKm != 2 {
		t.Errorf("RadiusKm = %g, want 2", req.RadiusKm)
	}
	if req.PriceMax != 500 {
		t.Errorf("PriceMax = %d, want 500", req.PriceMax)
	}
	if !req.OpenNow {
		t.Error("OpenNow = false, want true")
	}
	if req.Limit != 5 {
		t.Errorf("Limit = %d, want 5", req.Limit)
	}

	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Count != 1 || len(resp.Results) != 1 || resp.Results[0].RestaurantID != "rest-1" {
		t.Errorf("response = %+v, want one rest-1 result", resp)
	}
}

func TestSearchDefaults(t *testing.T) {
	stub := &stubSearcher{}
	h := NewSearchHandlers(stub)

	rec := doSearch(t, h, "/search?q=plov")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if stub.lastReq.Mode != search.ModeHybrid {
		t.Errorf("Mode = %q, want hybrid default", stub.lastReq.Mode)
	}
	if stub.lastReq.Limit != search.DefaultLimit {
		t.Errorf("Limit = %d, want default %d", stub.lastReq.Limit, search.DefaultLimit)
	}
	if stub.lastReq.Location != nil {
		t.Errorf("Location = %+v, want nil", stub.lastReq.Location)
	}

	// Empty result set serializes as [], not null.
	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Results == nil || resp.Count != 0 {
		t.Errorf("response = %+v, want empty results array", resp)
	}
}

func TestSearchLimitCapped(t *testing.T) {
	stub := &stubSearcher{}
	h := NewSearchHandlers(stub)

	if rec := doSearch(t, h, "/search?q=plov&limit=999"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if stub.lastReq.Limit != MaxSearchLimit {
		t.Errorf("Limit = %d, want capped at %d", stub.lastReq.Limit, MaxSearchLimit)
	}
}

func TestSearchValidation(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"missing query", "/search"},
		{"blank query", "/search?q=%20%20"},
		{"lat without lon", "/search?q=plov&lat=42.8"},
		{"lon without lat", "/search?q=plov&lon=74.5"},
		{"lat out of range", "/search?q=plov&lat=91&lon=74.5"},
		{"lon out of range", "/search?q=plov&lat=42.8&lon=181"},
		{"bad radius", "/search?q=plov&lat=42.8&lon=74.5&radius_km=-1"},
		{"radius without location", "/search?q=plov&radius_km=2"},
		{"bad price", "/search?q=plov&price_max=free"},
		{"bad open_now", "/search?q=plov&open_now=maybe"},
		{"bad limit", "/search?q=plov&limit=0"},
	}

	h := NewSearchHandlers(&stubSearcher{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doSearch(t, h, tt.url)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if resp := decodeError(t, rec); resp.Error.Code != ErrCodeValidation {
				t.Errorf("error code = %q, want %q", resp.Error.Code, ErrCodeValidation)
			}
		})
	}
}

func TestSearchPipelineError(t *testing.T) {
	h := NewSearchHandlers(&stubSearcher{err: errors.New("postgres down")})

	rec := doSearch(t, h, "/search?q=plov")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error.Code != ErrCodeInternal {
		t.Errorf("error code = %q, want %q", resp.Error.Code, ErrCodeInternal)
	}
}

func TestSearchMethodNotAllowed(t *testing.T) {
	h := NewSearchHandlers(&stubSearcher{})
	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodPost, "/search?q=plov", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
