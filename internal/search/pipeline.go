package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/tablerank/tablerank/internal/geo"
	"github.com/tablerank/tablerank/internal/restaurant"
	"github.com/tablerank/tablerank/internal/review"
	"github.com/tablerank/tablerank/internal/tracing"
	"github.com/tablerank/tablerank/internal/trust"
)

// SemanticOracle ranks reviews by embedding similarity to the query.
// Implementations return hits at or above the similarity floor, scoped
// to the allowed restaurants when allowed is non-nil.
type SemanticOracle interface {
	QuerySimilar(ctx context.Context, query string, allowed map[string]bool) ([]SemanticHit, error)
}

// KeywordOracle ranks reviews by full-text relevance to the query,
// scoped to the allowed restaurants when allowed is non-nil.
type KeywordOracle interface {
	QueryKeyword(ctx context.Context, query string, allowed map[string]bool) ([]KeywordHit, error)
}

// ServiceConfig carries the service's observability dependencies.
type ServiceConfig struct {
	Logger  *slog.Logger
	Metrics *Metrics
}

// Service executes search requests. It holds only read handles; every
// request computes private ephemeral state, so concurrent calls need no
// locking.
type Service struct {
	restaurants restaurant.Repository
	reviews     review.Repository
	trust       trust.Store
	semantic    SemanticOracle
	keyword     KeywordOracle
	logger      *slog.Logger
	metrics     *Metrics
	now         func() time.Time
}

// NewService creates a search service over the given stores and oracles.
func NewService(cfg ServiceConfig, restaurants restaurant.Repository, reviews review.Repository, trustStore trust.Store, semantic SemanticOracle, keyword KeywordOracle) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		restaurants: restaurants,
		reviews:     reviews,
		trust:       trustStore,
		semantic:    semantic,
		keyword:     keyword,
		logger:      logger,
		metrics:     cfg.Metrics,
		now:         time.Now,
	}
}

// Search runs the full query path: candidate filtering, retrieval,
// fusion, aggregation, metadata attachment, and geo adjustment.
//
// Oracle failures degrade gracefully: a dead source is logged and
// skipped, and losing every source yields an empty result rather than
// an error. Store failures are returned.
func (s *Service) Search(ctx context.Context, req Request) (result []RankedRestaurant, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "search")
	defer func() { endSpan(err) }()

	start := s.now()
	mode := req.Mode
	if mode == "" {
		mode = ModeHybrid
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if s.metrics != nil {
		s.metrics.SearchesTotal.WithLabelValues(string(mode)).Inc()
		defer func() {
			s.metrics.SearchDuration.Observe(time.Since(start).Seconds())
		}()
	}

	allowed, err := s.filterCandidates(ctx, req)
	if err != nil {
		return nil, err
	}
	if allowed != nil && len(allowed) == 0 {
		return []RankedRestaurant{}, nil
	}

	semanticHits, keywordHits := s.retrieve(ctx, req.Query, allowed, mode)
	if len(semanticHits) == 0 && len(keywordHits) == 0 {
		if s.metrics != nil {
			s.metrics.ResultsReturned.Observe(0)
		}
		return []RankedRestaurant{}, nil
	}

	trustByReview, meta, err := s.loadReviewContext(ctx, semanticHits, keywordHits, allowed)
	if err != nil {
		return nil, err
	}

	fused := Fuse(semanticHits, keywordHits, trustByReview, meta, mode)
	ranked := Aggregate(fused)

	ranked, err = s.attachRestaurants(ctx, ranked, req)
	if err != nil {
		return nil, err
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if s.metrics != nil {
		s.metrics.ResultsReturned.Observe(float64(len(ranked)))
	}
	s.logger.Info("search completed",
		"mode", mode,
		"results", len(ranked),
		"duration_ms", time.Since(start).Milliseconds())
	return ranked, nil
}

// filterCandidates narrows the candidate restaurant set. A nil map
// means unrestricted.
func (s *Service) filterCandidates(ctx context.Context, req Request) (map[string]bool, error) {
	f := restaurant.Filter{PriceMax: req.PriceMax, OpenNow: req.OpenNow}
	if req.Location != nil && req.RadiusKm > 0 {
		bbox := geo.NewBoundingBox(*req.Location, req.RadiusKm)
		f.BBox = &bbox
	}
	return s.restaurants.FilterIDs(ctx, f, s.now())
}

// retrieve queries the oracles the mode calls for, degrading to
// whatever sources answered.
func (s *Service) retrieve(ctx context.Context, query string, allowed map[string]bool, mode Mode) ([]SemanticHit, []KeywordHit) {
	var semanticHits []SemanticHit
	var keywordHits []KeywordHit

	if mode == ModeSemantic || mode == ModeHybrid {
		hits, err := s.semantic.QuerySimilar(ctx, query, allowed)
		if err != nil {
			s.logger.Warn("semantic oracle failed, degrading", "error", err)
			if s.metrics != nil {
				s.metrics.OracleFailuresTotal.WithLabelValues("semantic").Inc()
			}
		} else {
			semanticHits = hits
		}
	}
	if mode == ModeKeyword || mode == ModeHybrid {
		hits, err := s.keyword.QueryKeyword(ctx, query, allowed)
		if err != nil {
			s.logger.Warn("keyword oracle failed, degrading", "error", err)
			if s.metrics != nil {
				s.metrics.OracleFailuresTotal.WithLabelValues("keyword").Inc()
			}
		} else {
			keywordHits = hits
		}
	}
	return semanticHits, keywordHits
}

// loadReviewContext fetches trust and review metadata for every hit
// review. Reviews outside the allowed set are excluded here in case an
// oracle ignored the filter.
func (s *Service) loadReviewContext(ctx context.Context, semanticHits []SemanticHit, keywordHits []KeywordHit, allowed map[string]bool) (map[string]float64, map[string]ReviewMeta, error) {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(semanticHits)+len(keywordHits))
	for _, h := range semanticHits {
		if !seen[h.ReviewID] {
			seen[h.ReviewID] = true
			ids = append(ids, h.ReviewID)
		}
	}
	for _, h := range keywordHits {
		if !seen[h.ReviewID] {
			seen[h.ReviewID] = true
			ids = append(ids, h.ReviewID)
		}
	}

	trustByReview, err := s.trust.TrustByReviewIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	reviews, err := s.reviews.ListByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	meta := make(map[string]ReviewMeta, len(reviews))
	for id, r := range reviews {
		if allowed != nil && !allowed[r.RestaurantID] {
			continue
		}
		meta[id] = ReviewMeta{RestaurantID: r.RestaurantID, Rating: r.Rating, Text: r.Text}
	}
	return trustByReview, meta, nil
}

// attachRestaurants decorates the ranked list with venue metadata and
// applies geographic filtering and decay.
func (s *Service) attachRestaurants(ctx context.Context, ranked []RankedRestaurant, req Request) ([]RankedRestaurant, error) {
	if len(ranked) == 0 {
		return ranked, nil
	}

	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.RestaurantID)
	}
	restaurants, err := s.restaurants.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	stats, err := s.trust.StatsByRestaurantIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	points := make(map[string]geo.Point)
	for i := range ranked {
		rest, ok := restaurants[ranked[i].RestaurantID]
		if !ok {
			continue
		}
		ranked[i].Name = rest.Name
		ranked[i].Address = rest.Address
		ranked[i].AvgPrice = rest.AvgPrice
		if st, ok := stats[rest.ID]; ok {
			ranked[i].Rating = st.ConfidenceScore
		}
		if p, ok := rest.Point(); ok {
			points[rest.ID] = p
		}
	}

	return ApplyGeo(ranked, points, req.Location, req.RadiusKm), nil
}
