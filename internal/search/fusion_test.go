package search

import (
	"math"
	"testing"
)

const floatTol = 1e-9

func almostEqual(a, b float64) bool { return math.Abs(a-b) < floatTol }

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"semantic", ModeSemantic},
		{"keyword", ModeKeyword},
		{"hybrid", ModeHybrid},
		{"", ModeHybrid},
		{"nonsense", ModeHybrid},
	}
	for _, tt := range tests {
		if got := ParseMode(tt.in); got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFuseRelevanceSelection(t *testing.T) {
	semantic := []SemanticHit{
		{ReviewID: "both", RestaurantID: "r1", Similarity: 0.9},
		{ReviewID: "sem-only", RestaurantID: "r1", Similarity: 0.8},
	}
	keyword := []KeywordHit{
		{ReviewID: "both", Rank: 0.2},
		{ReviewID: "kw-only", Rank: 0.4},
		{ReviewID: "kw-top", Rank: 0.5},
	}
	trust := map[string]float64{"both": 1, "sem-only": 1, "kw-only": 1, "kw-top": 1}
	meta := map[string]ReviewMeta{
		"both":     {RestaurantID: "r1", Rating: 5},
		"sem-only": {RestaurantID: "r1", Rating: 5},
		"kw-only":  {RestaurantID: "r2", Rating: 5},
		"kw-top":   {RestaurantID: "r2", Rating: 5},
	}

	t.Run("hybrid prefers semantic and normalizes keyword", func(t *testing.T) {
		fused := Fuse(semantic, keyword, trust, meta, ModeHybrid)
		byID := fusedByID(fused)

		if !almostEqual(byID["both"].Relevance, 0.9) {
			t.Errorf("both relevance = %v, want 0.9 (semantic wins)", byID["both"].Relevance)
		}
		if !almostEqual(byID["kw-top"].Relevance, 1.0) {
			t.Errorf("kw-top relevance = %v, want 1.0 (max keyword rank)", byID["kw-top"].Relevance)
		}
		if !almostEqual(byID["kw-only"].Relevance, 0.8) {
			t.Errorf("kw-only relevance = %v, want 0.8 (0.4/0.5)", byID["kw-only"].Relevance)
		}
	})

	t.Run("semantic mode excludes keyword-only reviews", func(t *testing.T) {
		fused := Fuse(semantic, keyword, trust, meta, ModeSemantic)
		byID := fusedByID(fused)
		if len(fused) != 2 {
			t.Fatalf("Fuse(semantic) returned %d reviews, want 2", len(fused))
		}
		if _, ok := byID["kw-only"]; ok {
			t.Error("semantic mode should exclude keyword-only reviews")
		}
	})

	t.Run("keyword mode excludes semantic-only reviews", func(t *testing.T) {
		fused := Fuse(semantic, keyword, trust, meta, ModeKeyword)
		byID := fusedByID(fused)
		if _, ok := byID["sem-only"]; ok {
			t.Error("keyword mode should exclude semantic-only reviews")
		}
		if !almostEqual(byID["both"].Relevance, 0.4) {
			t.Errorf("both relevance = %v, want 0.4 (0.2/0.5)", byID["both"].Relevance)
		}
	})

	t.Run("negative ranks normalize by magnitude", func(t *testing.T) {
		kw := []KeywordHit{
			{ReviewID: "kw-only", Rank: -2},
			{ReviewID: "kw-top", Rank: -4},
		}
		fused := Fuse(nil, kw, trust, meta, ModeKeyword)
		byID := fusedByID(fused)
		if !almostEqual(byID["kw-top"].Relevance, 1.0) || !almostEqual(byID["kw-only"].Relevance, 0.5) {
			t.Errorf("relevances = %v / %v, want 1.0 / 0.5", byID["kw-top"].Relevance, byID["kw-only"].Relevance)
		}
	})
}

func TestFuseScore(t *testing.T) {
	t.Run("score sign follows sentiment", func(t *testing.T) {
		fused := Fuse(
			[]SemanticHit{{ReviewID: "a", RestaurantID: "r1", Similarity: 0.9}},
			nil,
			map[string]float64{"a": 0.8},
			map[string]ReviewMeta{"a": {RestaurantID: "r1", Rating: 1}},
			ModeHybrid,
		)
		if len(fused) != 1 {
			t.Fatalf("Fuse() returned %d reviews, want 1", len(fused))
		}
		if !almostEqual(fused[0].Score, -0.72) {
			t.Errorf("Score = %v, want -0.72", fused[0].Score)
		}
	})

	t.Run("low trust dampens but never excludes", func(t *testing.T) {
		fused := Fuse(
			[]SemanticHit{{ReviewID: "a", RestaurantID: "r1", Similarity: 1.0}},
			nil,
			map[string]float64{"a": 0.05},
			map[string]ReviewMeta{"a": {RestaurantID: "r1", Rating: 5}},
			ModeHybrid,
		)
		if len(fused) != 1 {
			t.Fatal("low-trust review should still contribute")
		}
		if fused[0].Score <= 0 || fused[0].Score >= 0.1 {
			t.Errorf("Score = %v, want small positive", fused[0].Score)
		}
	})

	t.Run("neutral rating zeroes the score", func(t *testing.T) {
		fused := Fuse(
			[]SemanticHit{{ReviewID: "a", RestaurantID: "r1", Similarity: 0.9}},
			nil,
			map[string]float64{"a": 1},
			map[string]ReviewMeta{"a": {RestaurantID: "r1", Rating: 3}},
			ModeHybrid,
		)
		if fused[0].Score != 0 {
			t.Errorf("Score = %v, want 0 for rating 3", fused[0].Score)
		}
	})
}

func TestFuseDropsUnknownReviews(t *testing.T) {
	semantic := []SemanticHit{
		{ReviewID: "known", RestaurantID: "r1", Similarity: 0.9},
		{ReviewID: "no-trust", RestaurantID: "r1", Similarity: 0.9},
		{ReviewID: "no-meta", RestaurantID: "r1", Similarity: 0.9},
	}
	trust := map[string]float64{"known": 1, "no-meta": 1}
	meta := map[string]ReviewMeta{
		"known":    {RestaurantID: "r1", Rating: 5},
		"no-trust": {RestaurantID: "r1", Rating: 5},
	}

	fused := Fuse(semantic, nil, trust, meta, ModeHybrid)
	if len(fused) != 1 || fused[0].ReviewID != "known" {
		t.Errorf("Fuse() = %v, want only the known review", fused)
	}
}

func fusedByID(fused []FusedReviewScore) map[string]FusedReviewScore {
	m := make(map[string]FusedReviewScore, len(fused))
	for _, f := range fused {
		m[f.ReviewID] = f
	}
	return m
}
