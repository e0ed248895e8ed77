package trust

import (
	"math"
	"testing"
	"time"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestBaseTrust(t *testing.T) {
	tests := []struct {
		name    string
		history int
		want    float64
	}{
		{"single review author", 1, 0.1},
		{"two reviews", 2, 0.3},
		{"three reviews", 3, 0.3},
		{"four reviews", 4, 0.5},
		{"six reviews", 6, 0.5},
		{"seven reviews", 7, 0.7},
		{"ten reviews", 10, 0.7},
		{"eleven reviews", 11, 1.0},
		{"prolific author", 500, 1.0},
		{"zero history treated as one", 0, 0.1},
		{"negative history treated as one", -3, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BaseTrust(tt.history); !almostEqual(got, tt.want) {
				t.Errorf("BaseTrust(%d) = %v, want %v", tt.history, got, tt.want)
			}
		})
	}
}

func TestRecency(t *testing.T) {
	reference := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date time.Time
		want float64
	}{
		{"same date", reference, 1.0},
		{"twelve months prior", reference.AddDate(0, 0, -12*DaysPerMonth), 0.76},
		{"thirty months prior floored", reference.AddDate(0, 0, -30*DaysPerMonth), 0.5},
		{"far past floored", reference.AddDate(-10, 0, 0), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recency(tt.date, reference); !almostEqual(got, tt.want) {
				t.Errorf("Recency(%v) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestBurst(t *testing.T) {
	tests := []struct {
		name     string
		dayCount int
		baseline float64
		want     float64
	}{
		{"eleven reviews against baseline one", 11, 1.0, 0.1},
		{"six reviews against baseline one", 6, 1.0, 0.3},
		{"four reviews against baseline one", 4, 1.0, 0.5},
		{"two reviews against baseline one", 2, 1.0, 1.0},
		{"normal day", 1, 1.0, 1.0},
		{"high baseline absorbs volume", 11, 2.0, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Burst(tt.dayCount, tt.baseline); !almostEqual(got, tt.want) {
				t.Errorf("Burst(%d, %v) = %v, want %v", tt.dayCount, tt.baseline, got, tt.want)
			}
		})
	}
}

func TestCompositeRange(t *testing.T) {
	rt := ReviewTrust{BaseTrust: 0.1, Burst: 0.1, Recency: 0.5}
	if c := rt.Composite(); c <= 0 || c > 1 {
		t.Errorf("Composite() = %v, want value in (0, 1]", c)
	}
	rt = ReviewTrust{BaseTrust: 1.0, Burst: 1.0, Recency: 1.0}
	if c := rt.Composite(); !almostEqual(c, 1.0) {
		t.Errorf("Composite() = %v, want 1.0", c)
	}
}

func TestComputeReviewTrust(t *testing.T) {
	reference := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	t.Run("single review restaurant has no burst penalty", func(t *testing.T) {
		reviews := []Review{
			{ID: "r1", RestaurantID: "a", Rating: 5, DateCreated: reference, ReviewerHistoryCount: 11},
		}
		got, err := ComputeReviewTrust(reviews, reference)
		if err != nil {
			t.Fatalf("ComputeReviewTrust() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d rows, want 1", len(got))
		}
		if !almostEqual(got[0].Burst, 1.0) {
			t.Errorf("Burst = %v, want 1.0 for insufficient data", got[0].Burst)
		}
	})

	t.Run("same day flood is penalized", func(t *testing.T) {
		// Ten reviews spread over ten days establish a baseline of 1/day,
		// then eleven more land on a single day.
		var reviews []Review
		for i := 0; i < 10; i++ {
			reviews = append(reviews, Review{
				ID:           "spread" + string(rune('a'+i)),
				RestaurantID: "a",
				Rating:       4,
				DateCreated:  reference.AddDate(0, 0, -20+i),
			})
		}
		burstDay := reference.AddDate(0, 0, -1)
		for i := 0; i < 11; i++ {
			reviews = append(reviews, Review{
				ID:           "burst" + string(rune('a'+i)),
				RestaurantID: "a",
				Rating:       5,
				DateCreated:  burstDay.Add(time.Duration(i) * time.Minute),
			})
		}

		got, err := ComputeReviewTrust(reviews, reference)
		if err != nil {
			t.Fatalf("ComputeReviewTrust() error = %v", err)
		}
		byID := make(map[string]ReviewTrust)
		for _, rt := range got {
			byID[rt.ReviewID] = rt
		}
		if b := byID["bursta"].Burst; !almostEqual(b, 0.1) {
			t.Errorf("burst-day review Burst = %v, want 0.1", b)
		}
		if b := byID["spreada"].Burst; !almostEqual(b, 1.0) {
			t.Errorf("spread review Burst = %v, want 1.0", b)
		}
	})

	t.Run("zero date aborts the batch", func(t *testing.T) {
		reviews := []Review{
			{ID: "ok", RestaurantID: "a", Rating: 5, DateCreated: reference},
			{ID: "bad", RestaurantID: "a", Rating: 4},
		}
		if _, err := ComputeReviewTrust(reviews, reference); err == nil {
			t.Fatal("ComputeReviewTrust() expected error for zero date, got nil")
		}
	})

	t.Run("output ordered by review id", func(t *testing.T) {
		reviews := []Review{
			{ID: "z", RestaurantID: "a", Rating: 5, DateCreated: reference},
			{ID: "a", RestaurantID: "b", Rating: 3, DateCreated: reference},
			{ID: "m", RestaurantID: "a", Rating: 4, DateCreated: reference},
		}
		got, err := ComputeReviewTrust(reviews, reference)
		if err != nil {
			t.Fatalf("ComputeReviewTrust() error = %v", err)
		}
		for i := 1; i < len(got); i++ {
			if got[i-1].ReviewID >= got[i].ReviewID {
				t.Fatalf("output not ordered by review id: %v before %v", got[i-1].ReviewID, got[i].ReviewID)
			}
		}
	})
}

func TestReferenceDate(t *testing.T) {
	newest := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	reviews := []Review{
		{ID: "r1", DateCreated: newest.AddDate(0, -3, 0)},
		{ID: "r2", DateCreated: newest},
		{ID: "r3", DateCreated: newest.AddDate(-1, 0, 0)},
	}
	if got := ReferenceDate(reviews); !got.Equal(newest) {
		t.Errorf("ReferenceDate() = %v, want %v", got, newest)
	}
}
