package review

import (
	"context"
	"errors"
	"testing"
	"time"
)

func validReview() *Review {
	return &Review{
		ID:                   "rev-1",
		RestaurantID:         "rest-1",
		Rating:               4,
		Text:                 "cozy place, great lagman",
		DateCreated:          time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		ReviewerHistoryCount: 7,
	}
}

func TestReviewValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Review)
		wantErr error
	}{
		{"valid", func(*Review) {}, nil},
		{"missing id", func(r *Review) { r.ID = "" }, ErrMissingID},
		{"missing restaurant", func(r *Review) { r.RestaurantID = "" }, ErrMissingRestaurantID},
		{"rating too low", func(r *Review) { r.Rating = 0 }, ErrInvalidRating},
		{"rating too high", func(r *Review) { r.Rating = 6 }, ErrInvalidRating},
		{"zero date", func(r *Review) { r.DateCreated = time.Time{} }, ErrZeroDate},
		{"empty text allowed", func(r *Review) { r.Text = "" }, nil},
		{"zero history allowed", func(r *Review) { r.ReviewerHistoryCount = 0 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReview()
			tt.mutate(r)
			if err := r.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestInMemoryRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("upsert insert then update", func(t *testing.T) {
		repo := NewInMemoryRepository()

		res, err := repo.Upsert(ctx, validReview())
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if !res.Inserted {
			t.Error("first Upsert() should insert")
		}

		updated := validReview()
		updated.Text = "updated text"
		res, err = repo.Upsert(ctx, updated)
		if err != nil {
			t.Fatalf("second Upsert() error = %v", err)
		}
		if res.Inserted {
			t.Error("second Upsert() should update, not insert")
		}

		got, err := repo.GetByID(ctx, "rev-1")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Text != "updated text" {
			t.Errorf("Text = %q, want %q", got.Text, "updated text")
		}
	})

	t.Run("upsert rejects invalid records", func(t *testing.T) {
		repo := NewInMemoryRepository()
		bad := validReview()
		bad.Rating = 0
		if _, err := repo.Upsert(ctx, bad); !errors.Is(err, ErrInvalidRating) {
			t.Errorf("Upsert() error = %v, want ErrInvalidRating", err)
		}
		if repo.Count() != 0 {
			t.Errorf("Count() = %d, want 0 after rejected upsert", repo.Count())
		}
	})

	t.Run("get missing review", func(t *testing.T) {
		repo := NewInMemoryRepository()
		if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, ErrReviewNotFound) {
			t.Errorf("GetByID() error = %v, want ErrReviewNotFound", err)
		}
	})

	t.Run("list by ids omits unknown", func(t *testing.T) {
		repo := NewInMemoryRepository()
		if _, err := repo.Upsert(ctx, validReview()); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		got, err := repo.ListByIDs(ctx, []string{"rev-1", "missing"})
		if err != nil {
			t.Fatalf("ListByIDs() error = %v", err)
		}
		if len(got) != 1 {
			t.Errorf("ListByIDs() returned %d reviews, want 1", len(got))
		}
		if _, ok := got["missing"]; ok {
			t.Error("ListByIDs() should omit unknown ids, not error")
		}
	})

	t.Run("list all ordered by id", func(t *testing.T) {
		repo := NewInMemoryRepository()
		for _, id := range []string{"c", "a", "b"} {
			r := validReview()
			r.ID = id
			if _, err := repo.Upsert(ctx, r); err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}
		}
		got, err := repo.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll() error = %v", err)
		}
		for i := 1; i < len(got); i++ {
			if got[i-1].ID >= got[i].ID {
				t.Fatalf("ListAll() not ordered: %s before %s", got[i-1].ID, got[i].ID)
			}
		}
	})
}
