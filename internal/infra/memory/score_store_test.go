package memory

import (
	"context"
	"errors"
	"testing"

	"streak-quiz-service/internal/domain"
)

func TestHighScoreStrictlyIncreases(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore(10)

	updated, err := store.UpdateHighScore(ctx, "endless", 5)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated {
		t.Fatalf("expected first score to persist")
	}

	for _, streak := range []int{5, 4, 0} {
		updated, err := store.UpdateHighScore(ctx, "endless", streak)
		if err != nil {
			t.Fatalf("update %d: %v", streak, err)
		}
		if updated {
			t.Fatalf("streak %d must not beat stored 5", streak)
		}
	}
	best, _ := store.HighScore(ctx, "endless")
	if best != 5 {
		t.Fatalf("expected 5, got %d", best)
	}

	if updated, _ := store.UpdateHighScore(ctx, "endless", 6); !updated {
		t.Fatalf("strictly greater streak must update")
	}
}

func TestUnknownCategoryIsRejected(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore(10)

	if _, err := store.HighScore(ctx, "bogus"); !errors.Is(err, domain.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := store.UpdateHighScore(ctx, "bogus", 3); !errors.Is(err, domain.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestAddScoreDropsZeroStreaks(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore(10)

	if err := store.AddScore(ctx, domain.ScoreRecord{Name: "Alice", Streak: 0, Mode: domain.ModeEasy}); err != nil {
		t.Fatalf("add: %v", err)
	}
	records, _ := store.Leaderboard(ctx, "")
	if len(records) != 0 {
		t.Fatalf("zero streak must be a no-op, got %d records", len(records))
	}
}

// Mode rank dominates streak: a short endless run outranks a long hard run.
func TestLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore(10)

	_ = store.AddScore(ctx, domain.ScoreRecord{Name: "Bob", Streak: 50, Mode: domain.ModeHard})
	_ = store.AddScore(ctx, domain.ScoreRecord{Name: "Alice", Streak: 5, Mode: domain.ModeEndless})
	_ = store.AddScore(ctx, domain.ScoreRecord{Name: "Cleo", Streak: 7, Mode: domain.ModeEndless})

	records, err := store.Leaderboard(ctx, "")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Name != "Cleo" || records[1].Name != "Alice" || records[2].Name != "Bob" {
		t.Fatalf("unexpected order: %+v", records)
	}
}

func TestLeaderboardCapAndFilter(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore(3)

	for i := 1; i <= 5; i++ {
		_ = store.AddScore(ctx, domain.ScoreRecord{Name: "P", Streak: i, Mode: domain.ModeEasy})
	}
	records, _ := store.Leaderboard(ctx, "")
	if len(records) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(records))
	}
	if records[0].Streak != 5 || records[2].Streak != 3 {
		t.Fatalf("expected top streaks retained, got %+v", records)
	}

	_ = store.AddScore(ctx, domain.ScoreRecord{Name: "Q", Streak: 9, Mode: domain.ModeEndless})
	filtered, _ := store.Leaderboard(ctx, domain.ModeEndless)
	if len(filtered) != 1 || filtered[0].Name != "Q" {
		t.Fatalf("expected only the endless record, got %+v", filtered)
	}
}
