package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"streak-quiz-service/internal/domain"
)

// ScoreStore is an in-memory implementation of game.ScoreStore. State is lost
// on restart; use the redis store for durability.
type ScoreStore struct {
	capacity int

	mu      sync.RWMutex
	high    map[string]int
	records []domain.ScoreRecord
}

func NewScoreStore(capacity int) *ScoreStore {
	return &ScoreStore{
		capacity: capacity,
		high:     make(map[string]int),
	}
}

func (s *ScoreStore) HighScore(_ context.Context, category string) (int, error) {
	if !domain.Mode(category).Valid() {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownCategory, category)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.high[category], nil
}

func (s *ScoreStore) UpdateHighScore(_ context.Context, category string, streak int) (bool, error) {
	if !domain.Mode(category).Valid() {
		return false, fmt.Errorf("%w: %s", domain.ErrUnknownCategory, category)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if streak <= s.high[category] {
		return false, nil
	}
	s.high[category] = streak
	return true, nil
}

func (s *ScoreStore) AddScore(_ context.Context, record domain.ScoreRecord) error {
	if record.Streak < 1 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	sortRecords(s.records)
	if s.capacity > 0 && len(s.records) > s.capacity {
		s.records = s.records[:s.capacity]
	}
	return nil
}

func (s *ScoreStore) Leaderboard(_ context.Context, mode domain.Mode) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScoreRecord, 0, len(s.records))
	for _, r := range s.records {
		if mode == "" || r.Mode == mode {
			out = append(out, r)
		}
	}
	return out, nil
}

// sortRecords orders descending by mode rank first, then streak: an endless
// streak of 5 outranks a hard-tier streak of 50.
func sortRecords(records []domain.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if ri, rj := records[i].Mode.Rank(), records[j].Mode.Rank(); ri != rj {
			return ri > rj
		}
		return records[i].Streak > records[j].Streak
	})
}
