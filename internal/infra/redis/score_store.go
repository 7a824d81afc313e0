package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"streak-quiz-service/internal/domain"
)

// ScoreStore persists high scores and the leaderboard in Redis.
// Layout:
//   - high scores:  SET score:best:{category} {streak}
//   - leaderboard:  SET score:leaderboard {json array of ScoreRecord}
//
// Corrupt or missing values degrade to 0 / empty; a half-written blob must
// never take the game down.
type ScoreStore struct {
	client   *redis.Client
	capacity int
}

func NewScoreStore(client *redis.Client, capacity int) *ScoreStore {
	return &ScoreStore{client: client, capacity: capacity}
}

func (s *ScoreStore) HighScore(ctx context.Context, category string) (int, error) {
	if !domain.Mode(category).Valid() {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownCategory, category)
	}
	return s.readHighScore(ctx, category), nil
}

func (s *ScoreStore) UpdateHighScore(ctx context.Context, category string, streak int) (bool, error) {
	if !domain.Mode(category).Valid() {
		return false, fmt.Errorf("%w: %s", domain.ErrUnknownCategory, category)
	}
	if streak <= s.readHighScore(ctx, category) {
		return false, nil
	}
	if err := s.client.Set(ctx, s.bestKey(category), streak, 0).Err(); err != nil {
		return false, fmt.Errorf("persist high score: %w", err)
	}
	return true, nil
}

func (s *ScoreStore) AddScore(ctx context.Context, record domain.ScoreRecord) error {
	if record.Streak < 1 {
		return nil
	}
	records := s.readLeaderboard(ctx)
	records = append(records, record)
	sortRecords(records)
	if s.capacity > 0 && len(records) > s.capacity {
		records = records[:s.capacity]
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal leaderboard: %w", err)
	}
	if err := s.client.Set(ctx, s.leaderboardKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("persist leaderboard: %w", err)
	}
	return nil
}

func (s *ScoreStore) Leaderboard(ctx context.Context, mode domain.Mode) ([]domain.ScoreRecord, error) {
	records := s.readLeaderboard(ctx)
	out := make([]domain.ScoreRecord, 0, len(records))
	for _, r := range records {
		if mode == "" || r.Mode == mode {
			out = append(out, r)
		}
	}
	return out, nil
}

// readHighScore treats every failure mode (missing key, transport error,
// non-numeric value) as 0.
func (s *ScoreStore) readHighScore(ctx context.Context, category string) int {
	raw, err := s.client.Get(ctx, s.bestKey(category)).Result()
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// readLeaderboard degrades to empty on missing key or corrupt JSON.
func (s *ScoreStore) readLeaderboard(ctx context.Context) []domain.ScoreRecord {
	raw, err := s.client.Get(ctx, s.leaderboardKey()).Bytes()
	if err != nil {
		return nil
	}
	var records []domain.ScoreRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil
	}
	return records
}

func (s *ScoreStore) bestKey(category string) string {
	return "score:best:" + category
}

func (s *ScoreStore) leaderboardKey() string {
	return "score:leaderboard"
}

func sortRecords(records []domain.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if ri, rj := records[i].Mode.Rank(), records[j].Mode.Rank(); ri != rj {
			return ri > rj
		}
		return records[i].Streak > records[j].Streak
	})
}
