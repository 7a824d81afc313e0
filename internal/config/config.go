package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"streak-quiz-service/internal/domain"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Items struct {
		TTL         string `yaml:"ttl"`
		LoadTimeout string `yaml:"load_timeout"`
	} `yaml:"items"`
	Game Game `yaml:"game"`
}

// Game holds the tunable progression rules. Everything the difficulty curve
// depends on lives here rather than in code, so curves can be adjusted per
// deployment.
type Game struct {
	MilestonePeriod int       `yaml:"milestone_period"`
	LeaderboardSize int       `yaml:"leaderboard_size"`
	StrictMatching  bool      `yaml:"strict_matching"`
	Delays          Delays    `yaml:"delays"`
	Brackets        []Bracket `yaml:"brackets"`
}

// Delays are the settle windows after each guess outcome.
type Delays struct {
	Correct    string `yaml:"correct"`
	Milestone  string `yaml:"milestone"`
	Completion string `yaml:"completion"`
	Reset      string `yaml:"reset"`
}

// Bracket maps a streak ceiling to per-tier draw weights. Brackets are
// evaluated in order; the first bracket whose MaxStreak is >= the current
// streak wins. MaxStreak == 0 marks the open-ended final bracket.
type Bracket struct {
	MaxStreak int                     `yaml:"max_streak"`
	Weights   map[domain.Tier]float64 `yaml:"weights"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Game.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the bracket table: known tiers only, weights summing to 1,
// and the final bracket open-ended.
func (g Game) Validate() error {
	for i, b := range g.Brackets {
		total := 0.0
		for tier, w := range b.Weights {
			if !tier.Valid() {
				return fmt.Errorf("bracket %d: unknown tier %q", i, tier)
			}
			if w < 0 {
				return fmt.Errorf("bracket %d: negative weight for %s", i, tier)
			}
			total += w
		}
		if len(b.Weights) > 0 && math.Abs(total-1.0) > 1e-6 {
			return fmt.Errorf("bracket %d: weights sum to %.4f, want 1.0", i, total)
		}
	}
	if n := len(g.Brackets); n > 0 && g.Brackets[n-1].MaxStreak != 0 {
		return fmt.Errorf("final bracket must be open-ended (max_streak: 0)")
	}
	return nil
}

// WithDefaults fills unset game tuning with the stock difficulty curve.
func (g Game) WithDefaults() Game {
	if g.MilestonePeriod <= 0 {
		g.MilestonePeriod = 10
	}
	if g.LeaderboardSize <= 0 {
		g.LeaderboardSize = 25
	}
	if g.Delays.Correct == "" {
		g.Delays.Correct = "1.2s"
	}
	if g.Delays.Milestone == "" {
		g.Delays.Milestone = "2s"
	}
	if g.Delays.Completion == "" {
		g.Delays.Completion = "3.5s"
	}
	if g.Delays.Reset == "" {
		g.Delays.Reset = "2s"
	}
	if len(g.Brackets) == 0 {
		g.Brackets = DefaultBrackets()
	}
	return g
}

// DefaultBrackets is the stock endless curve: each 20-streak band concentrates
// all weight on the next tier up.
func DefaultBrackets() []Bracket {
	return []Bracket{
		{MaxStreak: 20, Weights: map[domain.Tier]float64{domain.TierEasy: 1.0}},
		{MaxStreak: 40, Weights: map[domain.Tier]float64{domain.TierMedium: 1.0}},
		{MaxStreak: 60, Weights: map[domain.Tier]float64{domain.TierHard: 1.0}},
		{MaxStreak: 0, Weights: map[domain.Tier]float64{domain.TierExpert: 1.0}},
	}
}

// Duration parses a duration string or returns the fallback if empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
