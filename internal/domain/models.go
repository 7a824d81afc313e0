package domain

// Tier is the difficulty bucket an item belongs to.
type Tier string

const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
	TierExpert Tier = "expert"
)

// Tiers lists all tiers in ascending difficulty order.
var Tiers = []Tier{TierEasy, TierMedium, TierHard, TierExpert}

// Rank returns the position of the tier in the difficulty order, or -1 for
// an unknown tier.
func (t Tier) Rank() int {
	for i, tier := range Tiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// Valid reports whether the tier is one of the four known buckets.
func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// Mode identifies how a session selects items: one linear mode per tier, plus
// an endless mode that spans all tiers with streak-driven weighting.
type Mode string

const (
	ModeEasy    Mode = "easy"
	ModeMedium  Mode = "medium"
	ModeHard    Mode = "hard"
	ModeExpert  Mode = "expert"
	ModeEndless Mode = "endless"
)

// Modes lists every recognized mode.
var Modes = []Mode{ModeEasy, ModeMedium, ModeHard, ModeExpert, ModeEndless}

// Valid reports whether the mode is recognized.
func (m Mode) Valid() bool {
	for _, mode := range Modes {
		if mode == m {
			return true
		}
	}
	return false
}

// Rank orders modes for leaderboard sorting. Endless outranks every linear
// tier; a streak earned under endless is worth more than the same streak
// earned inside a single tier.
func (m Mode) Rank() int {
	if m == ModeEndless {
		return len(Tiers)
	}
	return Tier(m).Rank()
}

// Tier returns the fixed tier of a linear mode. Endless has no fixed tier;
// callers resolve it from the streak via the selection policy.
func (m Mode) Tier() (Tier, bool) {
	t := Tier(m)
	return t, t.Valid()
}

// Next returns the mode one difficulty step up, clamping at expert. Endless
// advances to itself; a completed endless pool reshuffles in place.
func (m Mode) Next() Mode {
	switch m {
	case ModeEasy:
		return ModeMedium
	case ModeMedium:
		return ModeHard
	case ModeHard:
		return ModeExpert
	default:
		return m
	}
}

// Item is a single quizzable entry (a country shape, a German noun, ...).
// Items are immutable once loaded.
type Item struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	Tier    Tier     `json:"tier"`
}

// ScoreRecord is one finished run on the leaderboard.
type ScoreRecord struct {
	Name      string `json:"name"`
	Streak    int    `json:"streak"`
	Mode      Mode   `json:"mode"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}
