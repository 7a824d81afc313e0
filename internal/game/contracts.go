package game

import (
	"context"
	"time"

	"streak-quiz-service/internal/domain"
)

// AnimationKind names the feedback cue the presentation layer should play.
type AnimationKind string

const (
	AnimationCorrect    AnimationKind = "correct"
	AnimationMilestone  AnimationKind = "milestone"
	AnimationCompletion AnimationKind = "completion"
	AnimationShake      AnimationKind = "shake"
)

// Presenter receives display commands from the session. It is command-only:
// the session never reads presentation state back. Implementations must not
// call back into the session from a command handler.
type Presenter interface {
	ShowItem(item domain.Item)
	PlayAnimation(kind AnimationKind)
	UpdateProgress(streak int, tier domain.Tier, mode domain.Mode)
	SetInputLocked(locked bool)
	RevealAnswer(item domain.Item)
	ShowError(message string)
}

// NopPresenter discards all commands. Useful for tests and headless runs.
type NopPresenter struct{}

func (NopPresenter) ShowItem(domain.Item)                      {}
func (NopPresenter) PlayAnimation(AnimationKind)               {}
func (NopPresenter) UpdateProgress(int, domain.Tier, domain.Mode) {}
func (NopPresenter) SetInputLocked(bool)                       {}
func (NopPresenter) RevealAnswer(domain.Item)                  {}
func (NopPresenter) ShowError(string)                          {}

// ScoreStore persists best streaks and the ranked leaderboard. Backing medium
// is opaque (in-memory, Redis, ...); corrupt or missing data degrades to
// zero/empty rather than erroring.
type ScoreStore interface {
	// HighScore returns the best streak for a category, 0 if never set.
	HighScore(ctx context.Context, category string) (int, error)
	// UpdateHighScore persists streak and returns true only if it strictly
	// exceeds the stored value. Unknown categories are a caller error.
	UpdateHighScore(ctx context.Context, category string, streak int) (bool, error)
	// AddScore appends a finished run. Records with streak < 1 are dropped.
	AddScore(ctx context.Context, record domain.ScoreRecord) error
	// Leaderboard returns the ranked records, optionally filtered by mode
	// (empty mode means all).
	Leaderboard(ctx context.Context, mode domain.Mode) ([]domain.ScoreRecord, error)
}

// CancelFunc stops a scheduled continuation. It reports whether the
// continuation was stopped before running.
type CancelFunc func() bool

// Scheduler defers a continuation by a settle delay. Sessions cancel pending
// continuations on mode switches and shutdown, so a stale timer from a
// previous state can never fire into the new one.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) CancelFunc
}

// timerScheduler is the production Scheduler backed by time.AfterFunc.
type timerScheduler struct{}

// NewTimerScheduler returns a Scheduler backed by real timers.
func NewTimerScheduler() Scheduler { return timerScheduler{} }

func (timerScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return t.Stop
}
