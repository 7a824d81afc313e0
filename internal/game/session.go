package game

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"streak-quiz-service/internal/domain"
)

// SettleDelays are the windows during which the session stays locked after a
// guess, letting the presentation layer play out its cue. Milestone is longer
// than correct, completion longer still.
type SettleDelays struct {
	Correct    time.Duration
	Milestone  time.Duration
	Completion time.Duration
	Reset      time.Duration
}

// Options configures a Session. Zero-value fields fall back to sane defaults;
// see NewSession.
type Options struct {
	Mode            domain.Mode
	PlayerName      string
	Comparison      ComparisonMode
	MilestonePeriod int
	Brackets        []Bracket
	Delays          SettleDelays
	// PersistScores distinguishes graded play from practice: practice
	// sessions never touch the score store.
	PersistScores bool
	Presenter     Presenter
	Scores        ScoreStore
	Scheduler     Scheduler
	Rand          *rand.Rand
	Now           func() time.Time
}

// Session owns the round state for one player and drives the
// advance/guess/reset lifecycle. All state is constructor-injected; multiple
// independent sessions can coexist. Methods are safe for concurrent use, but
// the session processes one event at a time and rejects input while a settle
// window is open.
type Session struct {
	mu sync.Mutex

	items  []domain.Item
	mode   domain.Mode
	streak int
	// current is the item on display, nil before the first draw.
	current *domain.Item
	// queue holds not-yet-shown items for the active pool, drawn from the
	// tail. It never contains current and has no duplicates.
	queue      []domain.Item
	animating  bool
	closed     bool
	activeTier domain.Tier

	// pool memoizes the active pool; invalidated on every mode mutation.
	pool      []domain.Item
	poolValid bool

	policy          SelectionPolicy
	matcher         Matcher
	milestonePeriod int
	brackets        []Bracket
	delays          SettleDelays
	persistScores   bool
	playerName      string

	presenter     Presenter
	scores        ScoreStore
	sched         Scheduler
	cancelPending CancelFunc
	rng           *rand.Rand
	now           func() time.Time
}

// NewSession builds a session over an immutable item catalog. The catalog must
// be non-empty and the mode recognized; endless mode additionally needs a
// bracket table.
func NewSession(items []domain.Item, opts Options) (*Session, error) {
	if len(items) == 0 {
		return nil, domain.ErrNoItems
	}
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownMode, opts.Mode)
	}
	if opts.Mode == domain.ModeEndless && len(opts.Brackets) == 0 {
		return nil, fmt.Errorf("endless mode requires streak brackets")
	}
	if opts.PersistScores && opts.Scores == nil {
		return nil, fmt.Errorf("score persistence requires a score store")
	}
	if opts.Presenter == nil {
		opts.Presenter = NopPresenter{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewTimerScheduler()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MilestonePeriod <= 0 {
		opts.MilestonePeriod = 10
	}

	s := &Session{
		items:           items,
		mode:            opts.Mode,
		matcher:         NewMatcher(opts.Comparison),
		milestonePeriod: opts.MilestonePeriod,
		brackets:        opts.Brackets,
		delays:          opts.Delays,
		persistScores:   opts.PersistScores,
		playerName:      opts.PlayerName,
		presenter:       opts.Presenter,
		scores:          opts.Scores,
		sched:           opts.Scheduler,
		rng:             opts.Rand,
		now:             opts.Now,
	}
	s.policy = policyFor(s.mode, s.brackets, s.rng)
	return s, nil
}

// Mode returns the current game mode.
func (s *Session) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Streak returns the current correct-in-a-row counter.
func (s *Session) Streak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streak
}

// Current returns a copy of the item on display, or false before the first
// draw.
func (s *Session) Current() (domain.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.Item{}, false
	}
	return *s.current, true
}

// Animating reports whether a settle window is open.
func (s *Session) Animating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.animating
}

// Advance draws the next item and presents it. With an empty pool for the
// current mode it surfaces a user-visible error and leaves all state intact.
func (s *Session) Advance(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	return s.advanceLocked(ctx)
}

func (s *Session) advanceLocked(ctx context.Context) error {
	pool := s.activePoolLocked()
	if len(pool) == 0 {
		s.presenter.ShowError(fmt.Sprintf("no items available for %s mode", s.mode))
		return fmt.Errorf("%w: %s", domain.ErrEmptyPool, s.mode)
	}

	tier := s.policy.ActiveTier(s.streak)
	if s.mode == domain.ModeEndless && s.activeTier != "" && tier != s.activeTier {
		// Bracket crossed: rebuild even if the queue is non-empty, with no
		// anti-repeat exclusion. The pools differ, so the boundary item may
		// legitimately come straight back.
		s.queue = s.policy.Refill(s.items, s.streak, "")
	} else if len(s.queue) == 0 {
		exclude := ""
		if s.current != nil {
			exclude = s.current.ID
		}
		s.queue = s.policy.Refill(s.items, s.streak, exclude)
	}
	s.activeTier = tier

	next := s.queue[len(s.queue)-1]
	s.queue = s.queue[:len(s.queue)-1]
	s.current = &next

	s.presenter.ShowItem(next)
	s.presenter.UpdateProgress(s.streak, tier, s.mode)
	return nil
}

// SubmitGuess applies a player guess to the current item. Blank input is an
// explicit skip; a wrong answer ends the run with a shake cue. Both reset the
// streak and persist it first when it qualifies.
func (s *Session) SubmitGuess(ctx context.Context, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.animating {
		return domain.ErrSessionBusy
	}
	if s.current == nil {
		return domain.ErrNoActiveItem
	}

	if strings.TrimSpace(raw) == "" {
		return s.endRunLocked(ctx, false)
	}
	if s.matcher.Matches(raw, *s.current) {
		return s.applyCorrectLocked(ctx)
	}
	return s.endRunLocked(ctx, true)
}

func (s *Session) applyCorrectLocked(ctx context.Context) error {
	s.streak++
	tier := s.policy.ActiveTier(s.streak)
	s.presenter.UpdateProgress(s.streak, tier, s.mode)

	switch Classify(s.streak, len(s.activePoolLocked()), s.milestonePeriod) {
	case OutcomeCompletion:
		s.presenter.PlayAnimation(AnimationCompletion)
		if s.persistScores {
			if _, err := s.scores.UpdateHighScore(ctx, string(s.mode), s.streak); err != nil {
				return err
			}
		}
		s.settleLocked(s.delays.Completion, s.completeSettled)
	case OutcomeMilestone:
		s.presenter.PlayAnimation(AnimationMilestone)
		s.settleLocked(s.delays.Milestone, s.advanceSettled)
	default:
		s.presenter.PlayAnimation(AnimationCorrect)
		s.settleLocked(s.delays.Correct, s.advanceSettled)
	}
	return nil
}

// endRunLocked handles both explicit skips and wrong answers: persist the
// qualifying streak, reveal the answer, reset, and schedule the next draw.
func (s *Session) endRunLocked(ctx context.Context, wrong bool) error {
	if err := s.persistRunLocked(ctx); err != nil {
		return err
	}
	if wrong {
		s.presenter.PlayAnimation(AnimationShake)
	}
	s.presenter.RevealAnswer(*s.current)
	s.streak = 0
	s.presenter.UpdateProgress(0, s.policy.ActiveTier(0), s.mode)
	s.settleLocked(s.delays.Reset, s.advanceSettled)
	return nil
}

// persistRunLocked records the outgoing streak as a high-score candidate and a
// leaderboard entry. Streaks below 1 and practice sessions are skipped.
func (s *Session) persistRunLocked(ctx context.Context) error {
	if s.streak < 1 || !s.persistScores {
		return nil
	}
	if _, err := s.scores.UpdateHighScore(ctx, string(s.mode), s.streak); err != nil {
		return err
	}
	return s.scores.AddScore(ctx, domain.ScoreRecord{
		Name:      s.playerName,
		Streak:    s.streak,
		Mode:      s.mode,
		Timestamp: s.now().UnixMilli(),
	})
}

// SwitchMode moves the session to a different mode. It is rejected while
// settling and for unknown modes; switching to the current mode is a no-op.
// An empty target pool is reported without mutating any session state.
func (s *Session) SwitchMode(ctx context.Context, newMode domain.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if !newMode.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrUnknownMode, newMode)
	}
	if s.animating {
		return domain.ErrSessionBusy
	}
	if newMode == s.mode {
		return nil
	}
	if newMode == domain.ModeEndless && len(s.brackets) == 0 {
		return fmt.Errorf("endless mode requires streak brackets")
	}

	// Probe the target pool before touching anything.
	probe := policyFor(newMode, s.brackets, s.rng)
	if len(probe.Pool(s.items, 0)) == 0 {
		s.presenter.ShowError(fmt.Sprintf("no items available for %s mode", newMode))
		return fmt.Errorf("%w: %s", domain.ErrEmptyPool, newMode)
	}

	if s.cancelPending != nil {
		s.cancelPending()
		s.cancelPending = nil
	}
	if err := s.persistRunLocked(ctx); err != nil {
		return err
	}

	s.transitionModeLocked(newMode)
	s.presenter.SetInputLocked(false)
	return s.advanceLocked(ctx)
}

// transitionModeLocked swaps the active policy and drops all derived state:
// streak, queue, current item, pool cache, tier marker.
func (s *Session) transitionModeLocked(newMode domain.Mode) {
	s.mode = newMode
	s.streak = 0
	s.policy = policyFor(newMode, s.brackets, s.rng)
	s.invalidatePoolLocked()
	s.queue = nil
	s.current = nil
	s.activeTier = ""
	s.animating = false
}

// Close cancels any pending continuation and rejects further input.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancelPending != nil {
		s.cancelPending()
		s.cancelPending = nil
	}
}

// settleLocked opens the animating window and schedules the continuation.
// Exactly one continuation can be in flight; it is retained so mode switches
// and Close can cancel it.
func (s *Session) settleLocked(d time.Duration, continuation func()) {
	s.animating = true
	s.presenter.SetInputLocked(true)
	s.cancelPending = s.sched.Schedule(d, continuation)
}

// advanceSettled is the deferred continuation after correct/milestone/reset.
func (s *Session) advanceSettled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelPending = nil
	s.animating = false
	s.presenter.SetInputLocked(false)
	_ = s.advanceLocked(context.Background())
}

// completeSettled runs after the completion cue: linear modes advance one
// tier (clamping at expert, which reshuffles in place with a fresh run),
// endless reshuffles in place and keeps its streak.
func (s *Session) completeSettled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelPending = nil
	s.animating = false
	s.presenter.SetInputLocked(false)

	next := s.mode.Next()
	if next != s.mode {
		s.transitionModeLocked(next)
	} else {
		if s.mode != domain.ModeEndless {
			s.streak = 0
		}
		s.queue = nil
	}
	_ = s.advanceLocked(context.Background())
}

func (s *Session) activePoolLocked() []domain.Item {
	if !s.poolValid {
		s.pool = s.policy.Pool(s.items, s.streak)
		s.poolValid = true
	}
	return s.pool
}

func (s *Session) invalidatePoolLocked() {
	s.pool = nil
	s.poolValid = false
}
