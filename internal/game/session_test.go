package game_test

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"streak-quiz-service/internal/domain"
	"streak-quiz-service/internal/game"
	"streak-quiz-service/internal/infra/memory"
)

func TestAdvanceDrawsOnlyFromModeTier(t *testing.T) {
	ctx := context.Background()
	p := &recordingPresenter{}
	s, sched := newTestSession(t, catalog(), domain.ModeMedium, p, nil)

	if err := s.Advance(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}
	// Burn through several refills with wrong answers; the streak stays 0 and
	// the queue keeps cycling the medium pool.
	for i := 0; i < 12; i++ {
		if err := s.SubmitGuess(ctx, "definitely wrong"); err != nil {
			t.Fatalf("guess %d: %v", i, err)
		}
		sched.fire()
	}
	for i, item := range p.items {
		if item.Tier != domain.TierMedium {
			t.Fatalf("draw %d: tier %s, want medium", i, item.Tier)
		}
	}
}

func TestConsecutiveDrawsNeverRepeat(t *testing.T) {
	ctx := context.Background()
	p := &recordingPresenter{}
	s, sched := newTestSession(t, catalog(), domain.ModeEasy, p, nil)

	if err := s.Advance(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}
	for i := 0; i < 40; i++ {
		if err := s.SubmitGuess(ctx, "wrong"); err != nil {
			t.Fatalf("guess %d: %v", i, err)
		}
		sched.fire()
	}
	for i := 1; i < len(p.items); i++ {
		if p.items[i].ID == p.items[i-1].ID {
			t.Fatalf("draw %d repeated item %s", i, p.items[i].ID)
		}
	}
}

func TestCorrectGuessIncrementsStreak(t *testing.T) {
	ctx := context.Background()
	p := &recordingPresenter{}
	s, sched := newTestSession(t, catalog(), domain.ModeEasy, p, nil)

	if err := s.Advance(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}
	current, _ := s.Current()
	if err := s.SubmitGuess(ctx, current.Name); err != nil {
		t.Fatalf("guess: %v", err)
	}
	if s.Streak() != 1 {
		t.Fatalf("expected streak 1, got %d", s.Streak())
	}
	if got := p.lastAnimation(); got != game.AnimationCorrect {
		t.Fatalf("expected correct animation, got %s", got)
	}
	if sched.lastDelay != delays().Correct {
		t.Fatalf("expected correct settle delay, got %v", sched.lastDelay)
	}
	if !s.Animating() {
		t.Fatalf("expected settle window open")
	}
	sched.fire()
	if s.Animating() {
		t.Fatalf("expected settle window closed after continuation")
	}
}

func TestGuessRejectedWhileSettling(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, catalog(), domain.ModeEasy, &recordingPresenter{}, nil)

	_ = s.Advance(ctx)
	current, _ := s.Current()
	_ = s.SubmitGuess(ctx, current.Name)

	if err := s.SubmitGuess(ctx, "anything"); !errors.Is(err, domain.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	if err := s.SwitchMode(ctx, domain.ModeHard); !errors.Is(err, domain.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy on mode switch, got %v", err)
	}
}

func TestBlankGuessSkipsAndPersistsStreak(t *testing.T) {
	ctx := context.Background()
	p := &recordingPresenter{}
	store := memory.NewScoreStore(10)
	s, sched := newTestSession(t, catalog(), domain.ModeEasy, p, store)

	_ = s.Advance(ctx)
	playCorrect(t, s, sched, 2)

	if err := s.SubmitGuess(ctx, "   "); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if s.Streak() != 0 {
		t.Fatalf("expected streak reset, got %d", s.Streak())
	}
	if len(p.reveals) != 1 {
		t.Fatalf("expected answer reveal on skip, got %d", len(p.reveals))
	}
	if sched.lastDelay != delays().Reset {
		t.Fatalf("expected reset delay, got %v", sched.lastDelay)
	}

	best, err := store.HighScore(ctx, string(domain.ModeEasy))
	if err != nil {
		t.Fatalf("high score: %v", err)
	}
	if best != 2 {
		t.Fatalf("expected high score 2, got %d", best)
	}
	records, _ := store.Leaderboard(ctx, "")
	if len(records) != 1 || records[0].Streak != 2 {
		t.Fatalf("expected one leaderboard record with streak 2, got %+v", records)
	}
}

func TestWrongAnswerShakesAndPersists(t *testing.T) {
	ctx := context.Background()
	p := &recordingPresenter{}
	store := memory.NewScoreStore(10)
	s, sched := newTestSession(t, catalog(), domain.ModeEasy, p, store)

	_ = s.Advance(ctx)
	playCorrect(t, s, sched, 3)

	if err := s.SubmitGuess(ctx, "not even close"); err != nil {
		t.Fatalf("wrong guess: %v", err)
	}
	if got := p.lastAnimation(); got != game.AnimationShake {
		t.Fatalf("expected shake animation, got %s", got)
	}
	best, _ := store.HighScore(ctx, string(domain.ModeEasy))
	if best != 3 {
		t.Fatalf("expected high score 3, got %d", best)
	}
}

func TestPracticeSessionNeverPersists(t *testing.T) {
	ctx := context.Background()
	store := memory.NewScoreStore(10)
	sched := &manualScheduler{}
	s, err := game.NewSession(catalog(), game.Options{
		Mode:            domain.ModeEasy,
		PlayerName:      "trainee",
		MilestonePeriod: 10,
		Delays:          delays(),
		PersistScores:   false,
		Scores:          store,
		Scheduler:       sched,
		Rand:            rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	_ = s.Advance(ctx)
	playCorrect(t, s, sched, 2)
	_ = s.SubmitGuess(ctx, "wrong")

	best, _ := store.HighScore(ctx, string(domain.ModeEasy))
	if best != 0 {
		t.Fatalf("practice run must not persist, got high score %d", best)
	}
}

// Clearing the whole pool is a completion even when the pool size equals the
// milestone period, and a linear completion advances one tier.
func TestCompletionAdvancesLinearTier(t *testing.T) {
	ctx := context.Background()
	items := []domain.Item{
		{ID: "e1", Name: "Alpha", Tier: domain.TierEasy},
		{ID: "e2", Name: "Beta", Tier: domain.TierEasy},
		{ID: "e3", Name: "Gamma", Tier: domain.TierEasy},
		{ID: "m1", Name: "Delta", Tier: domain.TierMedium},
		{ID: "m2", Name: "Epsilon", Tier: domain.TierMedium},
	}
	p := &recordingPresenter{}
	store := memory.NewScoreStore(10)
	sched := &manualScheduler{}
	s, err := game.NewSession(items, game.Options{
		Mode:            domain.ModeEasy,
		PlayerName:      "runner",
		MilestonePeriod: 3, // same as the pool size: completion must win
		Delays:          delays(),
		Presenter:       p,
		PersistScores:   true,
		Scores:          store,
		Scheduler:       sched,
		Rand:            rand.New(rand.NewSource(2)),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	_ = s.Advance(ctx)
	playCorrect(t, s, sched, 2)

	current, _ := s.Current()
	if err := s.SubmitGuess(ctx, current.Name); err != nil {
		t.Fatalf("final guess: %v", err)
	}
	if got := p.lastAnimation(); got != game.AnimationCompletion {
		t.Fatalf("expected completion animation, got %s", got)
	}
	if sched.lastDelay != delays().Completion {
		t.Fatalf("expected completion delay, got %v", sched.lastDelay)
	}
	best, _ := store.HighScore(ctx, string(domain.ModeEasy))
	if best != 3 {
		t.Fatalf("expected completion high score 3, got %d", best)
	}

	sched.fire()
	if s.Mode() != domain.ModeMedium {
		t.Fatalf("expected medium mode after completion, got %s", s.Mode())
	}
	if s.Streak() != 0 {
		t.Fatalf("expected fresh streak in the next tier, got %d", s.Streak())
	}
	current, ok := s.Current()
	if !ok || current.Tier != domain.TierMedium {
		t.Fatalf("expected a medium item on display, got %+v", current)
	}
}

func TestEndlessCompletionReshufflesInPlace(t *testing.T) {
	ctx := context.Background()
	items := []domain.Item{
		{ID: "e1", Name: "Alpha", Tier: domain.TierEasy},
		{ID: "e2", Name: "Beta", Tier: domain.TierEasy},
		{ID: "e3", Name: "Gamma", Tier: domain.TierEasy},
	}
	store := memory.NewScoreStore(10)
	sched := &manualScheduler{}
	s, err := game.NewSession(items, game.Options{
		Mode:            domain.ModeEndless,
		PlayerName:      "runner",
		MilestonePeriod: 10,
		Brackets:        oneBracket(),
		Delays:          delays(),
		PersistScores:   true,
		Scores:          store,
		Scheduler:       sched,
		Rand:            rand.New(rand.NewSource(4)),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	_ = s.Advance(ctx)
	playCorrect(t, s, sched, 2)

	current, _ := s.Current()
	if err := s.SubmitGuess(ctx, current.Name); err != nil {
		t.Fatalf("final guess: %v", err)
	}
	sched.fire()
	if s.Mode() != domain.ModeEndless {
		t.Fatalf("endless completion must stay endless, got %s", s.Mode())
	}
	if s.Streak() != 3 {
		t.Fatalf("endless completion keeps its streak, got %d", s.Streak())
	}
	if _, ok := s.Current(); !ok {
		t.Fatalf("expected a fresh item after reshuffle")
	}
}

// Crossing a streak bracket rebuilds the queue even though it is non-empty:
// the next draw comes from the new bracket's tier.
func TestEndlessTierChangeRebuildsQueue(t *testing.T) {
	ctx := context.Background()
	items := []domain.Item{
		{ID: "e1", Name: "Alpha", Tier: domain.TierEasy},
		{ID: "e2", Name: "Beta", Tier: domain.TierEasy},
		{ID: "e3", Name: "Gamma", Tier: domain.TierEasy},
		{ID: "e4", Name: "Delta", Tier: domain.TierEasy},
		{ID: "m1", Name: "Epsilon", Tier: domain.TierMedium},
		{ID: "m2", Name: "Zeta", Tier: domain.TierMedium},
	}
	brackets := []game.Bracket{
		{MaxStreak: 2, Weights: map[domain.Tier]float64{domain.TierEasy: 1.0}},
		{MaxStreak: 0, Weights: map[domain.Tier]float64{domain.TierMedium: 1.0}},
	}
	p := &recordingPresenter{}
	sched := &manualScheduler{}
	s, err := game.NewSession(items, game.Options{
		Mode:            domain.ModeEndless,
		PlayerName:      "runner",
		MilestonePeriod: 50,
		Brackets:        brackets,
		Delays:          delays(),
		PersistScores:   false,
		Scheduler:       sched,
		Rand:            rand.New(rand.NewSource(6)),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	_ = s.Advance(ctx)
	playCorrect(t, s, sched, 2)

	// Third correct pushes the streak past the bracket ceiling.
	current, _ := s.Current()
	if err := s.SubmitGuess(ctx, current.Name); err != nil {
		t.Fatalf("boundary guess: %v", err)
	}
	sched.fire()

	current, ok := s.Current()
	if !ok || current.Tier != domain.TierMedium {
		t.Fatalf("expected a medium item after bracket crossing, got %+v (items shown: %d)", current, len(p.items))
	}
}

func TestSwitchModeValidation(t *testing.T) {
	ctx := context.Background()
	p := &recordingPresenter{}
	s, sched := newTestSession(t, catalog(), domain.ModeEasy, p, nil)
	_ = s.Advance(ctx)

	if err := s.SwitchMode(ctx, domain.Mode("nightmare")); !errors.Is(err, domain.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
	if err := s.SwitchMode(ctx, domain.ModeEasy); err != nil {
		t.Fatalf("switching to the current mode is a no-op, got %v", err)
	}
	_ = sched
}

// An empty target pool is reported without corrupting session state.
func TestSwitchModeEmptyPoolLeavesStateIntact(t *testing.T) {
	ctx := context.Background()
	items := []domain.Item{
		{ID: "e1", Name: "Alpha", Tier: domain.TierEasy},
		{ID: "e2", Name: "Beta", Tier: domain.TierEasy},
	}
	p := &recordingPresenter{}
	sched := &manualScheduler{}
	s, err := game.NewSession(items, game.Options{
		Mode:          domain.ModeEasy,
		PlayerName:    "runner",
		Delays:        delays(),
		PersistScores: false,
		Presenter:     p,
		Scheduler:     sched,
		Rand:          rand.New(rand.NewSource(8)),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	_ = s.Advance(ctx)
	playCorrect(t, s, sched, 1)
	sched.fire()
	before, _ := s.Current()

	err = s.SwitchMode(ctx, domain.ModeExpert)
	if !errors.Is(err, domain.ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}
	if s.Mode() != domain.ModeEasy {
		t.Fatalf("mode must be unchanged, got %s", s.Mode())
	}
	if s.Streak() != 1 {
		t.Fatalf("streak must be unchanged, got %d", s.Streak())
	}
	after, _ := s.Current()
	if after.ID != before.ID {
		t.Fatalf("current item must be unchanged")
	}
	if len(p.errors) == 0 {
		t.Fatalf("expected a user-visible error")
	}
}

func TestSwitchModePersistsOutgoingStreak(t *testing.T) {
	ctx := context.Background()
	store := memory.NewScoreStore(10)
	s, sched := newTestSession(t, catalog(), domain.ModeEasy, &recordingPresenter{}, store)
	_ = s.Advance(ctx)
	playCorrect(t, s, sched, 2)

	if err := s.SwitchMode(ctx, domain.ModeMedium); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if s.Mode() != domain.ModeMedium || s.Streak() != 0 {
		t.Fatalf("expected fresh medium session, got mode=%s streak=%d", s.Mode(), s.Streak())
	}
	best, _ := store.HighScore(ctx, string(domain.ModeEasy))
	if best != 2 {
		t.Fatalf("expected outgoing streak persisted, got %d", best)
	}
	records, _ := store.Leaderboard(ctx, domain.ModeEasy)
	if len(records) != 1 {
		t.Fatalf("expected one leaderboard record, got %d", len(records))
	}
}

// Close cancels the pending continuation; a stale timer must not fire into a
// closed session.
func TestCloseCancelsPendingContinuation(t *testing.T) {
	ctx := context.Background()
	p := &recordingPresenter{}
	s, sched := newTestSession(t, catalog(), domain.ModeEasy, p, nil)
	_ = s.Advance(ctx)
	current, _ := s.Current()
	_ = s.SubmitGuess(ctx, current.Name)

	shown := len(p.items)
	s.Close()
	sched.fire()
	if len(p.items) != shown {
		t.Fatalf("continuation ran after Close")
	}
	if err := s.SubmitGuess(ctx, "x"); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestAdvanceEmptyPoolIsUserError(t *testing.T) {
	ctx := context.Background()
	items := []domain.Item{{ID: "e1", Name: "Alpha", Tier: domain.TierEasy}}
	p := &recordingPresenter{}
	sched := &manualScheduler{}
	s, err := game.NewSession(items, game.Options{
		Mode:       domain.ModeHard,
		PlayerName: "runner",
		Delays:     delays(),
		Presenter:  p,
		Scheduler:  sched,
		Rand:       rand.New(rand.NewSource(3)),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.Advance(ctx); !errors.Is(err, domain.ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("no draw may occur on an empty pool")
	}
	if len(p.errors) != 1 {
		t.Fatalf("expected one user-visible error, got %d", len(p.errors))
	}
}

func TestMilestoneUsesLongerDelay(t *testing.T) {
	ctx := context.Background()
	items := testPoolItems("e", domain.TierEasy, 9)
	sched := &manualScheduler{}
	s, err := game.NewSession(items, game.Options{
		Mode:            domain.ModeEasy,
		PlayerName:      "runner",
		MilestonePeriod: 5,
		Delays:          delays(),
		Scheduler:       sched,
		Rand:            rand.New(rand.NewSource(10)),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	_ = s.Advance(ctx)
	playCorrect(t, s, sched, 4)

	current, _ := s.Current()
	if err := s.SubmitGuess(ctx, current.Name); err != nil {
		t.Fatalf("milestone guess: %v", err)
	}
	if sched.lastDelay != delays().Milestone {
		t.Fatalf("expected milestone delay %v, got %v", delays().Milestone, sched.lastDelay)
	}
	sched.fire()
}

// --- test fixtures ---

func newTestSession(t *testing.T, items []domain.Item, mode domain.Mode, p *recordingPresenter, store game.ScoreStore) (*game.Session, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	opts := game.Options{
		Mode:            mode,
		PlayerName:      "Alice",
		MilestonePeriod: 100, // out of the way unless a test overrides
		Brackets:        oneBracket(),
		Delays:          delays(),
		Presenter:       p,
		Scheduler:       sched,
		Rand:            rand.New(rand.NewSource(99)),
	}
	if store != nil {
		opts.PersistScores = true
		opts.Scores = store
	}
	s, err := game.NewSession(items, opts)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s, sched
}

func playCorrect(t *testing.T, s *game.Session, sched *manualScheduler, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		current, ok := s.Current()
		if !ok {
			t.Fatalf("no current item at correct guess %d", i)
		}
		if err := s.SubmitGuess(ctx, current.Name); err != nil {
			t.Fatalf("correct guess %d: %v", i, err)
		}
		sched.fire()
	}
}

func delays() game.SettleDelays {
	return game.SettleDelays{
		Correct:    1 * time.Second,
		Milestone:  2 * time.Second,
		Completion: 3 * time.Second,
		Reset:      4 * time.Second,
	}
}

func oneBracket() []game.Bracket {
	return []game.Bracket{
		{MaxStreak: 0, Weights: map[domain.Tier]float64{domain.TierEasy: 1.0}},
	}
}

func testPoolItems(prefix string, tier domain.Tier, n int) []domain.Item {
	items := make([]domain.Item, n)
	for i := range items {
		id := prefix + strconv.Itoa(i+1)
		items[i] = domain.Item{ID: id, Name: "Name " + id, Tier: tier}
	}
	return items
}

func catalog() []domain.Item {
	return []domain.Item{
		{ID: "e1", Name: "Alpha", Tier: domain.TierEasy},
		{ID: "e2", Name: "Beta", Tier: domain.TierEasy},
		{ID: "e3", Name: "Gamma", Tier: domain.TierEasy},
		{ID: "e4", Name: "Delta", Tier: domain.TierEasy},
		{ID: "m1", Name: "Epsilon", Tier: domain.TierMedium},
		{ID: "m2", Name: "Zeta", Tier: domain.TierMedium},
		{ID: "m3", Name: "Eta", Tier: domain.TierMedium},
		{ID: "h1", Name: "Theta", Tier: domain.TierHard},
		{ID: "h2", Name: "Iota", Tier: domain.TierHard},
		{ID: "x1", Name: "Kappa", Tier: domain.TierExpert},
	}
}

// manualScheduler runs continuations on demand so tests stay synchronous.
type manualScheduler struct {
	fn        func()
	lastDelay time.Duration
}

func (m *manualScheduler) Schedule(d time.Duration, fn func()) game.CancelFunc {
	m.fn = fn
	m.lastDelay = d
	return func() bool {
		if m.fn != nil {
			m.fn = nil
			return true
		}
		return false
	}
}

func (m *manualScheduler) fire() {
	if fn := m.fn; fn != nil {
		m.fn = nil
		fn()
	}
}

// recordingPresenter captures every command for assertions.
type recordingPresenter struct {
	items      []domain.Item
	animations []game.AnimationKind
	reveals    []domain.Item
	errors     []string
	locked     bool
}

func (p *recordingPresenter) ShowItem(item domain.Item) { p.items = append(p.items, item) }
func (p *recordingPresenter) PlayAnimation(kind game.AnimationKind) {
	p.animations = append(p.animations, kind)
}
func (p *recordingPresenter) UpdateProgress(int, domain.Tier, domain.Mode) {}
func (p *recordingPresenter) SetInputLocked(locked bool)                   { p.locked = locked }
func (p *recordingPresenter) RevealAnswer(item domain.Item)                { p.reveals = append(p.reveals, item) }
func (p *recordingPresenter) ShowError(message string)                     { p.errors = append(p.errors, message) }

func (p *recordingPresenter) lastAnimation() game.AnimationKind {
	if len(p.animations) == 0 {
		return ""
	}
	return p.animations[len(p.animations)-1]
}
