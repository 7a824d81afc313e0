package game

import (
	"math/rand"

	"streak-quiz-service/internal/domain"
)

// Bracket maps a streak ceiling to per-tier draw weights for endless mode.
// Brackets are checked in order; the first whose MaxStreak is at or above the
// current streak applies. MaxStreak == 0 marks the open-ended final bracket.
type Bracket struct {
	MaxStreak int
	Weights   map[domain.Tier]float64
}

// SelectionPolicy decides which items a mode may draw and in what order.
// Linear modes pin one tier; endless blends tiers by streak-dependent weights.
// Implementations are selected at session construction, not by branching on
// mode strings at every call site.
type SelectionPolicy interface {
	// ActiveTier resolves the tier in effect at the given streak. For linear
	// modes this is constant; for endless it changes at bracket boundaries,
	// which forces a queue rebuild.
	ActiveTier(streak int) domain.Tier
	// Pool returns the items eligible under this policy. Its length is the
	// completion target.
	Pool(catalog []domain.Item, streak int) []domain.Item
	// Refill builds a fresh draw queue, consumed from the tail. excludeID, if
	// non-empty, must not be the first item drawn (unless the pool has only
	// one item).
	Refill(catalog []domain.Item, streak int, excludeID string) []domain.Item
}

// policyFor returns the selection policy for a mode. Unknown modes are a
// caller bug and must be rejected before reaching here.
func policyFor(mode domain.Mode, brackets []Bracket, rng *rand.Rand) SelectionPolicy {
	if mode == domain.ModeEndless {
		return &weightedPolicy{brackets: brackets, rng: rng}
	}
	tier, _ := mode.Tier()
	return &linearPolicy{tier: tier, rng: rng}
}

// linearPolicy draws uniformly from a single fixed tier.
type linearPolicy struct {
	tier domain.Tier
	rng  *rand.Rand
}

func (p *linearPolicy) ActiveTier(int) domain.Tier { return p.tier }

func (p *linearPolicy) Pool(catalog []domain.Item, _ int) []domain.Item {
	var pool []domain.Item
	for _, item := range catalog {
		if item.Tier == p.tier {
			pool = append(pool, item)
		}
	}
	return pool
}

func (p *linearPolicy) Refill(catalog []domain.Item, streak int, excludeID string) []domain.Item {
	return refillQueue(p.Pool(catalog, streak), excludeID, p.rng)
}

// weightedPolicy spans every tier. The streak picks a bracket, the bracket
// weights pick a tier per draw, and items are drawn uniformly inside the tier.
type weightedPolicy struct {
	brackets []Bracket
	rng      *rand.Rand
}

func (p *weightedPolicy) bracketFor(streak int) Bracket {
	for _, b := range p.brackets {
		if b.MaxStreak == 0 || streak <= b.MaxStreak {
			return b
		}
	}
	if len(p.brackets) > 0 {
		return p.brackets[len(p.brackets)-1]
	}
	return Bracket{}
}

// ActiveTier reports the dominant (highest-weight) tier of the current
// bracket. Crossing into a bracket with a different dominant tier is the
// signal to rebuild the queue.
func (p *weightedPolicy) ActiveTier(streak int) domain.Tier {
	b := p.bracketFor(streak)
	best := domain.TierEasy
	bestWeight := -1.0
	for _, tier := range domain.Tiers {
		if w := b.Weights[tier]; w > bestWeight {
			best, bestWeight = tier, w
		}
	}
	return best
}

// Pool is the whole catalog: an endless completion means every item was named.
func (p *weightedPolicy) Pool(catalog []domain.Item, _ int) []domain.Item {
	return catalog
}

// Refill orders the full catalog by repeated weighted tier draws without
// replacement. Tiers whose partition has been exhausted lose their weight and
// the remaining mass is renormalized; when no weighted tier has items left the
// rest of the queue falls back to uniform draws. The excluded item is held out
// of the first draw and reinserted afterwards, so a refill never loses it.
func (p *weightedPolicy) Refill(catalog []domain.Item, streak int, excludeID string) []domain.Item {
	weights := p.bracketFor(streak).Weights

	partitions := make(map[domain.Tier][]domain.Item)
	var excluded *domain.Item
	remaining := 0
	for i, item := range catalog {
		if item.ID == excludeID {
			excluded = &catalog[i]
			continue
		}
		partitions[item.Tier] = append(partitions[item.Tier], item)
		remaining++
	}

	order := make([]domain.Item, 0, len(catalog))
	for remaining > 0 {
		tier, ok := p.drawTier(weights, partitions)
		if !ok {
			// No weighted tier has items left; uniform over whatever remains.
			tier = p.uniformTier(partitions)
		}
		part := partitions[tier]
		j := p.rng.Intn(len(part))
		order = append(order, part[j])
		part[j] = part[len(part)-1]
		partitions[tier] = part[:len(part)-1]
		remaining--
	}

	if excluded != nil {
		if len(order) == 0 {
			// Absolute last resort: the excluded item is the only one left.
			order = append(order, *excluded)
		} else {
			// Reinsert anywhere except the first-drawn slot.
			j := 1 + p.rng.Intn(len(order))
			order = append(order, domain.Item{})
			copy(order[j+1:], order[j:])
			order[j] = *excluded
		}
	}

	// Draws pop from the tail, so reverse the draw order.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// drawTier performs a cumulative-weight scan over tiers that still have items.
func (p *weightedPolicy) drawTier(weights map[domain.Tier]float64, partitions map[domain.Tier][]domain.Item) (domain.Tier, bool) {
	total := 0.0
	for _, tier := range domain.Tiers {
		if len(partitions[tier]) > 0 {
			total += weights[tier]
		}
	}
	if total <= 0 {
		return "", false
	}
	target := p.rng.Float64() * total
	acc := 0.0
	for _, tier := range domain.Tiers {
		if len(partitions[tier]) == 0 {
			continue
		}
		acc += weights[tier]
		if target < acc {
			return tier, true
		}
	}
	// Float accumulation can land exactly on total; take the last non-empty.
	for i := len(domain.Tiers) - 1; i >= 0; i-- {
		if len(partitions[domain.Tiers[i]]) > 0 {
			return domain.Tiers[i], true
		}
	}
	return "", false
}

func (p *weightedPolicy) uniformTier(partitions map[domain.Tier][]domain.Item) domain.Tier {
	total := 0
	for _, tier := range domain.Tiers {
		total += len(partitions[tier])
	}
	target := p.rng.Intn(total)
	for _, tier := range domain.Tiers {
		if target < len(partitions[tier]) {
			return tier
		}
		target -= len(partitions[tier])
	}
	return domain.Tiers[len(domain.Tiers)-1]
}
