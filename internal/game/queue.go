package game

import (
	"math/rand"

	"streak-quiz-service/internal/domain"
)

// refillQueue produces an unbiased random permutation of pool, arranged so the
// item drawn first (the slice tail; draws pop from the end) is never excludeID.
// A collision after shuffling is resolved by swapping the tail with a uniformly
// random earlier position instead of re-shuffling. With a single-item pool the
// exclusion is dropped; honoring it would starve the queue.
func refillQueue(pool []domain.Item, excludeID string, rng *rand.Rand) []domain.Item {
	queue := make([]domain.Item, len(pool))
	copy(queue, pool)
	rng.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})

	last := len(queue) - 1
	if last > 0 && excludeID != "" && queue[last].ID == excludeID {
		j := rng.Intn(last)
		queue[last], queue[j] = queue[j], queue[last]
	}
	return queue
}
