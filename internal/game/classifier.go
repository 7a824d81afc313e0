package game

// Outcome classifies what a correct guess earned.
type Outcome string

const (
	// OutcomeCorrect is an ordinary correct guess.
	OutcomeCorrect Outcome = "correct"
	// OutcomeMilestone marks a streak hitting a multiple of the reward period.
	OutcomeMilestone Outcome = "milestone"
	// OutcomeCompletion marks a perfect run through the entire active pool.
	OutcomeCompletion Outcome = "completion"
)

// Classify maps a post-increment streak and the active pool size to an
// outcome. Completion is checked before milestone: clearing a 10-item pool at
// streak 10 is a completion even when 10 is also a milestone period. Pure.
func Classify(newStreak, poolSize, milestonePeriod int) Outcome {
	if poolSize >= 1 && newStreak == poolSize {
		return OutcomeCompletion
	}
	if milestonePeriod > 0 && newStreak > 0 && newStreak%milestonePeriod == 0 {
		return OutcomeMilestone
	}
	return OutcomeCorrect
}
