package session

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kriskaiqi/okgym/internal/models"
)

// duplicateWindow is the timestamp-proximity half of the duplicate rule. Two
// independently generated timestamps for the same physical set rarely match
// exactly but land within this window. Known false-positive risk: two
// genuinely distinct sets inside the window with identical reps and weight
// are collapsed; callers depend on this tolerance absorbing retries.
const duplicateWindow = 100 * time.Millisecond

// MergeResultSets merges an incoming batch of per-exercise results into an
// existing set. The merge is commutative and idempotent (modulo set-number
// assignment): replays and interleavings never lose or double-count a set.
// Neither input is mutated.
func MergeResultSets(existing, incoming models.ResultSet) models.ResultSet {
	merged := existing.Clone()
	for id, in := range incoming {
		cur, ok := merged[id]
		if !ok {
			// No existing entry: adopt verbatim, no dedup pass.
			adopted := in.Clone()
			sortAttempts(adopted.Attempts)
			merged[id] = adopted
			continue
		}
		merged[id] = mergeResult(cur, in)
	}
	return merged
}

// MergeAttempt is the single-attempt path: a singleton batch containing
// exactly the new attempt, so it can never diverge from the batch entry point.
func MergeAttempt(existing models.ResultSet, exerciseID uuid.UUID, a models.Attempt) models.ResultSet {
	incoming := models.ResultSet{
		exerciseID: &models.ExerciseResult{
			Status:   models.ExerciseCompleted,
			Attempts: []models.Attempt{a},
			Best:     bestOfAttempt(a),
		},
	}
	return MergeResultSets(existing, incoming)
}

func mergeResult(existing, incoming *models.ExerciseResult) *models.ExerciseResult {
	out := existing.Clone()
	for _, a := range incoming.Attempts {
		if hasDuplicate(out.Attempts, a) {
			continue
		}
		if a.SetNumber == 0 {
			a.SetNumber = nextSetNumber(out.Attempts)
		}
		out.Attempts = append(out.Attempts, a)
	}
	sortAttempts(out.Attempts)

	out.Best = maxBest(existing.Best, incoming.Best)
	if incoming.Status != "" {
		out.Status = incoming.Status
	}
	if len(incoming.Attempts) > 0 {
		// A real attempt supersedes any earlier skip.
		out.SkipReason = incoming.SkipReason
	} else if incoming.SkipReason != "" {
		out.SkipReason = incoming.SkipReason
	}
	return out
}

// hasDuplicate classifies a as a duplicate of any existing attempt: equal
// timestamps, or timestamps within duplicateWindow with reps and weight both
// matching exactly.
func hasDuplicate(existing []models.Attempt, a models.Attempt) bool {
	for _, e := range existing {
		if e.Timestamp.Equal(a.Timestamp) {
			return true
		}
		d := e.Timestamp.Sub(a.Timestamp)
		if d < 0 {
			d = -d
		}
		if d < duplicateWindow && e.Repetitions == a.Repetitions && e.Weight == a.Weight {
			return true
		}
	}
	return false
}

// nextSetNumber is 1 + max(existing set numbers), or 1 when none are set.
func nextSetNumber(attempts []models.Attempt) int {
	max := 0
	for _, a := range attempts {
		if a.SetNumber > max {
			max = a.SetNumber
		}
	}
	return max + 1
}

// sortAttempts orders attempts chronologically. Callers may submit out of
// order (retried requests); storage order is always by timestamp ascending.
func sortAttempts(attempts []models.Attempt) {
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].Timestamp.Before(attempts[j].Timestamp)
	})
}

// maxBest maximizes each field independently.
func maxBest(a, b models.BestResult) models.BestResult {
	out := a
	if b.Reps > out.Reps {
		out.Reps = b.Reps
	}
	if b.Weight > out.Weight {
		out.Weight = b.Weight
	}
	if b.FormScore > out.FormScore {
		out.FormScore = b.FormScore
	}
	if b.Duration > out.Duration {
		out.Duration = b.Duration
	}
	if out.Notes == "" {
		out.Notes = b.Notes
	}
	return out
}

func bestOfAttempt(a models.Attempt) models.BestResult {
	return models.BestResult{
		Reps:      a.Repetitions,
		Weight:    a.Weight,
		FormScore: a.FormScore,
		Duration:  a.Duration,
		Notes:     a.Notes,
	}
}
