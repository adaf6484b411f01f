package session

import (
	"math"
	"sort"

	"github.com/kriskaiqi/okgym/internal/models"
)

const (
	// caloriesPerMinute is the flat estimation rate applied when the caller
	// supplies no calorie figure.
	caloriesPerMinute = 7

	// defaultFormScore is used for a completed session with no attempts.
	defaultFormScore = 7
)

// scanAttempts computes set count, rep total, and the exact mean form score
// across every attempt in the set.
func scanAttempts(results models.ResultSet) (sets, reps int, formMean float64) {
	var sum float64
	for _, r := range results {
		for _, a := range r.Attempts {
			sets++
			reps += a.Repetitions
			sum += a.FormScore
		}
	}
	if sets > 0 {
		formMean = sum / float64(sets)
	}
	return sets, reps, formMean
}

// RollFormScore recomputes the running mean after one more score:
// (prevMean*(count-1) + score) / count, where count includes the new score.
// Fed the exact previous mean it equals the full-scan mean at every step.
func RollFormScore(prevMean float64, count int, score float64) float64 {
	if count <= 0 {
		return 0
	}
	return (prevMean*float64(count-1) + score) / float64(count)
}

// EstimateCalories derives a calorie figure from session duration at the
// flat per-minute rate, floored at 1.
func EstimateCalories(durationSec int) int {
	cal := int(math.Round(float64(durationSec) / 60.0 * caloriesPerMinute))
	if cal < 1 {
		cal = 1
	}
	return cal
}

// RecordSummary recomputes the rolling aggregates after a result merge.
// Duration and calories pass through from the previous summary unchanged:
// recorded sets do not yet know total session duration. The form score is
// recomputed from the merged attempts, which is the exact-mean incremental
// update (see RollFormScore) expressed over data the record path already
// holds.
func RecordSummary(prev models.Summary, results models.ResultSet, plan *models.WorkoutPlan) models.Summary {
	s := prev
	sets, reps, mean := scanAttempts(results)
	s.TotalSets = sets
	s.TotalReps = reps
	if sets > 0 {
		s.FormScore = int(math.Round(mean))
	}
	applyPlan(&s, plan)
	return s
}

// CompletionSummary computes the final summary by scanning all attempts
// across all exercises. Total sets has a floor of 1 so a completed session
// never reports a zero-set summary; a session with no attempts gets the
// default form score.
func CompletionSummary(results models.ResultSet, durationSec int, calories int, plan *models.WorkoutPlan) models.Summary {
	sets, reps, mean := scanAttempts(results)

	s := models.Summary{
		TotalSets:     sets,
		TotalReps:     reps,
		TotalDuration: durationSec,
	}
	if sets == 0 {
		s.TotalSets = 1
		s.FormScore = defaultFormScore
	} else {
		s.FormScore = int(math.Round(mean))
	}

	if calories > 0 {
		s.CaloriesBurned = calories
	} else {
		s.CaloriesBurned = EstimateCalories(durationSec)
	}

	applyPlan(&s, plan)
	s.ExerciseSummaries = exerciseSummaries(results)
	return s
}

// applyPlan fills exercise counts and group/area labels from the plan when
// they are not otherwise derivable.
func applyPlan(s *models.Summary, plan *models.WorkoutPlan) {
	if plan == nil {
		return
	}
	if s.TotalExercises == 0 {
		s.TotalExercises = len(plan.Exercises)
	}
	if s.UniqueExercises == 0 {
		s.UniqueExercises = len(plan.Exercises)
	}
	if len(s.FocusAreas) == 0 {
		s.FocusAreas = plan.FocusAreas
	}
	if len(s.MuscleGroups) == 0 {
		s.MuscleGroups = plan.MuscleGroups()
	}
}

// exerciseSummaries rolls up sets/reps/best per exercise, ordered by
// exercise id for stable output.
func exerciseSummaries(results models.ResultSet) []models.ExerciseSummary {
	out := make([]models.ExerciseSummary, 0, len(results))
	for id, r := range results {
		es := models.ExerciseSummary{ExerciseID: id, Sets: len(r.Attempts), Best: r.Best}
		for _, a := range r.Attempts {
			es.Reps += a.Repetitions
		}
		out = append(out, es)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExerciseID.String() < out[j].ExerciseID.String()
	})
	if len(out) == 0 {
		return nil
	}
	return out
}
