package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ExerciseSummary is a per-exercise rollup computed at completion time.
type ExerciseSummary struct {
	ExerciseID uuid.UUID  `json:"exerciseId"`
	Sets       int        `json:"sets"`
	Reps       int        `json:"reps"`
	Best       BestResult `json:"bestResult"`
}

// Summary holds the session's derived aggregates. It is recomputed on every
// record and complete call, never independently mutated.
type Summary struct {
	TotalSets         int               `json:"totalSets"`
	TotalReps         int               `json:"totalReps"`
	TotalDuration     int               `json:"totalDuration"` // seconds
	CaloriesBurned    int               `json:"caloriesBurned"`
	FormScore         int               `json:"formScore"` // rounded rolling average
	TotalExercises    int               `json:"totalExercises"`
	UniqueExercises   int               `json:"uniqueExercises"`
	FocusAreas        []string          `json:"focusAreas,omitempty"`
	MuscleGroups      []string          `json:"muscleGroups,omitempty"`
	ExerciseSummaries []ExerciseSummary `json:"exerciseSummaries,omitempty"`
}

// DecodeSummary decodes a stored summary blob, substituting a zeroed Summary
// on any parse failure.
func DecodeSummary(raw []byte) (Summary, error) {
	raw = unquote(raw)
	if len(raw) == 0 {
		return Summary{}, nil
	}
	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return Summary{}, err
	}
	return s, nil
}
