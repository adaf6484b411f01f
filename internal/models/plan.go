package models

import "github.com/google/uuid"

// PlanExercise is one ordered slot in a workout plan.
type PlanExercise struct {
	EntryID         uuid.UUID `json:"entryId"`
	ExerciseID      uuid.UUID `json:"exerciseId"`
	Name            string    `json:"name"`
	Position        int       `json:"position"`
	TargetSets      int       `json:"targetSets,omitempty"`
	TargetReps      int       `json:"targetReps,omitempty"`
	MeasurementType string    `json:"measurementType,omitempty"` // REPS or DURATION
	MuscleGroups    []string  `json:"muscleGroups,omitempty"`
}

// WorkoutPlan is the plan a session runs against. The session snapshots the
// exercise list at start; this struct also enriches responses.
type WorkoutPlan struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	FocusAreas  []string       `json:"focusAreas,omitempty"`
	Exercises   []PlanExercise `json:"exercises"`
}

// Snapshot renders the plan's exercise list as session plan entries. A plan
// with zero exercises yields a single placeholder entry so downstream
// consumers never see an empty sequence.
func (p *WorkoutPlan) Snapshot() []PlanEntry {
	if len(p.Exercises) == 0 {
		return []PlanEntry{{PlanEntryID: uuid.New(), ExerciseID: uuid.Nil, Order: 0}}
	}
	entries := make([]PlanEntry, len(p.Exercises))
	for i, e := range p.Exercises {
		entries[i] = PlanEntry{PlanEntryID: e.EntryID, ExerciseID: e.ExerciseID, Order: e.Position}
	}
	return entries
}

// MuscleGroups returns the distinct muscle groups across the plan's
// exercises, preserving first-seen order.
func (p *WorkoutPlan) MuscleGroups() []string {
	seen := make(map[string]bool)
	var groups []string
	for _, e := range p.Exercises {
		for _, g := range e.MuscleGroups {
			if !seen[g] {
				seen[g] = true
				groups = append(groups, g)
			}
		}
	}
	return groups
}
