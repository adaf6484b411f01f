package models

import (
	"testing"

	"github.com/google/uuid"
)

// TestSnapshot verifies the plan renders into ordered session entries.
func TestSnapshot(t *testing.T) {
	ex1, ex2 := uuid.New(), uuid.New()
	plan := &WorkoutPlan{
		Exercises: []PlanExercise{
			{EntryID: uuid.New(), ExerciseID: ex1, Position: 0},
			{EntryID: uuid.New(), ExerciseID: ex2, Position: 1},
		},
	}
	entries := plan.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].ExerciseID != ex1 || entries[1].ExerciseID != ex2 {
		t.Errorf("entry order wrong: %+v", entries)
	}
	if entries[0].Order != 0 || entries[1].Order != 1 {
		t.Errorf("order fields wrong: %+v", entries)
	}
}

// TestSnapshotEmptyPlan verifies a plan with no exercises produces one
// placeholder entry rather than an empty sequence.
func TestSnapshotEmptyPlan(t *testing.T) {
	entries := (&WorkoutPlan{}).Snapshot()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1 placeholder", len(entries))
	}
	if entries[0].ExerciseID != uuid.Nil {
		t.Errorf("placeholder exercise id = %s, want nil uuid", entries[0].ExerciseID)
	}
	if entries[0].PlanEntryID == uuid.Nil {
		t.Error("placeholder entry id not generated")
	}
}

// TestMuscleGroups verifies deduplication and first-seen order.
func TestMuscleGroups(t *testing.T) {
	plan := &WorkoutPlan{
		Exercises: []PlanExercise{
			{MuscleGroups: []string{"chest", "triceps"}},
			{MuscleGroups: []string{"chest", "back"}},
		},
	}
	got := plan.MuscleGroups()
	want := []string{"chest", "triceps", "back"}
	if len(got) != len(want) {
		t.Fatalf("groups = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("groups[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
