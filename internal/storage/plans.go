package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kriskaiqi/okgym/internal/models"
)

// fetchPlan loads a plan with its ordered exercise list. Works against the
// pool or an open transaction.
func fetchPlan(ctx context.Context, q querier, planID uuid.UUID) (*models.WorkoutPlan, error) {
	var p models.WorkoutPlan
	err := q.QueryRow(ctx,
		`SELECT id, name, COALESCE(description, ''), focus_areas
		 FROM workout_plans WHERE id = $1`,
		planID).Scan(&p.ID, &p.Name, &p.Description, &p.FocusAreas)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying plan: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT pe.id, pe.exercise_id, pe.position, pe.target_sets, pe.target_reps,
		        e.name, e.measurement_type, e.muscle_groups
		 FROM plan_exercises pe
		 JOIN exercises e ON e.id = pe.exercise_id
		 WHERE pe.plan_id = $1
		 ORDER BY pe.position ASC`,
		planID)
	if err != nil {
		return nil, fmt.Errorf("querying plan exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.PlanExercise
		if err := rows.Scan(&e.EntryID, &e.ExerciseID, &e.Position, &e.TargetSets,
			&e.TargetReps, &e.Name, &e.MeasurementType, &e.MuscleGroups); err != nil {
			return nil, fmt.Errorf("scanning plan exercise: %w", err)
		}
		p.Exercises = append(p.Exercises, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}
