package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kriskaiqi/okgym/internal/models"
)

// Manager owns the session lifecycle: it validates transitions, runs the
// start-or-resume protocol, delegates result merging to the reconciler and
// summary math to the calculator, and persists every mutation conditionally.
type Manager struct {
	store Store
	log   *slog.Logger
}

// NewManager creates a Manager on top of a session store.
func NewManager(store Store, log *slog.Logger) *Manager {
	return &Manager{store: store, log: log}
}

// Detail is a session enriched with its plan for the caller's benefit.
type Detail struct {
	models.Session
	Plan *models.WorkoutPlan `json:"plan,omitempty"`
}

// CompleteInput carries the optional caller-supplied completion payload. A
// non-nil Results replaces the session's stored results entirely: the caller
// is asserting it is authoritative.
type CompleteInput struct {
	Duration       *int             `json:"duration,omitempty"` // seconds
	CaloriesBurned *int             `json:"caloriesBurned,omitempty"`
	Results        models.ResultSet `json:"exerciseResults,omitempty"`
}

// defaultSkipReason is recorded when a skip request supplies no reason.
const defaultSkipReason = "Skipped by user"

// StartOrResume returns the user's in-flight session for the plan when one
// exists (idempotent resume, no mutation), or force-cancels every other
// pending/active/paused session the user owns and creates a fresh ACTIVE
// session with the plan's exercise list snapshotted. The whole protocol runs
// inside one serializable unit of work holding an exclusive lock on the
// user's session rows, which closes the race where two concurrent starts
// would create two active sessions.
func (m *Manager) StartOrResume(ctx context.Context, userID, planID uuid.UUID) (*Detail, error) {
	var out *Detail
	err := m.store.InUserLock(ctx, userID, func(uow UnitOfWork) error {
		latest, err := uow.LatestSession(ctx, userID, planID)
		if err != nil {
			return fmt.Errorf("%w: loading latest session: %v", ErrStorage, err)
		}
		if latest != nil && (latest.Status == models.StatusActive || latest.Status == models.StatusPaused) {
			plan, err := uow.FetchPlan(ctx, latest.PlanID)
			if err != nil {
				return fmt.Errorf("%w: loading plan: %v", ErrStorage, err)
			}
			out = &Detail{Session: *latest, Plan: plan}
			return nil
		}

		// Validate the plan before touching anything else.
		plan, err := uow.FetchPlan(ctx, planID)
		if err != nil {
			return fmt.Errorf("%w: loading plan: %v", ErrStorage, err)
		}
		if plan == nil {
			return fmt.Errorf("%w: workout plan %s", ErrNotFound, planID)
		}

		now := time.Now().UTC()

		// One in-flight session per user system-wide: cancel everything else.
		others, err := uow.ActiveSessions(ctx, userID)
		if err != nil {
			return fmt.Errorf("%w: scanning active sessions: %v", ErrStorage, err)
		}
		if len(others) > 0 {
			ids := make([]uuid.UUID, len(others))
			for i, s := range others {
				ids[i] = s.ID
			}
			if err := uow.CancelSessions(ctx, ids, now); err != nil {
				return fmt.Errorf("%w: cancelling sessions: %v", ErrStorage, err)
			}
			m.log.Info("cancelled stale sessions on start", "user_id", userID, "count", len(ids))
		}

		s := &models.Session{
			ID:           uuid.New(),
			UserID:       userID,
			PlanID:       planID,
			Status:       models.StatusActive,
			StartTime:    now,
			OriginalPlan: plan.Snapshot(),
			Actual:       []models.SequenceEntry{},
			Results:      models.ResultSet{},
			Summary:      models.Summary{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		inserted, err := uow.InsertSession(ctx, s)
		if err != nil {
			return fmt.Errorf("%w: inserting session: %v", ErrStorage, err)
		}
		out = &Detail{Session: *inserted, Plan: plan}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetSession returns the session enriched with its plan. NOT_FOUND covers
// both absence and foreign ownership.
func (m *Manager) GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*Detail, error) {
	sess, err := m.fetch(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	plan, err := m.store.FetchPlan(ctx, sess.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading plan: %v", ErrStorage, err)
	}
	return &Detail{Session: *sess, Plan: plan}, nil
}

// RecordAttempt appends one attempt for an exercise through the reconciler's
// single-attempt path and recomputes the rolling summary.
func (m *Manager) RecordAttempt(ctx context.Context, sessionID, userID, exerciseID uuid.UUID, a models.Attempt) (*models.Session, error) {
	if a.FormScore < 0 || a.FormScore > 10 {
		return nil, fmt.Errorf("%w: formScore %.1f outside [0,10]", ErrValidation, a.FormScore)
	}
	if exerciseID == uuid.Nil {
		return nil, fmt.Errorf("%w: exercise id is required", ErrValidation)
	}

	sess, err := m.fetch(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := requireOpen(sess); err != nil {
		return nil, err
	}

	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}

	merged := MergeAttempt(sess.Results, exerciseID, a)
	plan := m.planForSummary(ctx, sess.PlanID)
	sum := RecordSummary(sess.Summary, merged, plan)
	actual, idx := advanceSequence(sess, exerciseID, models.ExerciseCompleted)

	patch := Patch{
		Results:      merged,
		Summary:      &sum,
		Actual:       actual,
		CurrentIndex: &idx,
	}
	return m.applyOpen(ctx, sessionID, userID, patch)
}

// SkipExercise replaces the exercise's result with a skip marker: SKIPPED
// status, empty attempts, zeroed best result, and the supplied reason. A
// later recorded attempt for the same exercise overwrites the skip.
func (m *Manager) SkipExercise(ctx context.Context, sessionID, userID, exerciseID uuid.UUID, reason string) (*models.Session, error) {
	sess, err := m.fetch(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := requireOpen(sess); err != nil {
		return nil, err
	}
	if !sess.InPlan(exerciseID) {
		return nil, fmt.Errorf("%w: exercise %s not in session plan", ErrNotFound, exerciseID)
	}
	if reason == "" {
		reason = defaultSkipReason
	}

	results := sess.Results.Clone()
	results[exerciseID] = &models.ExerciseResult{
		Status:     models.ExerciseSkipped,
		Attempts:   []models.Attempt{},
		Best:       models.BestResult{},
		SkipReason: reason,
	}
	plan := m.planForSummary(ctx, sess.PlanID)
	sum := RecordSummary(sess.Summary, results, plan)
	actual, idx := advanceSequence(sess, exerciseID, models.ExerciseSkipped)

	patch := Patch{
		Results:      results,
		Summary:      &sum,
		Actual:       actual,
		CurrentIndex: &idx,
	}
	return m.applyOpen(ctx, sessionID, userID, patch)
}

// SaveResults is the batch entry point to the reconciler.
func (m *Manager) SaveResults(ctx context.Context, sessionID, userID uuid.UUID, incoming models.ResultSet) (*models.Session, error) {
	if len(incoming) == 0 {
		return nil, fmt.Errorf("%w: empty results payload", ErrValidation)
	}
	for id, r := range incoming {
		if r == nil {
			return nil, fmt.Errorf("%w: nil result entry for exercise %s", ErrValidation, id)
		}
		for _, a := range r.Attempts {
			if a.FormScore < 0 || a.FormScore > 10 {
				return nil, fmt.Errorf("%w: formScore %.1f outside [0,10]", ErrValidation, a.FormScore)
			}
		}
	}

	sess, err := m.fetch(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := requireOpen(sess); err != nil {
		return nil, err
	}

	merged := MergeResultSets(sess.Results, incoming)
	plan := m.planForSummary(ctx, sess.PlanID)
	sum := RecordSummary(sess.Summary, merged, plan)

	actual := sess.Actual
	idx := sess.CurrentIndex
	for id, r := range incoming {
		status := r.Status
		if status == "" {
			status = models.ExerciseCompleted
		}
		probe := &models.Session{OriginalPlan: sess.OriginalPlan, Actual: actual, CurrentIndex: idx}
		actual, idx = advanceSequence(probe, id, status)
	}

	patch := Patch{
		Results:      merged,
		Summary:      &sum,
		Actual:       actual,
		CurrentIndex: &idx,
	}
	return m.applyOpen(ctx, sessionID, userID, patch)
}

// Pause moves ACTIVE → PAUSED. Pure status transition plus an updatedAt bump.
func (m *Manager) Pause(ctx context.Context, sessionID, userID uuid.UUID) (*models.Session, error) {
	return m.setStatus(ctx, sessionID, userID, models.StatusPaused, []models.SessionStatus{models.StatusActive})
}

// Resume moves PAUSED → ACTIVE.
func (m *Manager) Resume(ctx context.Context, sessionID, userID uuid.UUID) (*models.Session, error) {
	return m.setStatus(ctx, sessionID, userID, models.StatusActive, []models.SessionStatus{models.StatusPaused})
}

// Complete finalizes an ACTIVE or PAUSED session. The write is conditioned on
// the status still being open at commit time; when another request already
// finalized the session, this call reports NOT_FOUND rather than
// double-completing.
func (m *Manager) Complete(ctx context.Context, sessionID, userID uuid.UUID, in CompleteInput) (*models.Session, error) {
	sess, err := m.fetch(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(sess.Status, models.StatusCompleted); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	duration := int(now.Sub(sess.StartTime).Seconds())
	if in.Duration != nil {
		duration = *in.Duration
	}
	if duration < 0 {
		return nil, fmt.Errorf("%w: negative duration", ErrValidation)
	}

	results := sess.Results
	if in.Results != nil {
		results = in.Results
	}

	calories := 0
	if in.CaloriesBurned != nil {
		if *in.CaloriesBurned < 0 {
			return nil, fmt.Errorf("%w: negative caloriesBurned", ErrValidation)
		}
		calories = *in.CaloriesBurned
	}

	plan := m.planForSummary(ctx, sess.PlanID)
	sum := CompletionSummary(results, duration, calories, plan)

	status := models.StatusCompleted
	patch := Patch{
		Status:        &status,
		EndTime:       &now,
		TotalDuration: &duration,
		Results:       results,
		Summary:       &sum,
	}
	updated, err := m.store.UpdateSessionIf(ctx, sessionID, userID,
		[]models.SessionStatus{models.StatusActive, models.StatusPaused}, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: completing session: %v", ErrStorage, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: session already finalized", ErrNotFound)
	}
	return updated, nil
}

// Cancel terminates any non-terminal session. Implemented as a single
// conditional update so concurrent cancel/complete calls cannot race into a
// double-terminal state: whichever write commits first wins, the other sees
// zero rows.
func (m *Manager) Cancel(ctx context.Context, sessionID, userID uuid.UUID) (*models.Session, error) {
	now := time.Now().UTC()
	status := models.StatusCancelled
	patch := Patch{Status: &status, EndTime: &now}
	updated, err := m.store.UpdateSessionIf(ctx, sessionID, userID,
		[]models.SessionStatus{models.StatusPending, models.StatusActive, models.StatusPaused}, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: cancelling session: %v", ErrStorage, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: session not found or already terminal", ErrNotFound)
	}
	return updated, nil
}

// fetch loads the caller's session or reports NOT_FOUND.
func (m *Manager) fetch(ctx context.Context, sessionID, userID uuid.UUID) (*models.Session, error) {
	sess, err := m.store.FetchSession(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading session: %v", ErrStorage, err)
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	return sess, nil
}

// planForSummary fetches the plan for label/count defaults. A missing or
// unreadable plan is tolerated: the summary simply keeps its current values.
func (m *Manager) planForSummary(ctx context.Context, planID uuid.UUID) *models.WorkoutPlan {
	plan, err := m.store.FetchPlan(ctx, planID)
	if err != nil {
		m.log.Warn("plan lookup failed during summary update", "plan_id", planID, "error", err)
		return nil
	}
	return plan
}

// setStatus performs a pure status transition. The pre-fetch distinguishes
// NOT_FOUND from a disallowed source state; the conditional write catches
// anything that changed in between.
func (m *Manager) setStatus(ctx context.Context, sessionID, userID uuid.UUID, to models.SessionStatus, expected []models.SessionStatus) (*models.Session, error) {
	sess, err := m.fetch(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	ok := false
	for _, e := range expected {
		if sess.Status == e {
			ok = true
		}
	}
	if !ok {
		return nil, &TransitionError{From: sess.Status, To: to}
	}

	patch := Patch{Status: &to}
	updated, err := m.store.UpdateSessionIf(ctx, sessionID, userID, expected, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: updating session status: %v", ErrStorage, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: session state changed", ErrConflict)
	}
	return updated, nil
}

// applyOpen writes a result-bearing patch conditioned on the session still
// being ACTIVE or PAUSED.
func (m *Manager) applyOpen(ctx context.Context, sessionID, userID uuid.UUID, patch Patch) (*models.Session, error) {
	updated, err := m.store.UpdateSessionIf(ctx, sessionID, userID,
		[]models.SessionStatus{models.StatusActive, models.StatusPaused}, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: persisting session: %v", ErrStorage, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: session state changed", ErrConflict)
	}
	return updated, nil
}

// requireOpen rejects operations against sessions that are not in an
// in-flight state.
func requireOpen(s *models.Session) error {
	if s.Status != models.StatusActive && s.Status != models.StatusPaused {
		return fmt.Errorf("%w: session is %s", ErrValidation, s.Status)
	}
	return nil
}

// advanceSequence upserts the exercise into the actual sequence and moves the
// cursor past it when it is the current plan entry.
func advanceSequence(sess *models.Session, exerciseID uuid.UUID, status models.ExerciseStatus) ([]models.SequenceEntry, int) {
	actual := make([]models.SequenceEntry, len(sess.Actual))
	copy(actual, sess.Actual)

	found := false
	for i := range actual {
		if actual[i].ExerciseID == exerciseID {
			actual[i].Status = status
			found = true
		}
	}
	if !found {
		actual = append(actual, models.SequenceEntry{ExerciseID: exerciseID, Status: status})
	}

	idx := sess.CurrentIndex
	if cur := sess.CurrentEntry(); cur != nil && cur.ExerciseID == exerciseID {
		idx++
	}
	return actual, idx
}
