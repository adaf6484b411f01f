package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kriskaiqi/okgym/internal/models"
	"github.com/kriskaiqi/okgym/internal/session"
)

// Compile-time check: *DB satisfies the engine's store interface.
var _ session.Store = (*DB)(nil)

const sessionColumns = `id, user_id, plan_id, status, start_time, end_time,
	total_duration, current_index, original_plan, actual_sequence,
	exercise_results, summary, created_at, updated_at`

// inFlightStatuses are the states the start protocol force-cancels.
var inFlightStatuses = []string{
	string(models.StatusActive),
	string(models.StatusPending),
	string(models.StatusPaused),
}

// InUserLock runs fn inside one serializable transaction holding exclusive
// row locks on all of the user's sessions. The start-or-resume protocol needs
// read-then-conditionally-write across multiple rows, which a single
// conditional update cannot express.
func (db *DB) InUserLock(ctx context.Context, userID uuid.UUID, fn func(session.UnitOfWork) error) error {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT id FROM workout_sessions WHERE user_id = $1 FOR UPDATE`, userID); err != nil {
		return fmt.Errorf("locking user sessions: %w", err)
	}

	if err := fn(&txUnit{tx: tx, log: db.log}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// FetchSession returns the session only when it belongs to the user;
// (nil, nil) when absent.
func (db *DB) FetchSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.Session, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID)
	s, err := scanSession(row, db.log)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// FetchPlan returns (nil, nil) when the plan does not exist.
func (db *DB) FetchPlan(ctx context.Context, planID uuid.UUID) (*models.WorkoutPlan, error) {
	return fetchPlan(ctx, db.Pool, planID)
}

// UpdateSessionIf applies the patch only when the session belongs to the user
// and its status is in expected. Zero matched rows yield (nil, nil); the
// caller decides whether that is a conflict or a not-found.
func (db *DB) UpdateSessionIf(ctx context.Context, sessionID, userID uuid.UUID, expected []models.SessionStatus, patch session.Patch) (*models.Session, error) {
	set := []string{"updated_at = now()"}
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.EndTime != nil {
		add("end_time", *patch.EndTime)
	}
	if patch.TotalDuration != nil {
		add("total_duration", *patch.TotalDuration)
	}
	if patch.CurrentIndex != nil {
		add("current_index", *patch.CurrentIndex)
	}
	if patch.Actual != nil {
		b, err := json.Marshal(patch.Actual)
		if err != nil {
			return nil, fmt.Errorf("encoding actual sequence: %w", err)
		}
		add("actual_sequence", b)
	}
	if patch.Results != nil {
		b, err := json.Marshal(patch.Results)
		if err != nil {
			return nil, fmt.Errorf("encoding exercise results: %w", err)
		}
		add("exercise_results", b)
	}
	if patch.Summary != nil {
		b, err := json.Marshal(*patch.Summary)
		if err != nil {
			return nil, fmt.Errorf("encoding summary: %w", err)
		}
		add("summary", b)
	}

	args = append(args, sessionID, userID, statusStrings(expected))
	query := fmt.Sprintf(
		`UPDATE workout_sessions SET %s WHERE id = $%d AND user_id = $%d AND status = ANY($%d) RETURNING %s`,
		strings.Join(set, ", "), len(args)-2, len(args)-1, len(args), sessionColumns)

	row := db.Pool.QueryRow(ctx, query, args...)
	s, err := scanSession(row, db.log)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}
	return s, nil
}

// RecentSessions returns the user's sessions newest first.
func (db *DB) RecentSessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions
		 WHERE user_id = $1 ORDER BY start_time DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		s, err := scanSession(rows, db.log)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// txUnit is the transactional unit of work handed to the start-or-resume
// protocol. Every read locks the rows it touches for the transaction's
// duration.
type txUnit struct {
	tx  pgx.Tx
	log *slog.Logger
}

func (u *txUnit) LatestSession(ctx context.Context, userID, planID uuid.UUID) (*models.Session, error) {
	row := u.tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions
		 WHERE user_id = $1 AND plan_id = $2
		 ORDER BY start_time DESC LIMIT 1 FOR UPDATE`,
		userID, planID)
	s, err := scanSession(row, u.log)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (u *txUnit) ActiveSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	rows, err := u.tx.Query(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions
		 WHERE user_id = $1 AND status = ANY($2) FOR UPDATE`,
		userID, inFlightStatuses)
	if err != nil {
		return nil, fmt.Errorf("querying active sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		s, err := scanSession(rows, u.log)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (u *txUnit) CancelSessions(ctx context.Context, ids []uuid.UUID, endTime time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := u.tx.Exec(ctx,
		`UPDATE workout_sessions
		 SET status = $1, end_time = $2, updated_at = now()
		 WHERE id = ANY($3) AND status = ANY($4)`,
		string(models.StatusCancelled), endTime, ids, inFlightStatuses)
	if err != nil {
		return fmt.Errorf("cancelling sessions: %w", err)
	}
	return nil
}

func (u *txUnit) FetchPlan(ctx context.Context, planID uuid.UUID) (*models.WorkoutPlan, error) {
	return fetchPlan(ctx, u.tx, planID)
}

func (u *txUnit) InsertSession(ctx context.Context, s *models.Session) (*models.Session, error) {
	originalPlan, err := json.Marshal(s.OriginalPlan)
	if err != nil {
		return nil, fmt.Errorf("encoding original plan: %w", err)
	}
	actual, err := json.Marshal(s.Actual)
	if err != nil {
		return nil, fmt.Errorf("encoding actual sequence: %w", err)
	}
	results, err := json.Marshal(s.Results)
	if err != nil {
		return nil, fmt.Errorf("encoding exercise results: %w", err)
	}
	summary, err := json.Marshal(s.Summary)
	if err != nil {
		return nil, fmt.Errorf("encoding summary: %w", err)
	}

	row := u.tx.QueryRow(ctx,
		`INSERT INTO workout_sessions
		 (id, user_id, plan_id, status, start_time, end_time, total_duration,
		  current_index, original_plan, actual_sequence, exercise_results,
		  summary, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		 RETURNING `+sessionColumns,
		s.ID, s.UserID, s.PlanID, string(s.Status), s.StartTime, s.EndTime,
		s.TotalDuration, s.CurrentIndex, originalPlan, actual, results,
		summary, s.CreatedAt, s.UpdatedAt)

	inserted, err := scanSession(row, u.log)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return inserted, nil
}

// scanSession reads one session row. The JSONB blobs go through the tolerant
// decode path: a corrupt blob is logged and replaced with a typed empty
// default instead of failing the read.
func scanSession(row pgx.Row, log *slog.Logger) (*models.Session, error) {
	var s models.Session
	var status string
	var rawPlan, rawActual, rawResults, rawSummary []byte

	err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &status, &s.StartTime,
		&s.EndTime, &s.TotalDuration, &s.CurrentIndex, &rawPlan, &rawActual,
		&rawResults, &rawSummary, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = models.SessionStatus(status)

	if s.OriginalPlan, err = models.DecodePlanEntries(rawPlan); err != nil {
		log.Warn("corrupt originalPlan blob, substituting empty", "session_id", s.ID, "error", err)
	}
	if s.Actual, err = models.DecodeSequence(rawActual); err != nil {
		log.Warn("corrupt actualSequence blob, substituting empty", "session_id", s.ID, "error", err)
	}
	if s.Results, err = models.DecodeResultSet(rawResults); err != nil {
		log.Warn("corrupt exerciseResults blob, substituting empty", "session_id", s.ID, "error", err)
	}
	if s.Summary, err = models.DecodeSummary(rawSummary); err != nil {
		log.Warn("corrupt summary blob, substituting empty", "session_id", s.ID, "error", err)
	}
	return &s, nil
}

func statusStrings(statuses []models.SessionStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
