package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kriskaiqi/okgym/internal/models"
)

// Store abstracts the durable session store for the lifecycle manager. The
// pgx-backed *storage.DB satisfies it; tests use an in-memory fake.
type Store interface {
	// InUserLock runs fn inside a single serializable unit of work holding an
	// exclusive lock on all of the user's session rows. fn returning an error
	// rolls the whole unit back.
	InUserLock(ctx context.Context, userID uuid.UUID, fn func(UnitOfWork) error) error

	// FetchSession returns the session only when it exists and belongs to the
	// user; (nil, nil) otherwise.
	FetchSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.Session, error)

	// FetchPlan returns (nil, nil) when the plan is absent.
	FetchPlan(ctx context.Context, planID uuid.UUID) (*models.WorkoutPlan, error)

	// UpdateSessionIf applies the patch only when the session belongs to the
	// user and its current status is in expected. It returns the updated row,
	// or (nil, nil) when the condition matched zero rows.
	UpdateSessionIf(ctx context.Context, sessionID, userID uuid.UUID, expected []models.SessionStatus, patch Patch) (*models.Session, error)
}

// UnitOfWork is the transactional surface used by the start-or-resume
// protocol. All reads hold row locks for the duration of the transaction.
type UnitOfWork interface {
	LatestSession(ctx context.Context, userID, planID uuid.UUID) (*models.Session, error)
	ActiveSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	CancelSessions(ctx context.Context, ids []uuid.UUID, endTime time.Time) error
	FetchPlan(ctx context.Context, planID uuid.UUID) (*models.WorkoutPlan, error)
	InsertSession(ctx context.Context, s *models.Session) (*models.Session, error)
}

// Patch is the set of session fields a conditional update may change. Nil
// pointers (and nil slices/maps) leave the stored value untouched; updatedAt
// is always bumped by the store.
type Patch struct {
	Status        *models.SessionStatus
	EndTime       *time.Time
	TotalDuration *int
	CurrentIndex  *int
	Actual        []models.SequenceEntry
	Results       models.ResultSet
	Summary       *models.Summary
}
