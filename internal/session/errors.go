package session

import (
	"errors"
	"fmt"

	"github.com/kriskaiqi/okgym/internal/models"
)

// Error kinds, matched with errors.Is. NOT_FOUND deliberately covers both
// "absent" and "owned by someone else" so the API never leaks the existence
// of other users' sessions.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage error")
)

// TransitionError is a validation failure for a disallowed status change. It
// names both ends of the attempted transition so callers can explain the
// failure without re-deriving it.
type TransitionError struct {
	From models.SessionStatus
	To   models.SessionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// Is makes errors.Is(err, ErrValidation) true for transition errors.
func (e *TransitionError) Is(target error) bool {
	return target == ErrValidation
}

// transitions is the allowed state machine. COMPLETED and CANCELLED have no
// outgoing edges.
var transitions = map[models.SessionStatus][]models.SessionStatus{
	models.StatusPending: {models.StatusActive, models.StatusCancelled},
	models.StatusActive:  {models.StatusPaused, models.StatusCompleted, models.StatusCancelled},
	models.StatusPaused:  {models.StatusActive, models.StatusCompleted, models.StatusCancelled},
}

func canTransition(from, to models.SessionStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// checkTransition returns a TransitionError when from→to is not in the table.
func checkTransition(from, to models.SessionStatus) error {
	if !canTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
