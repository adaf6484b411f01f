package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a workout session.
type SessionStatus string

const (
	StatusPending   SessionStatus = "PENDING"
	StatusActive    SessionStatus = "ACTIVE"
	StatusPaused    SessionStatus = "PAUSED"
	StatusCompleted SessionStatus = "COMPLETED"
	StatusCancelled SessionStatus = "CANCELLED"
)

// Terminal reports whether the status has no outgoing transitions.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PlanEntry is one exercise slot snapshotted from the plan at session start.
// The snapshot is immutable for the life of the session; later edits to the
// plan do not touch it.
type PlanEntry struct {
	PlanEntryID uuid.UUID `json:"planEntryId"`
	ExerciseID  uuid.UUID `json:"exerciseId"`
	Order       int       `json:"order"`
}

// SequenceEntry records an exercise the user actually touched, in order.
type SequenceEntry struct {
	ExerciseID uuid.UUID      `json:"exerciseId"`
	Status     ExerciseStatus `json:"status"`
}

// Session is the root entity: exercise results and the summary are embedded
// in it and persisted with it as one atomic unit.
type Session struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	PlanID        uuid.UUID       `json:"planId"`
	Status        SessionStatus   `json:"status"`
	StartTime     time.Time       `json:"startTime"`
	EndTime       *time.Time      `json:"endTime,omitempty"`
	TotalDuration int             `json:"totalDuration"` // seconds
	OriginalPlan  []PlanEntry     `json:"originalPlan"`
	Actual        []SequenceEntry `json:"actualSequence"`
	CurrentIndex  int             `json:"currentIndex"`
	Results       ResultSet       `json:"exerciseResults"`
	Summary       Summary         `json:"summary"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// CurrentEntry returns the plan entry under the cursor, or nil when the
// cursor has run off the end of the plan.
func (s *Session) CurrentEntry() *PlanEntry {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.OriginalPlan) {
		return nil
	}
	return &s.OriginalPlan[s.CurrentIndex]
}

// InPlan reports whether the exercise appears in the session's snapshot.
func (s *Session) InPlan(exerciseID uuid.UUID) bool {
	for _, e := range s.OriginalPlan {
		if e.ExerciseID == exerciseID {
			return true
		}
	}
	return false
}

// DecodePlanEntries decodes a stored originalPlan blob, substituting an empty
// slice on any parse failure. The error is returned so callers can log it.
func DecodePlanEntries(raw []byte) ([]PlanEntry, error) {
	raw = unquote(raw)
	if len(raw) == 0 {
		return []PlanEntry{}, nil
	}
	var entries []PlanEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []PlanEntry{}, err
	}
	if entries == nil {
		entries = []PlanEntry{}
	}
	return entries, nil
}

// DecodeSequence decodes a stored actualSequence blob, substituting an empty
// slice on any parse failure.
func DecodeSequence(raw []byte) ([]SequenceEntry, error) {
	raw = unquote(raw)
	if len(raw) == 0 {
		return []SequenceEntry{}, nil
	}
	var entries []SequenceEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []SequenceEntry{}, err
	}
	if entries == nil {
		entries = []SequenceEntry{}
	}
	return entries, nil
}

// unquote unwraps a double-encoded JSON blob (the stored value may be a JSON
// string containing JSON, a bare object/array, or null).
func unquote(raw []byte) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return raw
		}
		return []byte(inner)
	}
	return raw
}
