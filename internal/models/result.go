package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExerciseStatus is the per-exercise state within a session.
type ExerciseStatus string

const (
	ExerciseActive    ExerciseStatus = "ACTIVE"
	ExerciseSkipped   ExerciseStatus = "SKIPPED"
	ExerciseCompleted ExerciseStatus = "COMPLETED"
)

// Attempt is one logged set. Attempts are immutable once accepted into a
// result set; only duplicates of an already-accepted attempt are dropped.
type Attempt struct {
	Timestamp   time.Time `json:"timestamp"`
	Repetitions int       `json:"repetitions"`         // 0 for duration-based exercises
	Duration    int       `json:"duration"`            // seconds, 0 for rep-based exercises
	Weight      float64   `json:"weight"`
	FormScore   float64   `json:"formScore"`           // 0–10
	Notes       string    `json:"notes,omitempty"`
	SetNumber   int       `json:"setNumber,omitempty"` // assigned on merge when absent
}

// BestResult is the field-wise maximum observed across attempts.
type BestResult struct {
	Reps      int     `json:"reps"`
	Weight    float64 `json:"weight"`
	FormScore float64 `json:"formScore"`
	Duration  int     `json:"duration"`
	Notes     string  `json:"notes,omitempty"`
}

// ExerciseResult is the merged record for one exercise within a session.
type ExerciseResult struct {
	Status     ExerciseStatus `json:"status"`
	Attempts   []Attempt      `json:"attempts"`
	Best       BestResult     `json:"bestResult"`
	SkipReason string         `json:"skipReason,omitempty"`
}

// Clone returns a deep copy.
func (r *ExerciseResult) Clone() *ExerciseResult {
	out := *r
	out.Attempts = make([]Attempt, len(r.Attempts))
	copy(out.Attempts, r.Attempts)
	return &out
}

// ResultSet maps exercise id to its merged result within one session.
type ResultSet map[uuid.UUID]*ExerciseResult

// Clone returns a deep copy.
func (rs ResultSet) Clone() ResultSet {
	out := make(ResultSet, len(rs))
	for id, r := range rs {
		out[id] = r.Clone()
	}
	return out
}

// Attempts returns every attempt across all exercises, in map order.
func (rs ResultSet) Attempts() []Attempt {
	var all []Attempt
	for _, r := range rs {
		all = append(all, r.Attempts...)
	}
	return all
}

// DecodeResultSet decodes a stored exerciseResults blob. The stored value may
// be a JSON object, a JSON string containing JSON, null, or garbage; anything
// unparseable yields an empty set together with the parse error, so one bad
// field never fails the surrounding request.
func DecodeResultSet(raw []byte) (ResultSet, error) {
	raw = unquote(raw)
	if len(raw) == 0 {
		return ResultSet{}, nil
	}
	var rs ResultSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		return ResultSet{}, err
	}
	if rs == nil {
		rs = ResultSet{}
	}
	for id, r := range rs {
		if r == nil {
			delete(rs, id)
		}
	}
	return rs, nil
}
