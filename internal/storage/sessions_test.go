package storage

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kriskaiqi/okgym/internal/models"
)

// fakeRow feeds scanSession a fixed row without a database.
type fakeRow struct {
	id, userID, planID          uuid.UUID
	status                      string
	startTime                   time.Time
	endTime                     *time.Time
	totalDuration, currentIndex int
	rawPlan, rawActual          []byte
	rawResults, rawSummary      []byte
	createdAt, updatedAt        time.Time
	err                         error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*uuid.UUID) = r.id
	*dest[1].(*uuid.UUID) = r.userID
	*dest[2].(*uuid.UUID) = r.planID
	*dest[3].(*string) = r.status
	*dest[4].(*time.Time) = r.startTime
	*dest[5].(**time.Time) = r.endTime
	*dest[6].(*int) = r.totalDuration
	*dest[7].(*int) = r.currentIndex
	*dest[8].(*[]byte) = r.rawPlan
	*dest[9].(*[]byte) = r.rawActual
	*dest[10].(*[]byte) = r.rawResults
	*dest[11].(*[]byte) = r.rawSummary
	*dest[12].(*time.Time) = r.createdAt
	*dest[13].(*time.Time) = r.updatedAt
	return nil
}

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestScanSession verifies a well-formed row round-trips into the model,
// including the JSONB blobs.
func TestScanSession(t *testing.T) {
	exID := uuid.New()
	row := &fakeRow{
		id:         uuid.New(),
		userID:     uuid.New(),
		planID:     uuid.New(),
		status:     "ACTIVE",
		startTime:  time.Now().UTC(),
		rawPlan:    []byte(`[{"planEntryId":"` + uuid.NewString() + `","exerciseId":"` + exID.String() + `","order":0}]`),
		rawActual:  []byte(`[]`),
		rawResults: []byte(`{"` + exID.String() + `":{"status":"COMPLETED","attempts":[],"bestResult":{"reps":10,"weight":50,"formScore":8,"duration":0}}}`),
		rawSummary: []byte(`{"totalSets":1,"totalReps":10}`),
	}

	s, err := scanSession(row, discardLog())
	if err != nil {
		t.Fatalf("scanSession: %v", err)
	}
	if s.Status != models.StatusActive {
		t.Errorf("status = %s, want ACTIVE", s.Status)
	}
	if len(s.OriginalPlan) != 1 || s.OriginalPlan[0].ExerciseID != exID {
		t.Errorf("originalPlan = %+v", s.OriginalPlan)
	}
	if r := s.Results[exID]; r == nil || r.Best.Reps != 10 {
		t.Errorf("results = %+v", s.Results)
	}
	if s.Summary.TotalSets != 1 {
		t.Errorf("summary = %+v", s.Summary)
	}
}

// TestScanSessionCorruptBlobs verifies corrupt JSONB blobs never fail the
// read: each is replaced with its typed empty default.
func TestScanSessionCorruptBlobs(t *testing.T) {
	row := &fakeRow{
		id:         uuid.New(),
		userID:     uuid.New(),
		planID:     uuid.New(),
		status:     "ACTIVE",
		startTime:  time.Now().UTC(),
		rawPlan:    []byte(`{broken`),
		rawActual:  []byte(`{broken`),
		rawResults: []byte(`{broken`),
		rawSummary: []byte(`{broken`),
	}

	s, err := scanSession(row, discardLog())
	if err != nil {
		t.Fatalf("scanSession: %v", err)
	}
	if s.OriginalPlan == nil || len(s.OriginalPlan) != 0 {
		t.Errorf("originalPlan = %v, want empty slice", s.OriginalPlan)
	}
	if s.Actual == nil || len(s.Actual) != 0 {
		t.Errorf("actual = %v, want empty slice", s.Actual)
	}
	if s.Results == nil || len(s.Results) != 0 {
		t.Errorf("results = %v, want empty set", s.Results)
	}
}

// TestScanSessionNoRows verifies scan errors pass through untouched so
// callers can match pgx.ErrNoRows.
func TestScanSessionNoRows(t *testing.T) {
	row := &fakeRow{err: pgx.ErrNoRows}
	_, err := scanSession(row, discardLog())
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("err = %v, want pgx.ErrNoRows", err)
	}
}

// TestStatusStrings checks the status slice conversion used in ANY() filters.
func TestStatusStrings(t *testing.T) {
	got := statusStrings([]models.SessionStatus{models.StatusActive, models.StatusPaused})
	if len(got) != 2 || got[0] != "ACTIVE" || got[1] != "PAUSED" {
		t.Errorf("statusStrings = %v", got)
	}
}
