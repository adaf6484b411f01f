package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/kriskaiqi/okgym/internal/models"
	"github.com/kriskaiqi/okgym/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. *storage.DB satisfies
// it; tests use a fake.
type DataSource interface {
	FetchSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.Session, error)
	FetchPlan(ctx context.Context, planID uuid.UUID) (*models.WorkoutPlan, error)
	RecentSessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Session, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
