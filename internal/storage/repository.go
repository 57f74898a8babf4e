package storage

import (
	"context"
	"errors"

	"github.com/interviewace/simulation-engine/internal/models"
)

// ErrReportNotFound is returned when no archived report exists for a
// session id.
var ErrReportNotFound = errors.New("report not found")

// Repository defines the interface for report archival and API client
// lookup. Live sessions never touch it; only finished simulations are
// written here.
type Repository interface {
	// Reports
	SaveReport(ctx context.Context, report *models.Report, sess *models.Session) error
	GetReport(ctx context.Context, sessionID string) (*models.Report, error)

	// API Clients
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
