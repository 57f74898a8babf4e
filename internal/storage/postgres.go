package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/interviewace/simulation-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	// Set pool configuration
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// SaveReport archives a finished session: the report row plus the full
// turn transcript, in one transaction.
func (r *PostgresRepository) SaveReport(ctx context.Context, report *models.Report, sess *models.Session) error {
	competencyJSON, err := json.Marshal(report.CompetencyScores)
	if err != nil {
		return fmt.Errorf("failed to marshal competency scores: %w", err)
	}

	strengthsJSON, err := json.Marshal(report.Strengths)
	if err != nil {
		return fmt.Errorf("failed to marshal strengths: %w", err)
	}

	improvementsJSON, err := json.Marshal(report.Improvements)
	if err != nil {
		return fmt.Errorf("failed to marshal improvements: %w", err)
	}

	profileJSON, err := json.Marshal(sess.UserProfile)
	if err != nil {
		return fmt.Errorf("failed to marshal user profile: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO reports (session_id, role_type, difficulty, overall_score, competency_scores, strengths, improvements, total_steps, user_profile, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id) DO NOTHING
	`

	_, err = tx.Exec(ctx, query,
		report.SessionID,
		report.RoleType,
		string(report.Difficulty),
		report.OverallScore,
		competencyJSON,
		strengthsJSON,
		improvementsJSON,
		report.TotalSteps,
		profileJSON,
		sess.StartedAt,
		report.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	turnQuery := `
		INSERT INTO report_turns (session_id, turn_index, user_action, response_text, is_stakeholder, is_degraded, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id, turn_index) DO NOTHING
	`

	for i, turn := range sess.History {
		stateJSON, err := json.Marshal(turn.Result.UpdatedState)
		if err != nil {
			return fmt.Errorf("failed to marshal turn state: %w", err)
		}

		_, err = tx.Exec(ctx, turnQuery,
			report.SessionID,
			i,
			turn.UserAction,
			turn.Result.ResponseText,
			turn.Result.IsStakeholderMessage,
			turn.Result.Degraded,
			stateJSON,
			turn.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert turn %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}

	return nil
}

// GetReport retrieves an archived report by session ID
func (r *PostgresRepository) GetReport(ctx context.Context, sessionID string) (*models.Report, error) {
	query := `
		SELECT session_id, role_type, difficulty, overall_score, competency_scores, strengths, improvements, total_steps, completed_at
		FROM reports
		WHERE session_id = $1
	`

	var report models.Report
	var difficultyStr string
	var competencyJSON, strengthsJSON, improvementsJSON []byte

	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&report.SessionID,
		&report.RoleType,
		&difficultyStr,
		&report.OverallScore,
		&competencyJSON,
		&strengthsJSON,
		&improvementsJSON,
		&report.TotalSteps,
		&report.CompletedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	report.Difficulty = models.Difficulty(difficultyStr)

	if competencyJSON != nil {
		if err := json.Unmarshal(competencyJSON, &report.CompetencyScores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal competency scores: %w", err)
		}
	}

	if strengthsJSON != nil {
		if err := json.Unmarshal(strengthsJSON, &report.Strengths); err != nil {
			return nil, fmt.Errorf("failed to unmarshal strengths: %w", err)
		}
	}

	if improvementsJSON != nil {
		if err := json.Unmarshal(improvementsJSON, &report.Improvements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal improvements: %w", err)
		}
	}

	return &report, nil
}

// GetClientByApiKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var lastUsedAt sql.NullTime
	var permissionsJSON, metadataJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}

	// Parse permissions JSON array
	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}

	// Parse metadata JSON object
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &client.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	query := `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`

	_, err := r.pool.Exec(ctx, query, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}

	return nil
}
