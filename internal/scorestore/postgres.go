package scorestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/targetrank-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL run archive.
// It expects the database and schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL run archive from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// SaveRun archives a finished batch run together with its summary.
// Re-archiving the same run ID replaces the previous payload.
func (s *PostgresStore) SaveRun(ctx context.Context, result *domain.BatchRunResult, summary domain.BatchSummary) (*RunRecord, error) {
	record, scores, summaryJSON, failedJSON, err := encodeRun(result, summary)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO scoring_runs (
			run_id, started_at, finished_at, gene_count, failed, scores, summary, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO UPDATE SET
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			gene_count = EXCLUDED.gene_count,
			failed = EXCLUDED.failed,
			scores = EXCLUDED.scores,
			summary = EXCLUDED.summary,
			created_at = EXCLUDED.created_at
		RETURNING id
	`

	err = s.db.QueryRowContext(ctx, query,
		record.RunID,
		record.StartedAt,
		record.FinishedAt,
		record.GeneCount,
		failedJSON,
		scores,
		summaryJSON,
		record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	return record, nil
}

// GetRun retrieves a run archive by its run ID.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, run_id, started_at, finished_at, gene_count, failed, scores, summary, created_at
		FROM scoring_runs
		WHERE run_id = $1
		LIMIT 1
	`, runID)

	record, err := scanRun(row, true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return record, nil
}

// ListRuns returns run archives newest first, without score payloads.
func (s *PostgresStore) ListRuns(ctx context.Context, limit, offset int) ([]*RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, started_at, finished_at, gene_count, failed, '[]', summary, created_at
		FROM scoring_runs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var result []*RunRecord
	for rows.Next() {
		record, err := scanRun(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

// Count returns the total number of archived runs.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scoring_runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// DeleteRun removes a run archive by its run ID.
func (s *PostgresStore) DeleteRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM scoring_runs WHERE run_id = $1", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// pgMaxExportLimit is the maximum number of runs to export at once.
const pgMaxExportLimit = 100000

// ExportJSON writes all run archives to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, started_at, finished_at, gene_count, failed, scores, summary, created_at
		FROM scoring_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, pgMaxExportLimit)
	if err != nil {
		return fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var all []*RunRecord
	for rows.Next() {
		record, err := scanRun(rows, true)
		if err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		all = append(all, record)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate runs: %w", err)
	}

	export := &RunExport{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Runs:       all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
