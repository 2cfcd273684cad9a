package scorestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/targetrank-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite run archive.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scoring_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		gene_count INTEGER NOT NULL DEFAULT 0,
		failed TEXT DEFAULT '[]',
		scores TEXT NOT NULL,
		summary TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON scoring_runs(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveRun archives a finished batch run together with its summary.
func (s *SQLiteStore) SaveRun(ctx context.Context, result *domain.BatchRunResult, summary domain.BatchSummary) (*RunRecord, error) {
	record, scores, summaryJSON, failedJSON, err := encodeRun(result, summary)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scoring_runs (
			run_id, started_at, finished_at, gene_count, failed, scores, summary, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.RunID,
		record.StartedAt,
		record.FinishedAt,
		record.GeneCount,
		failedJSON,
		scores,
		summaryJSON,
		record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get insert ID: %w", err)
	}
	record.ID = id

	return record, nil
}

// GetRun retrieves a run archive by its run ID.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, run_id, started_at, finished_at, gene_count, failed, scores, summary, created_at
		FROM scoring_runs
		WHERE run_id = ?
		LIMIT 1
	`, runID)

	record, err := scanRun(row, true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return record, nil
}

// ListRuns returns run archives newest first, without score payloads.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]*RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, started_at, finished_at, gene_count, failed, '[]', summary, created_at
		FROM scoring_runs
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
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
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scoring_runs").Scan(&count)
	return count, err
}

// DeleteRun removes a run archive by its run ID.
func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM scoring_runs WHERE run_id = ?", runID)
	return err
}

// maxExportLimit is the maximum number of runs to export at once.
const maxExportLimit = 100000

// ExportJSON writes all run archives to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, started_at, finished_at, gene_count, failed, scores, summary, created_at
		FROM scoring_runs
		ORDER BY created_at DESC
		LIMIT ?
	`, maxExportLimit)
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
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRun scans a row into a RunRecord. withScores controls whether the
// scores payload column is decoded.
func scanRun(s scanner, withScores bool) (*RunRecord, error) {
	record := &RunRecord{}
	var failedJSON, scoresJSON, summaryJSON string

	err := s.Scan(
		&record.ID, &record.RunID, &record.StartedAt, &record.FinishedAt,
		&record.GeneCount, &failedJSON, &scoresJSON, &summaryJSON, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(failedJSON), &record.Failed); err != nil {
		return nil, fmt.Errorf("failed to decode failures: %w", err)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &record.Summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	if withScores {
		if err := json.Unmarshal([]byte(scoresJSON), &record.Scores); err != nil {
			return nil, fmt.Errorf("failed to decode scores: %w", err)
		}
	}
	return record, nil
}

// encodeRun converts a batch result into a record plus its JSON payloads.
func encodeRun(result *domain.BatchRunResult, summary domain.BatchSummary) (*RunRecord, string, string, string, error) {
	if result == nil {
		return nil, "", "", "", fmt.Errorf("batch result is required")
	}

	record := &RunRecord{
		RunID:      result.RunID,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		GeneCount:  len(result.GeneScores),
		Failed:     result.Failed,
		Scores:     result.GeneScores,
		Summary:    summary,
		CreatedAt:  time.Now(),
	}

	scores, err := json.Marshal(result.GeneScores)
	if err != nil {
		return nil, "", "", "", fmt.Errorf("failed to encode scores: %w", err)
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, "", "", "", fmt.Errorf("failed to encode summary: %w", err)
	}
	failed := result.Failed
	if failed == nil {
		failed = []string{}
	}
	failedJSON, err := json.Marshal(failed)
	if err != nil {
		return nil, "", "", "", fmt.Errorf("failed to encode failures: %w", err)
	}

	return record, string(scores), string(summaryJSON), string(failedJSON), nil
}
