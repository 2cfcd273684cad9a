package scorestore

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewPostgresStore(db)
	require.NoError(t, err)
	return store, mock
}

func runColumns() []string {
	return []string{"id", "run_id", "started_at", "finished_at", "gene_count", "failed", "scores", "summary", "created_at"}
}

func TestNewPostgresStore_NilDB(t *testing.T) {
	store, err := NewPostgresStore(nil)
	assert.Nil(t, store)
	assert.Error(t, err)
}

func TestPostgresStore_SaveRun(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("INSERT INTO scoring_runs").
		WithArgs("run-001", sqlmock.AnyArg(), sqlmock.AnyArg(), 1,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	record, err := store.SaveRun(context.Background(),
		batchResult("run-001", []string{"BAD1"}, "TP53"), testSummary("run-001", 1))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, int64(7), record.ID)
	assert.Equal(t, 1, record.GeneCount)
	assert.Equal(t, []string{"BAD1"}, record.Failed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	store, mock := setupMockStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, run_id").
		WithArgs("run-001").
		WillReturnRows(sqlmock.NewRows(runColumns()).AddRow(
			int64(7), "run-001", now.Add(-time.Minute), now, 2,
			`["BAD1"]`,
			`[{"gene_id":"TP53"},{"gene_id":"KRAS"}]`,
			`{"run_id":"run-001","total_genes_scored":2}`,
			now,
		))

	record, err := store.GetRun(context.Background(), "run-001")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, int64(7), record.ID)
	assert.Equal(t, "run-001", record.RunID)
	assert.Equal(t, []string{"BAD1"}, record.Failed)
	require.Len(t, record.Scores, 2)
	assert.Equal(t, "TP53", record.Scores[0].GeneID)
	assert.Equal(t, 2, record.Summary.TotalGenesScored)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("SELECT id, run_id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	record, err := store.GetRun(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, record)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns(t *testing.T) {
	store, mock := setupMockStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, run_id").
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(runColumns()).
			AddRow(int64(2), "run-b", now, now, 1, `[]`, `[]`, `{"run_id":"run-b"}`, now).
			AddRow(int64(1), "run-a", now, now, 1, `[]`, `[]`, `{"run_id":"run-a"}`, now))

	runs, err := store.ListRuns(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].RunID)
	assert.Empty(t, runs[0].Scores)
	assert.Equal(t, "run-b", runs[0].Summary.RunID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountAndDelete(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectExec("DELETE FROM scoring_runs").
		WithArgs("run-a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, store.DeleteRun(context.Background(), "run-a"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// getTestStore returns a store backed by a real database.
// Skip test if TEST_DATABASE_URL is not set.
func getTestStore(t *testing.T) *PostgresStore {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL tests")
	}

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scoring_runs (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL UNIQUE,
			started_at TIMESTAMP WITH TIME ZONE NOT NULL,
			finished_at TIMESTAMP WITH TIME ZONE NOT NULL,
			gene_count INTEGER NOT NULL DEFAULT 0,
			failed JSONB NOT NULL DEFAULT '[]',
			scores JSONB NOT NULL,
			summary JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM scoring_runs")
	require.NoError(t, err)

	store, err := NewPostgresStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresStore_Integration_SaveRunUpsert(t *testing.T) {
	store := getTestStore(t)
	ctx := context.Background()

	first, err := store.SaveRun(ctx, batchResult("run-x", nil, "TP53"), testSummary("run-x", 1))
	require.NoError(t, err)

	// Re-archiving the same run ID replaces the payload in place.
	second, err := store.SaveRun(ctx, batchResult("run-x", nil, "TP53", "KRAS"), testSummary("run-x", 2))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	record, err := store.GetRun(ctx, "run-x")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 2, record.GeneCount)
	require.Len(t, record.Scores, 2)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, store.DeleteRun(ctx, "run-x"))
}
