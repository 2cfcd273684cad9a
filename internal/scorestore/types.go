package scorestore

import (
	"context"
	"io"
	"time"

	"github.com/targetrank-server/internal/domain"
)

// RunRecord is one archived batch scoring run: the run metadata, the
// per-gene score sets, and the computed summary statistics.
type RunRecord struct {
	ID         int64                 `json:"id"`
	RunID      string                `json:"run_id"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	GeneCount  int                   `json:"gene_count"`
	Failed     []string              `json:"failed,omitempty"`
	Scores     []domain.GeneScoreSet `json:"scores"`
	Summary    domain.BatchSummary   `json:"summary"`
	CreatedAt  time.Time             `json:"created_at"`
}

// RunExport is the portable JSON format for run archives.
type RunExport struct {
	Version    string       `json:"version"`
	ExportedAt time.Time    `json:"exported_at"`
	Count      int          `json:"count"`
	Runs       []*RunRecord `json:"runs"`
}

// Store persists batch run archives. Implementations exist for SQLite
// (single-node batch tooling) and PostgreSQL (shared deployments).
type Store interface {
	// SaveRun archives a finished batch run together with its summary.
	SaveRun(ctx context.Context, result *domain.BatchRunResult, summary domain.BatchSummary) (*RunRecord, error)

	// GetRun retrieves a run archive by its run ID.
	// Returns nil without error when the run is unknown.
	GetRun(ctx context.Context, runID string) (*RunRecord, error)

	// ListRuns returns run archives newest first, without the per-gene
	// score payloads.
	ListRuns(ctx context.Context, limit, offset int) ([]*RunRecord, error)

	// Count returns the total number of archived runs.
	Count(ctx context.Context) (int64, error)

	// DeleteRun removes a run archive by its run ID.
	DeleteRun(ctx context.Context, runID string) error

	// ExportJSON writes all run archives to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// Close releases store resources.
	Close() error
}
