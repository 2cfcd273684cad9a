// Package batch orchestrates full scoring runs: evidence loading, the
// scoring pipeline, score persistence, and run archiving.
package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/targetrank-server/internal/analytics"
	"github.com/targetrank-server/internal/domain"
	"github.com/targetrank-server/internal/scorestore"
	"github.com/targetrank-server/internal/scoring"
)

// Runner owns batch scoring. At most one background run is in flight at a
// time; a second start request is rejected until the current run ends.
type Runner struct {
	log       *logrus.Logger
	evidence  domain.EvidenceSource
	pipeline  *scoring.Pipeline
	scores    domain.ScoreStore
	runs      scorestore.Store
	analytics *analytics.Service
	timeout   time.Duration

	mu      sync.Mutex
	running bool
}

// NewRunner creates a batch runner. The run store is optional; without it
// runs are persisted to the score store only.
func NewRunner(
	logger *logrus.Logger,
	evidence domain.EvidenceSource,
	pipeline *scoring.Pipeline,
	scores domain.ScoreStore,
	runs scorestore.Store,
	analyticsService *analytics.Service,
	timeout time.Duration,
) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Runner{
		log:       logger,
		evidence:  evidence,
		pipeline:  pipeline,
		scores:    scores,
		runs:      runs,
		analytics: analyticsService,
		timeout:   timeout,
	}
}

// Start launches a background batch run over all scorable genes. Returns
// false when a run is already in progress.
func (r *Runner) Start() bool {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return false
	}
	r.running = true
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if _, err := r.Run(ctx); err != nil {
			r.log.WithError(err).Error("Batch scoring run failed")
		}
	}()

	return true
}

// Run executes one full batch run synchronously: load every scorable gene,
// score it, persist the scores, and archive the run summary. The summary
// is returned for callers that report it directly.
func (r *Runner) Run(ctx context.Context) (*domain.BatchSummary, error) {
	geneIDs, err := r.evidence.ListScorableGenes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing scorable genes: %w", err)
	}
	if len(geneIDs) == 0 {
		r.log.Info("No scorable genes, skipping batch run")
		return nil, nil
	}

	recordsByID, err := r.evidence.GetRecords(ctx, geneIDs)
	if err != nil {
		return nil, fmt.Errorf("loading evidence records: %w", err)
	}

	records := make([]*domain.GeneEvidenceRecord, 0, len(recordsByID))
	for _, record := range recordsByID {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].GeneID < records[j].GeneID })

	result, runErr := r.pipeline.Run(ctx, records)
	if result == nil {
		return nil, runErr
	}

	if len(result.GeneScores) > 0 {
		if err := r.scores.SaveGeneScores(ctx, result.GeneScores); err != nil {
			return nil, fmt.Errorf("persisting batch scores: %w", err)
		}
		for _, scored := range result.GeneScores {
			r.analytics.InvalidateGene(ctx, scored.GeneSymbol)
		}
	}

	summary := scoring.Summarize(result)
	if r.runs != nil {
		// Use a fresh context so an aborted run still gets archived.
		archiveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := r.runs.SaveRun(archiveCtx, result, *summary); err != nil {
			r.log.WithError(err).WithField("run_id", result.RunID).Warn("Failed to archive batch run")
		}
	}

	return summary, runErr
}

// ScoreSingle scores one gene on demand, persists the result, and drops
// the stale analytics profile.
func (r *Runner) ScoreSingle(ctx context.Context, geneSymbol string) (*domain.GeneScoreSet, error) {
	record, err := r.evidence.GetRecord(ctx, geneSymbol)
	if err != nil {
		return nil, err
	}

	scores, err := r.pipeline.ScoreGene(record)
	if err != nil {
		return nil, err
	}

	if err := r.scores.SaveGeneScores(ctx, []domain.GeneScoreSet{*scores}); err != nil {
		return nil, fmt.Errorf("persisting scores for gene %q: %w", geneSymbol, err)
	}
	r.analytics.InvalidateGene(ctx, scores.GeneSymbol)

	return scores, nil
}
