package scoring

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/targetrank-server/internal/domain"
)

// DefaultWorkers is the pipeline worker count when the configuration does
// not specify one.
const DefaultWorkers = 4

// ProgressEvent reports per-gene pipeline progress, consumed by the
// websocket progress stream.
type ProgressEvent struct {
	RunID     string `json:"run_id"`
	GeneID    string `json:"gene_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Failed    bool   `json:"failed"`
}

// Pipeline scores batches of genes. Per-gene scoring is embarrassingly
// parallel: calculators and the composite scorer are pure functions of one
// gene's record with no shared mutable state, so genes run concurrently on
// a worker pool without affecting results. Input records are never mutated.
type Pipeline struct {
	logger   *logrus.Logger
	engine   *Engine
	scorer   *CompositeScorer
	workers  int
	progress func(ProgressEvent)
}

// NewPipeline creates a batch pipeline over the given engine.
func NewPipeline(logger *logrus.Logger, engine *Engine, workers int) *Pipeline {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pipeline{
		logger:  logger,
		engine:  engine,
		scorer:  NewCompositeScorer(engine.Tables()),
		workers: workers,
	}
}

// OnProgress registers a progress callback. Callbacks run on worker
// goroutines and must be safe for concurrent use.
func (p *Pipeline) OnProgress(fn func(ProgressEvent)) {
	p.progress = fn
}

// Run scores every record, invoking the five calculators once per gene and
// the composite scorer once per use case. A cancelled context aborts the
// run between genes with no partial per-gene state; already-scored genes
// are returned.
func (p *Pipeline) Run(ctx context.Context, records []*domain.GeneEvidenceRecord) (*domain.BatchRunResult, error) {
	runID := uuid.New().String()
	started := time.Now().UTC()

	p.logger.WithFields(logrus.Fields{
		"run_id":  runID,
		"genes":   len(records),
		"workers": p.workers,
	}).Info("Starting batch scoring run")

	jobs := make(chan *domain.GeneEvidenceRecord)
	type outcome struct {
		scores *domain.GeneScoreSet
		geneID string
		err    error
	}
	results := make(chan outcome, len(records))

	var wg sync.WaitGroup
	var completed int64
	var mu sync.Mutex

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range jobs {
				scores, err := p.ScoreGene(record)
				results <- outcome{scores: scores, geneID: record.GeneID, err: err}

				if p.progress != nil {
					mu.Lock()
					completed++
					done := int(completed)
					mu.Unlock()
					p.progress(ProgressEvent{
						RunID:     runID,
						GeneID:    record.GeneID,
						Completed: done,
						Total:     len(records),
						Failed:    err != nil,
					})
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, record := range records {
			select {
			case jobs <- record:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	result := &domain.BatchRunResult{
		RunID:     runID,
		StartedAt: started,
	}
	for out := range results {
		if out.err != nil {
			p.logger.WithError(out.err).WithField("gene_id", out.geneID).Warn("Failed to score gene")
			result.Failed = append(result.Failed, out.geneID)
			continue
		}
		result.GeneScores = append(result.GeneScores, *out.scores)
	}

	// Genes are independent and may complete in any order; sort for
	// deterministic output regardless of scheduling.
	sort.Slice(result.GeneScores, func(i, j int) bool {
		return result.GeneScores[i].GeneID < result.GeneScores[j].GeneID
	})
	sort.Strings(result.Failed)
	result.FinishedAt = time.Now().UTC()

	p.logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"scored":   len(result.GeneScores),
		"failed":   len(result.Failed),
		"duration": result.FinishedAt.Sub(result.StartedAt),
	}).Info("Completed batch scoring run")

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("batch run %s aborted: %w", runID, err)
	}
	return result, nil
}

// ScoreGene scores one gene: five domain scores computed once, then one
// composite per use case reusing those domain scores, plus the per-drug
// score map. The input record is cloned before normalization so the
// caller's copy is never touched.
func (p *Pipeline) ScoreGene(record *domain.GeneEvidenceRecord) (*domain.GeneScoreSet, error) {
	working := record.Clone()
	if err := working.Normalize(); err != nil {
		return nil, fmt.Errorf("scoring gene %q: %w", record.GeneID, err)
	}

	domainScores, err := p.engine.ComputeAll(working)
	if err != nil {
		return nil, err
	}

	composites := make(map[domain.UseCase]domain.CompositeScore, len(domain.AllUseCases()))
	for _, useCase := range domain.AllUseCases() {
		composite, err := p.scorer.Combine(domainScores, useCase)
		if err != nil {
			return nil, fmt.Errorf("scoring gene %q: %w", record.GeneID, err)
		}
		composite.GeneID = working.GeneID
		composite.GeneSymbol = working.GeneSymbol
		composites[useCase] = composite.Rounded()
	}

	// Drug-level evidence is not scored independently yet; every associated
	// drug inherits the gene's therapeutic-targeting composite as a proxy.
	// TODO: score drugs individually from their own phase/mechanism facts.
	targeting := composites[domain.UseCaseTherapeuticTargeting]
	drugScores := make(map[string]float64, len(working.Drugs))
	for key := range working.Drugs {
		drugScores[key] = targeting.OverallScore
	}

	return &domain.GeneScoreSet{
		GeneID:             working.GeneID,
		GeneSymbol:         working.GeneSymbol,
		CompositeScores:    composites,
		DrugSpecificScores: drugScores,
		EvidenceCount:      working.EvidenceCount(),
		ScoredAt:           time.Now().UTC(),
	}, nil
}
