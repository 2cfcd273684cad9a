package analytics

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/targetrank-server/internal/domain"
)

// Service orchestrates profile derivation: stored scores are read through
// the persistence collaborator, analyzed, and the derived profiles cached.
// A cache failure degrades to recompute-from-store, never to an error.
type Service struct {
	logger   *logrus.Logger
	analyzer *Analyzer
	store    domain.ScoreStore
	cache    domain.ProfileCache
}

// NewService creates an analytics service. The cache is optional.
func NewService(logger *logrus.Logger, analyzer *Analyzer, store domain.ScoreStore, cache domain.ProfileCache) *Service {
	return &Service{
		logger:   logger,
		analyzer: analyzer,
		store:    store,
		cache:    cache,
	}
}

// GeneProfile returns the derived profile for one gene. A gene with no
// stored scores returns (nil, nil): absent, not an error.
func (s *Service) GeneProfile(ctx context.Context, geneSymbol string) (*domain.GeneAnalyticsProfile, error) {
	if s.cache != nil {
		if profile, ok := s.cache.GetProfile(ctx, geneSymbol); ok {
			return profile, nil
		}
	}

	stored, err := s.store.GetGeneScores(ctx, geneSymbol)
	if err != nil {
		return nil, fmt.Errorf("loading scores for gene %q: %w", geneSymbol, err)
	}
	if len(stored) == 0 {
		return nil, nil
	}

	drugScores, err := s.store.GetDrugScores(ctx, geneSymbol)
	if err != nil {
		s.logger.WithError(err).WithField("gene_symbol", geneSymbol).Warn("Failed to load drug scores, profiling without them")
		drugScores = nil
	}

	profile := s.analyzer.Analyze(geneSymbol, stored, drugScores)
	if profile != nil && s.cache != nil {
		s.cache.SetProfile(ctx, profile)
	}
	return profile, nil
}

// ComparePanel runs gene analytics over a panel and builds the comparative
// report. Absent genes are skipped; an empty or all-absent panel returns
// the explicit analytics error object, never a raised error.
func (s *Service) ComparePanel(ctx context.Context, geneSymbols []string) (*domain.ComparativeReport, *domain.AnalyticsError) {
	profiles := make([]*domain.GeneAnalyticsProfile, 0, len(geneSymbols))
	for _, symbol := range geneSymbols {
		if err := ctx.Err(); err != nil {
			return nil, &domain.AnalyticsError{Message: fmt.Sprintf("comparison aborted: %v", err)}
		}
		profile, err := s.GeneProfile(ctx, symbol)
		if err != nil {
			s.logger.WithError(err).WithField("gene_symbol", symbol).Warn("Skipping gene in comparative analysis")
			continue
		}
		profiles = append(profiles, profile)
	}

	report, analyticsErr := Compare(profiles)
	if analyticsErr != nil {
		s.logger.WithField("panel_size", len(geneSymbols)).Info("Comparative analysis produced no valid analytics data")
		return nil, analyticsErr
	}

	s.logger.WithFields(logrus.Fields{
		"panel_size":     len(geneSymbols),
		"genes_analyzed": report.TotalGenesAnalyzed,
		"opportunities":  len(report.ResearchOpportunities),
	}).Info("Completed comparative analysis")

	return report, nil
}

// InvalidateGene drops the cached profile after a rescoring run.
func (s *Service) InvalidateGene(ctx context.Context, geneSymbol string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, geneSymbol)
	}
}
