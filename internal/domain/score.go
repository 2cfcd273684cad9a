package domain

import (
	"fmt"
	"math"
	"time"
)

// ScoringVersion tags every composite score with the rule-table revision
// that produced it, so stored scores can be invalidated when tables change.
const ScoringVersion = "2.1.0"

// EvidenceScore is the output of one domain calculator for one gene.
// The score is capped at the domain's ceiling; confidence is a saturating
// function of the number of independent contributing facts.
type EvidenceScore struct {
	Score      float64            `json:"score"`
	Confidence float64            `json:"confidence"`
	Source     string             `json:"source"`
	Domain     EvidenceDomain     `json:"domain"`
	FactCount  int                `json:"fact_count"`
	Metadata   map[string]float64 `json:"metadata,omitempty"`
}

// Validate enforces the per-domain score ceiling and confidence bounds.
// These are invariants that must hold after every calculator runs.
func (s *EvidenceScore) Validate(tables *ScoringTables) error {
	if !s.Domain.IsValid() {
		return fmt.Errorf("evidence score validation: %w", ErrInvalidDomain)
	}
	ceiling := tables.Ceiling(s.Domain)
	if s.Score < 0 || s.Score > ceiling {
		return fmt.Errorf("evidence score validation: %s score %.4f outside [0, %.1f]", s.Domain, s.Score, ceiling)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("evidence score validation: %s confidence %.4f outside [0, 1]", s.Domain, s.Confidence)
	}
	if math.IsNaN(s.Score) || math.IsNaN(s.Confidence) {
		return fmt.Errorf("evidence score validation: %s produced NaN", s.Domain)
	}
	return nil
}

// ConfidenceInterval is the 95% band around a composite score.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// CompositeScore is the single weighted number produced for a gene under one
// use case, with its uncertainty band and evidence-quality metric. One row
// per gene x use case is persisted by the storage collaborator.
type CompositeScore struct {
	GeneID             string                     `json:"gene_id"`
	GeneSymbol         string                     `json:"gene_symbol,omitempty"`
	UseCase            UseCase                    `json:"use_case"`
	OverallScore       float64                    `json:"overall_score"`
	ComponentScores    map[EvidenceDomain]float64 `json:"component_scores"`
	ConfidenceInterval ConfidenceInterval         `json:"confidence_interval"`
	EvidenceQuality    float64                    `json:"evidence_quality"`
	EvidenceCount      int                        `json:"evidence_count"`
	ScoringVersion     string                     `json:"scoring_version"`
}

// Validate checks the composite invariants: overall in [0, use-case max],
// interval ordered around the overall score within [0, 100].
func (c *CompositeScore) Validate() error {
	if !c.UseCase.IsValid() {
		return fmt.Errorf("composite score validation: %w", ErrInvalidUseCase)
	}
	if c.OverallScore < 0 {
		return fmt.Errorf("composite score validation: negative overall score %.4f", c.OverallScore)
	}
	ci := c.ConfidenceInterval
	if ci.Lower < 0 || ci.Lower > c.OverallScore || c.OverallScore > ci.Upper || ci.Upper > 100 {
		return fmt.Errorf("composite score validation: interval [%.4f, %.4f] does not bracket %.4f within [0, 100]",
			ci.Lower, ci.Upper, c.OverallScore)
	}
	if c.EvidenceQuality < 0 || c.EvidenceQuality > 1 {
		return fmt.Errorf("composite score validation: evidence quality %.4f outside [0, 1]", c.EvidenceQuality)
	}
	return nil
}

// Rounded returns a copy with score fields rounded to 2 decimals, the
// declared precision of the output contract. Internal math keeps full
// precision; rounding happens once, at the boundary.
func (c CompositeScore) Rounded() CompositeScore {
	c.OverallScore = Round2(c.OverallScore)
	c.EvidenceQuality = Round2(c.EvidenceQuality)
	c.ConfidenceInterval.Lower = Round2(c.ConfidenceInterval.Lower)
	c.ConfidenceInterval.Upper = Round2(c.ConfidenceInterval.Upper)
	components := make(map[EvidenceDomain]float64, len(c.ComponentScores))
	for d, v := range c.ComponentScores {
		components[d] = Round2(v)
	}
	c.ComponentScores = components
	return c
}

// GeneScoreSet is one gene's complete batch output: all four composite
// scores plus the per-drug score map keyed by the input's drug keys.
type GeneScoreSet struct {
	GeneID             string                     `json:"gene_id"`
	GeneSymbol         string                     `json:"gene_symbol,omitempty"`
	CompositeScores    map[UseCase]CompositeScore `json:"composite_scores"`
	DrugSpecificScores map[string]float64         `json:"drug_specific_scores"`
	EvidenceCount      int                        `json:"evidence_count"`
	ScoredAt           time.Time                  `json:"scored_at"`
}

// BatchRunResult is the output of one pipeline run, suitable for bulk
// persistence by the storage collaborator.
type BatchRunResult struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	GeneScores []GeneScoreSet `json:"gene_scores"`
	Failed     []string       `json:"failed_genes,omitempty"`
}

// DistributionStats summarizes a score distribution.
type DistributionStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// UseCaseStats summarizes one use case across a batch run, with confidence
// buckets at the fixed 70/40 thresholds.
type UseCaseStats struct {
	Mean                  float64 `json:"mean"`
	Median                float64 `json:"median"`
	HighConfidenceGenes   int     `json:"high_confidence_genes"`
	MediumConfidenceGenes int     `json:"medium_confidence_genes"`
	LowConfidenceGenes    int     `json:"low_confidence_genes"`
}

// BatchSummary is the batch-run summary contract: a single JSON-shaped
// object intended for logging and dashboards.
type BatchSummary struct {
	RunID             string                   `json:"run_id"`
	TotalGenesScored  int                      `json:"total_genes_scored"`
	OverallStatistics DistributionStats        `json:"overall_statistics"`
	UseCaseStatistics map[UseCase]UseCaseStats `json:"use_case_statistics"`
}

// Round2 rounds to 2 decimal places, the output contract precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
