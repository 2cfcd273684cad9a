package scoring

import (
	"fmt"
	"math"

	"github.com/targetrank-server/internal/domain"
)

// zeroScoreGuard replaces a zero denominator in the evidence-quality metric
// so an all-zero score set yields quality 0 instead of dividing by zero.
const zeroScoreGuard = 0.1

// CompositeScorer combines the five domain scores into one weighted score
// per use case, with a 95% uncertainty-propagation confidence interval and
// an evidence-quality metric. Combining is deterministic: identical inputs
// always yield identical output.
type CompositeScorer struct {
	tables *domain.ScoringTables
}

// NewCompositeScorer creates a composite scorer over the given tables.
func NewCompositeScorer(tables *domain.ScoringTables) *CompositeScorer {
	return &CompositeScorer{tables: tables}
}

// Combine computes the composite score for one use case from the five
// domain scores. It errors only on caller bugs: an unknown use case or a
// missing/invalid domain score.
func (s *CompositeScorer) Combine(scores map[domain.EvidenceDomain]domain.EvidenceScore, useCase domain.UseCase) (domain.CompositeScore, error) {
	if !useCase.IsValid() {
		return domain.CompositeScore{}, fmt.Errorf("combining scores: %w: %s", domain.ErrInvalidUseCase, useCase)
	}

	var overall, variance, qualityNum, scoreSum float64
	components := make(map[domain.EvidenceDomain]float64, len(scores))
	evidenceCount := 0

	for _, d := range domain.AllDomains() {
		score, ok := scores[d]
		if !ok {
			return domain.CompositeScore{}, fmt.Errorf("combining scores: missing %s domain score", d)
		}
		if err := score.Validate(s.tables); err != nil {
			return domain.CompositeScore{}, fmt.Errorf("combining scores: %w", err)
		}

		weight := s.tables.Weight(useCase, d)
		overall += score.Score * weight
		components[d] = score.Score
		evidenceCount += score.FactCount

		// Uncertainty propagation: each domain contributes the square of its
		// unconfident weighted mass.
		term := (1 - score.Confidence) * score.Score * weight
		variance += term * term

		qualityNum += score.Confidence * s.tables.Reliability(d) * score.Score
		scoreSum += score.Score
	}

	margin := 1.96 * math.Sqrt(variance)

	denominator := scoreSum
	if denominator <= 0 {
		denominator = zeroScoreGuard
	}

	return domain.CompositeScore{
		UseCase:         useCase,
		OverallScore:    overall,
		ComponentScores: components,
		ConfidenceInterval: domain.ConfidenceInterval{
			Lower: math.Max(0, overall-margin),
			Upper: math.Min(100, overall+margin),
		},
		EvidenceQuality: qualityNum / denominator,
		EvidenceCount:   evidenceCount,
		ScoringVersion:  domain.ScoringVersion,
	}, nil
}
