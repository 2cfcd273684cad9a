package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/targetrank-server/internal/domain"
)

func sampleDomainScores() map[domain.EvidenceDomain]domain.EvidenceScore {
	return map[domain.EvidenceDomain]domain.EvidenceScore{
		domain.DomainClinical:    {Domain: domain.DomainClinical, Score: 24, Confidence: 0.8, FactCount: 8},
		domain.DomainMechanistic: {Domain: domain.DomainMechanistic, Score: 18, Confidence: 0.7, FactCount: 9},
		domain.DomainPublication: {Domain: domain.DomainPublication, Score: 12, Confidence: 0.6, FactCount: 15},
		domain.DomainGenomic:     {Domain: domain.DomainGenomic, Score: 9, Confidence: 0.5, FactCount: 6},
		domain.DomainSafety:      {Domain: domain.DomainSafety, Score: 7, Confidence: 0.36, FactCount: 3},
	}
}

func TestCompositeScorer_Combine(t *testing.T) {
	scorer := NewCompositeScorer(domain.DefaultTables())

	composite, err := scorer.Combine(sampleDomainScores(), domain.UseCaseDrugRepurposing)
	require.NoError(t, err)

	// 24*.35 + 18*.25 + 12*.15 + 9*.10 + 7*.15 = 16.65
	assert.InDelta(t, 16.65, composite.OverallScore, 1e-9)
	assert.Equal(t, domain.UseCaseDrugRepurposing, composite.UseCase)
	assert.Equal(t, 41, composite.EvidenceCount)
	assert.Equal(t, domain.ScoringVersion, composite.ScoringVersion)
	assert.Len(t, composite.ComponentScores, 5)
	require.NoError(t, composite.Validate())
}

func TestCompositeScorer_IntervalBracketsScore(t *testing.T) {
	scorer := NewCompositeScorer(domain.DefaultTables())

	for _, useCase := range domain.AllUseCases() {
		composite, err := scorer.Combine(sampleDomainScores(), useCase)
		require.NoError(t, err)

		ci := composite.ConfidenceInterval
		assert.GreaterOrEqual(t, ci.Lower, 0.0)
		assert.LessOrEqual(t, ci.Lower, composite.OverallScore)
		assert.GreaterOrEqual(t, ci.Upper, composite.OverallScore)
		assert.LessOrEqual(t, ci.Upper, 100.0)
	}
}

func TestCompositeScorer_FullConfidenceCollapsesInterval(t *testing.T) {
	scorer := NewCompositeScorer(domain.DefaultTables())

	scores := sampleDomainScores()
	for d, score := range scores {
		score.Confidence = 1.0
		scores[d] = score
	}

	composite, err := scorer.Combine(scores, domain.UseCaseBiomarkerDiscovery)
	require.NoError(t, err)
	assert.InDelta(t, composite.OverallScore, composite.ConfidenceInterval.Lower, 1e-9)
	assert.InDelta(t, composite.OverallScore, composite.ConfidenceInterval.Upper, 1e-9)
}

func TestCompositeScorer_AllZeroScores(t *testing.T) {
	scorer := NewCompositeScorer(domain.DefaultTables())

	scores := map[domain.EvidenceDomain]domain.EvidenceScore{}
	for _, d := range domain.AllDomains() {
		scores[d] = domain.EvidenceScore{Domain: d}
	}

	composite, err := scorer.Combine(scores, domain.UseCasePathwayAnalysis)
	require.NoError(t, err)

	assert.Zero(t, composite.OverallScore)
	assert.Zero(t, composite.EvidenceQuality, "zero denominator must not produce NaN")
	assert.Zero(t, composite.ConfidenceInterval.Lower)
	assert.Zero(t, composite.ConfidenceInterval.Upper)
	require.NoError(t, composite.Validate())
}

func TestCompositeScorer_EvidenceQualityBounded(t *testing.T) {
	scorer := NewCompositeScorer(domain.DefaultTables())

	composite, err := scorer.Combine(sampleDomainScores(), domain.UseCaseTherapeuticTargeting)
	require.NoError(t, err)
	assert.Greater(t, composite.EvidenceQuality, 0.0)
	assert.LessOrEqual(t, composite.EvidenceQuality, 1.0)
}

func TestCompositeScorer_Deterministic(t *testing.T) {
	scorer := NewCompositeScorer(domain.DefaultTables())

	first, err := scorer.Combine(sampleDomainScores(), domain.UseCaseDrugRepurposing)
	require.NoError(t, err)
	second, err := scorer.Combine(sampleDomainScores(), domain.UseCaseDrugRepurposing)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompositeScorer_RejectsCallerBugs(t *testing.T) {
	scorer := NewCompositeScorer(domain.DefaultTables())

	_, err := scorer.Combine(sampleDomainScores(), "screening")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidUseCase)

	incomplete := sampleDomainScores()
	delete(incomplete, domain.DomainSafety)
	_, err = scorer.Combine(incomplete, domain.UseCaseDrugRepurposing)
	assert.Error(t, err)

	broken := sampleDomainScores()
	s := broken[domain.DomainSafety]
	s.Score = 11 // above the safety ceiling
	broken[domain.DomainSafety] = s
	_, err = scorer.Combine(broken, domain.UseCaseDrugRepurposing)
	assert.Error(t, err)
}
