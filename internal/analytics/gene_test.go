package analytics

import (
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/targetrank-server/internal/domain"
)

func testAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewAnalyzer(logger, domain.DefaultTables())
}

// stored builds a composite score with the given use case, overall score
// and per-domain component scores.
func stored(useCase domain.UseCase, overall float64, components map[domain.EvidenceDomain]float64, evidenceCount int) domain.CompositeScore {
	return domain.CompositeScore{
		UseCase:         useCase,
		OverallScore:    overall,
		ComponentScores: components,
		EvidenceCount:   evidenceCount,
	}
}

func TestAnalyzer_Analyze_NoStoredScores(t *testing.T) {
	analyzer := testAnalyzer(t)

	assert.Nil(t, analyzer.Analyze("TP53", nil, nil))
	assert.Nil(t, analyzer.Analyze("TP53", []domain.CompositeScore{}, map[string]float64{"aspirin": 5}))
}

func TestAnalyzer_Analyze_WellEvidencedGene(t *testing.T) {
	analyzer := testAnalyzer(t)

	components := map[domain.EvidenceDomain]float64{
		domain.DomainClinical:    30,   // ceiling, strength 1.0
		domain.DomainMechanistic: 12.5, // strength 0.5
		domain.DomainPublication: 10,   // strength 0.5
		domain.DomainGenomic:     0,
		domain.DomainSafety:      0,
	}
	scores := []domain.CompositeScore{
		stored(domain.UseCaseDrugRepurposing, 60, components, 12),
		stored(domain.UseCaseBiomarkerDiscovery, 60, components, 12),
	}
	drugs := map[string]float64{"drugbank:imatinib": 48.5}

	profile := analyzer.Analyze("ABL1", scores, drugs)
	require.NotNil(t, profile)

	assert.Equal(t, "ABL1", profile.GeneSymbol)
	assert.Equal(t, 12, profile.EvidenceCount)
	assert.InDelta(t, 1.0, profile.DomainStrengths[domain.DomainClinical], 1e-9)
	assert.InDelta(t, 0.5, profile.DomainStrengths[domain.DomainMechanistic], 1e-9)
	assert.InDelta(t, 0.5, profile.DomainStrengths[domain.DomainPublication], 1e-9)
	assert.Zero(t, profile.DomainStrengths[domain.DomainGenomic])
	assert.Zero(t, profile.DomainStrengths[domain.DomainSafety])

	// Three nonzero domains plus drug evidence out of six categories.
	assert.InDelta(t, 4.0/6.0, profile.EvidenceDiversityScore, 1e-9)

	// Identical overall scores across use cases leave zero variance.
	assert.InDelta(t, 1.0, profile.CrossValidationScore, 1e-9)

	// Mean of diversity, capped evidence ratio, clinical strength and
	// cross-validation: (4/6 + 1 + 1 + 1) / 4.
	assert.InDelta(t, (4.0/6.0+3)/4, profile.RecommendationConfidence, 1e-9)

	// Genomic and safety are below their gap thresholds, everything else
	// is covered.
	assert.Len(t, profile.EvidenceGaps, 2)

	// Promising best use case, strong clinical tier, high confidence.
	require.Len(t, profile.Recommendations, 3)
	assert.Contains(t, profile.Recommendations[0], "Promising for")
	assert.Contains(t, profile.Recommendations[1], "translational work")
	assert.Contains(t, profile.Recommendations[2], "High-confidence profile")
}

func TestAnalyzer_Analyze_BareGene(t *testing.T) {
	analyzer := testAnalyzer(t)

	empty := map[domain.EvidenceDomain]float64{
		domain.DomainClinical:    0,
		domain.DomainMechanistic: 0,
		domain.DomainPublication: 0,
		domain.DomainGenomic:     0,
		domain.DomainSafety:      0,
	}
	profile := analyzer.Analyze("ORF99", []domain.CompositeScore{
		stored(domain.UseCasePathwayAnalysis, 0, empty, 0),
	}, nil)
	require.NotNil(t, profile)

	assert.Zero(t, profile.EvidenceDiversityScore)
	// A single stored score gets the neutral cross-validation value.
	assert.InDelta(t, 0.5, profile.CrossValidationScore, 1e-9)
	assert.InDelta(t, 0.125, profile.RecommendationConfidence, 1e-9)

	// Diversity gap plus one gap per domain.
	assert.Len(t, profile.EvidenceGaps, 6)

	require.Len(t, profile.Recommendations, 2)
	assert.Contains(t, profile.Recommendations[0], "preliminary")
	assert.Contains(t, profile.Recommendations[1], "Low-confidence profile")
}

func TestAnalyzer_Analyze_DomainStrengthUsesMaxAcrossUseCases(t *testing.T) {
	analyzer := testAnalyzer(t)

	profile := analyzer.Analyze("KRAS", []domain.CompositeScore{
		stored(domain.UseCaseDrugRepurposing, 40, map[domain.EvidenceDomain]float64{
			domain.DomainClinical: 15,
		}, 4),
		stored(domain.UseCaseBiomarkerDiscovery, 45, map[domain.EvidenceDomain]float64{
			domain.DomainClinical: 30,
		}, 4),
	}, nil)
	require.NotNil(t, profile)

	assert.InDelta(t, 1.0, profile.DomainStrengths[domain.DomainClinical], 1e-9)
}

func TestAnalyzer_Analyze_CrossValidationClampsAtZero(t *testing.T) {
	analyzer := testAnalyzer(t)

	// Variance of {0, 100} is 2500, far past the scaling range.
	profile := analyzer.Analyze("EGFR", []domain.CompositeScore{
		stored(domain.UseCaseDrugRepurposing, 0, nil, 1),
		stored(domain.UseCaseBiomarkerDiscovery, 100, nil, 1),
	}, nil)
	require.NotNil(t, profile)

	assert.Zero(t, profile.CrossValidationScore)
}

func TestAnalyzer_Analyze_RankedUseCasesDeterministic(t *testing.T) {
	analyzer := testAnalyzer(t)

	scores := []domain.CompositeScore{
		stored(domain.UseCaseTherapeuticTargeting, 10, nil, 1),
		stored(domain.UseCasePathwayAnalysis, 55, nil, 1),
		stored(domain.UseCaseDrugRepurposing, 40, nil, 1),
		stored(domain.UseCaseBiomarkerDiscovery, 55, nil, 1),
	}

	profile := analyzer.Analyze("BRAF", scores, nil)
	require.NotNil(t, profile)
	require.Len(t, profile.RankedUseCases, 4)

	// Descending by score, ties broken by use-case name.
	assert.Equal(t, domain.UseCaseBiomarkerDiscovery, profile.RankedUseCases[0].UseCase)
	assert.Equal(t, domain.UseCasePathwayAnalysis, profile.RankedUseCases[1].UseCase)
	assert.Equal(t, domain.UseCaseDrugRepurposing, profile.RankedUseCases[2].UseCase)
	assert.Equal(t, domain.UseCaseTherapeuticTargeting, profile.RankedUseCases[3].UseCase)

	best, ok := profile.BestUseCase()
	require.True(t, ok)
	assert.Equal(t, domain.UseCaseBiomarkerDiscovery, best.UseCase)
	assert.InDelta(t, 55, best.Score, 1e-9)
}

func TestAnalyzer_Analyze_TopDrugsCappedAtTen(t *testing.T) {
	analyzer := testAnalyzer(t)

	drugs := make(map[string]float64, 12)
	for i := 0; i < 12; i++ {
		drugs[fmt.Sprintf("drugbank:compound-%02d", i)] = float64(i)
	}
	drugs["drugbank:tied-a"] = 50
	drugs["drugbank:tied-b"] = 50

	profile := analyzer.Analyze("MTOR", []domain.CompositeScore{
		stored(domain.UseCaseDrugRepurposing, 30, nil, 2),
	}, drugs)
	require.NotNil(t, profile)

	require.Len(t, profile.TopDrugs, 10)
	assert.Equal(t, "drugbank:tied-a", profile.TopDrugs[0].DrugKey)
	assert.Equal(t, "drugbank:tied-b", profile.TopDrugs[1].DrugKey)
	for i := 1; i < len(profile.TopDrugs); i++ {
		assert.GreaterOrEqual(t, profile.TopDrugs[i-1].Score, profile.TopDrugs[i].Score)
	}
}

func TestAnalyzer_Analyze_RepurposingRecommendation(t *testing.T) {
	analyzer := testAnalyzer(t)

	profile := analyzer.Analyze("CYP2D6", []domain.CompositeScore{
		stored(domain.UseCaseDrugRepurposing, 75, map[domain.EvidenceDomain]float64{
			domain.DomainClinical: 10,
			domain.DomainSafety:   6, // strength 0.6, past the repurposing bar
		}, 9),
	}, map[string]float64{"drugbank:codeine": 20})
	require.NotNil(t, profile)

	require.NotEmpty(t, profile.Recommendations)
	assert.Contains(t, profile.Recommendations[0], "Strong candidate for")

	assert.Contains(t, profile.Recommendations,
		"Known drug associations with an acceptable safety profile; consider repurposing screens")
}
