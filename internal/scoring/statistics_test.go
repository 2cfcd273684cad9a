package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/targetrank-server/internal/domain"
)

func summaryInput(scoresByGene map[string]float64) *domain.BatchRunResult {
	result := &domain.BatchRunResult{RunID: "run-1"}
	for gene, score := range scoresByGene {
		composites := make(map[domain.UseCase]domain.CompositeScore, 4)
		for _, useCase := range domain.AllUseCases() {
			composites[useCase] = domain.CompositeScore{
				GeneID:       gene,
				UseCase:      useCase,
				OverallScore: score,
			}
		}
		result.GeneScores = append(result.GeneScores, domain.GeneScoreSet{
			GeneID:          gene,
			CompositeScores: composites,
		})
	}
	return result
}

func TestSummarize_EmptyRun(t *testing.T) {
	summary := Summarize(&domain.BatchRunResult{RunID: "empty"})

	assert.Equal(t, "empty", summary.RunID)
	assert.Zero(t, summary.TotalGenesScored)
	assert.Zero(t, summary.OverallStatistics.Mean)
	require.Len(t, summary.UseCaseStatistics, 4)
	for _, stats := range summary.UseCaseStatistics {
		assert.Zero(t, stats.Mean)
		assert.Zero(t, stats.HighConfidenceGenes)
	}
}

func TestSummarize_Distribution(t *testing.T) {
	summary := Summarize(summaryInput(map[string]float64{
		"A": 10,
		"B": 50,
		"C": 90,
	}))

	assert.Equal(t, 3, summary.TotalGenesScored)
	assert.InDelta(t, 50.0, summary.OverallStatistics.Mean, 1e-9)
	assert.InDelta(t, 50.0, summary.OverallStatistics.Median, 1e-9)
	assert.Equal(t, 10.0, summary.OverallStatistics.Min)
	assert.Equal(t, 90.0, summary.OverallStatistics.Max)
	assert.Greater(t, summary.OverallStatistics.StdDev, 0.0)
}

func TestSummarize_ConfidenceBuckets(t *testing.T) {
	summary := Summarize(summaryInput(map[string]float64{
		"HI":       80,
		"BORDER":   70, // not strictly above the threshold, lands in medium
		"MED":      40,
		"LOW":      39.99,
		"NOTHING":  0,
	}))

	for _, useCase := range domain.AllUseCases() {
		stats := summary.UseCaseStatistics[useCase]
		assert.Equal(t, 1, stats.HighConfidenceGenes, "%s", useCase)
		assert.Equal(t, 2, stats.MediumConfidenceGenes, "%s", useCase)
		assert.Equal(t, 2, stats.LowConfidenceGenes, "%s", useCase)
	}
}

func TestVariance(t *testing.T) {
	assert.Zero(t, Variance(nil))
	assert.Zero(t, Variance([]float64{5}))
	assert.InDelta(t, 2.0/3.0, Variance([]float64{1, 2, 3}), 1e-9)
}
