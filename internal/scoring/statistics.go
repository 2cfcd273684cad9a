package scoring

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/targetrank-server/internal/domain"
)

// Confidence bucket thresholds for the batch summary.
const (
	highConfidenceThreshold   = 70.0
	mediumConfidenceThreshold = 40.0
)

// Summarize aggregates a batch run into the batch-run summary contract:
// the distribution of overall scores across every gene and use case, plus
// per-use-case breakdowns with confidence bucket counts. Pure aggregation,
// no I/O.
func Summarize(result *domain.BatchRunResult) *domain.BatchSummary {
	summary := &domain.BatchSummary{
		RunID:             result.RunID,
		TotalGenesScored:  len(result.GeneScores),
		UseCaseStatistics: make(map[domain.UseCase]domain.UseCaseStats, len(domain.AllUseCases())),
	}

	var allScores []float64
	perUseCase := make(map[domain.UseCase][]float64, len(domain.AllUseCases()))

	for _, geneScores := range result.GeneScores {
		for _, useCase := range domain.AllUseCases() {
			composite, ok := geneScores.CompositeScores[useCase]
			if !ok {
				continue
			}
			allScores = append(allScores, composite.OverallScore)
			perUseCase[useCase] = append(perUseCase[useCase], composite.OverallScore)
		}
	}

	summary.OverallStatistics = describe(allScores)

	for _, useCase := range domain.AllUseCases() {
		scores := perUseCase[useCase]
		stats := domain.UseCaseStats{}
		if len(scores) > 0 {
			dist := describe(scores)
			stats.Mean = dist.Mean
			stats.Median = dist.Median
			for _, score := range scores {
				switch {
				case score > highConfidenceThreshold:
					stats.HighConfidenceGenes++
				case score >= mediumConfidenceThreshold:
					stats.MediumConfidenceGenes++
				default:
					stats.LowConfidenceGenes++
				}
			}
		}
		summary.UseCaseStatistics[useCase] = stats
	}

	return summary
}

// describe computes distribution statistics over a score slice.
func describe(scores []float64) domain.DistributionStats {
	if len(scores) == 0 {
		return domain.DistributionStats{}
	}

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	stats := domain.DistributionStats{
		Mean:   stat.Mean(sorted, nil),
		Median: median(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		stats.StdDev = stat.StdDev(sorted, nil)
	}
	return stats
}

// median expects a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Variance is the population variance used by the cross-validation metric.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := stat.Mean(values, nil)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}
