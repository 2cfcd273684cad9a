package analytics

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/targetrank-server/internal/domain"
)

// Comparative report limits and thresholds.
const (
	rankingLimit     = 20
	opportunityLimit = 25

	// Opportunity score: best use-case score minus this penalty per gap.
	gapPenalty = 5.0

	// Per-use-case confidence buckets across the panel.
	panelHighThreshold   = 70.0
	panelMediumThreshold = 50.0

	// Readiness tier thresholds on clinical strength / recommendation
	// confidence / evidence count.
	clinicalTierStrength      = 0.6
	clinicalTierConfidence    = 0.7
	clinicalTierEvidence      = 8
	preclinicalTierStrength   = 0.4
	preclinicalTierConfidence = 0.5
	preclinicalTierEvidence   = 4
	basicTierEvidence         = 2

	// Portfolio rule: proportion of high-confidence genes that flips the
	// top-level recommendation.
	portfolioHighConfRatio = 0.3
)

// Compare builds the panel-level report from per-gene profiles. Genes whose
// profile is nil (absent from the score store) are skipped; an empty or
// all-absent panel yields the explicit analytics error object rather than a
// raised error, so report generation can continue for other panels.
func Compare(profiles []*domain.GeneAnalyticsProfile) (*domain.ComparativeReport, *domain.AnalyticsError) {
	valid := make([]*domain.GeneAnalyticsProfile, 0, len(profiles))
	for _, p := range profiles {
		if p != nil {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return nil, &domain.AnalyticsError{Message: "no valid analytics data"}
	}

	report := &domain.ComparativeReport{
		TotalGenesAnalyzed: len(valid),
		ByConfidence: rankBy(valid, func(p *domain.GeneAnalyticsProfile) float64 {
			return p.RecommendationConfidence
		}),
		ByClinicalStrength: rankBy(valid, func(p *domain.GeneAnalyticsProfile) float64 {
			return p.DomainStrengths[domain.DomainClinical]
		}),
		ByDiversity: rankBy(valid, func(p *domain.GeneAnalyticsProfile) float64 {
			return p.EvidenceDiversityScore
		}),
		UseCaseComparisons: compareUseCases(valid),
		ReadinessTiers:     bucketReadiness(valid),
		GeneratedAt:        time.Now().UTC(),
	}
	report.ResearchOpportunities = findOpportunities(valid)
	report.PortfolioRecommendations = portfolioRecommendations(valid, report)

	return report, nil
}

// rankBy orders genes by a profile metric, descending, top 20.
func rankBy(profiles []*domain.GeneAnalyticsProfile, metric func(*domain.GeneAnalyticsProfile) float64) []domain.GeneRankingEntry {
	entries := make([]domain.GeneRankingEntry, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, domain.GeneRankingEntry{GeneSymbol: p.GeneSymbol, Value: metric(p)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].GeneSymbol < entries[j].GeneSymbol
	})
	if len(entries) > rankingLimit {
		entries = entries[:rankingLimit]
	}
	return entries
}

// compareUseCases aggregates per-use-case score distributions across the
// panel with high/medium/low confidence bucket counts.
func compareUseCases(profiles []*domain.GeneAnalyticsProfile) map[domain.UseCase]domain.UseCaseComparison {
	perUseCase := make(map[domain.UseCase][]float64, len(domain.AllUseCases()))
	for _, p := range profiles {
		for _, ranking := range p.RankedUseCases {
			perUseCase[ranking.UseCase] = append(perUseCase[ranking.UseCase], ranking.Score)
		}
	}

	comparisons := make(map[domain.UseCase]domain.UseCaseComparison, len(perUseCase))
	for useCase, scores := range perUseCase {
		comparison := domain.UseCaseComparison{Stats: describeScores(scores)}
		for _, score := range scores {
			switch {
			case score > panelHighThreshold:
				comparison.HighConfidence++
			case score >= panelMediumThreshold:
				comparison.MediumConfidence++
			default:
				comparison.LowConfidence++
			}
		}
		comparisons[useCase] = comparison
	}
	return comparisons
}

func describeScores(scores []float64) domain.DistributionStats {
	if len(scores) == 0 {
		return domain.DistributionStats{}
	}
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	n := len(sorted)
	stats := domain.DistributionStats{
		Mean: stat.Mean(sorted, nil),
		Min:  sorted[0],
		Max:  sorted[n-1],
	}
	if n%2 == 1 {
		stats.Median = sorted[n/2]
	} else {
		stats.Median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	if n > 1 {
		stats.StdDev = stat.StdDev(sorted, nil)
	}
	return stats
}

// bucketReadiness assigns each gene to a readiness tier using the fixed
// thresholds on clinical strength, confidence and evidence count.
func bucketReadiness(profiles []*domain.GeneAnalyticsProfile) map[domain.ReadinessTier][]string {
	tiers := map[domain.ReadinessTier][]string{
		domain.ReadyForClinical:      {},
		domain.ReadyForPreclinical:   {},
		domain.RequiresBasicResearch: {},
		domain.InsufficientEvidence:  {},
	}
	for _, p := range profiles {
		tier := readinessTier(p)
		tiers[tier] = append(tiers[tier], p.GeneSymbol)
	}
	for _, symbols := range tiers {
		sort.Strings(symbols)
	}
	return tiers
}

func readinessTier(p *domain.GeneAnalyticsProfile) domain.ReadinessTier {
	clinical := p.DomainStrengths[domain.DomainClinical]
	switch {
	case clinical >= clinicalTierStrength &&
		p.RecommendationConfidence >= clinicalTierConfidence &&
		p.EvidenceCount >= clinicalTierEvidence:
		return domain.ReadyForClinical
	case clinical >= preclinicalTierStrength &&
		p.RecommendationConfidence >= preclinicalTierConfidence &&
		p.EvidenceCount >= preclinicalTierEvidence:
		return domain.ReadyForPreclinical
	case p.EvidenceCount >= basicTierEvidence:
		return domain.RequiresBasicResearch
	default:
		return domain.InsufficientEvidence
	}
}

// findOpportunities scores each gene's tractability: the best use-case
// score penalized by the number of evidence gaps, top 25.
func findOpportunities(profiles []*domain.GeneAnalyticsProfile) []domain.ResearchOpportunity {
	opportunities := make([]domain.ResearchOpportunity, 0, len(profiles))
	for _, p := range profiles {
		best, ok := p.BestUseCase()
		if !ok {
			continue
		}
		opportunities = append(opportunities, domain.ResearchOpportunity{
			GeneSymbol:       p.GeneSymbol,
			OpportunityScore: best.Score - gapPenalty*float64(len(p.EvidenceGaps)),
			BestUseCase:      best.UseCase,
			BestUseCaseScore: best.Score,
			GapCount:         len(p.EvidenceGaps),
			EvidenceGaps:     append([]string(nil), p.EvidenceGaps...),
		})
	}
	sort.Slice(opportunities, func(i, j int) bool {
		if opportunities[i].OpportunityScore != opportunities[j].OpportunityScore {
			return opportunities[i].OpportunityScore > opportunities[j].OpportunityScore
		}
		return opportunities[i].GeneSymbol < opportunities[j].GeneSymbol
	})
	if len(opportunities) > opportunityLimit {
		opportunities = opportunities[:opportunityLimit]
	}
	return opportunities
}

// portfolioRecommendations derives panel-level guidance from aggregate
// ratios. Always returns at least one message.
func portfolioRecommendations(profiles []*domain.GeneAnalyticsProfile, report *domain.ComparativeReport) []string {
	recs := make([]string, 0, 3)

	highConfidence := 0
	for _, p := range profiles {
		if p.RecommendationConfidence >= clinicalTierConfidence {
			highConfidence++
		}
	}
	ratio := float64(highConfidence) / float64(len(profiles))
	if ratio >= portfolioHighConfRatio {
		recs = append(recs, fmt.Sprintf("%.0f%% of the panel has high-confidence evidence; prioritize translational follow-up on the clinical-ready tier", ratio*100))
	} else {
		recs = append(recs, fmt.Sprintf("Only %.0f%% of the panel has high-confidence evidence; invest in evidence generation before prioritizing targets", ratio*100))
	}

	if len(report.ReadinessTiers[domain.ReadyForClinical]) == 0 {
		recs = append(recs, "No gene in the panel is clinical-ready; focus on closing gaps in the preclinical tier")
	}

	if len(report.ResearchOpportunities) > 0 {
		top := report.ResearchOpportunities[0]
		recs = append(recs, fmt.Sprintf("Highest-leverage opportunity: %s for %s (opportunity score %.1f with %d open gaps)",
			top.GeneSymbol, top.BestUseCase, top.OpportunityScore, top.GapCount))
	}

	return recs
}
