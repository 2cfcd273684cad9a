package domain

import "time"

// GeneAnalyticsProfile is the derived, on-demand view of one gene's stored
// composite scores: normalized strengths, diversity and cross-validation
// metrics, ranked use cases, gaps and recommendations. It has no identity
// beyond the gene symbol that produced it and is never persisted by the
// engine itself.
type GeneAnalyticsProfile struct {
	GeneSymbol string `json:"gene_symbol"`

	DomainStrengths          map[EvidenceDomain]float64 `json:"domain_strengths"`
	EvidenceDiversityScore   float64                    `json:"evidence_diversity_score"`
	CrossValidationScore     float64                    `json:"cross_validation_score"`
	RecommendationConfidence float64                    `json:"recommendation_confidence"`
	EvidenceCount            int                        `json:"evidence_count"`

	RankedUseCases  []UseCaseRanking `json:"ranked_use_cases"`
	TopDrugs        []DrugRanking    `json:"top_drugs"`
	EvidenceGaps    []string         `json:"evidence_gaps"`
	Recommendations []string         `json:"recommendations"`

	GeneratedAt time.Time `json:"generated_at"`
}

// UseCaseRanking pairs a use case with its overall score for ranking.
type UseCaseRanking struct {
	UseCase UseCase `json:"use_case"`
	Score   float64 `json:"score"`
}

// DrugRanking pairs a drug key with its score.
type DrugRanking struct {
	DrugKey string  `json:"drug_key"`
	Name    string  `json:"name,omitempty"`
	Score   float64 `json:"score"`
}

// BestUseCase returns the top-ranked use case, or false when the profile
// holds no rankings.
func (p *GeneAnalyticsProfile) BestUseCase() (UseCaseRanking, bool) {
	if len(p.RankedUseCases) == 0 {
		return UseCaseRanking{}, false
	}
	return p.RankedUseCases[0], true
}

// GeneRankingEntry is one row of a comparative ranking.
type GeneRankingEntry struct {
	GeneSymbol string  `json:"gene_symbol"`
	Value      float64 `json:"value"`
}

// UseCaseComparison aggregates one use case's score distribution across the
// panel, with confidence buckets at the fixed >70 / 50-70 / <50 thresholds.
type UseCaseComparison struct {
	Stats            DistributionStats `json:"stats"`
	HighConfidence   int               `json:"high_confidence"`
	MediumConfidence int               `json:"medium_confidence"`
	LowConfidence    int               `json:"low_confidence"`
}

// ResearchOpportunity is a gene whose evidence base suggests tractable
// follow-up work: a strong best use case held back by identified gaps.
type ResearchOpportunity struct {
	GeneSymbol       string   `json:"gene_symbol"`
	OpportunityScore float64  `json:"opportunity_score"`
	BestUseCase      UseCase  `json:"best_use_case"`
	BestUseCaseScore float64  `json:"best_use_case_score"`
	GapCount         int      `json:"gap_count"`
	EvidenceGaps     []string `json:"evidence_gaps"`
}

// ComparativeReport is the panel-level analytics output.
type ComparativeReport struct {
	TotalGenesAnalyzed int `json:"total_genes_analyzed"`

	ByConfidence       []GeneRankingEntry `json:"ranked_by_confidence"`
	ByClinicalStrength []GeneRankingEntry `json:"ranked_by_clinical_strength"`
	ByDiversity        []GeneRankingEntry `json:"ranked_by_diversity"`

	UseCaseComparisons map[UseCase]UseCaseComparison `json:"use_case_comparisons"`
	ReadinessTiers     map[ReadinessTier][]string    `json:"readiness_tiers"`

	ResearchOpportunities    []ResearchOpportunity `json:"research_opportunities"`
	PortfolioRecommendations []string              `json:"portfolio_recommendations"`

	GeneratedAt time.Time `json:"generated_at"`
}

// AnalyticsError is the explicit error object returned for an empty or
// fully-invalid gene panel, distinct from a raised error so batch report
// generation can continue for other panels.
type AnalyticsError struct {
	Message string `json:"error"`
}

// Error implements the error interface.
func (e *AnalyticsError) Error() string {
	return e.Message
}
