// Package analytics derives per-gene profiles and panel-level comparative
// reports from previously stored composite scores. Profiles are recomputed
// on demand and never persisted by the engine itself.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/targetrank-server/internal/domain"
	"github.com/targetrank-server/internal/scoring"
)

// diversityCategoryCount is the denominator of the evidence diversity
// score: the five evidence domains plus drug-level evidence.
const diversityCategoryCount = 6

// crossValidationVarianceScale normalizes use-case score variance into the
// [0, 1] cross-validation score.
const crossValidationVarianceScale = 1000.0

// Analyzer builds GeneAnalyticsProfiles from stored composite scores.
type Analyzer struct {
	logger *logrus.Logger
	tables *domain.ScoringTables
}

// NewAnalyzer creates a gene analyzer over the given tables.
func NewAnalyzer(logger *logrus.Logger, tables *domain.ScoringTables) *Analyzer {
	return &Analyzer{logger: logger, tables: tables}
}

// Analyze derives a profile for one gene from its stored composite scores
// and drug scores. A gene with no stored scores is absent, not an error:
// Analyze returns nil and callers filter it out of comparative reports.
func (a *Analyzer) Analyze(geneSymbol string, stored []domain.CompositeScore, drugScores map[string]float64) *domain.GeneAnalyticsProfile {
	if len(stored) == 0 {
		return nil
	}

	strengths := a.domainStrengths(stored)
	evidenceCount := 0
	overalls := make([]float64, 0, len(stored))
	for _, score := range stored {
		overalls = append(overalls, score.OverallScore)
		if score.EvidenceCount > evidenceCount {
			evidenceCount = score.EvidenceCount
		}
	}

	diversity := a.diversityScore(strengths, drugScores)
	crossValidation := crossValidationScore(overalls)
	confidence := mean4(
		diversity,
		min2(float64(evidenceCount)/10, 1),
		strengths[domain.DomainClinical],
		crossValidation,
	)

	profile := &domain.GeneAnalyticsProfile{
		GeneSymbol:               geneSymbol,
		DomainStrengths:          strengths,
		EvidenceDiversityScore:   diversity,
		CrossValidationScore:     crossValidation,
		RecommendationConfidence: confidence,
		EvidenceCount:            evidenceCount,
		RankedUseCases:           rankUseCases(stored),
		TopDrugs:                 rankDrugs(drugScores),
		GeneratedAt:              time.Now().UTC(),
	}
	profile.EvidenceGaps = a.detectGaps(profile)
	profile.Recommendations = a.recommend(profile)

	a.logger.WithFields(logrus.Fields{
		"gene_symbol":    geneSymbol,
		"use_cases":      len(stored),
		"evidence_gaps":  len(profile.EvidenceGaps),
		"rec_confidence": profile.RecommendationConfidence,
	}).Debug("Built gene analytics profile")

	return profile
}

// domainStrengths normalizes each domain's raw component score against its
// ceiling into a [0, 1] strength. Component scores are identical across a
// gene's use cases, so the maximum seen per domain is used defensively.
func (a *Analyzer) domainStrengths(stored []domain.CompositeScore) map[domain.EvidenceDomain]float64 {
	strengths := make(map[domain.EvidenceDomain]float64, len(domain.AllDomains()))
	for _, d := range domain.AllDomains() {
		strengths[d] = 0
	}
	for _, score := range stored {
		for d, component := range score.ComponentScores {
			if !d.IsValid() {
				continue
			}
			strength := min2(component/a.tables.Ceiling(d), 1)
			if strength > strengths[d] {
				strengths[d] = strength
			}
		}
	}
	return strengths
}

// diversityScore counts distinct evidence-source categories present: each
// domain with a nonzero strength plus drug-level evidence, over six.
func (a *Analyzer) diversityScore(strengths map[domain.EvidenceDomain]float64, drugScores map[string]float64) float64 {
	categories := 0
	for _, d := range domain.AllDomains() {
		if strengths[d] > 0 {
			categories++
		}
	}
	if len(drugScores) > 0 {
		categories++
	}
	return min2(float64(categories)/diversityCategoryCount, 1)
}

// crossValidationScore rewards consistency across use cases: a single
// stored score gives the neutral 0.5; otherwise variance is scaled into
// [0, 1], higher meaning more agreement between use cases.
func crossValidationScore(overalls []float64) float64 {
	if len(overalls) <= 1 {
		return 0.5
	}
	v := scoring.Variance(overalls)
	score := 1 - v/crossValidationVarianceScale
	if score < 0 {
		return 0
	}
	return score
}

// detectGaps applies the fixed per-domain strength thresholds and the
// diversity threshold, emitting one human-readable gap per crossing.
func (a *Analyzer) detectGaps(profile *domain.GeneAnalyticsProfile) []string {
	gaps := make([]string, 0, len(domain.AllDomains())+1)

	if profile.EvidenceDiversityScore < a.tables.DiversityGapThreshold {
		gaps = append(gaps, "Evidence base is narrow; gather evidence from additional source categories")
	}
	for _, d := range domain.AllDomains() {
		if profile.DomainStrengths[d] < a.tables.GapThresholds[d] {
			gaps = append(gaps, gapMessage(d))
		}
	}
	return gaps
}

func gapMessage(d domain.EvidenceDomain) string {
	switch d {
	case domain.DomainClinical:
		return "Clinical evidence is weak; no advanced trial or pharmacogenomic annotation support"
	case domain.DomainMechanistic:
		return "Mechanistic evidence is limited; pathway membership and target interactions are sparse"
	case domain.DomainPublication:
		return "Literature support is thin; few publications reference this gene across sources"
	case domain.DomainGenomic:
		return "Genomic annotation is sparse; GO and feature coverage is below the expected baseline"
	case domain.DomainSafety:
		return "Safety profile is poorly characterized; toxicity and interaction data are lacking"
	default:
		return fmt.Sprintf("%s evidence is below threshold", d)
	}
}

// recommend runs the deterministic rule cascade over priority-area
// membership, best use-case score, clinical-strength tier and confidence
// tier. It always produces at least one recommendation.
func (a *Analyzer) recommend(profile *domain.GeneAnalyticsProfile) []string {
	recs := make([]string, 0, 4)

	if best, ok := profile.BestUseCase(); ok {
		switch {
		case best.Score > 70:
			recs = append(recs, fmt.Sprintf("Strong candidate for %s (score %.1f); prioritize for experimental follow-up", best.UseCase, best.Score))
		case best.Score > 50:
			recs = append(recs, fmt.Sprintf("Promising for %s (score %.1f); strengthen the weakest evidence domains before committing", best.UseCase, best.Score))
		default:
			recs = append(recs, fmt.Sprintf("Best fit is %s but evidence is preliminary (score %.1f)", best.UseCase, best.Score))
		}
	}

	clinical := profile.DomainStrengths[domain.DomainClinical]
	switch {
	case clinical >= 0.6:
		recs = append(recs, "Clinical evidence supports translational work; evaluate existing trial assets and approved compounds")
	case clinical >= 0.3:
		recs = append(recs, "Moderate clinical support; monitor ongoing trials and pharmacogenomic annotations")
	}

	if len(profile.TopDrugs) > 0 && profile.DomainStrengths[domain.DomainSafety] >= 0.5 {
		recs = append(recs, "Known drug associations with an acceptable safety profile; consider repurposing screens")
	}

	switch {
	case profile.RecommendationConfidence >= 0.7:
		recs = append(recs, "High-confidence profile; findings are suitable for prioritization decisions")
	case profile.RecommendationConfidence < 0.4:
		recs = append(recs, "Low-confidence profile; close the identified evidence gaps before acting on these scores")
	}

	if len(recs) == 0 {
		recs = append(recs, "Insufficient signal to recommend a use case; broaden evidence collection for this gene")
	}
	return recs
}

// rankUseCases orders stored scores by overall score, descending, with a
// stable use-case tie-break so output is deterministic.
func rankUseCases(stored []domain.CompositeScore) []domain.UseCaseRanking {
	ranked := make([]domain.UseCaseRanking, 0, len(stored))
	for _, score := range stored {
		ranked = append(ranked, domain.UseCaseRanking{UseCase: score.UseCase, Score: score.OverallScore})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].UseCase < ranked[j].UseCase
	})
	return ranked
}

// rankDrugs orders the drug score map descending, capped at ten entries.
func rankDrugs(drugScores map[string]float64) []domain.DrugRanking {
	ranked := make([]domain.DrugRanking, 0, len(drugScores))
	for key, score := range drugScores {
		ranked = append(ranked, domain.DrugRanking{DrugKey: key, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DrugKey < ranked[j].DrugKey
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}
	return ranked
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func mean4(a, b, c, d float64) float64 {
	return (a + b + c + d) / 4
}
