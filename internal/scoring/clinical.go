package scoring

import (
	"github.com/targetrank-server/internal/domain"
)

// computeClinical scores clinical-trial and pharmacogenomic evidence.
//
// Contributions, all summed then capped at the clinical ceiling (30):
//   - PharmGKB clinical annotations: evidence-level points plus a
//     clinical-significance bonus per variant.
//   - Drug development phase: Repurposing Hub drugs use the hub point table
//     (Approved 15 ... Preclinical 1), everything else the trial-phase table.
//   - Pharmacogenomic variant profile: scaled high-impact and
//     clinically-actionable counts, a tiered bonus on the maximum variant
//     score (80/70/60 thresholds), and small CYP450 and cancer-relevance
//     bonuses.
func (e *Engine) computeClinical(record *domain.GeneEvidenceRecord) domain.EvidenceScore {
	t := e.tables
	breakdown := map[string]float64{}

	var annotationPoints float64
	var maxVariantScore float64
	highImpact, actionable, cyp450, cancerRelevant := 0, 0, 0, 0

	for _, v := range record.PharmGKBVariants {
		annotationPoints += t.PGKBLevelPoints[v.EvidenceLevel]
		annotationPoints += t.SignificanceBonus[v.ClinicalSignificance]
		if v.Score > maxVariantScore {
			maxVariantScore = v.Score
		}
		if v.HighImpact {
			highImpact++
		}
		if v.ClinicallyActionable {
			actionable++
		}
		if v.IsCYP450() {
			cyp450++
		}
		if v.CancerRelevant {
			cancerRelevant++
		}
	}

	var phasePoints float64
	for _, drug := range record.Drugs {
		if drug.Source == domain.SourceRepurposingHub {
			phasePoints += t.HubPhasePoints[drug.ClinicalPhase]
		} else {
			phasePoints += t.TrialPhasePoints[drug.ClinicalPhase]
		}
	}

	highImpactPoints := min2(float64(highImpact)*2.0, 8)
	actionablePoints := min2(float64(actionable)*1.5, 6)
	cyp450Points := min2(float64(cyp450)*0.5, 2)
	cancerPoints := min2(float64(cancerRelevant)*0.5, 2)

	// Tiered bonus keyed on the best PharmGKB variant score.
	var tierBonus float64
	switch {
	case maxVariantScore >= 80:
		tierBonus = 4
	case maxVariantScore >= 70:
		tierBonus = 2
	case maxVariantScore >= 60:
		tierBonus = 1
	}

	breakdown["annotation_points"] = annotationPoints
	breakdown["phase_points"] = phasePoints
	breakdown["high_impact_points"] = highImpactPoints
	breakdown["actionable_points"] = actionablePoints
	breakdown["variant_score_bonus"] = tierBonus
	breakdown["cyp450_bonus"] = cyp450Points
	breakdown["cancer_variant_bonus"] = cancerPoints

	total := annotationPoints + phasePoints + highImpactPoints +
		actionablePoints + tierBonus + cyp450Points + cancerPoints

	factCount := len(record.Drugs) + len(record.PharmGKBVariants)

	return domain.EvidenceScore{
		Score:      capScore(total, t.Ceiling(domain.DomainClinical)),
		Confidence: saturatingConfidence(factCount, 0.1, 0.9),
		FactCount:  factCount,
		Metadata:   breakdown,
	}
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
