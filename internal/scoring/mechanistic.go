package scoring

import (
	"strings"

	"github.com/targetrank-server/internal/domain"
)

// cancerKeywords flag pathway and annotation names as cancer-relevant.
var cancerKeywords = []string{
	"cancer", "tumor", "tumour", "oncogen", "carcinoma",
	"apoptosis", "p53", "leukemia", "melanoma", "metastasis",
}

// computeMechanistic scores pathway membership and target interactions.
//
// Contributions, summed then capped at the mechanistic ceiling (25):
//   - PharmGKB pathway membership, scaled and capped at 15, plus a
//     cancer-relevance bonus capped at 5.
//   - Reactome pathway count, scaled and capped at 8.
//   - Target-interaction count (drugs with a known mechanism), scaled and
//     capped at 7.
func (e *Engine) computeMechanistic(record *domain.GeneEvidenceRecord) domain.EvidenceScore {
	breakdown := map[string]float64{}

	pathwayPoints := min2(float64(len(record.PharmGKBPathways))*1.5, 15)

	cancerHits := 0
	for _, name := range record.PharmGKBPathways {
		if containsCancerKeyword(name) {
			cancerHits++
		}
	}
	for _, name := range record.Pathways {
		if containsCancerKeyword(name) {
			cancerHits++
		}
	}
	cancerBonus := min2(float64(cancerHits), 5)

	reactomePoints := min2(float64(len(record.Pathways))*0.8, 8)

	interactions := 0
	for _, drug := range record.Drugs {
		if drug.Mechanism != "" {
			interactions++
		}
	}
	interactionPoints := min2(float64(interactions)*0.7, 7)

	breakdown["pathway_points"] = pathwayPoints
	breakdown["cancer_relevance_bonus"] = cancerBonus
	breakdown["reactome_points"] = reactomePoints
	breakdown["interaction_points"] = interactionPoints

	total := pathwayPoints + cancerBonus + reactomePoints + interactionPoints

	factCount := len(record.PharmGKBPathways) + len(record.Pathways) + interactions

	return domain.EvidenceScore{
		Score:      capScore(total, e.tables.Ceiling(domain.DomainMechanistic)),
		Confidence: saturatingConfidence(factCount, 0.08, 0.9),
		FactCount:  factCount,
		Metadata:   breakdown,
	}
}

func containsCancerKeyword(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range cancerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
