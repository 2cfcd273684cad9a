package scoring

import (
	"github.com/targetrank-server/internal/domain"
)

// GO aspects as annotated by the ontology collaborator.
const (
	aspectMolecularFunction = "molecular_function"
	aspectBiologicalProcess = "biological_process"
	aspectCellularComponent = "cellular_component"
)

// computeGenomic scores ontology and sequence-feature evidence.
//
// Contributions, summed then capped at the genomic ceiling (15):
//   - GO-term counts per aspect, 3 points maximum each.
//   - Cancer-keyword relevance across term names, capped at 4.
//   - Sequence feature and molecular function counts, 2 points maximum each.
func (e *Engine) computeGenomic(record *domain.GeneEvidenceRecord) domain.EvidenceScore {
	breakdown := map[string]float64{}

	aspectCounts := map[string]int{}
	cancerHits := 0
	for _, term := range record.GOTerms {
		aspectCounts[term.Aspect]++
		if containsCancerKeyword(term.Term) {
			cancerHits++
		}
	}

	mfPoints := min2(float64(aspectCounts[aspectMolecularFunction]), 3)
	bpPoints := min2(float64(aspectCounts[aspectBiologicalProcess]), 3)
	ccPoints := min2(float64(aspectCounts[aspectCellularComponent]), 3)
	cancerBonus := min2(float64(cancerHits), 4)
	featurePoints := min2(float64(len(record.Features))*0.5, 2)
	functionPoints := min2(float64(len(record.MolecularFunctions))*0.5, 2)

	breakdown["molecular_function_points"] = mfPoints
	breakdown["biological_process_points"] = bpPoints
	breakdown["cellular_component_points"] = ccPoints
	breakdown["cancer_relevance_bonus"] = cancerBonus
	breakdown["feature_points"] = featurePoints
	breakdown["function_points"] = functionPoints

	total := mfPoints + bpPoints + ccPoints + cancerBonus + featurePoints + functionPoints

	factCount := len(record.GOTerms) + len(record.Features) + len(record.MolecularFunctions)

	return domain.EvidenceScore{
		Score:      capScore(total, e.tables.Ceiling(domain.DomainGenomic)),
		Confidence: saturatingConfidence(factCount, 0.08, 0.9),
		FactCount:  factCount,
		Metadata:   breakdown,
	}
}
