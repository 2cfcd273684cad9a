package scoring

import (
	"strings"

	"github.com/targetrank-server/internal/domain"
)

// toxicityKeywords flag annotations as safety liabilities.
var toxicityKeywords = []string{
	"toxic", "adverse", "hepatotox", "cardiotox", "nephrotox", "black box",
}

// safetyNeutralBaseline is the starting score when safety-relevant evidence
// exists. A gene with no safety evidence at all scores (0, 0) like every
// other domain; the neutral baseline only applies once there is something
// to reason about.
const safetyNeutralBaseline = 5.0

// computeSafety scores safety signals. Starting from a neutral baseline it
// subtracts a toxicity-annotation penalty and an interaction-risk penalty
// for multi-drug associations, and adds a safety-knowledge bonus plus an
// FDA-approval bonus. Clamped to [0, 10].
func (e *Engine) computeSafety(record *domain.GeneEvidenceRecord) domain.EvidenceScore {
	breakdown := map[string]float64{}

	toxicityHits := 0
	for _, feature := range record.Features {
		if containsToxicityKeyword(feature) {
			toxicityHits++
		}
	}
	for _, term := range record.GOTerms {
		if containsToxicityKeyword(term.Term) {
			toxicityHits++
		}
	}

	fdaRefs := len(record.SourceReferences["fda"])

	fdaApproved := false
	for _, drug := range record.Drugs {
		if drug.Source == domain.SourceRepurposingHub && drug.ClinicalPhase == 4 {
			fdaApproved = true
			break
		}
	}

	// Drug associations alone are not safety evidence. The baseline, the
	// approval bonus, and the interaction penalty only come into play once a
	// toxicity annotation or an FDA reference anchors the domain.
	factCount := toxicityHits + fdaRefs
	if factCount == 0 {
		return domain.EvidenceScore{Score: 0, Confidence: 0, Metadata: breakdown}
	}

	toxicityPenalty := min2(float64(toxicityHits), 3)
	knowledgeBonus := min2(float64(fdaRefs)*0.5, 2)

	var approvalBonus float64
	if fdaApproved {
		approvalBonus = 3
	}

	var interactionPenalty float64
	if len(record.Drugs) > 1 {
		interactionPenalty = min2(float64(len(record.Drugs)-1)*0.5, 3)
	}

	breakdown["baseline"] = safetyNeutralBaseline
	breakdown["toxicity_penalty"] = -toxicityPenalty
	breakdown["knowledge_bonus"] = knowledgeBonus
	breakdown["approval_bonus"] = approvalBonus
	breakdown["interaction_penalty"] = -interactionPenalty

	total := safetyNeutralBaseline - toxicityPenalty + knowledgeBonus + approvalBonus - interactionPenalty

	return domain.EvidenceScore{
		Score:      capScore(total, e.tables.Ceiling(domain.DomainSafety)),
		Confidence: saturatingConfidence(factCount, 0.12, 0.75),
		FactCount:  factCount,
		Metadata:   breakdown,
	}
}

func containsToxicityKeyword(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range toxicityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
