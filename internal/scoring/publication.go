package scoring

import (
	"strings"

	"github.com/targetrank-server/internal/domain"
)

// unknownSourceReliability applies to publication sources absent from the
// reliability table.
const unknownSourceReliability = 0.5

// volumeBonusThreshold is the total publication count above which the
// volume bonus applies.
const volumeBonusThreshold = 20

// computePublication scores literature evidence. Each source's publication
// count is weighted by that source's reliability; genes with more than 20
// total publications earn a flat volume bonus. Capped at the publication
// ceiling (20).
func (e *Engine) computePublication(record *domain.GeneEvidenceRecord) domain.EvidenceScore {
	t := e.tables
	breakdown := map[string]float64{}

	var weighted float64
	totalPubs := 0
	for source, refs := range record.SourceReferences {
		reliability, ok := t.PublicationSourceReliability[strings.ToLower(source)]
		if !ok {
			reliability = unknownSourceReliability
		}
		contribution := float64(len(refs)) * reliability * 0.8
		weighted += contribution
		totalPubs += len(refs)
		breakdown["source_"+strings.ToLower(source)] = contribution
	}

	var volumeBonus float64
	if totalPubs > volumeBonusThreshold {
		volumeBonus = 3
	}
	breakdown["weighted_points"] = weighted
	breakdown["volume_bonus"] = volumeBonus

	return domain.EvidenceScore{
		Score:      capScore(weighted+volumeBonus, t.Ceiling(domain.DomainPublication)),
		Confidence: saturatingConfidence(len(record.SourceReferences), 0.15, 0.9),
		FactCount:  totalPubs,
		Metadata:   breakdown,
	}
}
