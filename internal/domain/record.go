package domain

import (
	"fmt"
	"math"
	"strings"
)

// GeneEvidenceRecord is the per-gene bag of evidence consumed by the domain
// calculators. It is assembled by the relational-store collaborator and is
// immutable for the duration of scoring; calculators never mutate it.
//
// Any field may be absent. Absence means "no evidence of this kind", never an
// error: Normalize replaces nil containers with empty ones exactly once at
// the boundary so calculators can range freely without nil checks.
type GeneEvidenceRecord struct {
	GeneID     string `json:"gene_id"`
	GeneSymbol string `json:"gene_symbol"`

	Drugs              map[string]DrugEvidence      `json:"drugs,omitempty"`
	Pathways           []string                     `json:"pathways,omitempty"`
	GOTerms            map[string]GOTerm            `json:"go_terms,omitempty"`
	SourceReferences   map[string][]PublicationFact `json:"source_references,omitempty"`
	Features           []string                     `json:"features,omitempty"`
	MolecularFunctions []string                     `json:"molecular_functions,omitempty"`
	PharmGKBPathways   []string                     `json:"pharmgkb_pathways,omitempty"`
	PharmGKBVariants   []PharmGKBVariant            `json:"pharmgkb_variants,omitempty"`
}

// DrugEvidence captures what is known about one drug associated with a gene.
type DrugEvidence struct {
	Name          string   `json:"name"`
	ClinicalPhase int      `json:"clinical_phase"`
	Source        string   `json:"source"`
	Mechanism     string   `json:"mechanism,omitempty"`
	PathwayNames  []string `json:"pathway_names,omitempty"`
}

// GOTerm is a Gene Ontology annotation keyed by GO identifier.
type GOTerm struct {
	Term   string `json:"term"`
	Aspect string `json:"aspect"` // molecular_function, biological_process, cellular_component
}

// PublicationFact is one literature reference attributed to a source database.
type PublicationFact struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title,omitempty"`
	Year       int    `json:"year,omitempty"`
}

// PharmGKBVariant is a pharmacogenomic variant annotation from PharmGKB.
type PharmGKBVariant struct {
	VariantID            string  `json:"variant_id"`
	Gene                 string  `json:"gene,omitempty"`
	EvidenceLevel        string  `json:"evidence_level"`        // 1A, 1B, 2A, 2B, 3, 4
	ClinicalSignificance string  `json:"clinical_significance"` // High, Moderate, Low, Unknown
	Score                float64 `json:"score"`
	HighImpact           bool    `json:"high_impact"`
	ClinicallyActionable bool    `json:"clinically_actionable"`
	CancerRelevant       bool    `json:"cancer_relevant"`
}

// SourceRepurposingHub marks drug associations imported from the Broad Drug
// Repurposing Hub; their phase annotations use the hub's point table.
const SourceRepurposingHub = "repurposing_hub"

// Normalize validates the record once at the boundary and replaces absent
// containers with empty ones. It returns an error only for programming
// contract violations (negative or NaN raw facts); sparse data is fine.
func (r *GeneEvidenceRecord) Normalize() error {
	if r.Drugs == nil {
		r.Drugs = map[string]DrugEvidence{}
	}
	if r.Pathways == nil {
		r.Pathways = []string{}
	}
	if r.GOTerms == nil {
		r.GOTerms = map[string]GOTerm{}
	}
	if r.SourceReferences == nil {
		r.SourceReferences = map[string][]PublicationFact{}
	}
	if r.Features == nil {
		r.Features = []string{}
	}
	if r.MolecularFunctions == nil {
		r.MolecularFunctions = []string{}
	}
	if r.PharmGKBPathways == nil {
		r.PharmGKBPathways = []string{}
	}
	if r.PharmGKBVariants == nil {
		r.PharmGKBVariants = []PharmGKBVariant{}
	}

	for key, drug := range r.Drugs {
		if drug.ClinicalPhase < 0 || drug.ClinicalPhase > 4 {
			return fmt.Errorf("drug %q: clinical phase %d out of range: %w", key, drug.ClinicalPhase, ErrInvalidFact)
		}
	}
	for _, v := range r.PharmGKBVariants {
		if v.Score < 0 || math.IsNaN(v.Score) {
			return fmt.Errorf("variant %q: score %v: %w", v.VariantID, v.Score, ErrInvalidFact)
		}
	}
	return nil
}

// HasEvidence reports whether the record carries at least one evidentiary
// fact of any kind. Genes without evidence still score, at (0, 0).
func (r *GeneEvidenceRecord) HasEvidence() bool {
	return len(r.Drugs) > 0 ||
		len(r.Pathways) > 0 ||
		len(r.GOTerms) > 0 ||
		len(r.SourceReferences) > 0 ||
		len(r.Features) > 0 ||
		len(r.MolecularFunctions) > 0 ||
		len(r.PharmGKBPathways) > 0 ||
		len(r.PharmGKBVariants) > 0
}

// EvidenceCount returns the total number of individual facts in the record.
func (r *GeneEvidenceRecord) EvidenceCount() int {
	count := len(r.Drugs) + len(r.Pathways) + len(r.GOTerms) +
		len(r.Features) + len(r.MolecularFunctions) +
		len(r.PharmGKBPathways) + len(r.PharmGKBVariants)
	for _, refs := range r.SourceReferences {
		count += len(refs)
	}
	return count
}

// Clone returns a deep copy of the record. Consumers are handed copies and
// may freely mutate their own copy without affecting the producer.
func (r *GeneEvidenceRecord) Clone() *GeneEvidenceRecord {
	out := &GeneEvidenceRecord{
		GeneID:             r.GeneID,
		GeneSymbol:         r.GeneSymbol,
		Drugs:              make(map[string]DrugEvidence, len(r.Drugs)),
		Pathways:           append([]string(nil), r.Pathways...),
		GOTerms:            make(map[string]GOTerm, len(r.GOTerms)),
		SourceReferences:   make(map[string][]PublicationFact, len(r.SourceReferences)),
		Features:           append([]string(nil), r.Features...),
		MolecularFunctions: append([]string(nil), r.MolecularFunctions...),
		PharmGKBPathways:   append([]string(nil), r.PharmGKBPathways...),
		PharmGKBVariants:   append([]PharmGKBVariant(nil), r.PharmGKBVariants...),
	}
	for k, d := range r.Drugs {
		d.PathwayNames = append([]string(nil), d.PathwayNames...)
		out.Drugs[k] = d
	}
	for k, t := range r.GOTerms {
		out.GOTerms[k] = t
	}
	for k, refs := range r.SourceReferences {
		out.SourceReferences[k] = append([]PublicationFact(nil), refs...)
	}
	return out
}

// IsCYP450 reports whether the variant sits in a cytochrome P450 gene.
func (v PharmGKBVariant) IsCYP450() bool {
	return strings.HasPrefix(strings.ToUpper(v.Gene), "CYP")
}
