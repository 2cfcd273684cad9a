package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneEvidenceRecord_NormalizeFillsContainers(t *testing.T) {
	record := &GeneEvidenceRecord{GeneID: "BRAF"}

	require.NoError(t, record.Normalize())

	assert.NotNil(t, record.Drugs)
	assert.NotNil(t, record.Pathways)
	assert.NotNil(t, record.GOTerms)
	assert.NotNil(t, record.SourceReferences)
	assert.NotNil(t, record.Features)
	assert.NotNil(t, record.MolecularFunctions)
	assert.NotNil(t, record.PharmGKBPathways)
	assert.NotNil(t, record.PharmGKBVariants)
	assert.False(t, record.HasEvidence())
	assert.Equal(t, 0, record.EvidenceCount())
}

func TestGeneEvidenceRecord_NormalizeRejectsBadPhase(t *testing.T) {
	record := &GeneEvidenceRecord{
		GeneID: "EGFR",
		Drugs: map[string]DrugEvidence{
			"gefitinib": {Name: "Gefitinib", ClinicalPhase: 5},
		},
	}

	err := record.Normalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFact)
}

func TestGeneEvidenceRecord_NormalizeRejectsNegativeVariantScore(t *testing.T) {
	record := &GeneEvidenceRecord{
		GeneID: "CYP2D6",
		PharmGKBVariants: []PharmGKBVariant{
			{VariantID: "rs3892097", Score: -1},
		},
	}

	err := record.Normalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFact)
}

func TestGeneEvidenceRecord_EvidenceCount(t *testing.T) {
	record := &GeneEvidenceRecord{
		GeneID: "TP53",
		Drugs: map[string]DrugEvidence{
			"d1": {Name: "Drug One", ClinicalPhase: 2},
		},
		Pathways: []string{"p53 signaling"},
		SourceReferences: map[string][]PublicationFact{
			"pubmed":  {{Identifier: "PMID:1"}, {Identifier: "PMID:2"}},
			"clinvar": {{Identifier: "VCV000012345"}},
		},
	}

	assert.Equal(t, 5, record.EvidenceCount())
	assert.True(t, record.HasEvidence())
}

func TestGeneEvidenceRecord_CloneIsDeep(t *testing.T) {
	record := &GeneEvidenceRecord{
		GeneID: "KRAS",
		Drugs: map[string]DrugEvidence{
			"sotorasib": {Name: "Sotorasib", ClinicalPhase: 4, PathwayNames: []string{"MAPK"}},
		},
		Pathways: []string{"MAPK signaling"},
		SourceReferences: map[string][]PublicationFact{
			"pubmed": {{Identifier: "PMID:10"}},
		},
	}

	clone := record.Clone()
	clone.Drugs["adagrasib"] = DrugEvidence{Name: "Adagrasib"}
	clone.Pathways[0] = "mutated"
	clone.SourceReferences["pubmed"][0].Identifier = "PMID:99"

	drug := clone.Drugs["sotorasib"]
	drug.PathwayNames[0] = "mutated"

	assert.Len(t, record.Drugs, 1)
	assert.Equal(t, "MAPK signaling", record.Pathways[0])
	assert.Equal(t, "PMID:10", record.SourceReferences["pubmed"][0].Identifier)
	assert.Equal(t, "MAPK", record.Drugs["sotorasib"].PathwayNames[0])
}

func TestPharmGKBVariant_IsCYP450(t *testing.T) {
	assert.True(t, PharmGKBVariant{Gene: "CYP2D6"}.IsCYP450())
	assert.True(t, PharmGKBVariant{Gene: "cyp3a4"}.IsCYP450())
	assert.False(t, PharmGKBVariant{Gene: "TPMT"}.IsCYP450())
	assert.False(t, PharmGKBVariant{}.IsCYP450())
}
