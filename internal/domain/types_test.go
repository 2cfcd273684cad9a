package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvidenceDomain_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		domain EvidenceDomain
		valid  bool
	}{
		{"clinical", DomainClinical, true},
		{"mechanistic", DomainMechanistic, true},
		{"publication", DomainPublication, true},
		{"genomic", DomainGenomic, true},
		{"safety", DomainSafety, true},
		{"empty", EvidenceDomain(""), false},
		{"unknown", EvidenceDomain("proteomic"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.domain.IsValid())
		})
	}
}

func TestUseCase_IsValid(t *testing.T) {
	for _, u := range AllUseCases() {
		assert.True(t, u.IsValid(), "use case %s should be valid", u)
	}
	assert.False(t, UseCase("drug_discovery").IsValid())
	assert.False(t, UseCase("").IsValid())
}

func TestParseUseCase(t *testing.T) {
	u, err := ParseUseCase("drug_repurposing")
	require.NoError(t, err)
	assert.Equal(t, UseCaseDrugRepurposing, u)

	_, err = ParseUseCase("DRUG_REPURPOSING")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidUseCase))
}

func TestAllDomains_CanonicalOrder(t *testing.T) {
	domains := AllDomains()
	require.Len(t, domains, 5)
	assert.Equal(t, DomainClinical, domains[0])
	assert.Equal(t, DomainSafety, domains[4])
}

func TestReadinessTier_IsValid(t *testing.T) {
	for _, tier := range []ReadinessTier{ReadyForClinical, ReadyForPreclinical, RequiresBasicResearch, InsufficientEvidence} {
		assert.True(t, tier.IsValid())
	}
	assert.False(t, ReadinessTier("ready").IsValid())
}
