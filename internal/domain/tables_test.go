package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTables_Valid(t *testing.T) {
	tables := DefaultTables()
	require.NoError(t, tables.Validate())
}

func TestDefaultTables_Ceilings(t *testing.T) {
	tables := DefaultTables()

	assert.Equal(t, 30.0, tables.Ceiling(DomainClinical))
	assert.Equal(t, 25.0, tables.Ceiling(DomainMechanistic))
	assert.Equal(t, 20.0, tables.Ceiling(DomainPublication))
	assert.Equal(t, 15.0, tables.Ceiling(DomainGenomic))
	assert.Equal(t, 10.0, tables.Ceiling(DomainSafety))
}

func TestDefaultTables_WeightsSumToOne(t *testing.T) {
	tables := DefaultTables()

	for _, u := range AllUseCases() {
		sum := 0.0
		for _, d := range AllDomains() {
			w := tables.Weight(u, d)
			assert.GreaterOrEqual(t, w, 0.0, "%s/%s weight must not be negative", u, d)
			sum += w
		}
		assert.InDelta(t, 1.0, sum, weightTolerance, "weights for %s must sum to 1.0", u)
	}
}

func TestDefaultTables_MaxOverallScore(t *testing.T) {
	tables := DefaultTables()

	for _, u := range AllUseCases() {
		max := tables.MaxOverallScore(u)
		assert.Greater(t, max, 0.0)
		assert.LessOrEqual(t, max, 30.0, "no weighting of ceilings can exceed the largest ceiling")
	}

	// Hand-checked for drug repurposing:
	// 30*.35 + 25*.25 + 20*.15 + 15*.10 + 10*.15 = 22.75
	assert.InDelta(t, 22.75, tables.MaxOverallScore(UseCaseDrugRepurposing), 1e-9)
}

func TestScoringTables_ValidateRejectsBadWeights(t *testing.T) {
	tables := DefaultTables()
	tables.useCaseWeights[UseCaseDrugRepurposing][DomainClinical] = 0.99

	err := tables.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWeightsNotNormal)
}

func TestDefaultTables_ClinicalPointTables(t *testing.T) {
	tables := DefaultTables()

	assert.Equal(t, 8.0, tables.PGKBLevelPoints["1A"])
	assert.Equal(t, 0.0, tables.PGKBLevelPoints["4"])
	assert.Equal(t, 15.0, tables.HubPhasePoints[4])
	assert.Equal(t, 12.0, tables.TrialPhasePoints[4])

	// Hub associations always outrank plain trial annotations at equal phase.
	for phase := 0; phase <= 4; phase++ {
		assert.Greater(t, tables.HubPhasePoints[phase], tables.TrialPhasePoints[phase],
			"hub points must dominate at phase %d", phase)
	}
}
