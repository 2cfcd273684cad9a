package domain

import (
	"fmt"
	"math"
)

// weightTolerance is the floating-point tolerance for the sum-to-1 invariant.
const weightTolerance = 1e-9

// ScoringTables holds every weight, ceiling, point table and threshold the
// engine uses. It is built once at process start, validated, and passed by
// reference into calculators and the composite scorer. Never mutated after
// construction; no locking is required.
type ScoringTables struct {
	ceilings          map[EvidenceDomain]float64
	useCaseWeights    map[UseCase]map[EvidenceDomain]float64
	sourceReliability map[EvidenceDomain]float64

	// Clinical point tables
	PGKBLevelPoints    map[string]float64
	SignificanceBonus  map[string]float64
	TrialPhasePoints   map[int]float64
	HubPhasePoints     map[int]float64

	// Publication per-source reliability table
	PublicationSourceReliability map[string]float64

	// Gene Analytics gap thresholds per normalized domain strength
	GapThresholds map[EvidenceDomain]float64
	// Diversity below this emits an evidence gap
	DiversityGapThreshold float64
}

// DefaultTables returns the validated process-wide scoring tables.
func DefaultTables() *ScoringTables {
	t := &ScoringTables{
		ceilings: map[EvidenceDomain]float64{
			DomainClinical:    30,
			DomainMechanistic: 25,
			DomainPublication: 20,
			DomainGenomic:     15,
			DomainSafety:      10,
		},
		useCaseWeights: map[UseCase]map[EvidenceDomain]float64{
			UseCaseDrugRepurposing: {
				DomainClinical:    0.35,
				DomainMechanistic: 0.25,
				DomainPublication: 0.15,
				DomainGenomic:     0.10,
				DomainSafety:      0.15,
			},
			UseCaseBiomarkerDiscovery: {
				DomainClinical:    0.20,
				DomainMechanistic: 0.20,
				DomainPublication: 0.20,
				DomainGenomic:     0.30,
				DomainSafety:      0.10,
			},
			UseCasePathwayAnalysis: {
				DomainClinical:    0.10,
				DomainMechanistic: 0.40,
				DomainPublication: 0.20,
				DomainGenomic:     0.25,
				DomainSafety:      0.05,
			},
			UseCaseTherapeuticTargeting: {
				DomainClinical:    0.30,
				DomainMechanistic: 0.30,
				DomainPublication: 0.15,
				DomainGenomic:     0.10,
				DomainSafety:      0.15,
			},
		},
		sourceReliability: map[EvidenceDomain]float64{
			DomainClinical:    0.90,
			DomainMechanistic: 0.85,
			DomainPublication: 0.80,
			DomainGenomic:     0.75,
			DomainSafety:      0.70,
		},
		PGKBLevelPoints: map[string]float64{
			"1A": 8, "1B": 6, "2A": 4, "2B": 2, "3": 1, "4": 0,
		},
		SignificanceBonus: map[string]float64{
			"High": 2, "Moderate": 1, "Low": 0.5, "Unknown": 0,
		},
		TrialPhasePoints: map[int]float64{
			4: 12, 3: 8, 2: 4, 1: 2, 0: 0.5,
		},
		HubPhasePoints: map[int]float64{
			4: 15, // Approved
			3: 10, // Phase 3
			2: 6,  // Phase 2
			1: 3,  // Phase 1
			0: 1,  // Preclinical
		},
		PublicationSourceReliability: map[string]float64{
			"fda":      0.95,
			"pharmgkb": 0.90,
			"clinvar":  0.85,
			"reactome": 0.80,
			"pubmed":   0.75,
			"drugbank": 0.70,
			"ensembl":  0.65,
			"uniprot":  0.60,
		},
		GapThresholds: map[EvidenceDomain]float64{
			DomainClinical:    0.3,
			DomainMechanistic: 0.4,
			DomainPublication: 0.3,
			DomainGenomic:     0.2,
			DomainSafety:      0.3,
		},
		DiversityGapThreshold: 0.5,
	}
	if err := t.Validate(); err != nil {
		// Tables are compile-time constants; failing here is a programming bug.
		panic(err)
	}
	return t
}

// Validate enforces the table invariants: positive ceilings for every
// domain, and a weight vector per use case that sums to 1.0 over exactly
// the five domains.
func (t *ScoringTables) Validate() error {
	for _, d := range AllDomains() {
		if t.ceilings[d] <= 0 {
			return fmt.Errorf("scoring tables: missing ceiling for domain %s", d)
		}
		if r := t.sourceReliability[d]; r <= 0 || r > 1 {
			return fmt.Errorf("scoring tables: reliability %.2f for domain %s outside (0, 1]", r, d)
		}
	}
	for _, u := range AllUseCases() {
		weights, ok := t.useCaseWeights[u]
		if !ok {
			return fmt.Errorf("scoring tables: missing weights for use case %s", u)
		}
		sum := 0.0
		for _, d := range AllDomains() {
			w, ok := weights[d]
			if !ok {
				return fmt.Errorf("scoring tables: use case %s missing weight for domain %s", u, d)
			}
			if w < 0 {
				return fmt.Errorf("scoring tables: use case %s has negative weight for domain %s", u, d)
			}
			sum += w
		}
		if math.Abs(sum-1.0) > weightTolerance {
			return fmt.Errorf("scoring tables: use case %s weights sum to %.12f: %w", u, sum, ErrWeightsNotNormal)
		}
	}
	return nil
}

// Ceiling returns the score ceiling for a domain.
func (t *ScoringTables) Ceiling(d EvidenceDomain) float64 {
	return t.ceilings[d]
}

// Weight returns the weight of a domain under a use case.
func (t *ScoringTables) Weight(u UseCase, d EvidenceDomain) float64 {
	return t.useCaseWeights[u][d]
}

// Reliability returns the per-domain source reliability used by the
// evidence-quality metric.
func (t *ScoringTables) Reliability(d EvidenceDomain) float64 {
	return t.sourceReliability[d]
}

// MaxOverallScore returns the use-case-specific maximum composite score,
// derived from the weight vector and the domain ceilings.
func (t *ScoringTables) MaxOverallScore(u UseCase) float64 {
	max := 0.0
	for _, d := range AllDomains() {
		max += t.ceilings[d] * t.useCaseWeights[u][d]
	}
	return max
}
