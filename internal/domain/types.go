// Package domain contains core business entities and types for gene/drug
// evidence scoring and target-prioritization analytics.
//
// The scoring model reduces heterogeneous biomedical evidence (clinical-trial
// phases, pathway membership, literature references, genomic annotations,
// safety signals) to five bounded domain scores, which a use-case-aware
// composite scorer turns into one ranked number with an uncertainty band.
package domain

import (
	"errors"
	"fmt"
)

// EvidenceDomain identifies one of the five evidence categories.
// Every calculator produces exactly one score per domain, and every domain
// has a fixed score ceiling that must hold after every calculator run.
type EvidenceDomain string

const (
	DomainClinical    EvidenceDomain = "clinical"
	DomainMechanistic EvidenceDomain = "mechanistic"
	DomainPublication EvidenceDomain = "publication"
	DomainGenomic     EvidenceDomain = "genomic"
	DomainSafety      EvidenceDomain = "safety"
)

// UseCase identifies a research objective that determines how the five
// domain scores are weighted into a composite score.
type UseCase string

const (
	UseCaseDrugRepurposing      UseCase = "drug_repurposing"
	UseCaseBiomarkerDiscovery   UseCase = "biomarker_discovery"
	UseCasePathwayAnalysis      UseCase = "pathway_analysis"
	UseCaseTherapeuticTargeting UseCase = "therapeutic_targeting"
)

// ReadinessTier buckets a gene by how far its evidence base supports
// translation, from clinical readiness down to insufficient evidence.
type ReadinessTier string

const (
	ReadyForClinical      ReadinessTier = "ready_for_clinical"
	ReadyForPreclinical   ReadinessTier = "ready_for_preclinical"
	RequiresBasicResearch ReadinessTier = "requires_basic_research"
	InsufficientEvidence  ReadinessTier = "insufficient_evidence"
)

// Validation errors for scoring data integrity
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidDomain    = errors.New("invalid evidence domain")
	ErrInvalidUseCase   = errors.New("invalid use case")
	ErrInvalidFact      = errors.New("invalid raw fact")
	ErrNoAnalyticsData  = errors.New("no valid analytics data")
	ErrWeightsNotNormal = errors.New("use case weights do not sum to 1.0")
)

// AllDomains returns the five evidence domains in canonical order.
// The order is stable so that batch output and reports are deterministic.
func AllDomains() []EvidenceDomain {
	return []EvidenceDomain{
		DomainClinical,
		DomainMechanistic,
		DomainPublication,
		DomainGenomic,
		DomainSafety,
	}
}

// AllUseCases returns the four supported use cases in canonical order.
func AllUseCases() []UseCase {
	return []UseCase{
		UseCaseDrugRepurposing,
		UseCaseBiomarkerDiscovery,
		UseCasePathwayAnalysis,
		UseCaseTherapeuticTargeting,
	}
}

// IsValid validates the evidence domain. The domain set is closed: scoring
// tables, calculators and analytics all switch exhaustively over it.
func (d EvidenceDomain) IsValid() bool {
	switch d {
	case DomainClinical, DomainMechanistic, DomainPublication, DomainGenomic, DomainSafety:
		return true
	default:
		return false
	}
}

// String returns the string representation of the domain.
func (d EvidenceDomain) String() string {
	return string(d)
}

// IsValid validates the use case.
func (u UseCase) IsValid() bool {
	switch u {
	case UseCaseDrugRepurposing, UseCaseBiomarkerDiscovery, UseCasePathwayAnalysis, UseCaseTherapeuticTargeting:
		return true
	default:
		return false
	}
}

// String returns the string representation of the use case.
func (u UseCase) String() string {
	return string(u)
}

// ParseUseCase converts a raw string into a UseCase, rejecting anything
// outside the closed set. Unknown use cases are caller bugs, not sparse data.
func ParseUseCase(s string) (UseCase, error) {
	u := UseCase(s)
	if !u.IsValid() {
		return "", fmt.Errorf("parsing use case %q: %w", s, ErrInvalidUseCase)
	}
	return u, nil
}

// IsValid validates the readiness tier.
func (r ReadinessTier) IsValid() bool {
	switch r {
	case ReadyForClinical, ReadyForPreclinical, RequiresBasicResearch, InsufficientEvidence:
		return true
	default:
		return false
	}
}

// String returns the string representation of the readiness tier.
func (r ReadinessTier) String() string {
	return string(r)
}
