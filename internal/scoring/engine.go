// Package scoring implements the evidence scoring engine: five domain
// calculators, the use-case-aware composite scorer, the batch pipeline and
// the batch statistics. All scoring is deterministic and free of I/O.
package scoring

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/targetrank-server/internal/domain"
)

// Engine evaluates the five domain calculators against a gene's evidence
// record. Calculators are pure functions of the record plus the immutable
// scoring tables; missing evidence yields (0, 0), never an error.
type Engine struct {
	logger      *logrus.Logger
	tables      *domain.ScoringTables
	calculators map[domain.EvidenceDomain]*calculator
}

// calculator binds one evidence domain to its compute function.
type calculator struct {
	Domain   domain.EvidenceDomain
	Source   string
	Evaluate func(record *domain.GeneEvidenceRecord) domain.EvidenceScore
}

// NewEngine creates a scoring engine with the default tables.
func NewEngine(logger *logrus.Logger) *Engine {
	return NewEngineWithTables(logger, domain.DefaultTables())
}

// NewEngineWithTables creates a scoring engine over explicit tables.
func NewEngineWithTables(logger *logrus.Logger, tables *domain.ScoringTables) *Engine {
	e := &Engine{
		logger:      logger,
		tables:      tables,
		calculators: make(map[domain.EvidenceDomain]*calculator),
	}
	e.registerCalculators()
	return e
}

// Tables returns the engine's immutable scoring tables.
func (e *Engine) Tables() *domain.ScoringTables {
	return e.tables
}

// ComputeAll runs every domain calculator once against the record and
// enforces the per-domain ceiling invariants on each result. A ceiling
// violation indicates a table or calculator bug, so it is surfaced as an
// error rather than clipped silently twice.
func (e *Engine) ComputeAll(record *domain.GeneEvidenceRecord) (map[domain.EvidenceDomain]domain.EvidenceScore, error) {
	scores := make(map[domain.EvidenceDomain]domain.EvidenceScore, len(e.calculators))

	for _, d := range domain.AllDomains() {
		score, err := e.Compute(d, record)
		if err != nil {
			return nil, err
		}
		scores[d] = score
	}

	e.logger.WithFields(logrus.Fields{
		"gene_id":        record.GeneID,
		"evidence_count": record.EvidenceCount(),
	}).Debug("Computed all domain scores")

	return scores, nil
}

// Compute runs a single domain calculator against the record.
func (e *Engine) Compute(d domain.EvidenceDomain, record *domain.GeneEvidenceRecord) (domain.EvidenceScore, error) {
	calc, exists := e.calculators[d]
	if !exists {
		return domain.EvidenceScore{}, fmt.Errorf("computing score: %w: %s", domain.ErrInvalidDomain, d)
	}

	score := calc.Evaluate(record)
	score.Domain = d
	score.Source = calc.Source

	if err := score.Validate(e.tables); err != nil {
		return domain.EvidenceScore{}, fmt.Errorf("computing %s score for gene %q: %w", d, record.GeneID, err)
	}
	return score, nil
}

// registerCalculators wires the five domain calculators.
func (e *Engine) registerCalculators() {
	e.addCalculator(domain.DomainClinical, "pharmgkb/repurposing_hub", e.computeClinical)
	e.addCalculator(domain.DomainMechanistic, "reactome/pharmgkb", e.computeMechanistic)
	e.addCalculator(domain.DomainPublication, "literature", e.computePublication)
	e.addCalculator(domain.DomainGenomic, "gene_ontology", e.computeGenomic)
	e.addCalculator(domain.DomainSafety, "fda/safety", e.computeSafety)
}

func (e *Engine) addCalculator(d domain.EvidenceDomain, source string, eval func(*domain.GeneEvidenceRecord) domain.EvidenceScore) {
	e.calculators[d] = &calculator{
		Domain:   d,
		Source:   source,
		Evaluate: eval,
	}
}

// capScore clips a summed score to the domain ceiling.
func capScore(score, ceiling float64) float64 {
	if score > ceiling {
		return ceiling
	}
	if score < 0 {
		return 0
	}
	return score
}

// saturatingConfidence maps a fact count to [0, max] with slope k.
// Zero facts always means zero confidence.
func saturatingConfidence(factCount int, k, max float64) float64 {
	if factCount <= 0 {
		return 0
	}
	conf := float64(factCount) * k
	if conf > max {
		return max
	}
	return conf
}
