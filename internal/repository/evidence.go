// Package repository implements the relational-store collaborators: the
// evidence source that assembles per-gene records and the score repository
// that persists and re-reads composite scores.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/targetrank-server/internal/domain"
)

// EvidenceRepository reads per-gene evidence records. The engine consumes
// the assembled GeneEvidenceRecord and never touches storage itself.
type EvidenceRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewEvidenceRepository creates a new evidence repository.
func NewEvidenceRepository(db *pgxpool.Pool, logger *logrus.Logger) *EvidenceRepository {
	return &EvidenceRepository{
		db:  db,
		log: logger,
	}
}

// GetRecord retrieves one gene's evidence record. Unknown fields in the
// stored JSON are ignored; missing fields default to empty containers via
// Normalize, per the input contract.
func (r *EvidenceRepository) GetRecord(ctx context.Context, geneID string) (*domain.GeneEvidenceRecord, error) {
	query := `
		SELECT gene_id, gene_symbol, record
		FROM gene_evidence
		WHERE gene_id = $1`

	var record domain.GeneEvidenceRecord
	var raw []byte

	err := r.db.QueryRow(ctx, query, geneID).Scan(&record.GeneID, &record.GeneSymbol, &raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("gene evidence %q: %w", geneID, domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"gene_id": geneID,
			"error":   err,
		}).Error("Failed to get gene evidence record")
		return nil, fmt.Errorf("getting gene evidence: %w", err)
	}

	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decoding gene evidence %q: %w", geneID, err)
	}
	if err := record.Normalize(); err != nil {
		return nil, fmt.Errorf("normalizing gene evidence %q: %w", geneID, err)
	}
	return &record, nil
}

// ListScorableGenes returns the IDs of genes with at least one drug
// association, the pipeline's pre-filter.
func (r *EvidenceRepository) ListScorableGenes(ctx context.Context) ([]string, error) {
	query := `
		SELECT gene_id
		FROM gene_evidence
		WHERE record ? 'drugs' AND record->'drugs' != '{}'::jsonb
		ORDER BY gene_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing scorable genes: %w", err)
	}
	defer rows.Close()

	var geneIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning gene id: %w", err)
		}
		geneIDs = append(geneIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating gene ids: %w", err)
	}
	return geneIDs, nil
}

// GetRecords bulk-loads evidence records for a batch run. Genes without a
// record are simply absent from the result, not an error.
func (r *EvidenceRepository) GetRecords(ctx context.Context, geneIDs []string) (map[string]*domain.GeneEvidenceRecord, error) {
	query := `
		SELECT gene_id, gene_symbol, record
		FROM gene_evidence
		WHERE gene_id = ANY($1)`

	rows, err := r.db.Query(ctx, query, geneIDs)
	if err != nil {
		return nil, fmt.Errorf("getting gene evidence records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]*domain.GeneEvidenceRecord, len(geneIDs))
	for rows.Next() {
		var record domain.GeneEvidenceRecord
		var raw []byte
		if err := rows.Scan(&record.GeneID, &record.GeneSymbol, &raw); err != nil {
			return nil, fmt.Errorf("scanning gene evidence row: %w", err)
		}
		if err := json.Unmarshal(raw, &record); err != nil {
			r.log.WithError(err).WithField("gene_id", record.GeneID).Warn("Skipping malformed evidence record")
			continue
		}
		if err := record.Normalize(); err != nil {
			r.log.WithError(err).WithField("gene_id", record.GeneID).Warn("Skipping invalid evidence record")
			continue
		}
		records[record.GeneID] = &record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating gene evidence rows: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"requested": len(geneIDs),
		"loaded":    len(records),
	}).Debug("Loaded gene evidence records")

	return records, nil
}

// SaveRecord upserts a gene's evidence record. Used by ingestion tooling
// and tests; the scoring engine itself only reads.
func (r *EvidenceRepository) SaveRecord(ctx context.Context, record *domain.GeneEvidenceRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding gene evidence %q: %w", record.GeneID, err)
	}

	query := `
		INSERT INTO gene_evidence (gene_id, gene_symbol, record, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (gene_id) DO UPDATE
		SET gene_symbol = EXCLUDED.gene_symbol, record = EXCLUDED.record, updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, record.GeneID, record.GeneSymbol, raw); err != nil {
		r.log.WithFields(logrus.Fields{
			"gene_id": record.GeneID,
			"error":   err,
		}).Error("Failed to save gene evidence record")
		return fmt.Errorf("saving gene evidence: %w", err)
	}
	return nil
}
