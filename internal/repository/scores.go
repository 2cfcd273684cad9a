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

// ScoreRepository persists batch output and serves it back to the
// analytics layer. Round-tripping through the contract fields is lossless
// beyond the declared 2-decimal rounding.
type ScoreRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *pgxpool.Pool, logger *logrus.Logger) *ScoreRepository {
	return &ScoreRepository{
		db:  db,
		log: logger,
	}
}

// SaveGeneScores bulk-upserts one batch run's output: four composite
// scores and the drug score map per gene, in a single transaction.
func (r *ScoreRepository) SaveGeneScores(ctx context.Context, scores []domain.GeneScoreSet) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning score save transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	compositeQuery := `
		INSERT INTO composite_scores (
			gene_id, gene_symbol, use_case, overall_score, component_scores,
			ci_lower, ci_upper, evidence_quality, evidence_count, scoring_version, scored_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (gene_symbol, use_case) DO UPDATE SET
			gene_id = EXCLUDED.gene_id,
			overall_score = EXCLUDED.overall_score,
			component_scores = EXCLUDED.component_scores,
			ci_lower = EXCLUDED.ci_lower,
			ci_upper = EXCLUDED.ci_upper,
			evidence_quality = EXCLUDED.evidence_quality,
			evidence_count = EXCLUDED.evidence_count,
			scoring_version = EXCLUDED.scoring_version,
			scored_at = EXCLUDED.scored_at`

	drugQuery := `
		INSERT INTO drug_scores (gene_symbol, drug_key, score, scored_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (gene_symbol, drug_key) DO UPDATE SET
			score = EXCLUDED.score,
			scored_at = EXCLUDED.scored_at`

	for _, geneScores := range scores {
		for _, composite := range geneScores.CompositeScores {
			components, err := json.Marshal(composite.ComponentScores)
			if err != nil {
				return fmt.Errorf("encoding component scores for gene %q: %w", geneScores.GeneID, err)
			}
			_, err = tx.Exec(ctx, compositeQuery,
				geneScores.GeneID,
				geneScores.GeneSymbol,
				composite.UseCase.String(),
				composite.OverallScore,
				components,
				composite.ConfidenceInterval.Lower,
				composite.ConfidenceInterval.Upper,
				composite.EvidenceQuality,
				geneScores.EvidenceCount,
				composite.ScoringVersion,
				geneScores.ScoredAt,
			)
			if err != nil {
				return fmt.Errorf("saving composite score for gene %q: %w", geneScores.GeneID, err)
			}
		}

		for drugKey, score := range geneScores.DrugSpecificScores {
			if _, err := tx.Exec(ctx, drugQuery, geneScores.GeneSymbol, drugKey, score, geneScores.ScoredAt); err != nil {
				return fmt.Errorf("saving drug score for gene %q drug %q: %w", geneScores.GeneID, drugKey, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing score save transaction: %w", err)
	}

	r.log.WithField("genes", len(scores)).Info("Persisted batch scoring output")
	return nil
}

// GetGeneScores returns all stored composite scores for one gene, at most
// one per use case. An unknown gene returns an empty slice, not an error:
// absence is a first-class outcome for the analytics layer.
func (r *ScoreRepository) GetGeneScores(ctx context.Context, geneSymbol string) ([]domain.CompositeScore, error) {
	query := `
		SELECT gene_id, gene_symbol, use_case, overall_score, component_scores,
			   ci_lower, ci_upper, evidence_quality, evidence_count, scoring_version
		FROM composite_scores
		WHERE gene_symbol = $1
		ORDER BY use_case`

	rows, err := r.db.Query(ctx, query, geneSymbol)
	if err != nil {
		return nil, fmt.Errorf("getting scores for gene %q: %w", geneSymbol, err)
	}
	defer rows.Close()

	var scores []domain.CompositeScore
	for rows.Next() {
		score, err := scanCompositeScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating score rows: %w", err)
	}
	return scores, nil
}

// GetTopGenes returns the best-scoring genes for one use case.
func (r *ScoreRepository) GetTopGenes(ctx context.Context, useCase domain.UseCase, limit int) ([]domain.CompositeScore, error) {
	if !useCase.IsValid() {
		return nil, fmt.Errorf("getting top genes: %w: %s", domain.ErrInvalidUseCase, useCase)
	}

	query := `
		SELECT gene_id, gene_symbol, use_case, overall_score, component_scores,
			   ci_lower, ci_upper, evidence_quality, evidence_count, scoring_version
		FROM composite_scores
		WHERE use_case = $1
		ORDER BY overall_score DESC, gene_symbol
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, useCase.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("getting top genes for %s: %w", useCase, err)
	}
	defer rows.Close()

	var scores []domain.CompositeScore
	for rows.Next() {
		score, err := scanCompositeScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating top gene rows: %w", err)
	}
	return scores, nil
}

// GetDrugScores returns the stored drug score map for one gene.
func (r *ScoreRepository) GetDrugScores(ctx context.Context, geneSymbol string) (map[string]float64, error) {
	query := `
		SELECT drug_key, score
		FROM drug_scores
		WHERE gene_symbol = $1`

	rows, err := r.db.Query(ctx, query, geneSymbol)
	if err != nil {
		return nil, fmt.Errorf("getting drug scores for gene %q: %w", geneSymbol, err)
	}
	defer rows.Close()

	scores := map[string]float64{}
	for rows.Next() {
		var key string
		var score float64
		if err := rows.Scan(&key, &score); err != nil {
			return nil, fmt.Errorf("scanning drug score row: %w", err)
		}
		scores[key] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating drug score rows: %w", err)
	}
	return scores, nil
}

func scanCompositeScore(rows pgx.Rows) (domain.CompositeScore, error) {
	var score domain.CompositeScore
	var useCase string
	var components []byte

	err := rows.Scan(
		&score.GeneID,
		&score.GeneSymbol,
		&useCase,
		&score.OverallScore,
		&components,
		&score.ConfidenceInterval.Lower,
		&score.ConfidenceInterval.Upper,
		&score.EvidenceQuality,
		&score.EvidenceCount,
		&score.ScoringVersion,
	)
	if err != nil {
		return domain.CompositeScore{}, fmt.Errorf("scanning composite score row: %w", err)
	}

	parsed, err := domain.ParseUseCase(useCase)
	if err != nil {
		return domain.CompositeScore{}, err
	}
	score.UseCase = parsed

	if err := json.Unmarshal(components, &score.ComponentScores); err != nil {
		return domain.CompositeScore{}, fmt.Errorf("decoding component scores: %w", err)
	}
	return score, nil
}
