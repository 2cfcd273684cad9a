package domain

import (
	"context"
)

// EvidenceSource is the relational-store collaborator that assembles
// per-gene evidence records. The engine never fetches data itself.
type EvidenceSource interface {
	GetRecord(ctx context.Context, geneID string) (*GeneEvidenceRecord, error)
	ListScorableGenes(ctx context.Context) ([]string, error)
	GetRecords(ctx context.Context, geneIDs []string) (map[string]*GeneEvidenceRecord, error)
}

// ScoreStore is the persistence collaborator for composite scores. The
// engine is agnostic to the storage format as long as round-tripping
// through the contract fields is lossless.
type ScoreStore interface {
	SaveGeneScores(ctx context.Context, scores []GeneScoreSet) error
	GetGeneScores(ctx context.Context, geneSymbol string) ([]CompositeScore, error)
	GetTopGenes(ctx context.Context, useCase UseCase, limit int) ([]CompositeScore, error)
	GetDrugScores(ctx context.Context, geneSymbol string) (map[string]float64, error)
}

// ProfileCache caches derived analytics profiles. Implementations degrade
// to a miss on backend failure; a cache error never fails a request.
type ProfileCache interface {
	GetProfile(ctx context.Context, geneSymbol string) (*GeneAnalyticsProfile, bool)
	SetProfile(ctx context.Context, profile *GeneAnalyticsProfile)
	Invalidate(ctx context.Context, geneSymbol string)
}

// ConfigManager exposes validated application configuration.
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
