package cache

import (
	"context"

	"github.com/targetrank-server/internal/domain"
)

// TieredCache layers the in-process LRU in front of Redis. Local hits
// never touch the network; Redis hits are promoted into the local tier.
type TieredCache struct {
	local  *LocalCache
	remote *RedisCache
}

// NewTieredCache creates a two-tier profile cache.
func NewTieredCache(local *LocalCache, remote *RedisCache) *TieredCache {
	return &TieredCache{local: local, remote: remote}
}

// GetProfile checks the local tier first, then Redis.
func (c *TieredCache) GetProfile(ctx context.Context, geneSymbol string) (*domain.GeneAnalyticsProfile, bool) {
	if profile, ok := c.local.GetProfile(ctx, geneSymbol); ok {
		return profile, true
	}
	profile, ok := c.remote.GetProfile(ctx, geneSymbol)
	if ok {
		c.local.SetProfile(ctx, profile)
	}
	return profile, ok
}

// SetProfile writes through both tiers.
func (c *TieredCache) SetProfile(ctx context.Context, profile *domain.GeneAnalyticsProfile) {
	c.local.SetProfile(ctx, profile)
	c.remote.SetProfile(ctx, profile)
}

// Invalidate removes the profile from both tiers.
func (c *TieredCache) Invalidate(ctx context.Context, geneSymbol string) {
	c.local.Invalidate(ctx, geneSymbol)
	c.remote.Invalidate(ctx, geneSymbol)
}

// Close releases the Redis connection.
func (c *TieredCache) Close() error {
	return c.remote.Close()
}
