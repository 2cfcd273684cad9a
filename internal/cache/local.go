package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/targetrank-server/internal/domain"
)

// localEntry wraps a cached profile with its expiry.
type localEntry struct {
	profile   *domain.GeneAnalyticsProfile
	expiresAt time.Time
}

// LocalCache is an in-process LRU profile cache. It is the default cache
// for single-node deployments and the first tier in front of Redis.
type LocalCache struct {
	entries *lru.Cache[string, localEntry]
	ttl     time.Duration
	log     *logrus.Logger
}

// NewLocalCache creates a new in-process profile cache. A non-positive
// size falls back to 512 entries; a non-positive TTL disables expiry.
func NewLocalCache(size int, ttl time.Duration, logger *logrus.Logger) (*LocalCache, error) {
	if size <= 0 {
		size = 512
	}
	entries, err := lru.New[string, localEntry](size)
	if err != nil {
		return nil, err
	}
	return &LocalCache{
		entries: entries,
		ttl:     ttl,
		log:     logger,
	}, nil
}

// GetProfile returns a cached profile, treating expired entries as misses.
func (c *LocalCache) GetProfile(_ context.Context, geneSymbol string) (*domain.GeneAnalyticsProfile, bool) {
	entry, ok := c.entries.Get(geneSymbol)
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.entries.Remove(geneSymbol)
		return nil, false
	}
	return entry.profile, true
}

// SetProfile stores a profile. Nil profiles are ignored.
func (c *LocalCache) SetProfile(_ context.Context, profile *domain.GeneAnalyticsProfile) {
	if profile == nil || profile.GeneSymbol == "" {
		return
	}
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}
	c.entries.Add(profile.GeneSymbol, localEntry{profile: profile, expiresAt: expiresAt})
}

// Invalidate removes a cached profile.
func (c *LocalCache) Invalidate(_ context.Context, geneSymbol string) {
	c.entries.Remove(geneSymbol)
}

// Len returns the number of cached profiles, expired entries included.
func (c *LocalCache) Len() int {
	return c.entries.Len()
}
