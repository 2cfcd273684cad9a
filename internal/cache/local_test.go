package cache

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/targetrank-server/internal/domain"
)

func newLocalCache(t *testing.T, size int, ttl time.Duration) *LocalCache {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cache, err := NewLocalCache(size, ttl, logger)
	require.NoError(t, err)
	return cache
}

func profileFor(symbol string) *domain.GeneAnalyticsProfile {
	return &domain.GeneAnalyticsProfile{
		GeneSymbol:               symbol,
		RecommendationConfidence: 0.8,
		GeneratedAt:              time.Now().UTC(),
	}
}

func TestLocalCache_SetAndGet(t *testing.T) {
	cache := newLocalCache(t, 8, time.Minute)
	ctx := context.Background()

	cache.SetProfile(ctx, profileFor("TP53"))

	got, ok := cache.GetProfile(ctx, "TP53")
	require.True(t, ok)
	assert.Equal(t, "TP53", got.GeneSymbol)

	_, ok = cache.GetProfile(ctx, "KRAS")
	assert.False(t, ok)
}

func TestLocalCache_IgnoresInvalidProfiles(t *testing.T) {
	cache := newLocalCache(t, 8, time.Minute)
	ctx := context.Background()

	cache.SetProfile(ctx, nil)
	cache.SetProfile(ctx, &domain.GeneAnalyticsProfile{})
	assert.Zero(t, cache.Len())
}

func TestLocalCache_ExpiredEntryIsAMiss(t *testing.T) {
	cache := newLocalCache(t, 8, time.Nanosecond)
	ctx := context.Background()

	cache.SetProfile(ctx, profileFor("TP53"))
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.GetProfile(ctx, "TP53")
	assert.False(t, ok)
	// The expired entry is evicted on read.
	assert.Zero(t, cache.Len())
}

func TestLocalCache_ZeroTTLNeverExpires(t *testing.T) {
	cache := newLocalCache(t, 8, 0)
	ctx := context.Background()

	cache.SetProfile(ctx, profileFor("TP53"))
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.GetProfile(ctx, "TP53")
	assert.True(t, ok)
}

func TestLocalCache_Invalidate(t *testing.T) {
	cache := newLocalCache(t, 8, time.Minute)
	ctx := context.Background()

	cache.SetProfile(ctx, profileFor("TP53"))
	cache.Invalidate(ctx, "TP53")

	_, ok := cache.GetProfile(ctx, "TP53")
	assert.False(t, ok)
}

func TestLocalCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := newLocalCache(t, 4, time.Minute)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		cache.SetProfile(ctx, profileFor(fmt.Sprintf("GENE%d", i)))
	}

	assert.Equal(t, 4, cache.Len())
	_, ok := cache.GetProfile(ctx, "GENE0")
	assert.False(t, ok)
	_, ok = cache.GetProfile(ctx, "GENE5")
	assert.True(t, ok)
}

func TestNewLocalCache_DefaultSize(t *testing.T) {
	cache := newLocalCache(t, 0, time.Minute)
	assert.NotNil(t, cache)
	assert.Zero(t, cache.Len())
}
