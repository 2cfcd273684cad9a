package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/targetrank-server/internal/domain"
)

// RedisCache caches analytics profiles in Redis behind a circuit breaker.
// Backend failures degrade to cache misses so an unhealthy Redis never
// fails a profile request.
type RedisCache struct {
	redis   *redis.Client
	breaker *gobreaker.CircuitBreaker
	ttl     time.Duration
	log     *logrus.Logger
}

// RedisConfig configures the Redis profile cache.
type RedisConfig struct {
	URL        string
	PoolSize   int
	MaxRetries int
	TTL        time.Duration
}

// NewRedisCache creates a new Redis profile cache and verifies connectivity.
func NewRedisCache(config RedisConfig, logger *logrus.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.MaxRetries > 0 {
		opts.MaxRetries = config.MaxRetries
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ProfileCache",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Cache circuit breaker state changed")
		},
	})

	ttl := config.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &RedisCache{
		redis:   client,
		breaker: breaker,
		ttl:     ttl,
		log:     logger,
	}, nil
}

// GetProfile returns a cached profile. Any backend or decode failure is a miss.
func (c *RedisCache) GetProfile(ctx context.Context, geneSymbol string) (*domain.GeneAnalyticsProfile, bool) {
	key := profileKey(geneSymbol)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		val, err := c.redis.Get(ctx, key).Result()
		if err == redis.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return val, nil
	})
	if err != nil {
		c.log.WithError(err).WithField("gene", geneSymbol).Debug("Profile cache read failed")
		return nil, false
	}
	if result == nil {
		return nil, false
	}

	var profile domain.GeneAnalyticsProfile
	if err := json.Unmarshal([]byte(result.(string)), &profile); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		return nil, false
	}
	return &profile, true
}

// SetProfile stores a profile with the configured TTL. Failures are logged
// and swallowed.
func (c *RedisCache) SetProfile(ctx context.Context, profile *domain.GeneAnalyticsProfile) {
	if profile == nil || profile.GeneSymbol == "" {
		return
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		c.log.WithError(err).WithField("gene", profile.GeneSymbol).Warn("Failed to encode profile for cache")
		return
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.redis.Set(ctx, profileKey(profile.GeneSymbol), payload, c.ttl).Err()
	})
	if err != nil {
		c.log.WithError(err).WithField("gene", profile.GeneSymbol).Debug("Profile cache write failed")
	}
}

// Invalidate removes a cached profile.
func (c *RedisCache) Invalidate(ctx context.Context, geneSymbol string) {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.redis.Del(ctx, profileKey(geneSymbol)).Err()
	})
	if err != nil {
		c.log.WithError(err).WithField("gene", geneSymbol).Debug("Profile cache invalidation failed")
	}
}

// Ping checks if the Redis connection is alive.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.redis.Close()
}

func profileKey(geneSymbol string) string {
	return "profile:gene:" + geneSymbol
}
