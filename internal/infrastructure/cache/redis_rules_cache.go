package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/redis/go-redis/v9"
)

// RedisRulesCache implements numbering.RulesCache using Redis.
// Suitable for distributed deployments where multiple instances must see
// a rules change as soon as the owning instance invalidates the key.
type RedisRulesCache struct {
	client     *redis.Client
	keyPrefix  string
	defaultTTL time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisRulesCache creates a new Redis-backed rules cache
func NewRedisRulesCache(cfg RedisConfig, defaultTTL time.Duration) (*RedisRulesCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisRulesCacheWithClient(client, "", defaultTTL), nil
}

// NewRedisRulesCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisRulesCacheWithClient(client *redis.Client, keyPrefix string, defaultTTL time.Duration) *RedisRulesCache {
	if defaultTTL <= 0 {
		defaultTTL = defaultRulesTTL
	}
	return &RedisRulesCache{
		client:     client,
		keyPrefix:  keyPrefix,
		defaultTTL: defaultTTL,
	}
}

// Get retrieves cached rules. Returns nil, nil on a miss.
func (c *RedisRulesCache) Get(ctx context.Context, key string) (*numbering.FormatRules, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rules from cache: %w", err)
	}

	var rules numbering.FormatRules
	if err := json.Unmarshal(data, &rules); err != nil {
		// A corrupt entry is treated as a miss so the resolver falls
		// through to the repository and overwrites it on the next Set.
		return nil, nil
	}

	return &rules, nil
}

// Set stores rules in the cache with the given TTL
func (c *RedisRulesCache) Set(ctx context.Context, key string, rules *numbering.FormatRules, ttl time.Duration) error {
	if rules == nil {
		return nil
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}

	if err := c.client.Set(ctx, c.keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set rules in cache: %w", err)
	}

	return nil
}

// Delete removes rules from the cache
func (c *RedisRulesCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete rules from cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisRulesCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisRulesCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisRulesCache implements RulesCache
var _ numbering.RulesCache = (*RedisRulesCache)(nil)
