package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/numbering/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesCacheFactory_MemoryBackend(t *testing.T) {
	factory := NewRulesCacheFactory(
		config.NumberingConfig{CacheBackend: "memory", CacheTTL: time.Minute},
		config.RedisConfig{},
	)

	cache, err := factory.CreateCache()
	require.NoError(t, err)
	require.NotNil(t, cache)

	_, ok := cache.(*InMemoryRulesCache)
	assert.True(t, ok, "memory backend should produce an in-memory cache")
}

func TestRulesCacheFactory_EmptyBackendDefaultsToMemory(t *testing.T) {
	factory := NewRulesCacheFactory(
		config.NumberingConfig{CacheTTL: time.Minute},
		config.RedisConfig{},
	)

	cache, err := factory.CreateCache()
	require.NoError(t, err)

	_, ok := cache.(*InMemoryRulesCache)
	assert.True(t, ok)
}

func TestRulesCacheFactory_UnknownBackend(t *testing.T) {
	factory := NewRulesCacheFactory(
		config.NumberingConfig{CacheBackend: "memcached"},
		config.RedisConfig{},
	)

	cache, err := factory.CreateCache()
	assert.Error(t, err)
	assert.Nil(t, cache)
	assert.Contains(t, err.Error(), "unknown rules cache backend")
}

func TestRulesCacheFactory_RedisFallback(t *testing.T) {
	// Point at a port nothing listens on so the redis backend fails fast
	factory := NewRulesCacheFactory(
		config.NumberingConfig{CacheBackend: "redis", CacheTTL: time.Minute},
		config.RedisConfig{Host: "127.0.0.1", Port: 1},
	)

	cache, err := factory.CreateCache()
	require.NoError(t, err)
	require.NotNil(t, cache)

	_, ok := cache.(*InMemoryRulesCache)
	assert.True(t, ok, "unreachable redis should fall back to the in-memory cache")
}

func TestRulesCacheFactory_RedisRequiredWithoutFallback(t *testing.T) {
	factory := NewRulesCacheFactory(
		config.NumberingConfig{CacheBackend: "redis"},
		config.RedisConfig{Host: "127.0.0.1", Port: 1},
		WithInMemoryFallback(false),
	)

	cache, err := factory.CreateCache()
	assert.Error(t, err)
	assert.Nil(t, cache)
}

func TestRulesCacheFactory_FallbackCacheIsUsable(t *testing.T) {
	factory := NewRulesCacheFactory(
		config.NumberingConfig{CacheBackend: "memory", CacheTTL: time.Minute},
		config.RedisConfig{},
	)

	cache, err := factory.CreateCache()
	require.NoError(t, err)

	rules, err := cache.Get(context.Background(), "numbering:rules:missing")
	require.NoError(t, err)
	assert.Nil(t, rules)
}
