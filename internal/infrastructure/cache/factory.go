package cache

import (
	"fmt"

	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/erp/numbering/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RulesCacheFactory creates rules caches based on configuration
type RulesCacheFactory struct {
	numberingConfig       config.NumberingConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// RulesCacheFactoryOption is a functional option for configuring the factory
type RulesCacheFactoryOption func(*RulesCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RulesCacheFactoryOption {
	return func(f *RulesCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when the redis backend is configured but unavailable. Default is true.
func WithInMemoryFallback(allow bool) RulesCacheFactoryOption {
	return func(f *RulesCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRulesCacheFactory creates a new factory
func NewRulesCacheFactory(numberingCfg config.NumberingConfig, redisCfg config.RedisConfig, opts ...RulesCacheFactoryOption) *RulesCacheFactory {
	f := &RulesCacheFactory{
		numberingConfig:       numberingCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateInMemoryCache creates an in-process rules cache
func (f *RulesCacheFactory) CreateInMemoryCache() numbering.RulesCache {
	return NewInMemoryRulesCache(
		WithInMemoryTTL(f.numberingConfig.CacheTTL),
		WithInMemoryLogger(f.logger),
	)
}

// CreateRedisCache creates a Redis-backed rules cache
func (f *RulesCacheFactory) CreateRedisCache() (numbering.RulesCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	cache, err := NewRedisRulesCache(redisCfg, f.numberingConfig.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis rules cache: %w", err)
	}

	return cache, nil
}

// CreateCache creates the rules cache selected by numbering.cache_backend.
// With the redis backend, an unreachable server falls back to the in-memory
// cache unless fallback is disabled.
func (f *RulesCacheFactory) CreateCache() (numbering.RulesCache, error) {
	switch f.numberingConfig.CacheBackend {
	case "memory", "":
		f.logger.Info("using in-memory rules cache")
		return f.CreateInMemoryCache(), nil

	case "redis":
		cache, err := f.CreateRedisCache()
		if err == nil {
			f.logger.Info("using Redis rules cache")
			return cache, nil
		}

		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required for rules cache but unavailable: %w", err)
		}

		f.logger.Warn("Redis unavailable, falling back to in-memory rules cache. "+
			"Rules changes may take a cache TTL to propagate across instances.",
			zap.Error(err),
		)
		return f.CreateInMemoryCache(), nil

	default:
		return nil, fmt.Errorf("unknown rules cache backend: %s", f.numberingConfig.CacheBackend)
	}
}
