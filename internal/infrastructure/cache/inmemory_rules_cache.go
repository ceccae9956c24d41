package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/numbering/internal/domain/numbering"
	"go.uber.org/zap"
)

const (
	defaultCleanupInterval = 30 * time.Second
	defaultRulesTTL        = 5 * time.Minute
)

// InMemoryRulesCache implements numbering.RulesCache using in-process storage.
// Suitable for single-instance deployments; state is not shared across
// processes, so a rules change on one instance is only visible to others
// after their TTL expires.
type InMemoryRulesCache struct {
	entries    sync.Map // map[string]*rulesEntry
	defaultTTL time.Duration
	logger     *zap.Logger
	stopCh     chan struct{}
	stopped    int32

	hits   int64
	misses int64
}

// rulesEntry wraps cached rules with an expiration time
type rulesEntry struct {
	rules     *numbering.FormatRules
	expiresAt time.Time
}

func (e *rulesEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryRulesCacheOption is a functional option for configuring the cache
type InMemoryRulesCacheOption func(*InMemoryRulesCache)

// WithInMemoryTTL sets the default TTL applied when Set is called with ttl 0
func WithInMemoryTTL(ttl time.Duration) InMemoryRulesCacheOption {
	return func(c *InMemoryRulesCache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryRulesCacheOption {
	return func(c *InMemoryRulesCache) {
		c.logger = logger
	}
}

// NewInMemoryRulesCache creates a new in-memory rules cache
func NewInMemoryRulesCache(opts ...InMemoryRulesCacheOption) *InMemoryRulesCache {
	cache := &InMemoryRulesCache{
		defaultTTL: defaultRulesTTL,
		logger:     zap.NewNop(),
		stopCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves cached rules. Returns nil, nil on a miss.
func (c *InMemoryRulesCache) Get(ctx context.Context, key string) (*numbering.FormatRules, error) {
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*rulesEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("Rules cache hit", zap.String("key", key))
			return entry.rules, nil
		}
		c.entries.Delete(key)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("Rules cache miss", zap.String("key", key))
	return nil, nil
}

// Set stores rules in the cache
func (c *InMemoryRulesCache) Set(ctx context.Context, key string, rules *numbering.FormatRules, ttl time.Duration) error {
	if rules == nil {
		return nil
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	c.entries.Store(key, &rulesEntry{
		rules:     rules,
		expiresAt: time.Now().Add(ttl),
	})
	c.logger.Debug("Cached rules",
		zap.String("key", key),
		zap.Duration("ttl", ttl))
	return nil
}

// Delete removes rules from the cache
func (c *InMemoryRulesCache) Delete(ctx context.Context, key string) error {
	c.entries.Delete(key)
	c.logger.Debug("Deleted rules from cache", zap.String("key", key))
	return nil
}

// Close stops the background cleanup goroutine
func (c *InMemoryRulesCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache hit and miss counters
func (c *InMemoryRulesCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of entries currently in the cache
func (c *InMemoryRulesCache) Count() int {
	count := 0
	c.entries.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// cleanupExpired periodically removes expired entries
func (c *InMemoryRulesCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("Panic in cache cleanup",
							zap.Any("panic", r))
					}
				}()
				c.doCleanup()
			}()
		}
	}
}

// doCleanup removes expired entries
func (c *InMemoryRulesCache) doCleanup() {
	removed := 0

	c.entries.Range(func(key, value any) bool {
		entry := value.(*rulesEntry)
		if entry.isExpired() {
			c.entries.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		c.logger.Debug("Cleaned up expired rules cache entries",
			zap.Int("removed", removed))
	}
}

// Ensure InMemoryRulesCache implements RulesCache
var _ numbering.RulesCache = (*InMemoryRulesCache)(nil)
