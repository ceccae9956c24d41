package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RulesCache abstracts caching of resolved format rules. Rules are
// read on every allocation and preview and change rarely, so the
// resolver consults a cache in front of the repository.
type RulesCache interface {
	// Get retrieves cached rules by key.
	// Returns nil, nil if the rules are not in cache (cache miss).
	// Returns nil, error if there was an error accessing the cache.
	Get(ctx context.Context, key string) (*FormatRules, error)

	// Set stores rules in cache with the specified TTL.
	// If ttl is 0, implementation should use a default TTL.
	Set(ctx context.Context, key string, rules *FormatRules, ttl time.Duration) error

	// Delete removes rules from cache by key
	Delete(ctx context.Context, key string) error
}

// RulesCacheKey builds the cache key for a (tenant, voucher type) pair
func RulesCacheKey(tenantID uuid.UUID, voucherType VoucherType) string {
	return fmt.Sprintf("numbering:rules:%s:%s", tenantID, voucherType)
}
