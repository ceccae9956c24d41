package numbering

import (
	"context"

	"github.com/google/uuid"
)

// FormatRulesRepository defines the interface for format rules persistence
type FormatRulesRepository interface {
	// FindByTenantAndType finds the configured rules for one voucher type.
	// Returns shared.ErrNotFound when the tenant has not configured the type.
	FindByTenantAndType(ctx context.Context, tenantID uuid.UUID, voucherType VoucherType) (*FormatRules, error)

	// FindAllForTenant returns every configured rule row for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]FormatRules, error)

	// Save creates or updates format rules
	Save(ctx context.Context, rules *FormatRules) error
}

// SequenceRepository defines the interface for the atomic sequence store.
// NextValue is the only write path; it serializes concurrent callers for
// the same (tenant, voucher type) key and never hands out a value twice.
type SequenceRepository interface {
	// NextValue atomically allocates the next value for the key. A missing
	// counter row is created on first use. minimumStart is the floor taken
	// from the current format rules; see SequenceCounter.Advance for how
	// it interacts with the stored value.
	NextValue(ctx context.Context, tenantID uuid.UUID, voucherType VoucherType, minimumStart int64) (int64, error)

	// FindAllForTenant returns the current counters for a tenant, for
	// operational visibility. Read-only.
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]SequenceCounter, error)
}
