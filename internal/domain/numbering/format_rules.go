package numbering

import (
	"fmt"

	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	// MaxPrefixLength is the upper bound for the prefix field
	MaxPrefixLength = 10
	// MaxSuffixLength is the upper bound for the suffix field
	MaxSuffixLength = 10
	// MinWidth and MaxWidth bound the zero-padding width
	MinWidth = 1
	MaxWidth = 12
)

// FormatRules is the per-(tenant, voucher type) numbering configuration.
// Changing rules affects future allocations only; numbers already issued
// stay on the documents that carry them.
type FormatRules struct {
	shared.TenantAggregateRoot
	VoucherType    VoucherType `gorm:"type:varchar(20);not null;uniqueIndex:idx_format_rules_tenant_type,priority:2"`
	Prefix         string      `gorm:"type:varchar(10);not null"`
	Suffix         string      `gorm:"type:varchar(10)"`
	Width          int         `gorm:"not null"`
	ZeroPad        bool        `gorm:"not null;default:true"`
	StartingNumber int64       `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (FormatRules) TableName() string {
	return "format_rules"
}

// NewFormatRules creates validated format rules for a tenant and voucher type
func NewFormatRules(tenantID uuid.UUID, voucherType VoucherType, prefix, suffix string, width int, zeroPad bool, startingNumber int64) (*FormatRules, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("CONFIG_INVALID", "Tenant ID cannot be empty")
	}
	if !voucherType.IsValid() {
		return nil, shared.NewDomainError("CONFIG_INVALID", fmt.Sprintf("Unknown voucher type: %s", voucherType))
	}

	fr := &FormatRules{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VoucherType:         voucherType,
		Prefix:              prefix,
		Suffix:              suffix,
		Width:               width,
		ZeroPad:             zeroPad,
		StartingNumber:      startingNumber,
	}
	if err := fr.Validate(); err != nil {
		return nil, err
	}

	fr.AddDomainEvent(NewFormatRulesChangedEvent(fr))
	return fr, nil
}

// Validate checks every field against its allowed range
func (fr *FormatRules) Validate() error {
	if fr.Prefix == "" {
		return shared.NewDomainError("CONFIG_INVALID", "Prefix cannot be empty")
	}
	if len(fr.Prefix) > MaxPrefixLength {
		return shared.NewDomainError("CONFIG_INVALID", fmt.Sprintf("Prefix cannot exceed %d characters", MaxPrefixLength))
	}
	if len(fr.Suffix) > MaxSuffixLength {
		return shared.NewDomainError("CONFIG_INVALID", fmt.Sprintf("Suffix cannot exceed %d characters", MaxSuffixLength))
	}
	if fr.Width < MinWidth || fr.Width > MaxWidth {
		return shared.NewDomainError("CONFIG_INVALID", fmt.Sprintf("Width must be between %d and %d", MinWidth, MaxWidth))
	}
	if fr.StartingNumber < 1 {
		return shared.NewDomainError("CONFIG_INVALID", "Starting number must be at least 1")
	}
	return nil
}

// Update replaces the configurable fields after validating them.
// Lowering StartingNumber below the live counter is allowed; the counter
// never moves backward, so the change simply has no effect on allocation.
func (fr *FormatRules) Update(prefix, suffix string, width int, zeroPad bool, startingNumber int64) error {
	next := *fr
	next.Prefix = prefix
	next.Suffix = suffix
	next.Width = width
	next.ZeroPad = zeroPad
	next.StartingNumber = startingNumber
	if err := next.Validate(); err != nil {
		return err
	}

	fr.Prefix = prefix
	fr.Suffix = suffix
	fr.Width = width
	fr.ZeroPad = zeroPad
	fr.StartingNumber = startingNumber
	fr.IncrementVersion()
	fr.AddDomainEvent(NewFormatRulesChangedEvent(fr))
	return nil
}

// DefaultFormatRules returns the built-in rules applied when a tenant has
// not configured a voucher type yet. Every valid type has an entry in the
// default table; callers validate the type before asking for defaults.
func DefaultFormatRules(tenantID uuid.UUID, voucherType VoucherType) FormatRules {
	return FormatRules{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VoucherType:         voucherType,
		Prefix:              defaultPrefixes[voucherType],
		Suffix:              "",
		Width:               6,
		ZeroPad:             true,
		StartingNumber:      1,
	}
}

var defaultPrefixes = map[VoucherType]string{
	VoucherTypeInvoice:    "INV",
	VoucherTypeReceipt:    "RCT",
	VoucherTypePayment:    "PAY",
	VoucherTypeJournal:    "JRN",
	VoucherTypeContra:     "CTR",
	VoucherTypeCreditNote: "CRN",
	VoucherTypeDebitNote:  "DBN",
}
