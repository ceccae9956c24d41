package numbering

import (
	"github.com/erp/numbering/internal/domain/shared"
)

// Event types for the numbering context
const (
	EventTypeFormatRulesChanged = "numbering.format_rules.changed"
)

// FormatRulesChangedEvent is raised when rules for a voucher type are
// created or updated. Consumers use it to drop cached rules.
type FormatRulesChangedEvent struct {
	shared.BaseDomainEvent
	VoucherType    VoucherType `json:"voucher_type"`
	Prefix         string      `json:"prefix"`
	Suffix         string      `json:"suffix"`
	Width          int         `json:"width"`
	ZeroPad        bool        `json:"zero_pad"`
	StartingNumber int64       `json:"starting_number"`
}

// NewFormatRulesChangedEvent creates a new format rules changed event
func NewFormatRulesChangedEvent(fr *FormatRules) *FormatRulesChangedEvent {
	return &FormatRulesChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFormatRulesChanged, "FormatRules", fr.ID, fr.TenantID),
		VoucherType:     fr.VoucherType,
		Prefix:          fr.Prefix,
		Suffix:          fr.Suffix,
		Width:           fr.Width,
		ZeroPad:         fr.ZeroPad,
		StartingNumber:  fr.StartingNumber,
	}
}
