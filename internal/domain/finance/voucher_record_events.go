package finance

import (
	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeVoucherRecord = "VoucherRecord"

// Event type constants
const (
	EventTypeVoucherRecordCreated   = "VoucherRecordCreated"
	EventTypeVoucherRecordIssued    = "VoucherRecordIssued"
	EventTypeVoucherRecordCancelled = "VoucherRecordCancelled"
)

// VoucherRecordCreatedEvent is published when a voucher record is created
type VoucherRecordCreatedEvent struct {
	shared.BaseDomainEvent
	VoucherNumber string                `json:"voucher_number"`
	VoucherType   numbering.VoucherType `json:"voucher_type"`
	Amount        decimal.Decimal       `json:"amount"`
}

// NewVoucherRecordCreatedEvent creates a new VoucherRecordCreatedEvent
func NewVoucherRecordCreatedEvent(vr *VoucherRecord) *VoucherRecordCreatedEvent {
	return &VoucherRecordCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherRecordCreated, AggregateTypeVoucherRecord, vr.ID, vr.TenantID),
		VoucherNumber:   vr.VoucherNumber,
		VoucherType:     vr.VoucherType,
		Amount:          vr.Amount,
	}
}

// VoucherRecordIssuedEvent is published when a voucher record is issued
type VoucherRecordIssuedEvent struct {
	shared.BaseDomainEvent
	VoucherNumber string                `json:"voucher_number"`
	VoucherType   numbering.VoucherType `json:"voucher_type"`
}

// NewVoucherRecordIssuedEvent creates a new VoucherRecordIssuedEvent
func NewVoucherRecordIssuedEvent(vr *VoucherRecord) *VoucherRecordIssuedEvent {
	return &VoucherRecordIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherRecordIssued, AggregateTypeVoucherRecord, vr.ID, vr.TenantID),
		VoucherNumber:   vr.VoucherNumber,
		VoucherType:     vr.VoucherType,
	}
}

// VoucherRecordCancelledEvent is published when a voucher record is cancelled
type VoucherRecordCancelledEvent struct {
	shared.BaseDomainEvent
	VoucherNumber  string        `json:"voucher_number"`
	PreviousStatus VoucherStatus `json:"previous_status"`
	CancelReason   string        `json:"cancel_reason"`
}

// NewVoucherRecordCancelledEvent creates a new VoucherRecordCancelledEvent
func NewVoucherRecordCancelledEvent(vr *VoucherRecord, previousStatus VoucherStatus) *VoucherRecordCancelledEvent {
	return &VoucherRecordCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherRecordCancelled, AggregateTypeVoucherRecord, vr.ID, vr.TenantID),
		VoucherNumber:   vr.VoucherNumber,
		PreviousStatus:  previousStatus,
		CancelReason:    vr.CancelReason,
	}
}
