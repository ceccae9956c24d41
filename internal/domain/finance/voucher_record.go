package finance

import (
	"fmt"
	"time"

	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherStatus represents the status of a voucher record
type VoucherStatus string

const (
	VoucherStatusDraft     VoucherStatus = "DRAFT"     // Created, number assigned, not yet issued
	VoucherStatusIssued    VoucherStatus = "ISSUED"    // Final, visible to counterparties
	VoucherStatusCancelled VoucherStatus = "CANCELLED" // Cancelled; the number stays burned
)

// IsValid checks if the status is a valid VoucherStatus
func (s VoucherStatus) IsValid() bool {
	switch s {
	case VoucherStatusDraft, VoucherStatusIssued, VoucherStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s VoucherStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are allowed
func (s VoucherStatus) IsTerminal() bool {
	return s == VoucherStatusCancelled
}

// VoucherRecord is a financial document carrying an allocated voucher
// number. The number is assigned exactly once at creation and is never
// reused, even after cancellation.
type VoucherRecord struct {
	shared.TenantAggregateRoot
	VoucherNumber string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_voucher_tenant_number,priority:2"`
	VoucherType   numbering.VoucherType `gorm:"type:varchar(20);not null;index"`
	Amount        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status        VoucherStatus         `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Remark        string                `gorm:"type:text"`
	IssuedAt      *time.Time
	CancelledAt   *time.Time
	CancelReason  string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (VoucherRecord) TableName() string {
	return "voucher_records"
}

// NewVoucherRecord creates a new voucher record with an already-allocated number
func NewVoucherRecord(
	tenantID uuid.UUID,
	voucherNumber string,
	voucherType numbering.VoucherType,
	amount decimal.Decimal,
	remark string,
) (*VoucherRecord, error) {
	if voucherNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Voucher number cannot be empty")
	}
	if len(voucherNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Voucher number cannot exceed 50 characters")
	}
	if !voucherType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown voucher type: %s", voucherType))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Amount must be positive")
	}

	vr := &VoucherRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VoucherNumber:       voucherNumber,
		VoucherType:         voucherType,
		Amount:              amount,
		Status:              VoucherStatusDraft,
		Remark:              remark,
	}

	vr.AddDomainEvent(NewVoucherRecordCreatedEvent(vr))

	return vr, nil
}

// Issue marks the voucher as issued
func (vr *VoucherRecord) Issue() error {
	if vr.Status != VoucherStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot issue voucher in %s status", vr.Status))
	}

	now := time.Now()
	vr.Status = VoucherStatusIssued
	vr.IssuedAt = &now
	vr.UpdatedAt = now
	vr.IncrementVersion()

	vr.AddDomainEvent(NewVoucherRecordIssuedEvent(vr))

	return nil
}

// Cancel cancels the voucher. The allocated number is not returned to the
// pool; the sequence only ever moves forward.
func (vr *VoucherRecord) Cancel(reason string) error {
	if vr.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel voucher in %s status", vr.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "Cancel reason is required")
	}

	now := time.Now()
	previousStatus := vr.Status
	vr.Status = VoucherStatusCancelled
	vr.CancelledAt = &now
	vr.CancelReason = reason
	vr.UpdatedAt = now
	vr.IncrementVersion()

	vr.AddDomainEvent(NewVoucherRecordCancelledEvent(vr, previousStatus))

	return nil
}

// SetRemark sets the remark
func (vr *VoucherRecord) SetRemark(remark string) error {
	if vr.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify voucher in terminal state")
	}

	vr.Remark = remark
	vr.UpdatedAt = time.Now()
	vr.IncrementVersion()

	return nil
}

// IsDraft returns true if the voucher is in draft status
func (vr *VoucherRecord) IsDraft() bool {
	return vr.Status == VoucherStatusDraft
}

// IsIssued returns true if the voucher has been issued
func (vr *VoucherRecord) IsIssued() bool {
	return vr.Status == VoucherStatusIssued
}

// IsCancelled returns true if the voucher is cancelled
func (vr *VoucherRecord) IsCancelled() bool {
	return vr.Status == VoucherStatusCancelled
}
