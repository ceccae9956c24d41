package finance

import (
	"context"
	"time"

	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
)

// VoucherRecordFilter defines filtering options for voucher record queries
type VoucherRecordFilter struct {
	shared.Filter
	VoucherType *numbering.VoucherType // Filter by voucher type
	Status      *VoucherStatus         // Filter by status
	FromDate    *time.Time             // Filter by creation date range start
	ToDate      *time.Time             // Filter by creation date range end
}

// VoucherRecordRepository defines the interface for voucher record persistence
type VoucherRecordRepository interface {
	// FindByID finds a voucher record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*VoucherRecord, error)

	// FindByIDForTenant finds a voucher record by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*VoucherRecord, error)

	// FindByVoucherNumber finds by voucher number for a tenant
	FindByVoucherNumber(ctx context.Context, tenantID uuid.UUID, voucherNumber string) (*VoucherRecord, error)

	// FindAllForTenant finds all voucher records for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter VoucherRecordFilter) ([]VoucherRecord, error)

	// Save creates or updates a voucher record
	Save(ctx context.Context, record *VoucherRecord) error

	// CountForTenant counts voucher records for a tenant matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter VoucherRecordFilter) (int64, error)
}
