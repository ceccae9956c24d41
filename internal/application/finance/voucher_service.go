package finance

import (
	"context"
	"fmt"
	"time"

	appnumbering "github.com/erp/numbering/internal/application/numbering"
	"github.com/erp/numbering/internal/domain/finance"
	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AllocationMode selects how voucher creation couples to the number
// sequence.
type AllocationMode string

const (
	// AllocationModeGapTolerant allocates before the document insert; a
	// failed insert leaves an unused number behind. Cheapest locking,
	// the default.
	AllocationModeGapTolerant AllocationMode = "gap_tolerant"

	// AllocationModeGapFree allocates inside the document transaction;
	// the counter row stays locked until commit, so failed creations
	// leave no gaps at the cost of serializing creators per type.
	AllocationModeGapFree AllocationMode = "gap_free"
)

// ParseAllocationMode maps a config string to a mode, defaulting to
// gap-tolerant for anything unrecognized
func ParseAllocationMode(s string) AllocationMode {
	if AllocationMode(s) == AllocationModeGapFree {
		return AllocationModeGapFree
	}
	return AllocationModeGapTolerant
}

// Allocator is the slice of the numbering allocation service used by the
// voucher workflow
type Allocator interface {
	Allocate(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType) (*appnumbering.AllocationResponse, error)
	AllocateInTx(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, voucherType numbering.VoucherType) (*appnumbering.AllocationResponse, error)
}

// VoucherRecordService drives the voucher document workflow: creation
// (which consumes a number), issuing and cancellation.
type VoucherRecordService struct {
	db         *gorm.DB
	recordRepo finance.VoucherRecordRepository
	allocator  Allocator
	mode       AllocationMode
	logger     *zap.Logger
}

// NewVoucherRecordService creates a new VoucherRecordService
func NewVoucherRecordService(
	db *gorm.DB,
	recordRepo finance.VoucherRecordRepository,
	allocator Allocator,
	mode AllocationMode,
	logger *zap.Logger,
) *VoucherRecordService {
	return &VoucherRecordService{
		db:         db,
		recordRepo: recordRepo,
		allocator:  allocator,
		mode:       mode,
		logger:     logger,
	}
}

// CreateVoucherRequest carries the fields for creating a voucher record
type CreateVoucherRequest struct {
	VoucherType string          `json:"voucher_type" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Remark      string          `json:"remark" binding:"max=500"`
}

// VoucherRecordResponse represents a voucher record in API responses
type VoucherRecordResponse struct {
	ID            uuid.UUID             `json:"id"`
	TenantID      uuid.UUID             `json:"tenant_id"`
	VoucherNumber string                `json:"voucher_number"`
	VoucherType   numbering.VoucherType `json:"voucher_type"`
	Amount        decimal.Decimal       `json:"amount"`
	Status        finance.VoucherStatus `json:"status"`
	Remark        string                `json:"remark,omitempty"`
	IssuedAt      *time.Time            `json:"issued_at,omitempty"`
	CancelledAt   *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason  string                `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// CreateVoucher allocates a number and persists a new voucher record.
// In gap-tolerant mode the number is committed independently of the
// document insert; in gap-free mode both share one transaction.
func (s *VoucherRecordService) CreateVoucher(ctx context.Context, tenantID uuid.UUID, req CreateVoucherRequest) (*VoucherRecordResponse, error) {
	voucherType := numbering.VoucherType(req.VoucherType)
	if !voucherType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown voucher type: %s", req.VoucherType))
	}

	var record *finance.VoucherRecord
	var err error
	if s.mode == AllocationModeGapFree {
		record, err = s.createGapFree(ctx, tenantID, voucherType, req)
	} else {
		record, err = s.createGapTolerant(ctx, tenantID, voucherType, req)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("voucher created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("voucher_type", voucherType.String()),
		zap.String("voucher_number", record.VoucherNumber),
		zap.String("mode", string(s.mode)))

	return toVoucherResponse(record), nil
}

func (s *VoucherRecordService) createGapTolerant(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType, req CreateVoucherRequest) (*finance.VoucherRecord, error) {
	alloc, err := s.allocator.Allocate(ctx, tenantID, voucherType)
	if err != nil {
		return nil, err
	}

	record, err := finance.NewVoucherRecord(tenantID, alloc.FormattedNumber, voucherType, req.Amount, req.Remark)
	if err != nil {
		return nil, err
	}

	if err := s.recordRepo.Save(ctx, record); err != nil {
		// The allocated number is burned; the sequence never rewinds
		s.logger.Warn("voucher insert failed after allocation, number burned",
			zap.String("voucher_number", alloc.FormattedNumber),
			zap.Error(err))
		return nil, err
	}
	record.ClearDomainEvents()
	return record, nil
}

func (s *VoucherRecordService) createGapFree(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType, req CreateVoucherRequest) (*finance.VoucherRecord, error) {
	var record *finance.VoucherRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		alloc, err := s.allocator.AllocateInTx(ctx, tx, tenantID, voucherType)
		if err != nil {
			return err
		}

		record, err = finance.NewVoucherRecord(tenantID, alloc.FormattedNumber, voucherType, req.Amount, req.Remark)
		if err != nil {
			return err
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	record.ClearDomainEvents()
	return record, nil
}

// GetVoucher fetches a voucher record by ID
func (s *VoucherRecordService) GetVoucher(ctx context.Context, tenantID, id uuid.UUID) (*VoucherRecordResponse, error) {
	record, err := s.recordRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toVoucherResponse(record), nil
}

// VoucherListFilter carries list query options
type VoucherListFilter struct {
	VoucherType string
	Status      string
	Page        int
	PageSize    int
}

// ListVouchers lists voucher records for a tenant
func (s *VoucherRecordService) ListVouchers(ctx context.Context, tenantID uuid.UUID, filter VoucherListFilter) ([]VoucherRecordResponse, int64, error) {
	domainFilter := finance.VoucherRecordFilter{Filter: shared.DefaultFilter()}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.VoucherType != "" {
		vt := numbering.VoucherType(filter.VoucherType)
		domainFilter.VoucherType = &vt
	}
	if filter.Status != "" {
		status := finance.VoucherStatus(filter.Status)
		domainFilter.Status = &status
	}

	records, err := s.recordRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.recordRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]VoucherRecordResponse, len(records))
	for i := range records {
		responses[i] = *toVoucherResponse(&records[i])
	}
	return responses, total, nil
}

// IssueVoucher marks a draft voucher as issued
func (s *VoucherRecordService) IssueVoucher(ctx context.Context, tenantID, id uuid.UUID) (*VoucherRecordResponse, error) {
	record, err := s.recordRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := record.Issue(); err != nil {
		return nil, err
	}
	if err := s.recordRepo.Save(ctx, record); err != nil {
		return nil, err
	}
	record.ClearDomainEvents()
	return toVoucherResponse(record), nil
}

// CancelVoucher cancels a voucher. The number stays burned; later
// allocations continue past it.
func (s *VoucherRecordService) CancelVoucher(ctx context.Context, tenantID, id uuid.UUID, reason string) (*VoucherRecordResponse, error) {
	record, err := s.recordRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := record.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.recordRepo.Save(ctx, record); err != nil {
		return nil, err
	}
	record.ClearDomainEvents()

	s.logger.Info("voucher cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("voucher_number", record.VoucherNumber),
		zap.String("reason", reason))

	return toVoucherResponse(record), nil
}

func toVoucherResponse(record *finance.VoucherRecord) *VoucherRecordResponse {
	return &VoucherRecordResponse{
		ID:            record.ID,
		TenantID:      record.TenantID,
		VoucherNumber: record.VoucherNumber,
		VoucherType:   record.VoucherType,
		Amount:        record.Amount,
		Status:        record.Status,
		Remark:        record.Remark,
		IssuedAt:      record.IssuedAt,
		CancelledAt:   record.CancelledAt,
		CancelReason:  record.CancelReason,
		CreatedAt:     record.CreatedAt,
	}
}
