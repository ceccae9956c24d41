package persistence

import (
	"context"
	"errors"

	"github.com/erp/numbering/internal/domain/finance"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVoucherRecordRepository implements VoucherRecordRepository using GORM
type GormVoucherRecordRepository struct {
	db *gorm.DB
}

// NewGormVoucherRecordRepository creates a new GormVoucherRecordRepository
func NewGormVoucherRecordRepository(db *gorm.DB) *GormVoucherRecordRepository {
	return &GormVoucherRecordRepository{db: db}
}

var _ finance.VoucherRecordRepository = (*GormVoucherRecordRepository)(nil)

// FindByID finds a voucher record by ID
func (r *GormVoucherRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.VoucherRecord, error) {
	var record finance.VoucherRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByIDForTenant finds a voucher record by ID for a specific tenant
func (r *GormVoucherRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.VoucherRecord, error) {
	var record finance.VoucherRecord
	if err := r.db.WithContext(ctx).
		First(&record, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByVoucherNumber finds by voucher number for a tenant
func (r *GormVoucherRecordRepository) FindByVoucherNumber(ctx context.Context, tenantID uuid.UUID, voucherNumber string) (*finance.VoucherRecord, error) {
	var record finance.VoucherRecord
	if err := r.db.WithContext(ctx).
		First(&record, "voucher_number = ? AND tenant_id = ?", voucherNumber, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindAllForTenant finds all voucher records for a tenant with filtering
func (r *GormVoucherRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.VoucherRecordFilter) ([]finance.VoucherRecord, error) {
	var records []finance.VoucherRecord
	query := applyVoucherRecordFilter(r.db.WithContext(ctx).Where("tenant_id = ?", tenantID), filter)

	query = query.Order("created_at DESC")

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates a voucher record
func (r *GormVoucherRecordRepository) Save(ctx context.Context, record *finance.VoucherRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// CountForTenant counts voucher records for a tenant matching the filter
func (r *GormVoucherRecordRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.VoucherRecordFilter) (int64, error) {
	var count int64
	query := applyVoucherRecordFilter(
		r.db.WithContext(ctx).Model(&finance.VoucherRecord{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func applyVoucherRecordFilter(query *gorm.DB, filter finance.VoucherRecordFilter) *gorm.DB {
	if filter.VoucherType != nil {
		query = query.Where("voucher_type = ?", *filter.VoucherType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}
	return query
}
