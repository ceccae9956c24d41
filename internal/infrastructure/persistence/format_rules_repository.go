package persistence

import (
	"context"
	"errors"

	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFormatRulesRepository implements FormatRulesRepository using GORM
type GormFormatRulesRepository struct {
	db *gorm.DB
}

// NewGormFormatRulesRepository creates a new GormFormatRulesRepository
func NewGormFormatRulesRepository(db *gorm.DB) *GormFormatRulesRepository {
	return &GormFormatRulesRepository{db: db}
}

var _ numbering.FormatRulesRepository = (*GormFormatRulesRepository)(nil)

// FindByTenantAndType finds the configured rules for one voucher type
func (r *GormFormatRulesRepository) FindByTenantAndType(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType) (*numbering.FormatRules, error) {
	var rules numbering.FormatRules
	if err := r.db.WithContext(ctx).
		First(&rules, "tenant_id = ? AND voucher_type = ?", tenantID, voucherType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rules, nil
}

// FindAllForTenant returns every configured rule row for a tenant
func (r *GormFormatRulesRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]numbering.FormatRules, error) {
	var rules []numbering.FormatRules
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("voucher_type ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Save creates or updates format rules
func (r *GormFormatRulesRepository) Save(ctx context.Context, rules *numbering.FormatRules) error {
	return r.db.WithContext(ctx).Save(rules).Error
}
