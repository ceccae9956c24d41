package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/numbering/internal/domain/identity"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTenantRepository implements TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

var _ identity.TenantRepository = (*GormTenantRepository)(nil)

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var tenant identity.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// FindByCode finds a tenant by its unique code
func (r *GormTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	var tenant identity.Tenant
	if err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", strings.ToUpper(code)).
		First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// FindAll finds all tenants matching the filter
func (r *GormTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Tenant, error) {
	var tenants []identity.Tenant
	query := r.db.WithContext(ctx).Model(&identity.Tenant{})

	if filter.Search != "" {
		keyword := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", keyword, keyword)
	}

	// Sorting goes through the whitelist to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, TenantSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)

	offset := (filter.Page - 1) * filter.PageSize
	if offset < 0 {
		offset = 0
	}
	limit := filter.PageSize
	if limit <= 0 {
		limit = 20
	}
	query = query.Offset(offset).Limit(limit)

	if err := query.Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	return r.db.WithContext(ctx).Save(tenant).Error
}

// ExistsByCode checks if a tenant with the given code exists
func (r *GormTenantRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&identity.Tenant{}).
		Where("UPPER(code) = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count counts tenants matching the filter
func (r *GormTenantRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&identity.Tenant{})

	if filter.Search != "" {
		keyword := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", keyword, keyword)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
