package identity

import (
	"context"

	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantRepository defines the interface for tenant persistence
type TenantRepository interface {
	// FindByID finds a tenant by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindByCode finds a tenant by its unique code
	FindByCode(ctx context.Context, code string) (*Tenant, error)

	// FindAll finds all tenants matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Tenant, error)

	// Save creates or updates a tenant
	Save(ctx context.Context, tenant *Tenant) error

	// ExistsByCode checks if a tenant with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Count counts tenants matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
