package identity

import (
	"context"
	"time"

	"github.com/erp/numbering/internal/domain/identity"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RulesSeeder seeds default numbering configuration for a new tenant
type RulesSeeder interface {
	SeedDefaults(ctx context.Context, tenantID uuid.UUID) error
}

// TenantService handles tenant management operations
type TenantService struct {
	tenantRepo identity.TenantRepository
	seeder     RulesSeeder
	logger     *zap.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(
	tenantRepo identity.TenantRepository,
	seeder RulesSeeder,
	logger *zap.Logger,
) *TenantService {
	return &TenantService{
		tenantRepo: tenantRepo,
		seeder:     seeder,
		logger:     logger,
	}
}

// CreateTenantRequest contains input for creating a tenant
type CreateTenantRequest struct {
	Code string `json:"code" binding:"required,min=1,max=50"`
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// TenantResponse represents a tenant in API responses
type TenantResponse struct {
	ID        uuid.UUID             `json:"id"`
	Code      string                `json:"code"`
	Name      string                `json:"name"`
	Status    identity.TenantStatus `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
}

// CreateTenant provisions a new tenant and seeds its default numbering
// rules so allocation works from the first request
func (s *TenantService) CreateTenant(ctx context.Context, req CreateTenantRequest) (*TenantResponse, error) {
	exists, err := s.tenantRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrAlreadyExists
	}

	tenant, err := identity.NewTenant(req.Code, req.Name)
	if err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}
	tenant.ClearDomainEvents()

	if err := s.seeder.SeedDefaults(ctx, tenant.ID); err != nil {
		// The tenant exists; the resolver still serves defaults for
		// unseeded types, so log instead of failing provisioning
		s.logger.Warn("failed to seed default numbering rules",
			zap.String("tenant_id", tenant.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("code", tenant.Code))

	return toTenantResponse(tenant), nil
}

// GetTenant fetches a tenant by ID
func (s *TenantService) GetTenant(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTenantResponse(tenant), nil
}

// ListTenants lists tenants
func (s *TenantService) ListTenants(ctx context.Context, filter shared.Filter) ([]TenantResponse, int64, error) {
	tenants, err := s.tenantRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.tenantRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]TenantResponse, len(tenants))
	for i := range tenants {
		responses[i] = *toTenantResponse(&tenants[i])
	}
	return responses, total, nil
}

// SuspendTenant suspends a tenant
func (s *TenantService) SuspendTenant(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tenant.Suspend(); err != nil {
		return nil, err
	}
	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}
	return toTenantResponse(tenant), nil
}

// ActivateTenant re-activates a suspended tenant
func (s *TenantService) ActivateTenant(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tenant.Activate(); err != nil {
		return nil, err
	}
	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}
	return toTenantResponse(tenant), nil
}

func toTenantResponse(tenant *identity.Tenant) *TenantResponse {
	return &TenantResponse{
		ID:        tenant.ID,
		Code:      tenant.Code,
		Name:      tenant.Name,
		Status:    tenant.Status,
		CreatedAt: tenant.CreatedAt,
	}
}
