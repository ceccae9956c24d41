package identity

import (
	"context"
	"testing"

	"github.com/erp/numbering/internal/domain/identity"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockTenantRepository is a mock implementation of identity.TenantRepository
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Tenant, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockTenantRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockRulesSeeder is a mock implementation of RulesSeeder
type MockRulesSeeder struct {
	mock.Mock
}

func (m *MockRulesSeeder) SeedDefaults(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func TestCreateTenant(t *testing.T) {
	ctx := context.Background()

	t.Run("creates tenant and seeds numbering defaults", func(t *testing.T) {
		repo := new(MockTenantRepository)
		seeder := new(MockRulesSeeder)
		repo.On("ExistsByCode", ctx, "acme").Return(false, nil)
		repo.On("Save", ctx, mock.AnythingOfType("*identity.Tenant")).Return(nil)
		seeder.On("SeedDefaults", ctx, mock.AnythingOfType("uuid.UUID")).Return(nil)

		svc := NewTenantService(repo, seeder, zap.NewNop())

		resp, err := svc.CreateTenant(ctx, CreateTenantRequest{Code: "acme", Name: "Acme"})
		require.NoError(t, err)
		assert.Equal(t, "ACME", resp.Code)
		assert.Equal(t, identity.TenantStatusActive, resp.Status)
		seeder.AssertExpectations(t)
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		repo := new(MockTenantRepository)
		seeder := new(MockRulesSeeder)
		repo.On("ExistsByCode", ctx, "acme").Return(true, nil)

		svc := NewTenantService(repo, seeder, zap.NewNop())

		_, err := svc.CreateTenant(ctx, CreateTenantRequest{Code: "acme", Name: "Acme"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("seeding failure does not fail provisioning", func(t *testing.T) {
		repo := new(MockTenantRepository)
		seeder := new(MockRulesSeeder)
		repo.On("ExistsByCode", ctx, "acme").Return(false, nil)
		repo.On("Save", ctx, mock.AnythingOfType("*identity.Tenant")).Return(nil)
		seeder.On("SeedDefaults", ctx, mock.AnythingOfType("uuid.UUID")).Return(shared.ErrConfigUnavailable)

		svc := NewTenantService(repo, seeder, zap.NewNop())

		_, err := svc.CreateTenant(ctx, CreateTenantRequest{Code: "acme", Name: "Acme"})
		require.NoError(t, err)
	})
}

func TestTenantSuspendActivate(t *testing.T) {
	ctx := context.Background()

	tenant, err := identity.NewTenant("acme", "Acme")
	require.NoError(t, err)
	tenant.ClearDomainEvents()

	repo := new(MockTenantRepository)
	repo.On("FindByID", ctx, tenant.ID).Return(tenant, nil)
	repo.On("Save", ctx, tenant).Return(nil)

	svc := NewTenantService(repo, new(MockRulesSeeder), zap.NewNop())

	resp, err := svc.SuspendTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.TenantStatusSuspended, resp.Status)

	resp, err = svc.ActivateTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.TenantStatusActive, resp.Status)
}
