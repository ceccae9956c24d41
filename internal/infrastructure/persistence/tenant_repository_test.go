package persistence

import (
	"context"
	"testing"

	"github.com/erp/numbering/internal/domain/identity"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTenantTestDB creates an in-memory SQLite database for testing
func setupTenantTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE tenants (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active'
		)
	`).Error
	require.NoError(t, err)

	return db
}

func newTestTenant(t *testing.T, code, name string) *identity.Tenant {
	t.Helper()
	tenant, err := identity.NewTenant(code, name)
	require.NoError(t, err)
	tenant.ClearDomainEvents()
	return tenant
}

func TestGormTenantRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTenantTestDB(t)
	repo := NewGormTenantRepository(db)

	tenant := newTestTenant(t, "ACME", "Acme Trading Co")
	require.NoError(t, repo.Save(ctx, tenant))

	t.Run("finds by ID", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, "ACME", found.Code)
		assert.Equal(t, identity.TenantStatusActive, found.Status)
	})

	t.Run("returns ErrNotFound for unknown ID", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("finds by code case-insensitively", func(t *testing.T) {
		found, err := repo.FindByCode(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, found.ID)
	})

	t.Run("exists by code", func(t *testing.T) {
		exists, err := repo.ExistsByCode(ctx, "Acme")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByCode(ctx, "NOPE")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("save persists status changes", func(t *testing.T) {
		require.NoError(t, tenant.Suspend())
		require.NoError(t, repo.Save(ctx, tenant))

		found, err := repo.FindByID(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, identity.TenantStatusSuspended, found.Status)
	})

	t.Run("lists and counts", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, newTestTenant(t, "BETA", "Beta Industries")))

		tenants, err := repo.FindAll(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Len(t, tenants, 2)

		total, err := repo.Count(ctx, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}
