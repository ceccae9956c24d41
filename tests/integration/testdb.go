// Package integration runs the numbering flows against a real
// PostgreSQL instance started through testcontainers, with the
// repository's migrations applied.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"testing"

	"github.com/golang-migrate/migrate/v4"
	mpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB is a migrated PostgreSQL database inside a container that
// lives for one test.
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	t         *testing.T
}

// NewTestDB starts a fresh PostgreSQL container, connects, and applies
// every migration. The container is terminated when the test ends.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("numbering_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	db, sqlDB := openMigratedDB(t, dsn)

	testDB := &TestDB{DB: db, SqlDB: sqlDB, Container: container, t: t}
	t.Cleanup(testDB.close)
	return testDB
}

func (tdb *TestDB) close() {
	if tdb.SqlDB != nil {
		tdb.SqlDB.Close()
	}
	if tdb.Container != nil {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// CreateTestTenant inserts a tenant row. Rules and counters are
// tenant-scoped, so most tests need one first.
func (tdb *TestDB) CreateTestTenant(tenantID, name, code string) {
	tdb.t.Helper()
	err := tdb.DB.Exec(`
		INSERT INTO tenants (id, name, code, status)
		VALUES (?, ?, ?, 'active')
		ON CONFLICT (code) DO NOTHING
	`, tenantID, name, code).Error
	require.NoError(tdb.t, err, "Failed to create test tenant")
}

// CreateTestTenantWithUUID derives the tenant's code and name from the
// UUID so parallel tests never collide on the unique code column.
func (tdb *TestDB) CreateTestTenantWithUUID(tenantID fmt.Stringer) {
	tdb.t.Helper()
	short := tenantID.String()[:8]
	tdb.CreateTestTenant(tenantID.String(), "Test Tenant "+short, "test_"+short)
}

func openMigratedDB(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	logMode := logger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		logMode = logger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")

	// Concurrency tests hold row locks across many connections, so the
	// pool has to be wider than the server defaults
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	driver, err := mpg.WithInstance(sqlDB, &mpg.Config{})
	require.NoError(t, err, "Failed to create migration driver")

	migrationsPath := findMigrationsPath()
	require.NotEmpty(t, migrationsPath, "Could not find migrations directory")

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	require.NoError(t, err, "Failed to create migrate instance")
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to run migrations")
	}

	return db, sqlDB
}

// findMigrationsPath walks up from this file to the repository root.
func findMigrationsPath() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	dir := filepath.Dir(filename)
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "migrations")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	return ""
}
