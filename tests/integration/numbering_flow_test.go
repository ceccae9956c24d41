package integration

import (
	"context"
	"sort"
	"sync"
	"testing"

	appfinance "github.com/erp/numbering/internal/application/finance"
	appidentity "github.com/erp/numbering/internal/application/identity"
	appnumbering "github.com/erp/numbering/internal/application/numbering"
	"github.com/erp/numbering/internal/domain/finance"
	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/erp/numbering/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// numberingStack wires the real repositories and services against a test
// database, mirroring the composition in cmd/server.
type numberingStack struct {
	db         *gorm.DB
	settings   *appnumbering.SettingsService
	preview    *appnumbering.PreviewService
	allocation *appnumbering.AllocationService
	tenants    *appidentity.TenantService
}

func newNumberingStack(testDB *TestDB) *numberingStack {
	logger := zap.NewNop()
	rulesRepo := persistence.NewGormFormatRulesRepository(testDB.DB)
	tenantRepo := persistence.NewGormTenantRepository(testDB.DB)
	sequenceRepo := persistence.NewGormSequenceRepository(testDB.DB)

	settings := appnumbering.NewSettingsService(rulesRepo, tenantRepo, logger)
	return &numberingStack{
		db:         testDB.DB,
		settings:   settings,
		preview:    appnumbering.NewPreviewService(settings),
		allocation: appnumbering.NewAllocationService(settings, sequenceRepo, logger),
		tenants:    appidentity.NewTenantService(tenantRepo, settings, logger),
	}
}

func (s *numberingStack) voucherService(mode appfinance.AllocationMode) *appfinance.VoucherRecordService {
	recordRepo := persistence.NewGormVoucherRecordRepository(s.db)
	return appfinance.NewVoucherRecordService(s.db, recordRepo, s.allocation, mode, zap.NewNop())
}

func (s *numberingStack) createTenant(t *testing.T, code, name string) uuid.UUID {
	t.Helper()
	resp, err := s.tenants.CreateTenant(context.Background(), appidentity.CreateTenantRequest{
		Code: code,
		Name: name,
	})
	require.NoError(t, err)
	return resp.ID
}

// TestNumberingFlow_Integration drives the settings, preview and
// allocation services end to end against PostgreSQL.
func TestNumberingFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	stack := newNumberingStack(testDB)
	ctx := context.Background()
	tenantID := stack.createTenant(t, "acme", "Acme Corp")

	t.Run("Tenant creation seeds default rules", func(t *testing.T) {
		rules, err := stack.settings.ListRules(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, rules, len(numbering.AllVoucherTypes()))
		for _, r := range rules {
			assert.False(t, r.IsDefault, "seeded rules are persisted rows")
			assert.Equal(t, 6, r.Width)
			assert.Equal(t, int64(1), r.StartingNumber)
		}
	})

	t.Run("Allocate with default rules", func(t *testing.T) {
		alloc, err := stack.allocation.Allocate(ctx, tenantID, numbering.VoucherTypeInvoice)
		require.NoError(t, err)
		assert.Equal(t, int64(1), alloc.Value)
		assert.Equal(t, "INV000001", alloc.FormattedNumber)

		alloc, err = stack.allocation.Allocate(ctx, tenantID, numbering.VoucherTypeInvoice)
		require.NoError(t, err)
		assert.Equal(t, "INV000002", alloc.FormattedNumber)
	})

	t.Run("Updated rules change format and starting number", func(t *testing.T) {
		_, err := stack.settings.UpdateRules(ctx, tenantID, numbering.VoucherTypeReceipt, appnumbering.UpdateRulesRequest{
			Prefix:         "RCPT-",
			Suffix:         "/25",
			Width:          5,
			ZeroPad:        true,
			StartingNumber: 2000,
		})
		require.NoError(t, err)

		alloc, err := stack.allocation.Allocate(ctx, tenantID, numbering.VoucherTypeReceipt)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), alloc.Value)
		assert.Equal(t, "RCPT-02000/25", alloc.FormattedNumber)
	})

	t.Run("Preview never advances the sequence", func(t *testing.T) {
		samples, err := stack.preview.PreviewSamples(ctx, tenantID, numbering.VoucherTypePayment)
		require.NoError(t, err)
		require.Len(t, samples, 3)
		assert.Equal(t, "PAY000001", samples[0].FormattedNumber)
		assert.Equal(t, "PAY000100", samples[2].FormattedNumber)

		// The payment counter was never touched
		alloc, err := stack.allocation.Allocate(ctx, tenantID, numbering.VoucherTypePayment)
		require.NoError(t, err)
		assert.Equal(t, int64(1), alloc.Value)
	})

	t.Run("Width is a minimum, never truncates", func(t *testing.T) {
		_, err := stack.settings.UpdateRules(ctx, tenantID, numbering.VoucherTypeJournal, appnumbering.UpdateRulesRequest{
			Prefix:         "JRN",
			Width:          3,
			ZeroPad:        true,
			StartingNumber: 123456,
		})
		require.NoError(t, err)

		alloc, err := stack.allocation.Allocate(ctx, tenantID, numbering.VoucherTypeJournal)
		require.NoError(t, err)
		assert.Equal(t, "JRN123456", alloc.FormattedNumber)
	})

	t.Run("ListSequences reflects allocations", func(t *testing.T) {
		sequences, err := stack.allocation.ListSequences(ctx, tenantID)
		require.NoError(t, err)

		byType := make(map[numbering.VoucherType]int64, len(sequences))
		for _, s := range sequences {
			byType[s.VoucherType] = s.CurrentValue
		}
		assert.Equal(t, int64(2), byType[numbering.VoucherTypeInvoice])
		assert.Equal(t, int64(2000), byType[numbering.VoucherTypeReceipt])
	})

	t.Run("Suspended tenant is rejected", func(t *testing.T) {
		suspendedID := stack.createTenant(t, "frozen", "Frozen Ltd")
		_, err := stack.tenants.SuspendTenant(ctx, suspendedID)
		require.NoError(t, err)

		_, err = stack.allocation.Allocate(ctx, suspendedID, numbering.VoucherTypeInvoice)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

// TestVoucherWorkflow_Integration drives the voucher lifecycle in
// gap-tolerant mode: create, issue, cancel, and the burned-number rule.
func TestVoucherWorkflow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	stack := newNumberingStack(testDB)
	vouchers := stack.voucherService(appfinance.AllocationModeGapTolerant)
	ctx := context.Background()
	tenantID := stack.createTenant(t, "acme", "Acme Corp")

	created, err := vouchers.CreateVoucher(ctx, tenantID, appfinance.CreateVoucherRequest{
		VoucherType: "INVOICE",
		Amount:      decimal.NewFromFloat(150.50),
		Remark:      "first sale",
	})
	require.NoError(t, err)
	assert.Equal(t, "INV000001", created.VoucherNumber)
	assert.Equal(t, finance.VoucherStatusDraft, created.Status)

	issued, err := vouchers.IssueVoucher(ctx, tenantID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.VoucherStatusIssued, issued.Status)
	require.NotNil(t, issued.IssuedAt)

	// Issuing twice is rejected
	_, err = vouchers.IssueVoucher(ctx, tenantID, created.ID)
	require.Error(t, err)

	second, err := vouchers.CreateVoucher(ctx, tenantID, appfinance.CreateVoucherRequest{
		VoucherType: "INVOICE",
		Amount:      decimal.NewFromInt(75),
	})
	require.NoError(t, err)
	assert.Equal(t, "INV000002", second.VoucherNumber)

	cancelled, err := vouchers.CancelVoucher(ctx, tenantID, second.ID, "duplicate entry")
	require.NoError(t, err)
	assert.Equal(t, finance.VoucherStatusCancelled, cancelled.Status)
	assert.Equal(t, "duplicate entry", cancelled.CancelReason)

	// The cancelled number stays burned; allocation continues past it
	third, err := vouchers.CreateVoucher(ctx, tenantID, appfinance.CreateVoucherRequest{
		VoucherType: "INVOICE",
		Amount:      decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "INV000003", third.VoucherNumber)

	// Another tenant never sees these vouchers
	otherID := stack.createTenant(t, "rival", "Rival Inc")
	_, err = vouchers.GetVoucher(ctx, otherID, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	list, total, err := vouchers.ListVouchers(ctx, tenantID, appfinance.VoucherListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 3)
}

// TestVoucherWorkflow_GapFree exercises the gap-free creation path, where
// the counter update and the document insert share one transaction.
func TestVoucherWorkflow_GapFree(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	stack := newNumberingStack(testDB)
	vouchers := stack.voucherService(appfinance.AllocationModeGapFree)
	ctx := context.Background()
	tenantID := stack.createTenant(t, "acme", "Acme Corp")

	t.Run("Sequential creation", func(t *testing.T) {
		for want := 1; want <= 3; want++ {
			created, err := vouchers.CreateVoucher(ctx, tenantID, appfinance.CreateVoucherRequest{
				VoucherType: "RECEIPT",
				Amount:      decimal.NewFromInt(int64(want)),
			})
			require.NoError(t, err)
			assert.Equal(t, numbering.Format(int64(want), numbering.DefaultFormatRules(tenantID, numbering.VoucherTypeReceipt)), created.VoucherNumber)
		}
	})

	t.Run("Concurrent creation yields dense numbers", func(t *testing.T) {
		const workers = 10

		numbers := make([]string, workers)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func(idx int) {
				defer wg.Done()
				created, err := vouchers.CreateVoucher(ctx, tenantID, appfinance.CreateVoucherRequest{
					VoucherType: "INVOICE",
					Amount:      decimal.NewFromInt(int64(idx + 1)),
				})
				if err != nil {
					errs[idx] = err
					return
				}
				numbers[idx] = created.VoucherNumber
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			require.NoError(t, err, "creation %d failed", i)
		}

		sort.Strings(numbers)
		rules := numbering.DefaultFormatRules(tenantID, numbering.VoucherTypeInvoice)
		for i := 0; i < workers; i++ {
			assert.Equal(t, numbering.Format(int64(i+1), rules), numbers[i])
		}
	})

	t.Run("Failed creation leaves no gap", func(t *testing.T) {
		gapTenant := stack.createTenant(t, "gapless", "Gapless Ltd")

		// A non-positive amount fails inside the creation transaction,
		// after the counter row was already advanced and locked
		_, err := vouchers.CreateVoucher(ctx, gapTenant, appfinance.CreateVoucherRequest{
			VoucherType: "INVOICE",
			Amount:      decimal.NewFromInt(-5),
		})
		require.Error(t, err)

		created, err := vouchers.CreateVoucher(ctx, gapTenant, appfinance.CreateVoucherRequest{
			VoucherType: "INVOICE",
			Amount:      decimal.NewFromInt(5),
		})
		require.NoError(t, err)
		assert.Equal(t, "INV000001", created.VoucherNumber, "rolled back creation must not consume a number")
	})
}
