package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appfinance "github.com/erp/numbering/internal/application/finance"
	appnumbering "github.com/erp/numbering/internal/application/numbering"
	"github.com/erp/numbering/internal/domain/finance"
	"github.com/erp/numbering/internal/domain/identity"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/erp/numbering/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Mock implementation for the voucher record repository

type mockVoucherRecordRepository struct {
	records   map[uuid.UUID]*finance.VoucherRecord
	returnErr error
	saveErr   error
}

func newMockVoucherRecordRepository() *mockVoucherRecordRepository {
	return &mockVoucherRecordRepository{
		records: make(map[uuid.UUID]*finance.VoucherRecord),
	}
}

func (m *mockVoucherRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.VoucherRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if record, ok := m.records[id]; ok {
		return record, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockVoucherRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.VoucherRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if record, ok := m.records[id]; ok && record.TenantID == tenantID {
		return record, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockVoucherRecordRepository) FindByVoucherNumber(ctx context.Context, tenantID uuid.UUID, voucherNumber string) (*finance.VoucherRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	for _, record := range m.records {
		if record.TenantID == tenantID && record.VoucherNumber == voucherNumber {
			return record, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockVoucherRecordRepository) matches(record *finance.VoucherRecord, tenantID uuid.UUID, filter finance.VoucherRecordFilter) bool {
	if record.TenantID != tenantID {
		return false
	}
	if filter.VoucherType != nil && record.VoucherType != *filter.VoucherType {
		return false
	}
	if filter.Status != nil && record.Status != *filter.Status {
		return false
	}
	return true
}

func (m *mockVoucherRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.VoucherRecordFilter) ([]finance.VoucherRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []finance.VoucherRecord
	for _, record := range m.records {
		if m.matches(record, tenantID, filter) {
			result = append(result, *record)
		}
	}
	return result, nil
}

func (m *mockVoucherRecordRepository) Save(ctx context.Context, record *finance.VoucherRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.returnErr != nil {
		return m.returnErr
	}
	m.records[record.ID] = record
	return nil
}

func (m *mockVoucherRecordRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.VoucherRecordFilter) (int64, error) {
	if m.returnErr != nil {
		return 0, m.returnErr
	}
	var count int64
	for _, record := range m.records {
		if m.matches(record, tenantID, filter) {
			count++
		}
	}
	return count, nil
}

func setupVoucherTestHandler() (*VoucherHandler, *mockVoucherRecordRepository, *mockSequenceStore, uuid.UUID) {
	gin.SetMode(gin.TestMode)

	rulesRepo := newMockFormatRulesRepository()
	tenantRepo := newMockTenantRepository()
	store := newMockSequenceStore()
	recordRepo := newMockVoucherRecordRepository()

	tenant, _ := identity.NewTenant("acme", "Acme Corp")
	tenantRepo.tenants[tenant.ID] = tenant

	logger := zap.NewNop()
	settings := appnumbering.NewSettingsService(rulesRepo, tenantRepo, logger)
	allocation := appnumbering.NewAllocationService(settings, store, logger)
	// Gap-tolerant creation never opens a transaction, so no database
	// handle is needed here
	service := appfinance.NewVoucherRecordService(nil, recordRepo, allocation, appfinance.AllocationModeGapTolerant, logger)
	handler := NewVoucherHandler(service)

	return handler, recordRepo, store, tenant.ID
}

func decodeVoucher(t *testing.T, w *httptest.ResponseRecorder) appfinance.VoucherRecordResponse {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var voucher appfinance.VoucherRecordResponse
	require.NoError(t, json.Unmarshal(raw, &voucher))
	return voucher
}

func createVoucherViaHandler(t *testing.T, handler *VoucherHandler, tenantID uuid.UUID, voucherType string, amount decimal.Decimal) appfinance.VoucherRecordResponse {
	t.Helper()
	body, _ := json.Marshal(appfinance.CreateVoucherRequest{
		VoucherType: voucherType,
		Amount:      amount,
	})
	w, c := numberingTestContext(http.MethodPost, "/vouchers", body, tenantID)
	handler.CreateVoucher(c)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeVoucher(t, w)
}

// Tests

func TestNewVoucherHandler(t *testing.T) {
	handler, _, _, _ := setupVoucherTestHandler()
	assert.NotNil(t, handler)
	assert.NotNil(t, handler.vouchers)
}

func TestVoucherHandler_Create_Success(t *testing.T) {
	handler, recordRepo, _, tenantID := setupVoucherTestHandler()

	voucher := createVoucherViaHandler(t, handler, tenantID, "INVOICE", decimal.NewFromFloat(150.75))

	assert.Equal(t, "INV000001", voucher.VoucherNumber)
	assert.Equal(t, finance.VoucherStatusDraft, voucher.Status)
	assert.Equal(t, tenantID, voucher.TenantID)
	assert.True(t, voucher.Amount.Equal(decimal.NewFromFloat(150.75)))
	assert.Len(t, recordRepo.records, 1)
}

func TestVoucherHandler_Create_SequentialNumbers(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	first := createVoucherViaHandler(t, handler, tenantID, "RECEIPT", decimal.NewFromInt(10))
	second := createVoucherViaHandler(t, handler, tenantID, "RECEIPT", decimal.NewFromInt(20))

	assert.Equal(t, "RCT000001", first.VoucherNumber)
	assert.Equal(t, "RCT000002", second.VoucherNumber)
}

func TestVoucherHandler_Create_UnknownType(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	body, _ := json.Marshal(appfinance.CreateVoucherRequest{
		VoucherType: "LOTTERY",
		Amount:      decimal.NewFromInt(10),
	})
	w, c := numberingTestContext(http.MethodPost, "/vouchers", body, tenantID)
	handler.CreateVoucher(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decodeErrorCode(t, w))
}

func TestVoucherHandler_Create_NonPositiveAmount(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	body, _ := json.Marshal(appfinance.CreateVoucherRequest{
		VoucherType: "INVOICE",
		Amount:      decimal.NewFromInt(-5),
	})
	w, c := numberingTestContext(http.MethodPost, "/vouchers", body, tenantID)
	handler.CreateVoucher(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoucherHandler_Create_BindingError(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	w, c := numberingTestContext(http.MethodPost, "/vouchers", []byte(`{}`), tenantID)
	handler.CreateVoucher(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoucherHandler_Create_MissingTenant(t *testing.T) {
	handler, _, _, _ := setupVoucherTestHandler()

	body, _ := json.Marshal(appfinance.CreateVoucherRequest{
		VoucherType: "INVOICE",
		Amount:      decimal.NewFromInt(10),
	})
	w, c := numberingTestContext(http.MethodPost, "/vouchers", body, uuid.Nil)
	handler.CreateVoucher(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVoucherHandler_Create_FailedInsertBurnsNumber(t *testing.T) {
	handler, recordRepo, _, tenantID := setupVoucherTestHandler()

	recordRepo.saveErr = assert.AnError
	body, _ := json.Marshal(appfinance.CreateVoucherRequest{
		VoucherType: "INVOICE",
		Amount:      decimal.NewFromInt(10),
	})
	w, c := numberingTestContext(http.MethodPost, "/vouchers", body, tenantID)
	handler.CreateVoucher(c)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	// The failed insert consumed number 1; the next creation moves on
	recordRepo.saveErr = nil
	voucher := createVoucherViaHandler(t, handler, tenantID, "INVOICE", decimal.NewFromInt(10))
	assert.Equal(t, "INV000002", voucher.VoucherNumber)
}

func TestVoucherHandler_Get_Success(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	created := createVoucherViaHandler(t, handler, tenantID, "PAYMENT", decimal.NewFromInt(42))

	w, c := numberingTestContext(http.MethodGet, "/vouchers/"+created.ID.String(), nil, tenantID)
	c.Params = gin.Params{{Key: "id", Value: created.ID.String()}}
	handler.GetVoucher(c)

	assert.Equal(t, http.StatusOK, w.Code)
	voucher := decodeVoucher(t, w)
	assert.Equal(t, created.ID, voucher.ID)
	assert.Equal(t, "PAY000001", voucher.VoucherNumber)
}

func TestVoucherHandler_Get_NotFound(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	id := uuid.New()
	w, c := numberingTestContext(http.MethodGet, "/vouchers/"+id.String(), nil, tenantID)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	handler.GetVoucher(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVoucherHandler_Get_WrongTenant(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	created := createVoucherViaHandler(t, handler, tenantID, "INVOICE", decimal.NewFromInt(10))

	otherTenant := uuid.New()
	w, c := numberingTestContext(http.MethodGet, "/vouchers/"+created.ID.String(), nil, otherTenant)
	c.Params = gin.Params{{Key: "id", Value: created.ID.String()}}
	handler.GetVoucher(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVoucherHandler_Get_InvalidID(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	w, c := numberingTestContext(http.MethodGet, "/vouchers/not-a-uuid", nil, tenantID)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	handler.GetVoucher(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoucherHandler_List(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	createVoucherViaHandler(t, handler, tenantID, "INVOICE", decimal.NewFromInt(10))
	createVoucherViaHandler(t, handler, tenantID, "INVOICE", decimal.NewFromInt(20))
	createVoucherViaHandler(t, handler, tenantID, "RECEIPT", decimal.NewFromInt(30))

	w, c := numberingTestContext(http.MethodGet, "/vouchers?page=1&page_size=20", nil, tenantID)
	handler.ListVouchers(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(3), resp.Meta.Total)
}

func TestVoucherHandler_List_FilterByType(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	createVoucherViaHandler(t, handler, tenantID, "INVOICE", decimal.NewFromInt(10))
	createVoucherViaHandler(t, handler, tenantID, "RECEIPT", decimal.NewFromInt(30))

	w, c := numberingTestContext(http.MethodGet, "/vouchers?voucher_type=RECEIPT", nil, tenantID)
	handler.ListVouchers(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	raw, _ := json.Marshal(resp.Data)
	var vouchers []appfinance.VoucherRecordResponse
	require.NoError(t, json.Unmarshal(raw, &vouchers))
	require.Len(t, vouchers, 1)
	assert.Equal(t, "RCT000001", vouchers[0].VoucherNumber)
}

func TestVoucherHandler_Issue(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	created := createVoucherViaHandler(t, handler, tenantID, "JOURNAL", decimal.NewFromInt(10))

	w, c := numberingTestContext(http.MethodPost, "/vouchers/"+created.ID.String()+"/issue", nil, tenantID)
	c.Params = gin.Params{{Key: "id", Value: created.ID.String()}}
	handler.IssueVoucher(c)

	assert.Equal(t, http.StatusOK, w.Code)
	voucher := decodeVoucher(t, w)
	assert.Equal(t, finance.VoucherStatusIssued, voucher.Status)
	assert.NotNil(t, voucher.IssuedAt)
}

func TestVoucherHandler_Issue_AlreadyIssued(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	created := createVoucherViaHandler(t, handler, tenantID, "JOURNAL", decimal.NewFromInt(10))

	for i := 0; i < 2; i++ {
		w, c := numberingTestContext(http.MethodPost, "/vouchers/"+created.ID.String()+"/issue", nil, tenantID)
		c.Params = gin.Params{{Key: "id", Value: created.ID.String()}}
		handler.IssueVoucher(c)

		if i == 0 {
			require.Equal(t, http.StatusOK, w.Code)
		} else {
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Equal(t, dto.ErrCodeInvalidState, decodeErrorCode(t, w))
		}
	}
}

func TestVoucherHandler_Cancel(t *testing.T) {
	handler, _, store, tenantID := setupVoucherTestHandler()

	created := createVoucherViaHandler(t, handler, tenantID, "INVOICE", decimal.NewFromInt(10))

	body, _ := json.Marshal(CancelVoucherRequest{Reason: "duplicate entry"})
	w, c := numberingTestContext(http.MethodPost, "/vouchers/"+created.ID.String()+"/cancel", body, tenantID)
	c.Params = gin.Params{{Key: "id", Value: created.ID.String()}}
	handler.CancelVoucher(c)

	assert.Equal(t, http.StatusOK, w.Code)
	voucher := decodeVoucher(t, w)
	assert.Equal(t, finance.VoucherStatusCancelled, voucher.Status)
	assert.Equal(t, "duplicate entry", voucher.CancelReason)
	assert.NotNil(t, voucher.CancelledAt)

	// Cancelling burns the number; the next creation does not reuse it
	next := createVoucherViaHandler(t, handler, tenantID, "INVOICE", decimal.NewFromInt(10))
	assert.Equal(t, "INV000002", next.VoucherNumber)
	assert.Equal(t, int64(2), store.counters[rulesKey(tenantID, created.VoucherType)])
}

func TestVoucherHandler_Cancel_MissingReason(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	created := createVoucherViaHandler(t, handler, tenantID, "INVOICE", decimal.NewFromInt(10))

	w, c := numberingTestContext(http.MethodPost, "/vouchers/"+created.ID.String()+"/cancel", nil, tenantID)
	c.Params = gin.Params{{Key: "id", Value: created.ID.String()}}
	handler.CancelVoucher(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decodeErrorCode(t, w))
}

func TestVoucherHandler_Cancel_AlreadyCancelled(t *testing.T) {
	handler, _, _, tenantID := setupVoucherTestHandler()

	created := createVoucherViaHandler(t, handler, tenantID, "INVOICE", decimal.NewFromInt(10))

	body, _ := json.Marshal(CancelVoucherRequest{Reason: "first cancel"})
	for i := 0; i < 2; i++ {
		w, c := numberingTestContext(http.MethodPost, "/vouchers/"+created.ID.String()+"/cancel", body, tenantID)
		c.Params = gin.Params{{Key: "id", Value: created.ID.String()}}
		handler.CancelVoucher(c)

		if i == 0 {
			require.Equal(t, http.StatusOK, w.Code)
		} else {
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		}
	}
}
