package handler

import (
	appfinance "github.com/erp/numbering/internal/application/finance"
	"github.com/erp/numbering/internal/interfaces/http/dto"
	"github.com/erp/numbering/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VoucherHandler handles voucher record API endpoints
type VoucherHandler struct {
	BaseHandler
	vouchers *appfinance.VoucherRecordService
}

// NewVoucherHandler creates a new VoucherHandler
func NewVoucherHandler(vouchers *appfinance.VoucherRecordService) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers}
}

// CancelVoucherRequest carries the cancellation reason
type CancelVoucherRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CreateVoucher godoc
// @ID           createVoucher
// @Summary      Create a voucher record
// @Description  Allocates the next voucher number and persists a draft voucher record carrying it
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        request body appfinance.CreateVoucherRequest true "Voucher fields"
// @Success      201 {object} APIResponse[appfinance.VoucherRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /vouchers [post]
func (h *VoucherHandler) CreateVoucher(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req appfinance.CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	voucher, err := h.vouchers.CreateVoucher(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, voucher)
}

// GetVoucher godoc
// @ID           getVoucher
// @Summary      Get a voucher record
// @Tags         vouchers
// @Produce      json
// @Param        id path string true "Voucher ID" format(uuid)
// @Success      200 {object} APIResponse[appfinance.VoucherRecordResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /vouchers/{id} [get]
func (h *VoucherHandler) GetVoucher(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid voucher ID")
		return
	}

	voucher, err := h.vouchers.GetVoucher(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, voucher)
}

// ListVouchers godoc
// @ID           listVouchers
// @Summary      List voucher records
// @Tags         vouchers
// @Produce      json
// @Param        voucher_type query string false "Filter by voucher type"
// @Param        status query string false "Filter by status" Enums(DRAFT,ISSUED,CANCELLED)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appfinance.VoucherRecordResponse]
// @Router       /vouchers [get]
func (h *VoucherHandler) ListVouchers(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := appfinance.VoucherListFilter{
		VoucherType: c.Query("voucher_type"),
		Status:      c.Query("status"),
		Page:        listReq.Page,
		PageSize:    listReq.PageSize,
	}

	vouchers, total, err := h.vouchers.ListVouchers(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, vouchers, total, filter.Page, filter.PageSize)
}

// IssueVoucher godoc
// @ID           issueVoucher
// @Summary      Issue a draft voucher
// @Description  Transitions a draft voucher to issued. Issued vouchers keep their number permanently.
// @Tags         vouchers
// @Produce      json
// @Param        id path string true "Voucher ID" format(uuid)
// @Success      200 {object} APIResponse[appfinance.VoucherRecordResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /vouchers/{id}/issue [post]
func (h *VoucherHandler) IssueVoucher(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid voucher ID")
		return
	}

	voucher, err := h.vouchers.IssueVoucher(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, voucher)
}

// CancelVoucher godoc
// @ID           cancelVoucher
// @Summary      Cancel a voucher
// @Description  Cancels a voucher record. The allocated number is not returned to the pool.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        id path string true "Voucher ID" format(uuid)
// @Param        request body CancelVoucherRequest false "Cancellation reason"
// @Success      200 {object} APIResponse[appfinance.VoucherRecordResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /vouchers/{id}/cancel [post]
func (h *VoucherHandler) CancelVoucher(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid voucher ID")
		return
	}

	var req CancelVoucherRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	voucher, err := h.vouchers.CancelVoucher(c.Request.Context(), tenantID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, voucher)
}
