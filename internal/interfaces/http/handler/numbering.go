package handler

import (
	"strconv"

	appnumbering "github.com/erp/numbering/internal/application/numbering"
	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/erp/numbering/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// NumberingHandler handles numbering configuration, preview and
// allocation API endpoints
type NumberingHandler struct {
	BaseHandler
	settings   *appnumbering.SettingsService
	preview    *appnumbering.PreviewService
	allocation *appnumbering.AllocationService
}

// NewNumberingHandler creates a new NumberingHandler
func NewNumberingHandler(
	settings *appnumbering.SettingsService,
	preview *appnumbering.PreviewService,
	allocation *appnumbering.AllocationService,
) *NumberingHandler {
	return &NumberingHandler{
		settings:   settings,
		preview:    preview,
		allocation: allocation,
	}
}

// voucherTypeParam reads the :type path parameter. Validation of the
// value itself is left to the services, which map unknown types to
// CONFIG_INVALID.
func voucherTypeParam(c *gin.Context) numbering.VoucherType {
	return numbering.VoucherType(c.Param("type"))
}

// ListRules godoc
// @ID           listNumberingRules
// @Summary      List format rules
// @Description  Returns the effective format rules for every voucher type of the tenant
// @Tags         numbering
// @Produce      json
// @Success      200 {object} APIResponse[[]appnumbering.FormatRulesResponse]
// @Failure      503 {object} ErrorResponse
// @Router       /numbering/rules [get]
func (h *NumberingHandler) ListRules(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	rules, err := h.settings.ListRules(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rules)
}

// GetRules godoc
// @ID           getNumberingRules
// @Summary      Get format rules for a voucher type
// @Description  Returns the effective format rules, falling back to defaults when none are stored
// @Tags         numbering
// @Produce      json
// @Param        type path string true "Voucher type" Enums(INVOICE,RECEIPT,PAYMENT,JOURNAL,CONTRA,CREDIT_NOTE,DEBIT_NOTE)
// @Success      200 {object} APIResponse[appnumbering.FormatRulesResponse]
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /numbering/rules/{type} [get]
func (h *NumberingHandler) GetRules(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	rules, err := h.settings.GetRules(c.Request.Context(), tenantID, voucherTypeParam(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rules)
}

// UpdateRules godoc
// @ID           updateNumberingRules
// @Summary      Update format rules for a voucher type
// @Description  Validates and stores the format rules. Existing allocated numbers are unaffected.
// @Tags         numbering
// @Accept       json
// @Produce      json
// @Param        type path string true "Voucher type"
// @Param        request body appnumbering.UpdateRulesRequest true "Format rules"
// @Success      200 {object} APIResponse[appnumbering.FormatRulesResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /numbering/rules/{type} [put]
func (h *NumberingHandler) UpdateRules(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req appnumbering.UpdateRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	rules, err := h.settings.UpdateRules(c.Request.Context(), tenantID, voucherTypeParam(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rules)
}

// Preview godoc
// @ID           previewNumbering
// @Summary      Preview formatted numbers
// @Description  Formats sample values with the stored rules without consuming any numbers. When the value query parameter is absent, samples 1, 10 and 100 are rendered.
// @Tags         numbering
// @Produce      json
// @Param        type path string true "Voucher type"
// @Param        value query int false "Specific sequence value to format"
// @Success      200 {object} APIResponse[[]appnumbering.PreviewResponse]
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /numbering/preview/{type} [get]
func (h *NumberingHandler) Preview(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	voucherType := voucherTypeParam(c)

	if raw := c.Query("value"); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || value < 1 {
			h.BadRequest(c, "value must be a positive integer")
			return
		}
		preview, err := h.preview.Preview(c.Request.Context(), tenantID, voucherType, value)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, preview)
		return
	}

	samples, err := h.preview.PreviewSamples(c.Request.Context(), tenantID, voucherType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, samples)
}

// PreviewWithRules godoc
// @ID           previewNumberingWithRules
// @Summary      Preview formatted numbers with unsaved rules
// @Description  Formats sample values with the submitted rules so an operator can inspect a configuration before saving it. Nothing is stored.
// @Tags         numbering
// @Accept       json
// @Produce      json
// @Param        type path string true "Voucher type"
// @Param        request body appnumbering.PreviewRulesRequest true "Candidate format rules"
// @Success      200 {object} APIResponse[[]appnumbering.PreviewResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /numbering/preview/{type} [post]
func (h *NumberingHandler) PreviewWithRules(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req appnumbering.PreviewRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	samples, err := h.preview.PreviewWithRules(tenantID, voucherTypeParam(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, samples)
}

// Allocate godoc
// @ID           allocateNumber
// @Summary      Allocate the next voucher number
// @Description  Atomically assigns the next sequence value for the voucher type and returns it formatted. The value is consumed even if the caller discards it.
// @Tags         numbering
// @Produce      json
// @Param        type path string true "Voucher type"
// @Success      200 {object} APIResponse[appnumbering.AllocationResponse]
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /numbering/allocate/{type} [post]
func (h *NumberingHandler) Allocate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	allocation, err := h.allocation.Allocate(c.Request.Context(), tenantID, voucherTypeParam(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, allocation)
}

// ListSequences godoc
// @ID           listSequences
// @Summary      List sequence counters
// @Description  Returns the current counter value per voucher type for operational visibility. Read-only.
// @Tags         numbering
// @Produce      json
// @Success      200 {object} APIResponse[[]appnumbering.SequenceResponse]
// @Failure      503 {object} ErrorResponse
// @Router       /numbering/sequences [get]
func (h *NumberingHandler) ListSequences(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	sequences, err := h.allocation.ListSequences(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sequences)
}
