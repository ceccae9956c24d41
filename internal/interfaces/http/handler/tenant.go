package handler

import (
	appidentity "github.com/erp/numbering/internal/application/identity"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/erp/numbering/internal/interfaces/http/dto"
	"github.com/erp/numbering/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantHandler handles tenant management HTTP requests
type TenantHandler struct {
	BaseHandler
	tenantService *appidentity.TenantService
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenantService *appidentity.TenantService) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
	}
}

// Create godoc
// @ID           createTenant
// @Summary      Create a new tenant
// @Description  Provisions a tenant and seeds default numbering rules for every voucher type
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        request body appidentity.CreateTenantRequest true "Tenant creation request"
// @Success      201 {object} APIResponse[appidentity.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /tenants [post]
func (h *TenantHandler) Create(c *gin.Context) {
	var req appidentity.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	tenant, err := h.tenantService.CreateTenant(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, tenant)
}

// Get godoc
// @ID           getTenant
// @Summary      Get a tenant
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[appidentity.TenantResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /tenants/{id} [get]
func (h *TenantHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	tenant, err := h.tenantService.GetTenant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tenant)
}

// List godoc
// @ID           listTenants
// @Summary      List tenants
// @Tags         tenants
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Search by code or name"
// @Success      200 {object} APIResponse[[]appidentity.TenantResponse]
// @Router       /tenants [get]
func (h *TenantHandler) List(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := shared.DefaultFilter()
	filter.Page = listReq.Page
	filter.PageSize = listReq.PageSize
	filter.Search = listReq.Search

	tenants, total, err := h.tenantService.ListTenants(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, tenants, total, filter.Page, filter.PageSize)
}

// Suspend godoc
// @ID           suspendTenant
// @Summary      Suspend a tenant
// @Description  Suspended tenants keep their counters but cannot allocate numbers
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[appidentity.TenantResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /tenants/{id}/suspend [post]
func (h *TenantHandler) Suspend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	tenant, err := h.tenantService.SuspendTenant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tenant)
}

// Activate godoc
// @ID           activateTenant
// @Summary      Activate a suspended tenant
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[appidentity.TenantResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /tenants/{id}/activate [post]
func (h *TenantHandler) Activate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	tenant, err := h.tenantService.ActivateTenant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tenant)
}
