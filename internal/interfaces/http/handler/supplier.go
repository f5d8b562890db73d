package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appsupplier "github.com/satguard/backend/internal/application/supplier"
	"github.com/satguard/backend/internal/domain/shared"
	"github.com/satguard/backend/internal/infrastructure/roster"
	"github.com/satguard/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// maxImportBytes caps the size of an uploaded roster file
const maxImportBytes = 10 << 20

// SupplierHandler handles supplier roster endpoints
type SupplierHandler struct {
	BaseHandler
	service *appsupplier.MembershipService
	logger  *zap.Logger
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(service *appsupplier.MembershipService, logger *zap.Logger) *SupplierHandler {
	return &SupplierHandler{service: service, logger: logger}
}

// BatchRequest is the body of POST /suppliers/batch
type BatchRequest struct {
	Suppliers []appsupplier.BatchItem `json:"suppliers" binding:"required,min=1,dive"`
}

// ImportResponse reports a roster file import
type ImportResponse struct {
	*appsupplier.BatchResult
	RowErrors []roster.RowError `json:"row_errors,omitempty"`
}

// StatusRequest is the body of PATCH /suppliers/:rfc/status
type StatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// GroupRequest is the body of PATCH /suppliers/:rfc/group. A null
// group name clears the assignment.
type GroupRequest struct {
	Group *string `json:"group"`
}

// AddBatch registers a list of RFCs for the tenant
func (h *SupplierHandler) AddBatch(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.service.AddBatch(c.Request.Context(), tenantID, req.Suppliers)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Import ingests a multipart CSV roster file
func (h *SupplierHandler) Import(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Missing file upload field 'file'")
		return
	}
	if fileHeader.Size > maxImportBytes {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeBadRequest, "File exceeds maximum allowed size")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.InternalError(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	rows, rowErrs, err := roster.Parse(file)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if len(rows) == 0 {
		h.BadRequest(c, "File contains no importable rows")
		return
	}

	result, err := h.service.AddBatchFromFile(c.Request.Context(), tenantID, rows)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ImportResponse{BatchResult: result, RowErrors: rowErrs})
}

// Delete removes one RFC from the tenant roster
func (h *SupplierHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, c.Param("rfc")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SetStatus activates or deactivates a membership
func (h *SupplierHandler) SetStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	membership, err := h.service.SetActive(c.Request.Context(), tenantID, c.Param("rfc"), *req.Active)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, membership)
}

// SetGroup assigns or clears the membership's group
func (h *SupplierHandler) SetGroup(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	membership, err := h.service.SetGroup(c.Request.Context(), tenantID, c.Param("rfc"), req.Group)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, membership)
}

// List returns a page of the tenant roster
func (h *SupplierHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid pagination parameters")
		return
	}

	page, err := h.service.List(c.Request.Context(), tenantID, shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
