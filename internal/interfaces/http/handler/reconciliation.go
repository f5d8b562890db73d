package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appreconciliation "github.com/satguard/backend/internal/application/reconciliation"
	"github.com/satguard/backend/internal/domain/reconciliation"
	"github.com/satguard/backend/internal/domain/shared"
	"github.com/satguard/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ReconciliationHandler handles reconciliation run endpoints
type ReconciliationHandler struct {
	BaseHandler
	service *appreconciliation.Service
	fleet   *appreconciliation.FleetService
	logger  *zap.Logger
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(
	service *appreconciliation.Service,
	fleet *appreconciliation.FleetService,
	logger *zap.Logger,
) *ReconciliationHandler {
	return &ReconciliationHandler{service: service, fleet: fleet, logger: logger}
}

// Create starts a manual reconciliation run for the tenant
func (h *ReconciliationHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	summary, err := h.service.Reconcile(c.Request.Context(), tenantID, reconciliation.KindManual)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, summary)
}

// CreateDofPriority starts a gazette-first run for the tenant
func (h *ReconciliationHandler) CreateDofPriority(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	summary, err := h.service.ReconcileDofPriority(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, summary)
}

// History returns a page of past runs plus current-month metrics
func (h *ReconciliationHandler) History(c *gin.Context) {
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

	page, err := h.service.HistoryPage(c.Request.Context(), tenantID, shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// Get returns one run with its per-RFC detail lines
func (h *ReconciliationHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid run ID")
		return
	}

	report, err := h.service.GetRunDetails(c.Request.Context(), tenantID, runID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// LatestExport returns the most recent run in full, detail lines
// included, for client-side export.
func (h *ReconciliationHandler) LatestExport(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	report, err := h.service.LatestRunExport(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// RunAll triggers a fleet-wide blocklist pass over every active tenant
func (h *ReconciliationHandler) RunAll(c *gin.Context) {
	result, err := h.fleet.ReconcileAllTenants(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RunAllDofPriority triggers a fleet-wide gazette-first pass
func (h *ReconciliationHandler) RunAllDofPriority(c *gin.Context) {
	result, err := h.fleet.ReconcileAllTenantsDofPriority(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
