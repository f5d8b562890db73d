package router

import (
	"github.com/gin-gonic/gin"
	"github.com/satguard/backend/internal/infrastructure/logger"
	"github.com/satguard/backend/internal/interfaces/http/handler"
	"github.com/satguard/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers bundles the endpoint handlers wired into the router
type Handlers struct {
	Health         *handler.HealthHandler
	Supplier       *handler.SupplierHandler
	Reconciliation *handler.ReconciliationHandler
	Payment        *handler.PaymentHandler
}

// Config holds router-level settings
type Config struct {
	CORSAllowOrigins []string
	Logger           *zap.Logger
}

// New builds the gin engine with the full middleware chain and all
// API routes registered.
func New(cfg Config, h Handlers) *gin.Engine {
	handler.RegisterValidators()

	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(middleware.Secure())

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsCfg))

	tenantCfg := middleware.DefaultTenantConfig()
	tenantCfg.Logger = cfg.Logger
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantCfg))

	api := engine.Group("/api/v1")

	api.GET("/health", h.Health.Health)

	suppliers := api.Group("/suppliers")
	{
		suppliers.GET("", h.Supplier.List)
		suppliers.POST("/batch", h.Supplier.AddBatch)
		suppliers.POST("/import", middleware.BodyLimit(12<<20), h.Supplier.Import)
		suppliers.DELETE("/:rfc", h.Supplier.Delete)
		suppliers.PATCH("/:rfc/status", h.Supplier.SetStatus)
		suppliers.PATCH("/:rfc/group", h.Supplier.SetGroup)
	}

	reconciliations := api.Group("/reconciliations")
	{
		reconciliations.POST("", h.Reconciliation.Create)
		reconciliations.POST("/dof", h.Reconciliation.CreateDofPriority)
		reconciliations.GET("", h.Reconciliation.History)
		reconciliations.GET("/latest/export", h.Reconciliation.LatestExport)
		reconciliations.GET("/:id", h.Reconciliation.Get)
	}

	payments := api.Group("/payments")
	{
		payments.POST("/orders", h.Payment.CreateOrder)
		payments.POST("/webhook", h.Payment.Webhook)
	}

	// Ops-only triggers, exposed without tenant context. Expected to be
	// firewalled off from the public listener.
	internal := api.Group("/internal")
	{
		internal.POST("/reconciliations/run-all", h.Reconciliation.RunAll)
		internal.POST("/reconciliations/run-all-dof", h.Reconciliation.RunAllDofPriority)
	}

	return engine
}
