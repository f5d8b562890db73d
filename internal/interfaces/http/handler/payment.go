package handler

import (
	"github.com/gin-gonic/gin"
	appbilling "github.com/satguard/backend/internal/application/billing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Provider webhook event types handled by this service.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// PaymentHandler handles excess-payment order endpoints
type PaymentHandler struct {
	BaseHandler
	service   *appbilling.PaymentService
	unitPrice decimal.Decimal
	logger    *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(service *appbilling.PaymentService, unitPrice decimal.Decimal, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, unitPrice: unitPrice, logger: logger}
}

// CreateOrderRequest is the body of POST /payments/orders
type CreateOrderRequest struct {
	RFCs []string `json:"rfcs" binding:"required,min=1,dive,rfc"`
}

// WebhookRequest is the payment provider event payload. Signature
// verification happens upstream of this service.
type WebhookRequest struct {
	Type string      `json:"type" binding:"required"`
	Data WebhookData `json:"data"`
}

// WebhookData carries the provider identifiers of the event
type WebhookData struct {
	CheckoutSessionID string `json:"checkout_session_id"`
	PaymentIntentID   string `json:"payment_intent_id"`
	CustomerID        string `json:"customer_id"`
}

// CreateOrder opens a pending order for reconciling RFCs beyond the
// plan quota
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), tenantID, req.RFCs, h.unitPrice)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Webhook processes a payment provider event. Unknown event types and
// unknown orders are acknowledged so the provider stops retrying.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid webhook payload")
		return
	}

	ctx := c.Request.Context()

	switch req.Type {
	case EventPaymentSucceeded:
		if req.Data.CheckoutSessionID == "" {
			h.BadRequest(c, "Missing checkout_session_id")
			return
		}
		result, err := h.service.ProcessPaymentSucceeded(ctx, req.Data.CheckoutSessionID, req.Data.PaymentIntentID, req.Data.CustomerID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, result)

	case EventPaymentFailed:
		if req.Data.PaymentIntentID == "" {
			h.BadRequest(c, "Missing payment_intent_id")
			return
		}
		result, err := h.service.ProcessPaymentFailed(ctx, req.Data.PaymentIntentID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, result)

	default:
		h.logger.Debug("Ignoring unhandled webhook event", zap.String("type", req.Type))
		h.Success(c, gin.H{"handled": false})
	}
}
