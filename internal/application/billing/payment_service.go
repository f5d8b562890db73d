package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appreconciliation "github.com/satguard/backend/internal/application/reconciliation"
	"github.com/satguard/backend/internal/domain/billing"
	"github.com/satguard/backend/internal/domain/reconciliation"
	"github.com/satguard/backend/internal/domain/shared"
	"github.com/satguard/backend/internal/domain/supplier"
	"go.uber.org/zap"
)

// SpecificReconciler runs a reconciliation over an explicit RFC list,
// bypassing the plan quota.
type SpecificReconciler interface {
	ReconcileSpecificRFCs(ctx context.Context, tenantID uuid.UUID, rfcs []string, kind reconciliation.RunKind) (*appreconciliation.RunSummary, error)
}

// OrderDTO is the caller-facing view of an excess-payment order
type OrderDTO struct {
	OrderID   uuid.UUID       `json:"order_id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	RFCCount  int             `json:"rfc_count"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// PaymentResult reports how a provider event was handled. Warning is
// set when the payment settled but the follow-up reconciliation did
// not complete.
type PaymentResult struct {
	Handled bool       `json:"handled"`
	OrderID *uuid.UUID `json:"order_id,omitempty"`
	RunID   *uuid.UUID `json:"run_id,omitempty"`
	Warning string     `json:"warning,omitempty"`
}

// PaymentService drives excess-payment orders from creation through
// the settled-payment reconciliation.
type PaymentService struct {
	orderRepo  billing.OrderRepository
	reconciler SpecificReconciler
	logger     *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(orderRepo billing.OrderRepository, reconciler SpecificReconciler, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		orderRepo:  orderRepo,
		reconciler: reconciler,
		logger:     logger,
	}
}

// CreateOrder opens a pending order covering the given RFCs. RFCs are
// normalized and deduplicated before pricing.
func (s *PaymentService) CreateOrder(ctx context.Context, tenantID uuid.UUID, rfcs []string, unitPrice decimal.Decimal) (*OrderDTO, error) {
	seen := make(map[string]struct{}, len(rfcs))
	normalized := make([]string, 0, len(rfcs))
	for _, rfc := range rfcs {
		n := supplier.NormalizeRFC(rfc)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}

	order, err := billing.NewExcessPaymentOrder(tenantID, normalized, unitPrice)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("excess payment order created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", order.ID.String()),
		zap.Int("rfc_count", order.RFCCount),
	)
	return &OrderDTO{
		OrderID:   order.ID,
		TenantID:  order.TenantID,
		RFCCount:  order.RFCCount,
		UnitPrice: order.UnitPrice,
		Total:     order.Total,
		Currency:  order.Currency,
		Status:    string(order.Status),
		ExpiresAt: order.ExpiresAt,
	}, nil
}

// ProcessPaymentSucceeded settles the order behind a checkout session
// and reconciles its RFCs. The settlement always sticks: a failed
// follow-up reconciliation downgrades to a warning and leaves the
// order paid but not reconciled.
func (s *PaymentService) ProcessPaymentSucceeded(ctx context.Context, checkoutSessionID, paymentIntentID, customerID string) (*PaymentResult, error) {
	order, err := s.orderRepo.FindByCheckoutSession(ctx, checkoutSessionID)
	if err == shared.ErrNotFound {
		s.logger.Warn("payment event for unknown checkout session",
			zap.String("checkout_session_id", checkoutSessionID),
		)
		return &PaymentResult{Handled: false}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := order.MarkPaid(time.Now(), paymentIntentID, customerID); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	result := &PaymentResult{Handled: true, OrderID: &order.ID}
	summary, err := s.reconciler.ReconcileSpecificRFCs(ctx, order.TenantID, order.RFCs, reconciliation.KindExcessPayment)
	if err != nil {
		s.logger.Warn("post-payment reconciliation failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		result.Warning = "payment recorded, reconciliation pending: " + err.Error()
		return result, nil
	}

	if err := order.MarkReconciled(summary.RunID); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	result.RunID = &summary.RunID
	return result, nil
}

// ProcessPaymentFailed marks the order behind a payment intent as
// failed. Unknown intents are acknowledged without effect.
func (s *PaymentService) ProcessPaymentFailed(ctx context.Context, paymentIntentID string) (*PaymentResult, error) {
	order, err := s.orderRepo.FindByPaymentIntent(ctx, paymentIntentID)
	if err == shared.ErrNotFound {
		return &PaymentResult{Handled: false}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := order.MarkFailed(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	return &PaymentResult{Handled: true, OrderID: &order.ID}, nil
}
