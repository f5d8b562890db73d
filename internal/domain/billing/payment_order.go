package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/satguard/backend/internal/domain/shared"
)

// OrderStatus is the lifecycle state of an excess-payment order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
	OrderExpired   OrderStatus = "expired"
	OrderFailed    OrderStatus = "failed"
)

// DefaultOrderTTL is how long a pending order stays payable.
const DefaultOrderTTL = 24 * time.Hour

// ExcessPaymentOrder is a one-off charge that lets a tenant reconcile
// suppliers beyond their plan quota. Once the payment settles, the
// covered RFCs go through a dedicated reconciliation pass and the
// order is flagged as reconciled.
type ExcessPaymentOrder struct {
	shared.TenantEntity
	RFCs              []string        `gorm:"type:text;serializer:json"`
	RFCCount          int             `gorm:"not null"`
	UnitPrice         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Total             decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'MXN'"`
	CheckoutSessionID string          `gorm:"type:varchar(150);index"`
	PaymentIntentID   string          `gorm:"type:varchar(150);index"`
	CustomerID        string          `gorm:"type:varchar(150)"`
	Status            OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
	Reconciled        bool            `gorm:"not null;default:false"`
	RunID             *uuid.UUID      `gorm:"type:uuid"`
	PaidAt            *time.Time
	ExpiresAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExcessPaymentOrder) TableName() string {
	return "excess_payment_orders"
}

// NewExcessPaymentOrder creates a pending order covering the given
// RFCs, priced per RFC, payable for DefaultOrderTTL.
func NewExcessPaymentOrder(tenantID uuid.UUID, rfcs []string, unitPrice decimal.Decimal) (*ExcessPaymentOrder, error) {
	if len(rfcs) == 0 {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order must cover at least one RFC")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_ORDER", "Unit price cannot be negative")
	}
	entity := shared.NewTenantEntity(tenantID)
	return &ExcessPaymentOrder{
		TenantEntity: entity,
		RFCs:         rfcs,
		RFCCount:     len(rfcs),
		UnitPrice:    unitPrice,
		Total:        unitPrice.Mul(decimal.NewFromInt(int64(len(rfcs)))),
		Currency:     "MXN",
		Status:       OrderPending,
		ExpiresAt:    entity.CreatedAt.Add(DefaultOrderTTL),
	}, nil
}

// AttachCheckout records the provider checkout session for a pending order
func (o *ExcessPaymentOrder) AttachCheckout(sessionID string) error {
	if o.Status != OrderPending {
		return shared.ErrInvalidState
	}
	o.CheckoutSessionID = sessionID
	return nil
}

// MarkPaid transitions a pending order to paid and stores the provider
// identifiers delivered with the payment event.
func (o *ExcessPaymentOrder) MarkPaid(at time.Time, paymentIntentID, customerID string) error {
	if o.Status != OrderPending {
		return shared.ErrInvalidState
	}
	o.Status = OrderPaid
	o.PaymentIntentID = paymentIntentID
	o.CustomerID = customerID
	o.PaidAt = &at
	return nil
}

// MarkFailed transitions a pending order to failed
func (o *ExcessPaymentOrder) MarkFailed() error {
	if o.Status != OrderPending {
		return shared.ErrInvalidState
	}
	o.Status = OrderFailed
	return nil
}

// MarkCancelled transitions a pending order to cancelled
func (o *ExcessPaymentOrder) MarkCancelled() error {
	if o.Status != OrderPending {
		return shared.ErrInvalidState
	}
	o.Status = OrderCancelled
	return nil
}

// MarkExpired transitions a pending order past its deadline to expired
func (o *ExcessPaymentOrder) MarkExpired(now time.Time) error {
	if o.Status != OrderPending || now.Before(o.ExpiresAt) {
		return shared.ErrInvalidState
	}
	o.Status = OrderExpired
	return nil
}

// MarkReconciled flags a paid order as reconciled and links the run
// that covered it.
func (o *ExcessPaymentOrder) MarkReconciled(runID uuid.UUID) error {
	if o.Status != OrderPaid {
		return shared.ErrInvalidState
	}
	o.Reconciled = true
	o.RunID = &runID
	return nil
}

// OrderRepository provides access to excess-payment orders
type OrderRepository interface {
	Save(ctx context.Context, o *ExcessPaymentOrder) error
	Update(ctx context.Context, o *ExcessPaymentOrder) error
	FindByCheckoutSession(ctx context.Context, sessionID string) (*ExcessPaymentOrder, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*ExcessPaymentOrder, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[ExcessPaymentOrder], error)
}
