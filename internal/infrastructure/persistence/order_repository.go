package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/satguard/backend/internal/domain/billing"
	"github.com/satguard/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOrderRepository implements billing.OrderRepository
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save persists a new order
func (r *GormOrderRepository) Save(ctx context.Context, o *billing.ExcessPaymentOrder) error {
	return dbFrom(ctx, r.db).Create(o).Error
}

// Update persists changes to an existing order
func (r *GormOrderRepository) Update(ctx context.Context, o *billing.ExcessPaymentOrder) error {
	return dbFrom(ctx, r.db).Save(o).Error
}

// FindByCheckoutSession finds the order behind a provider checkout session
func (r *GormOrderRepository) FindByCheckoutSession(ctx context.Context, sessionID string) (*billing.ExcessPaymentOrder, error) {
	var order billing.ExcessPaymentOrder
	err := dbFrom(ctx, r.db).
		Where("checkout_session_id = ?", sessionID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByPaymentIntent finds the order behind a provider payment intent
func (r *GormOrderRepository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*billing.ExcessPaymentOrder, error) {
	var order billing.ExcessPaymentOrder
	err := dbFrom(ctx, r.db).
		Where("payment_intent_id = ?", paymentIntentID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByTenant returns a page of the tenant's orders, newest first
func (r *GormOrderRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[billing.ExcessPaymentOrder], error) {
	db := dbFrom(ctx, r.db)

	var total int64
	if err := db.Model(&billing.ExcessPaymentOrder{}).
		Where("tenant_id = ?", tenantID).
		Count(&total).Error; err != nil {
		return shared.Paginated[billing.ExcessPaymentOrder]{}, err
	}

	var orders []billing.ExcessPaymentOrder
	err := db.
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&orders).Error
	if err != nil {
		return shared.Paginated[billing.ExcessPaymentOrder]{}, err
	}
	return shared.NewPaginated(orders, total, filter.Page, filter.PageSize), nil
}
