package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appreconciliation "github.com/satguard/backend/internal/application/reconciliation"
	"github.com/satguard/backend/internal/domain/billing"
	"github.com/satguard/backend/internal/domain/reconciliation"
	"github.com/satguard/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Save(ctx context.Context, o *billing.ExcessPaymentOrder) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOrderRepo) Update(ctx context.Context, o *billing.ExcessPaymentOrder) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOrderRepo) FindByCheckoutSession(ctx context.Context, sessionID string) (*billing.ExcessPaymentOrder, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ExcessPaymentOrder), args.Error(1)
}

func (m *mockOrderRepo) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*billing.ExcessPaymentOrder, error) {
	args := m.Called(ctx, paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ExcessPaymentOrder), args.Error(1)
}

func (m *mockOrderRepo) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[billing.ExcessPaymentOrder], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[billing.ExcessPaymentOrder]), args.Error(1)
}

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) ReconcileSpecificRFCs(ctx context.Context, tenantID uuid.UUID, rfcs []string, kind reconciliation.RunKind) (*appreconciliation.RunSummary, error) {
	args := m.Called(ctx, tenantID, rfcs, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appreconciliation.RunSummary), args.Error(1)
}

func pendingOrder(t *testing.T, session string) *billing.ExcessPaymentOrder {
	t.Helper()
	o, err := billing.NewExcessPaymentOrder(uuid.New(), []string{"AAA010101AAA"}, decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, o.AttachCheckout(session))
	return o
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("normalizes and dedupes RFCs before pricing", func(t *testing.T) {
		orderRepo := new(mockOrderRepo)
		svc := NewPaymentService(orderRepo, new(mockReconciler), zap.NewNop())
		orderRepo.On("Save", ctx, mock.AnythingOfType("*billing.ExcessPaymentOrder")).Return(nil)

		dto, err := svc.CreateOrder(ctx, tenantID, []string{" aaa010101aaa ", "AAA010101AAA", "bbb020202bbb"}, decimal.NewFromInt(50))
		require.NoError(t, err)
		assert.Equal(t, 2, dto.RFCCount)
		assert.True(t, dto.Total.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, "pending", dto.Status)
	})

	t.Run("empty RFC list is rejected", func(t *testing.T) {
		svc := NewPaymentService(new(mockOrderRepo), new(mockReconciler), zap.NewNop())
		_, err := svc.CreateOrder(ctx, tenantID, []string{" "}, decimal.NewFromInt(50))
		require.Error(t, err)
	})
}

func TestProcessPaymentSucceeded(t *testing.T) {
	ctx := context.Background()

	t.Run("pays the order and reconciles its RFCs", func(t *testing.T) {
		orderRepo := new(mockOrderRepo)
		reconciler := new(mockReconciler)
		svc := NewPaymentService(orderRepo, reconciler, zap.NewNop())

		order := pendingOrder(t, "cs_1")
		runID := uuid.New()
		orderRepo.On("FindByCheckoutSession", ctx, "cs_1").Return(order, nil)
		orderRepo.On("Update", ctx, order).Return(nil)
		reconciler.On("ReconcileSpecificRFCs", ctx, order.TenantID, order.RFCs, reconciliation.KindExcessPayment).
			Return(&appreconciliation.RunSummary{RunID: runID, Processed: 1}, nil)

		result, err := svc.ProcessPaymentSucceeded(ctx, "cs_1", "pi_1", "cus_1")
		require.NoError(t, err)
		assert.True(t, result.Handled)
		assert.Empty(t, result.Warning)
		require.NotNil(t, result.RunID)
		assert.Equal(t, runID, *result.RunID)

		assert.Equal(t, billing.OrderPaid, order.Status)
		assert.True(t, order.Reconciled)
		assert.Equal(t, "pi_1", order.PaymentIntentID)
		orderRepo.AssertNumberOfCalls(t, "Update", 2)
	})

	t.Run("reconciliation failure leaves the order paid with a warning", func(t *testing.T) {
		orderRepo := new(mockOrderRepo)
		reconciler := new(mockReconciler)
		svc := NewPaymentService(orderRepo, reconciler, zap.NewNop())

		order := pendingOrder(t, "cs_2")
		orderRepo.On("FindByCheckoutSession", ctx, "cs_2").Return(order, nil)
		orderRepo.On("Update", ctx, order).Return(nil)
		reconciler.On("ReconcileSpecificRFCs", ctx, order.TenantID, order.RFCs, reconciliation.KindExcessPayment).
			Return(nil, errors.New("directory unavailable"))

		result, err := svc.ProcessPaymentSucceeded(ctx, "cs_2", "pi_2", "cus_2")
		require.NoError(t, err)
		assert.True(t, result.Handled)
		assert.Contains(t, result.Warning, "directory unavailable")
		assert.Nil(t, result.RunID)

		assert.Equal(t, billing.OrderPaid, order.Status)
		assert.False(t, order.Reconciled)
		orderRepo.AssertNumberOfCalls(t, "Update", 1)
	})

	t.Run("unknown checkout session is acknowledged unhandled", func(t *testing.T) {
		orderRepo := new(mockOrderRepo)
		svc := NewPaymentService(orderRepo, new(mockReconciler), zap.NewNop())
		orderRepo.On("FindByCheckoutSession", ctx, "cs_missing").Return(nil, shared.ErrNotFound)

		result, err := svc.ProcessPaymentSucceeded(ctx, "cs_missing", "pi", "cus")
		require.NoError(t, err)
		assert.False(t, result.Handled)
	})

	t.Run("already paid order is an invalid state", func(t *testing.T) {
		orderRepo := new(mockOrderRepo)
		svc := NewPaymentService(orderRepo, new(mockReconciler), zap.NewNop())
		order := pendingOrder(t, "cs_3")
		require.NoError(t, order.MarkPaid(order.CreatedAt, "pi_old", "cus_old"))
		orderRepo.On("FindByCheckoutSession", ctx, "cs_3").Return(order, nil)

		_, err := svc.ProcessPaymentSucceeded(ctx, "cs_3", "pi_new", "cus_new")
		require.Error(t, err)
	})
}

func TestProcessPaymentFailed(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the order failed", func(t *testing.T) {
		orderRepo := new(mockOrderRepo)
		svc := NewPaymentService(orderRepo, new(mockReconciler), zap.NewNop())
		order := pendingOrder(t, "cs_4")
		orderRepo.On("FindByPaymentIntent", ctx, "pi_4").Return(order, nil)
		orderRepo.On("Update", ctx, order).Return(nil)

		result, err := svc.ProcessPaymentFailed(ctx, "pi_4")
		require.NoError(t, err)
		assert.True(t, result.Handled)
		assert.Equal(t, billing.OrderFailed, order.Status)
	})

	t.Run("unknown intent is acknowledged unhandled", func(t *testing.T) {
		orderRepo := new(mockOrderRepo)
		svc := NewPaymentService(orderRepo, new(mockReconciler), zap.NewNop())
		orderRepo.On("FindByPaymentIntent", ctx, "pi_missing").Return(nil, shared.ErrNotFound)

		result, err := svc.ProcessPaymentFailed(ctx, "pi_missing")
		require.NoError(t, err)
		assert.False(t, result.Handled)
	})
}
