package supplier

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/satguard/backend/internal/domain/identity"
	"github.com/satguard/backend/internal/domain/shared"
	"github.com/satguard/backend/internal/domain/supplier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMembershipRepo struct {
	mock.Mock
}

func (m *mockMembershipRepo) Save(ctx context.Context, ms *supplier.Membership) error {
	return m.Called(ctx, ms).Error(0)
}

func (m *mockMembershipRepo) Update(ctx context.Context, ms *supplier.Membership) error {
	return m.Called(ctx, ms).Error(0)
}

func (m *mockMembershipRepo) Delete(ctx context.Context, tenantID uuid.UUID, rfc string) error {
	return m.Called(ctx, tenantID, rfc).Error(0)
}

func (m *mockMembershipRepo) FindByRFC(ctx context.Context, tenantID uuid.UUID, rfc string) (*supplier.Membership, error) {
	args := m.Called(ctx, tenantID, rfc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supplier.Membership), args.Error(1)
}

func (m *mockMembershipRepo) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[supplier.Membership], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[supplier.Membership]), args.Error(1)
}

func (m *mockMembershipRepo) FindActiveOrdered(ctx context.Context, tenantID uuid.UUID, limit *int) ([]supplier.Membership, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]supplier.Membership), args.Error(1)
}

func (m *mockMembershipRepo) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMembershipRepo) CountTotal(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

type mockGroupRepo struct {
	mock.Mock
}

func (m *mockGroupRepo) Save(ctx context.Context, g *supplier.Group) error {
	return m.Called(ctx, g).Error(0)
}

func (m *mockGroupRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*supplier.Group, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supplier.Group), args.Error(1)
}

func (m *mockGroupRepo) FindByNameFold(ctx context.Context, tenantID uuid.UUID, name string) (*supplier.Group, error) {
	args := m.Called(ctx, tenantID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supplier.Group), args.Error(1)
}

func (m *mockGroupRepo) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]supplier.Group, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]supplier.Group), args.Error(1)
}

type mockTenantRepo struct {
	mock.Mock
}

func (m *mockTenantRepo) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *mockTenantRepo) FindByIDWithPlan(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *mockTenantRepo) FindAllActive(ctx context.Context) ([]identity.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Tenant), args.Error(1)
}

func (m *mockTenantRepo) Save(ctx context.Context, tenant *identity.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func tenantWithLimit(id uuid.UUID, limit *int) *identity.Tenant {
	t := &identity.Tenant{BusinessName: "Acme SA"}
	t.ID = id
	t.Plan = &identity.Plan{ID: 1, Name: "Pro", SupplierLimit: limit}
	return t
}

func newServiceForTest() (*MembershipService, *mockMembershipRepo, *mockGroupRepo, *mockTenantRepo) {
	membershipRepo := new(mockMembershipRepo)
	groupRepo := new(mockGroupRepo)
	tenantRepo := new(mockTenantRepo)
	svc := NewMembershipService(membershipRepo, groupRepo, tenantRepo, zap.NewNop())
	return svc, membershipRepo, groupRepo, tenantRepo
}

func TestAddBatch(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	ten := 10

	t.Run("mixes added, existing and invalid in input order", func(t *testing.T) {
		svc, membershipRepo, _, tenantRepo := newServiceForTest()
		tenantRepo.On("FindByIDWithPlan", ctx, tenantID).Return(tenantWithLimit(tenantID, &ten), nil)
		membershipRepo.On("CountActive", ctx, tenantID).Return(int64(3), nil)

		existing, _ := supplier.NewMembership(tenantID, "BBB020202BBB", "")
		membershipRepo.On("FindByRFC", ctx, tenantID, "AAA010101AAA").Return(nil, shared.ErrNotFound)
		membershipRepo.On("FindByRFC", ctx, tenantID, "BBB020202BBB").Return(existing, nil)
		membershipRepo.On("Save", ctx, mock.AnythingOfType("*supplier.Membership")).Return(nil)

		result, err := svc.AddBatch(ctx, tenantID, []BatchItem{
			{RFC: " aaa010101aaa "},
			{RFC: "bbb020202bbb"},
			{RFC: "BAD"},
		})
		require.NoError(t, err)
		require.Len(t, result.Results, 3)

		assert.Equal(t, "AAA010101AAA", result.Results[0].RFC)
		assert.Equal(t, BatchStatusAdded, result.Results[0].Status)
		assert.NotNil(t, result.Results[0].MembershipID)

		assert.Equal(t, BatchStatusExists, result.Results[1].Status)
		assert.Equal(t, existing.ID, *result.Results[1].MembershipID)

		assert.Equal(t, BatchStatusInvalid, result.Results[2].Status)
		assert.Equal(t, 1, result.Added)
		assert.Equal(t, 1, result.Existing)
		assert.Equal(t, 1, result.Invalid)
	})

	t.Run("new memberships beyond the burst ceiling start inactive", func(t *testing.T) {
		svc, membershipRepo, _, tenantRepo := newServiceForTest()
		// limit 10 gives ceiling 11, 10 already active: one slot left
		tenantRepo.On("FindByIDWithPlan", ctx, tenantID).Return(tenantWithLimit(tenantID, &ten), nil)
		membershipRepo.On("CountActive", ctx, tenantID).Return(int64(10), nil)
		membershipRepo.On("FindByRFC", ctx, tenantID, mock.Anything).Return(nil, shared.ErrNotFound)

		var saved []*supplier.Membership
		membershipRepo.On("Save", ctx, mock.AnythingOfType("*supplier.Membership")).
			Run(func(args mock.Arguments) {
				saved = append(saved, args.Get(1).(*supplier.Membership))
			}).Return(nil)

		result, err := svc.AddBatch(ctx, tenantID, []BatchItem{
			{RFC: "AAA010101AAA"},
			{RFC: "BBB020202BBB"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Added)
		assert.Equal(t, 1, result.Inactive)
		assert.Equal(t, BatchStatusAdded, result.Results[0].Status)
		assert.Equal(t, BatchStatusAddedInactive, result.Results[1].Status)

		require.Len(t, saved, 2)
		assert.True(t, saved[0].Active)
		assert.False(t, saved[1].Active)
	})

	t.Run("unlimited plan never deactivates", func(t *testing.T) {
		svc, membershipRepo, _, tenantRepo := newServiceForTest()
		tenantRepo.On("FindByIDWithPlan", ctx, tenantID).Return(tenantWithLimit(tenantID, nil), nil)
		membershipRepo.On("CountActive", ctx, tenantID).Return(int64(100000), nil)
		membershipRepo.On("FindByRFC", ctx, tenantID, mock.Anything).Return(nil, shared.ErrNotFound)
		membershipRepo.On("Save", ctx, mock.AnythingOfType("*supplier.Membership")).Return(nil)

		result, err := svc.AddBatch(ctx, tenantID, []BatchItem{{RFC: "AAA010101AAA"}})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Added)
		assert.Equal(t, 0, result.Inactive)
	})
}

func TestAddBatchFromFile(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	ten := 10

	t.Run("refreshes metadata on existing memberships", func(t *testing.T) {
		svc, membershipRepo, _, tenantRepo := newServiceForTest()
		tenantRepo.On("FindByIDWithPlan", ctx, tenantID).Return(tenantWithLimit(tenantID, &ten), nil)
		membershipRepo.On("CountActive", ctx, tenantID).Return(int64(0), nil)

		existing, _ := supplier.NewMembership(tenantID, "AAA010101AAA", "old name")
		membershipRepo.On("FindByRFC", ctx, tenantID, "AAA010101AAA").Return(existing, nil)
		membershipRepo.On("Update", ctx, existing).Return(nil)

		result, err := svc.AddBatchFromFile(ctx, tenantID, []ImportRow{
			{RFC: "AAA010101AAA", Alias: "new name"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Existing)
		assert.Equal(t, "new name", existing.Alias)
		membershipRepo.AssertCalled(t, "Update", ctx, existing)
	})
}

func TestSetActive(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	ten := 10

	t.Run("deactivation is unconditional", func(t *testing.T) {
		svc, membershipRepo, _, _ := newServiceForTest()
		m, _ := supplier.NewMembership(tenantID, "AAA010101AAA", "")
		membershipRepo.On("FindByRFC", ctx, tenantID, "AAA010101AAA").Return(m, nil)
		membershipRepo.On("Update", ctx, m).Return(nil)

		got, err := svc.SetActive(ctx, tenantID, "aaa010101aaa", false)
		require.NoError(t, err)
		assert.False(t, got.Active)
	})

	t.Run("activation at the ceiling is rejected", func(t *testing.T) {
		svc, membershipRepo, _, tenantRepo := newServiceForTest()
		m, _ := supplier.NewMembership(tenantID, "AAA010101AAA", "")
		m.Deactivate()
		membershipRepo.On("FindByRFC", ctx, tenantID, "AAA010101AAA").Return(m, nil)
		tenantRepo.On("FindByIDWithPlan", ctx, tenantID).Return(tenantWithLimit(tenantID, &ten), nil)
		membershipRepo.On("CountActive", ctx, tenantID).Return(int64(11), nil)

		_, err := svc.SetActive(ctx, tenantID, "AAA010101AAA", true)
		assert.Equal(t, shared.ErrBurstLimitExceeded, err)
		assert.False(t, m.Active)
	})

	t.Run("activation under the ceiling succeeds", func(t *testing.T) {
		svc, membershipRepo, _, tenantRepo := newServiceForTest()
		m, _ := supplier.NewMembership(tenantID, "AAA010101AAA", "")
		m.Deactivate()
		membershipRepo.On("FindByRFC", ctx, tenantID, "AAA010101AAA").Return(m, nil)
		tenantRepo.On("FindByIDWithPlan", ctx, tenantID).Return(tenantWithLimit(tenantID, &ten), nil)
		membershipRepo.On("CountActive", ctx, tenantID).Return(int64(10), nil)
		membershipRepo.On("Update", ctx, m).Return(nil)

		got, err := svc.SetActive(ctx, tenantID, "AAA010101AAA", true)
		require.NoError(t, err)
		assert.True(t, got.Active)
	})
}

func TestSetGroup(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("reuses a group matched case-insensitively", func(t *testing.T) {
		svc, membershipRepo, groupRepo, _ := newServiceForTest()
		m, _ := supplier.NewMembership(tenantID, "AAA010101AAA", "")
		group, _ := supplier.NewGroup(tenantID, "Logistics")
		membershipRepo.On("FindByRFC", ctx, tenantID, "AAA010101AAA").Return(m, nil)
		groupRepo.On("FindByNameFold", ctx, tenantID, "logistics").Return(group, nil)
		membershipRepo.On("Update", ctx, m).Return(nil)

		name := "logistics"
		got, err := svc.SetGroup(ctx, tenantID, "AAA010101AAA", &name)
		require.NoError(t, err)
		require.NotNil(t, got.GroupID)
		assert.Equal(t, group.ID, *got.GroupID)
		groupRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("creates the group when absent", func(t *testing.T) {
		svc, membershipRepo, groupRepo, _ := newServiceForTest()
		m, _ := supplier.NewMembership(tenantID, "AAA010101AAA", "")
		membershipRepo.On("FindByRFC", ctx, tenantID, "AAA010101AAA").Return(m, nil)
		groupRepo.On("FindByNameFold", ctx, tenantID, "New Crew").Return(nil, shared.ErrNotFound)
		groupRepo.On("Save", ctx, mock.AnythingOfType("*supplier.Group")).Return(nil)
		membershipRepo.On("Update", ctx, m).Return(nil)

		name := "New Crew"
		got, err := svc.SetGroup(ctx, tenantID, "AAA010101AAA", &name)
		require.NoError(t, err)
		assert.NotNil(t, got.GroupID)
	})

	t.Run("nil clears the assignment", func(t *testing.T) {
		svc, membershipRepo, _, _ := newServiceForTest()
		m, _ := supplier.NewMembership(tenantID, "AAA010101AAA", "")
		gid := uuid.New()
		m.AssignGroup(&gid)
		membershipRepo.On("FindByRFC", ctx, tenantID, "AAA010101AAA").Return(m, nil)
		membershipRepo.On("Update", ctx, m).Return(nil)

		got, err := svc.SetGroup(ctx, tenantID, "AAA010101AAA", nil)
		require.NoError(t, err)
		assert.Nil(t, got.GroupID)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("deletes an existing membership", func(t *testing.T) {
		svc, membershipRepo, _, _ := newServiceForTest()
		m, _ := supplier.NewMembership(tenantID, "AAA010101AAA", "")
		membershipRepo.On("FindByRFC", ctx, tenantID, "AAA010101AAA").Return(m, nil)
		membershipRepo.On("Delete", ctx, tenantID, "AAA010101AAA").Return(nil)

		require.NoError(t, svc.Delete(ctx, tenantID, "aaa010101aaa"))
		membershipRepo.AssertCalled(t, "Delete", ctx, tenantID, "AAA010101AAA")
	})

	t.Run("missing membership is a not found error", func(t *testing.T) {
		svc, membershipRepo, _, _ := newServiceForTest()
		membershipRepo.On("FindByRFC", ctx, tenantID, "AAA010101AAA").Return(nil, shared.ErrNotFound)

		assert.Equal(t, shared.ErrNotFound, svc.Delete(ctx, tenantID, "AAA010101AAA"))
	})
}
