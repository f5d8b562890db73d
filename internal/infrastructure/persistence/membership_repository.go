package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/satguard/backend/internal/domain/shared"
	"github.com/satguard/backend/internal/domain/supplier"
	"gorm.io/gorm"
)

// GormMembershipRepository implements supplier.MembershipRepository
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a new GormMembershipRepository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Save persists a new membership
func (r *GormMembershipRepository) Save(ctx context.Context, m *supplier.Membership) error {
	return dbFrom(ctx, r.db).Create(m).Error
}

// Update persists changes to an existing membership
func (r *GormMembershipRepository) Update(ctx context.Context, m *supplier.Membership) error {
	return dbFrom(ctx, r.db).Save(m).Error
}

// Delete removes a membership permanently
func (r *GormMembershipRepository) Delete(ctx context.Context, tenantID uuid.UUID, rfc string) error {
	return dbFrom(ctx, r.db).
		Where("tenant_id = ? AND rfc = ?", tenantID, rfc).
		Delete(&supplier.Membership{}).Error
}

// FindByRFC finds a tenant's membership for an RFC
func (r *GormMembershipRepository) FindByRFC(ctx context.Context, tenantID uuid.UUID, rfc string) (*supplier.Membership, error) {
	var m supplier.Membership
	err := dbFrom(ctx, r.db).
		Where("tenant_id = ? AND rfc = ?", tenantID, rfc).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindByTenant returns a page of the tenant's roster, newest first
func (r *GormMembershipRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[supplier.Membership], error) {
	db := dbFrom(ctx, r.db)

	var total int64
	if err := db.Model(&supplier.Membership{}).
		Where("tenant_id = ?", tenantID).
		Count(&total).Error; err != nil {
		return shared.Paginated[supplier.Membership]{}, err
	}

	var memberships []supplier.Membership
	err := db.
		Preload("Group").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&memberships).Error
	if err != nil {
		return shared.Paginated[supplier.Membership]{}, err
	}
	return shared.NewPaginated(memberships, total, filter.Page, filter.PageSize), nil
}

// FindActiveOrdered returns active memberships oldest first. A nil
// limit returns the whole active roster.
func (r *GormMembershipRepository) FindActiveOrdered(ctx context.Context, tenantID uuid.UUID, limit *int) ([]supplier.Membership, error) {
	query := dbFrom(ctx, r.db).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("created_at ASC")
	if limit != nil {
		query = query.Limit(*limit)
	}

	var memberships []supplier.Membership
	if err := query.Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// CountActive counts the tenant's active memberships
func (r *GormMembershipRepository) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&supplier.Membership{}).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Count(&count).Error
	return count, err
}

// CountTotal counts all of the tenant's memberships
func (r *GormMembershipRepository) CountTotal(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&supplier.Membership{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}
