package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/satguard/backend/internal/domain/identity"
	"github.com/satguard/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTenantRepository implements identity.TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var tenant identity.Tenant
	if err := dbFrom(ctx, r.db).First(&tenant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// FindByIDWithPlan finds a tenant with its subscription plan loaded
func (r *GormTenantRepository) FindByIDWithPlan(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var tenant identity.Tenant
	if err := dbFrom(ctx, r.db).Preload("Plan").First(&tenant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// FindAllActive returns all active tenants with plans loaded, oldest first
func (r *GormTenantRepository) FindAllActive(ctx context.Context) ([]identity.Tenant, error) {
	var tenants []identity.Tenant
	err := dbFrom(ctx, r.db).
		Preload("Plan").
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&tenants).Error
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

// Save persists a tenant
func (r *GormTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	return dbFrom(ctx, r.db).Save(tenant).Error
}

// GormPlanRepository implements identity.PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// FindByID finds a plan by its ID
func (r *GormPlanRepository) FindByID(ctx context.Context, id int) (*identity.Plan, error) {
	var plan identity.Plan
	if err := dbFrom(ctx, r.db).First(&plan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// FindAll returns every plan ordered by id
func (r *GormPlanRepository) FindAll(ctx context.Context) ([]identity.Plan, error) {
	var plans []identity.Plan
	if err := dbFrom(ctx, r.db).Order("id ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}
