package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/satguard/backend/internal/domain/shared"
	"github.com/satguard/backend/internal/domain/supplier"
	"gorm.io/gorm"
)

// GormGroupRepository implements supplier.GroupRepository
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a new GormGroupRepository
func NewGormGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

// Save persists a group
func (r *GormGroupRepository) Save(ctx context.Context, g *supplier.Group) error {
	return dbFrom(ctx, r.db).Create(g).Error
}

// FindByID finds a tenant's group by id
func (r *GormGroupRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*supplier.Group, error) {
	var g supplier.Group
	err := dbFrom(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// FindByNameFold finds a tenant's group by case-insensitive name
func (r *GormGroupRepository) FindByNameFold(ctx context.Context, tenantID uuid.UUID, name string) (*supplier.Group, error) {
	var g supplier.Group
	err := dbFrom(ctx, r.db).
		Where("tenant_id = ? AND LOWER(name) = ?", tenantID, strings.ToLower(strings.TrimSpace(name))).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// FindByTenant returns all of a tenant's groups ordered by name
func (r *GormGroupRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]supplier.Group, error) {
	var groups []supplier.Group
	err := dbFrom(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}
