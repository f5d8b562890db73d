package supplier

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/satguard/backend/internal/domain/shared"
)

// Group is a tenant-defined label for organizing suppliers.
// Group names are matched case-insensitively within a tenant.
type Group struct {
	shared.TenantEntity
	Name string `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (Group) TableName() string {
	return "supplier_groups"
}

// NewGroup creates a group for a tenant
func NewGroup(tenantID uuid.UUID, name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_GROUP", "Group name cannot be empty")
	}
	return &Group{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Name:         name,
	}, nil
}

// GroupRepository provides access to supplier groups
type GroupRepository interface {
	Save(ctx context.Context, g *Group) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Group, error)
	// FindByNameFold performs a case-insensitive name lookup within a tenant.
	FindByNameFold(ctx context.Context, tenantID uuid.UUID, name string) (*Group, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]Group, error)
}
