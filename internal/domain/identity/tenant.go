package identity

import (
	"context"
	"strings"

	"github.com/satguard/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Tenant represents a company subscribed to the service.
// Each tenant holds its own supplier roster and reconciliation history.
type Tenant struct {
	shared.BaseEntity
	BusinessName string `gorm:"type:varchar(200);not null"`
	Email        string `gorm:"type:varchar(200);index"`
	Active       bool   `gorm:"not null;default:true;index"`
	PlanID       *int   `gorm:"index"`
	Plan         *Plan  `gorm:"foreignKey:PlanID"`
}

// TableName returns the table name for GORM
func (Tenant) TableName() string {
	return "tenants"
}

// NewTenant creates a new active tenant
func NewTenant(businessName, email string) (*Tenant, error) {
	businessName = strings.TrimSpace(businessName)
	if businessName == "" {
		return nil, shared.NewDomainError("INVALID_TENANT", "Business name cannot be empty")
	}
	return &Tenant{
		BaseEntity:   shared.NewBaseEntity(),
		BusinessName: businessName,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Active:       true,
	}, nil
}

// SupplierLimit returns the tenant's plan supplier limit.
// A nil result means the tenant has no effective limit (unlimited plan).
// Tenants without a plan get a zero limit, matching the reconciliation
// quota resolution.
func (t *Tenant) SupplierLimit() *int {
	if t.Plan == nil {
		zero := 0
		return &zero
	}
	return t.Plan.SupplierLimit
}

// TenantRepository provides access to tenants
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByIDWithPlan(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindAllActive(ctx context.Context) ([]Tenant, error)
	Save(ctx context.Context, tenant *Tenant) error
}
