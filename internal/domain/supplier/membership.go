package supplier

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/satguard/backend/internal/domain/shared"
)

// Membership links an RFC (Mexican federal taxpayer registry code) to a
// tenant's supplier roster. The RFC is stored normalized: upper-cased and
// trimmed. Uniqueness is per tenant, so two tenants may watch the same RFC.
type Membership struct {
	shared.TenantEntity
	RFC       string     `gorm:"type:varchar(13);not null;index"`
	Alias     string     `gorm:"type:varchar(200)"`
	Active    bool       `gorm:"not null;default:true;index"`
	GroupID   *uuid.UUID `gorm:"type:uuid;index"`
	Group     *Group     `gorm:"foreignKey:GroupID"`
	StartDate *time.Time `gorm:"type:date"`
	EndDate   *time.Time `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (Membership) TableName() string {
	return "supplier_memberships"
}

// NormalizeRFC upper-cases and trims an RFC candidate.
func NormalizeRFC(rfc string) string {
	return strings.ToUpper(strings.TrimSpace(rfc))
}

// ValidRFC reports whether a normalized RFC has a plausible shape.
// Moral persons carry 12 characters, physical persons 13, all of them
// alphanumeric.
func ValidRFC(rfc string) bool {
	if n := len(rfc); n != 12 && n != 13 {
		return false
	}
	for i := 0; i < len(rfc); i++ {
		c := rfc[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// NewMembership creates an active membership for a tenant. The RFC is
// normalized before validation.
func NewMembership(tenantID uuid.UUID, rfc, alias string) (*Membership, error) {
	rfc = NormalizeRFC(rfc)
	if !ValidRFC(rfc) {
		return nil, shared.NewDomainError("INVALID_RFC", "RFC must be 12 or 13 alphanumeric characters")
	}
	return &Membership{
		TenantEntity: shared.NewTenantEntity(tenantID),
		RFC:          rfc,
		Alias:        strings.TrimSpace(alias),
		Active:       true,
	}, nil
}

// Activate marks the membership active. Callers enforce the burst
// ceiling before flipping the flag.
func (m *Membership) Activate() {
	m.Active = true
}

// Deactivate marks the membership inactive. Always allowed.
func (m *Membership) Deactivate() {
	m.Active = false
}

// AssignGroup places the membership in a group, or clears it when nil.
func (m *Membership) AssignGroup(groupID *uuid.UUID) {
	m.GroupID = groupID
}

// MembershipRepository provides access to supplier memberships
type MembershipRepository interface {
	Save(ctx context.Context, m *Membership) error
	Update(ctx context.Context, m *Membership) error
	Delete(ctx context.Context, tenantID uuid.UUID, rfc string) error
	FindByRFC(ctx context.Context, tenantID uuid.UUID, rfc string) (*Membership, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[Membership], error)
	// FindActiveOrdered returns active memberships ordered by creation
	// time ascending. A nil limit returns all of them.
	FindActiveOrdered(ctx context.Context, tenantID uuid.UUID, limit *int) ([]Membership, error)
	CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountTotal(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
