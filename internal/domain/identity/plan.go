package identity

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BurstAllowance is the fraction of the contracted supplier limit a
// tenant may temporarily exceed before activations are rejected.
const BurstAllowance = 0.15

// Plan represents a subscription tier. SupplierLimit is the contracted
// number of suppliers covered by each reconciliation; nil means the
// plan imposes no limit.
type Plan struct {
	ID            int             `gorm:"primaryKey"`
	Name          string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	SupplierLimit *int
	MonthlyPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Active        bool            `gorm:"not null;default:true"`
	AutoReconcile bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Plan) TableName() string {
	return "plans"
}

// BurstLimit computes the activation ceiling for a contracted limit:
// the limit plus 15 percent, truncated.
func BurstLimit(supplierLimit int) int {
	return supplierLimit + int(float64(supplierLimit)*BurstAllowance)
}

// PlanRepository provides access to subscription plans
type PlanRepository interface {
	FindByID(ctx context.Context, id int) (*Plan, error)
	FindAll(ctx context.Context) ([]Plan, error)
}
