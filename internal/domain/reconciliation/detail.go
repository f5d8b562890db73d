package reconciliation

import (
	"github.com/google/uuid"
	"github.com/satguard/backend/internal/domain/shared"
)

// Detail is the per-RFC result line of a run.
type Detail struct {
	shared.BaseEntity
	RunID        uuid.UUID `gorm:"type:uuid;not null;index"`
	RFC          string    `gorm:"type:varchar(13);not null"`
	BusinessName string    `gorm:"type:varchar(300)"`
	Status       string    `gorm:"type:varchar(200);not null"`
	Outcome      Outcome   `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (Detail) TableName() string {
	return "reconciliation_details"
}
