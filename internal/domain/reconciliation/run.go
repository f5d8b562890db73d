package reconciliation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/satguard/backend/internal/domain/directory"
	"github.com/satguard/backend/internal/domain/shared"
)

// RunKind labels what triggered a reconciliation run.
type RunKind string

const (
	KindManual        RunKind = "Manual"
	KindAutomatic     RunKind = "Automatic"
	KindDofPriority   RunKind = "DOF + SAT"
	KindExcessPayment RunKind = "Excess-Payment"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusCompleted  RunStatus = "completed"
	StatusInProgress RunStatus = "in_progress"
	StatusError      RunStatus = "error"
)

// Outcome classifies one supplier's directory status.
type Outcome string

const (
	OutcomeMatch       Outcome = "Match"
	OutcomeNoMatch     Outcome = "No match"
	OutcomeRegularized Outcome = "Regularized"
)

// ClassifyStatus maps a raw directory status to an outcome. Statuses
// mentioning a rebuttal or favorable sentence count as regularized
// rather than active matches.
func ClassifyStatus(status string) Outcome {
	if status == directory.StatusNotFound {
		return OutcomeNoMatch
	}
	lower := strings.ToLower(status)
	if strings.Contains(lower, "desvirtuado") || strings.Contains(lower, "sentencia") {
		return OutcomeRegularized
	}
	return OutcomeMatch
}

// Run is one reconciliation pass over a tenant's supplier roster,
// recorded with its aggregate counts. Matches counts every RFC found
// in a directory, regularized ones included; Regularized breaks out
// the rebutted subset.
type Run struct {
	shared.TenantEntity
	Kind             RunKind   `gorm:"type:varchar(30);not null"`
	Status           RunStatus `gorm:"type:varchar(20);not null"`
	DirectoryVersion string    `gorm:"type:varchar(20);not null"`
	TotalChecked     int       `gorm:"not null"`
	Matches          int       `gorm:"not null"`
	Regularized      int       `gorm:"not null"`
	NotFound         int       `gorm:"not null"`
	DurationMs       int64     `gorm:"not null;default:0"`
	Details          []Detail  `gorm:"foreignKey:RunID"`
}

// TableName returns the table name for GORM
func (Run) TableName() string {
	return "reconciliation_runs"
}

// NewRun creates a completed run shell; counts accumulate as details
// are recorded.
func NewRun(tenantID uuid.UUID, kind RunKind, directoryVersion string) *Run {
	return &Run{
		TenantEntity:     shared.NewTenantEntity(tenantID),
		Kind:             kind,
		Status:           StatusCompleted,
		DirectoryVersion: directoryVersion,
	}
}

// Record appends a classified detail and bumps the aggregate counts.
func (r *Run) Record(rfc, businessName, status string) Detail {
	outcome := ClassifyStatus(status)
	r.TotalChecked++
	if outcome == OutcomeNoMatch {
		r.NotFound++
	} else {
		r.Matches++
		if outcome == OutcomeRegularized {
			r.Regularized++
		}
	}
	d := Detail{
		BaseEntity:   shared.NewBaseEntity(),
		RunID:        r.ID,
		RFC:          rfc,
		BusinessName: businessName,
		Status:       status,
		Outcome:      outcome,
	}
	r.Details = append(r.Details, d)
	return d
}

// PeriodStats aggregates run activity over a time window. Average
// duration only counts runs that recorded one.
type PeriodStats struct {
	Runs          int64   `json:"runs" gorm:"column:runs"`
	RFCsChecked   int64   `json:"rfcs_checked" gorm:"column:rfcs_checked"`
	AvgDurationMs float64 `json:"avg_duration_ms" gorm:"column:avg_duration_ms"`
}

// RunRepository provides access to reconciliation runs
type RunRepository interface {
	Save(ctx context.Context, run *Run) error
	SaveDetails(ctx context.Context, details []Detail) error
	SetDuration(ctx context.Context, runID uuid.UUID, durationMs int64) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Run, error)
	FindByIDWithDetails(ctx context.Context, tenantID, id uuid.UUID) (*Run, error)
	FindLatest(ctx context.Context, tenantID uuid.UUID) (*Run, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[Run], error)
	StatsBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (PeriodStats, error)
}
