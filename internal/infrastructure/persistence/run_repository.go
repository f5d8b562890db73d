package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/satguard/backend/internal/domain/reconciliation"
	"github.com/satguard/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// detailBatchSize bounds the multi-row inserts for run details.
const detailBatchSize = 500

// GormRunRepository implements reconciliation.RunRepository
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GormRunRepository
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// Save persists the run row. Details are inserted separately through
// SaveDetails so large runs go in batches.
func (r *GormRunRepository) Save(ctx context.Context, run *reconciliation.Run) error {
	return dbFrom(ctx, r.db).Omit("Details").Create(run).Error
}

// SaveDetails bulk-inserts run detail lines
func (r *GormRunRepository) SaveDetails(ctx context.Context, details []reconciliation.Detail) error {
	return dbFrom(ctx, r.db).CreateInBatches(details, detailBatchSize).Error
}

// SetDuration patches the measured duration onto a stored run
func (r *GormRunRepository) SetDuration(ctx context.Context, runID uuid.UUID, durationMs int64) error {
	return dbFrom(ctx, r.db).Model(&reconciliation.Run{}).
		Where("id = ?", runID).
		Update("duration_ms", durationMs).Error
}

// FindByID finds a tenant's run by id
func (r *GormRunRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*reconciliation.Run, error) {
	var run reconciliation.Run
	err := dbFrom(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// FindByIDWithDetails finds a run with its detail lines loaded
func (r *GormRunRepository) FindByIDWithDetails(ctx context.Context, tenantID, id uuid.UUID) (*reconciliation.Run, error) {
	var run reconciliation.Run
	err := dbFrom(ctx, r.db).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("rfc ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// FindLatest returns the tenant's most recent run
func (r *GormRunRepository) FindLatest(ctx context.Context, tenantID uuid.UUID) (*reconciliation.Run, error) {
	var run reconciliation.Run
	err := dbFrom(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// FindByTenant returns a page of the tenant's runs, newest first
func (r *GormRunRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[reconciliation.Run], error) {
	db := dbFrom(ctx, r.db)

	var total int64
	if err := db.Model(&reconciliation.Run{}).
		Where("tenant_id = ?", tenantID).
		Count(&total).Error; err != nil {
		return shared.Paginated[reconciliation.Run]{}, err
	}

	var runs []reconciliation.Run
	err := db.
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&runs).Error
	if err != nil {
		return shared.Paginated[reconciliation.Run]{}, err
	}
	return shared.NewPaginated(runs, total, filter.Page, filter.PageSize), nil
}

// StatsBetween aggregates run activity in a window. The average
// duration only counts runs that recorded one.
func (r *GormRunRepository) StatsBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (reconciliation.PeriodStats, error) {
	var stats reconciliation.PeriodStats
	err := dbFrom(ctx, r.db).Model(&reconciliation.Run{}).
		Select(
			"COUNT(*) AS runs",
			"COALESCE(SUM(total_checked), 0) AS rfcs_checked",
			"COALESCE(AVG(duration_ms) FILTER (WHERE duration_ms > 0), 0) AS avg_duration_ms",
		).
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, from, to).
		Scan(&stats).Error
	return stats, err
}
