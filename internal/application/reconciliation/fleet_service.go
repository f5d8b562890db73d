package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/satguard/backend/internal/domain/identity"
	"github.com/satguard/backend/internal/domain/reconciliation"
	"go.uber.org/zap"
)

// Notifier delivers a run summary to a tenant after a fleet pass.
type Notifier interface {
	NotifyRunCompleted(ctx context.Context, tenant identity.Tenant, summary RunSummary) error
}

// TenantResult is the per-tenant outcome of a fleet pass
type TenantResult struct {
	TenantID     uuid.UUID  `json:"tenant_id"`
	BusinessName string     `json:"business_name"`
	RunID        *uuid.UUID `json:"run_id"`
	Processed    int        `json:"processed"`
	Matched      int        `json:"matched"`
	Clean        int        `json:"clean"`
	Status       string     `json:"status"`
}

// FleetResult aggregates a pass over every active tenant
type FleetResult struct {
	Tenants   int            `json:"tenants"`
	Processed int            `json:"processed"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Results   []TenantResult `json:"results"`
}

// FleetService reconciles every active tenant in sequence. One
// tenant's failure never interrupts the rest of the fleet.
type FleetService struct {
	svc        *Service
	tenantRepo identity.TenantRepository
	notifier   Notifier
	logger     *zap.Logger
}

// NewFleetService creates a new FleetService. notifier may be nil.
func NewFleetService(svc *Service, tenantRepo identity.TenantRepository, notifier Notifier, logger *zap.Logger) *FleetService {
	return &FleetService{
		svc:        svc,
		tenantRepo: tenantRepo,
		notifier:   notifier,
		logger:     logger,
	}
}

// ReconcileAllTenants runs a blocklist reconciliation for every active
// tenant, recording each run as Automatic.
func (s *FleetService) ReconcileAllTenants(ctx context.Context) (*FleetResult, error) {
	return s.runFleet(ctx, func(ctx context.Context, tenantID uuid.UUID) (*RunSummary, error) {
		return s.svc.Reconcile(ctx, tenantID, reconciliation.KindAutomatic)
	})
}

// ReconcileAllTenantsDofPriority runs the gazette-first variant for
// every active tenant.
func (s *FleetService) ReconcileAllTenantsDofPriority(ctx context.Context) (*FleetResult, error) {
	return s.runFleet(ctx, func(ctx context.Context, tenantID uuid.UUID) (*RunSummary, error) {
		return s.svc.ReconcileDofPriority(ctx, tenantID)
	})
}

func (s *FleetService) runFleet(ctx context.Context, reconcile func(context.Context, uuid.UUID) (*RunSummary, error)) (*FleetResult, error) {
	tenants, err := s.tenantRepo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}

	result := &FleetResult{
		Tenants: len(tenants),
		Results: make([]TenantResult, 0, len(tenants)),
	}
	for _, tenant := range tenants {
		summary, err := reconcile(ctx, tenant.ID)
		if err != nil {
			s.logger.Error("fleet reconciliation failed for tenant",
				zap.String("tenant_id", tenant.ID.String()),
				zap.Error(err),
			)
			result.Failed++
			result.Results = append(result.Results, TenantResult{
				TenantID:     tenant.ID,
				BusinessName: tenant.BusinessName,
				Status:       "error: " + err.Error(),
			})
			continue
		}

		result.Succeeded++
		result.Processed += summary.Processed
		runID := summary.RunID
		result.Results = append(result.Results, TenantResult{
			TenantID:     tenant.ID,
			BusinessName: tenant.BusinessName,
			RunID:        &runID,
			Processed:    summary.Processed,
			Matched:      summary.Matched,
			Clean:        summary.Clean,
			Status:       "completed",
		})

		if s.notifier != nil {
			if err := s.notifier.NotifyRunCompleted(ctx, tenant, *summary); err != nil {
				s.logger.Warn("run notification failed",
					zap.String("tenant_id", tenant.ID.String()),
					zap.Error(err),
				)
			}
		}
	}

	s.logger.Info("fleet reconciliation finished",
		zap.Int("tenants", result.Tenants),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}
