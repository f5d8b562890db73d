package reconciliation

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/satguard/backend/internal/domain/directory"
	"github.com/satguard/backend/internal/domain/identity"
	"github.com/satguard/backend/internal/domain/reconciliation"
	"github.com/satguard/backend/internal/domain/shared"
	"github.com/satguard/backend/internal/domain/supplier"
	"go.uber.org/zap"
)

// lockTTL bounds how long a tenant's reconciliation lock may outlive a
// crashed worker.
const lockTTL = 2 * time.Minute

// Lock is a held per-tenant reconciliation lock
type Lock interface {
	Release(ctx context.Context) error
}

// LockManager serializes reconciliations per tenant. Implementations
// return shared.ErrConcurrencyConflict when the lock is already held.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// RunSummary is the caller-facing digest of a completed run. A
// supplier counts as clean when neither directory lists it; the
// success rate is the matched share of everything processed.
type RunSummary struct {
	RunID            uuid.UUID `json:"run_id"`
	StartedAt        time.Time `json:"started_at"`
	Kind             string    `json:"kind"`
	DirectoryVersion string    `json:"directory_version"`
	Processed        int       `json:"processed"`
	Matched          int       `json:"matched"`
	Regularized      int       `json:"regularized"`
	Clean            int       `json:"clean"`
	SuccessRate      float64   `json:"success_rate"`
	DurationMs       int64     `json:"duration_ms"`
	FromGazette      int       `json:"from_gazette,omitempty"`
	FromBlocklist    int       `json:"from_blocklist,omitempty"`
}

// DetailDTO is one per-RFC result line
type DetailDTO struct {
	RFC          string `json:"rfc"`
	BusinessName string `json:"business_name,omitempty"`
	Status       string `json:"status"`
	Outcome      string `json:"outcome"`
}

// RunReport couples a run's technical summary with its detail lines
type RunReport struct {
	RunID            uuid.UUID   `json:"run_id"`
	StartedAt        time.Time   `json:"started_at"`
	FinishedAt       time.Time   `json:"finished_at"`
	Kind             string      `json:"kind"`
	Status           string      `json:"status"`
	DirectoryVersion string      `json:"directory_version"`
	Processed        int         `json:"processed"`
	Matched          int         `json:"matched"`
	Regularized      int         `json:"regularized"`
	Clean            int         `json:"clean"`
	DurationMs       int64       `json:"duration_ms"`
	Details          []DetailDTO `json:"details"`
}

// HistoryPageDTO is one page of run history plus current-month metrics
type HistoryPageDTO struct {
	Runs         shared.Paginated[RunSummary] `json:"runs"`
	CurrentMonth reconciliation.PeriodStats   `json:"current_month"`
}

// Service runs reconciliations of a tenant's supplier roster against
// the directory snapshots and records the audit trail.
type Service struct {
	runRepo        reconciliation.RunRepository
	membershipRepo supplier.MembershipRepository
	tenantRepo     identity.TenantRepository
	blocklistRepo  directory.BlocklistRepository
	gazetteRepo    directory.GazetteRepository
	uow            shared.UnitOfWork
	locks          LockManager
	logger         *zap.Logger
}

// NewService creates a new reconciliation Service. locks may be nil,
// in which case concurrent runs for one tenant are not serialized.
func NewService(
	runRepo reconciliation.RunRepository,
	membershipRepo supplier.MembershipRepository,
	tenantRepo identity.TenantRepository,
	blocklistRepo directory.BlocklistRepository,
	gazetteRepo directory.GazetteRepository,
	uow shared.UnitOfWork,
	locks LockManager,
	logger *zap.Logger,
) *Service {
	return &Service{
		runRepo:        runRepo,
		membershipRepo: membershipRepo,
		tenantRepo:     tenantRepo,
		blocklistRepo:  blocklistRepo,
		gazetteRepo:    gazetteRepo,
		uow:            uow,
		locks:          locks,
		logger:         logger,
	}
}

func (s *Service) acquireLock(ctx context.Context, tenantID uuid.UUID) (Lock, error) {
	if s.locks == nil {
		return nil, nil
	}
	return s.locks.Acquire(ctx, "reconcile:"+tenantID.String(), lockTTL)
}

func releaseLock(ctx context.Context, lock Lock, logger *zap.Logger) {
	if lock == nil {
		return
	}
	if err := lock.Release(ctx); err != nil {
		logger.Warn("failed to release reconciliation lock", zap.Error(err))
	}
}

// quotaSelection resolves the tenant's plan quota and returns the
// in-quota active memberships, oldest first. A tenant without a plan
// gets a zero quota; a plan without a limit covers the whole roster.
func (s *Service) quotaSelection(ctx context.Context, tenantID uuid.UUID) ([]supplier.Membership, error) {
	tenant, err := s.tenantRepo.FindByIDWithPlan(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	limit := tenant.SupplierLimit()
	if limit != nil && *limit == 0 {
		return nil, nil
	}
	return s.membershipRepo.FindActiveOrdered(ctx, tenantID, limit)
}

// Reconcile checks the tenant's in-quota suppliers against the
// blocklist and records one run with a detail per supplier. The run
// row, its details and the duration patch commit atomically.
func (s *Service) Reconcile(ctx context.Context, tenantID uuid.UUID, kind reconciliation.RunKind) (*RunSummary, error) {
	lock, err := s.acquireLock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer releaseLock(ctx, lock, s.logger)

	memberships, err := s.quotaSelection(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	rfcs := make([]string, len(memberships))
	for i, m := range memberships {
		rfcs[i] = m.RFC
	}

	lookup, err := s.blocklistRepo.LookupByRFCs(ctx, rfcs)
	if err != nil {
		return nil, err
	}
	version, err := s.blocklistRepo.SnapshotVersion(ctx)
	if err != nil {
		return nil, err
	}

	run := reconciliation.NewRun(tenantID, kind, version)
	for _, m := range memberships {
		run.Record(m.RFC, m.Alias, lookup.StatusOf(m.RFC))
	}

	summary, err := s.persistRun(ctx, run)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ReconcileDofPriority checks in-quota suppliers against the gazette
// first and falls back to the blocklist for gazette misses. It fails
// when the quota selects no suppliers.
func (s *Service) ReconcileDofPriority(ctx context.Context, tenantID uuid.UUID) (*RunSummary, error) {
	lock, err := s.acquireLock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer releaseLock(ctx, lock, s.logger)

	memberships, err := s.quotaSelection(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, shared.NewDomainError("NO_SUPPLIERS", "No active suppliers within plan quota")
	}

	rfcs := make([]string, len(memberships))
	for i, m := range memberships {
		rfcs[i] = m.RFC
	}

	gazette, err := s.gazetteRepo.LookupByRFCs(ctx, rfcs)
	if err != nil {
		return nil, err
	}
	misses := make([]string, 0, len(rfcs))
	for _, rfc := range rfcs {
		if _, ok := gazette[rfc]; !ok {
			misses = append(misses, rfc)
		}
	}
	blocklist := directory.Lookup{}
	if len(misses) > 0 {
		blocklist, err = s.blocklistRepo.LookupByRFCs(ctx, misses)
		if err != nil {
			return nil, err
		}
	}

	version, err := s.blocklistRepo.SnapshotVersion(ctx)
	if err != nil {
		return nil, err
	}

	run := reconciliation.NewRun(tenantID, reconciliation.KindDofPriority, version)
	fromGazette, fromBlocklist := 0, 0
	for _, m := range memberships {
		if status, ok := gazette[m.RFC]; ok {
			fromGazette++
			run.Record(m.RFC, m.Alias, status)
			continue
		}
		if status, ok := blocklist[m.RFC]; ok {
			fromBlocklist++
			run.Record(m.RFC, m.Alias, status)
			continue
		}
		run.Record(m.RFC, m.Alias, directory.StatusNotFound)
	}

	summary, err := s.persistRun(ctx, run)
	if err != nil {
		return nil, err
	}
	summary.FromGazette = fromGazette
	summary.FromBlocklist = fromBlocklist
	return summary, nil
}

// ReconcileSpecificRFCs checks an explicit RFC list against the
// blocklist, bypassing the plan quota. Inputs are normalized, deduped
// and sorted; an empty effective list is a validation error.
func (s *Service) ReconcileSpecificRFCs(ctx context.Context, tenantID uuid.UUID, rfcs []string, kind reconciliation.RunKind) (*RunSummary, error) {
	seen := make(map[string]struct{}, len(rfcs))
	normalized := make([]string, 0, len(rfcs))
	for _, rfc := range rfcs {
		n := supplier.NormalizeRFC(rfc)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}
	if len(normalized) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No RFCs to reconcile")
	}
	sort.Strings(normalized)

	lookup, err := s.blocklistRepo.LookupByRFCs(ctx, normalized)
	if err != nil {
		return nil, err
	}
	version, err := s.blocklistRepo.SnapshotVersion(ctx)
	if err != nil {
		return nil, err
	}

	run := reconciliation.NewRun(tenantID, kind, version)
	for _, rfc := range normalized {
		run.Record(rfc, "", lookup.StatusOf(rfc))
	}
	return s.persistRun(ctx, run)
}

// persistRun writes the run, its details and the measured duration in
// one transaction and builds the summary.
func (s *Service) persistRun(ctx context.Context, run *reconciliation.Run) (*RunSummary, error) {
	started := time.Now()
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		if err := s.runRepo.Save(ctx, run); err != nil {
			return err
		}
		if len(run.Details) > 0 {
			if err := s.runRepo.SaveDetails(ctx, run.Details); err != nil {
				return err
			}
		}
		run.DurationMs = time.Since(started).Milliseconds()
		return s.runRepo.SetDuration(ctx, run.ID, run.DurationMs)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reconciliation run completed",
		zap.String("tenant_id", run.TenantID.String()),
		zap.String("run_id", run.ID.String()),
		zap.String("kind", string(run.Kind)),
		zap.Int("processed", run.TotalChecked),
		zap.Int("matches", run.Matches),
		zap.Int64("duration_ms", run.DurationMs),
	)
	return summarize(run), nil
}

func summarize(run *reconciliation.Run) *RunSummary {
	rate := 0.0
	if run.TotalChecked > 0 {
		rate = float64(run.Matches) / float64(run.TotalChecked) * 100
	}
	return &RunSummary{
		RunID:            run.ID,
		StartedAt:        run.CreatedAt,
		Kind:             string(run.Kind),
		DirectoryVersion: run.DirectoryVersion,
		Processed:        run.TotalChecked,
		Matched:          run.Matches,
		Regularized:      run.Regularized,
		Clean:            run.NotFound,
		SuccessRate:      rate,
		DurationMs:       run.DurationMs,
	}
}

// GetRunDetails returns the full report of one run, scoped to the
// owning tenant.
func (s *Service) GetRunDetails(ctx context.Context, tenantID, runID uuid.UUID) (*RunReport, error) {
	run, err := s.runRepo.FindByIDWithDetails(ctx, tenantID, runID)
	if err != nil {
		return nil, err
	}

	details := make([]DetailDTO, len(run.Details))
	for i, d := range run.Details {
		details[i] = DetailDTO{
			RFC:          d.RFC,
			BusinessName: d.BusinessName,
			Status:       d.Status,
			Outcome:      string(d.Outcome),
		}
	}
	return &RunReport{
		RunID:            run.ID,
		StartedAt:        run.CreatedAt,
		FinishedAt:       run.CreatedAt.Add(time.Duration(run.DurationMs) * time.Millisecond),
		Kind:             string(run.Kind),
		Status:           string(run.Status),
		DirectoryVersion: run.DirectoryVersion,
		Processed:        run.TotalChecked,
		Matched:          run.Matches,
		Regularized:      run.Regularized,
		Clean:            run.NotFound,
		DurationMs:       run.DurationMs,
		Details:          details,
	}, nil
}

// HistoryPage returns a page of the tenant's run history, newest
// first, together with the current calendar month's metrics.
func (s *Service) HistoryPage(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*HistoryPageDTO, error) {
	page, err := s.runRepo.FindByTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	stats, err := s.runRepo.StatsBetween(ctx, tenantID, monthStart, now)
	if err != nil {
		return nil, err
	}

	summaries := make([]RunSummary, len(page.Items))
	for i := range page.Items {
		summaries[i] = *summarize(&page.Items[i])
	}
	return &HistoryPageDTO{
		Runs:         shared.NewPaginated(summaries, page.Total, page.Page, page.PageSize),
		CurrentMonth: stats,
	}, nil
}

// LatestRunExport returns the most recent run as flat rows suited for
// spreadsheet export.
func (s *Service) LatestRunExport(ctx context.Context, tenantID uuid.UUID) (*RunReport, error) {
	latest, err := s.runRepo.FindLatest(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.GetRunDetails(ctx, tenantID, latest.ID)
}
