package supplier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/satguard/backend/internal/domain/identity"
	"github.com/satguard/backend/internal/domain/shared"
	"github.com/satguard/backend/internal/domain/supplier"
	"go.uber.org/zap"
)

// Batch result statuses reported per input RFC, in input order.
const (
	BatchStatusAdded         = "added"
	BatchStatusAddedInactive = "added as INACTIVE (burst limit reached)"
	BatchStatusExists        = "already exists"
	BatchStatusInvalid       = "invalid RFC"
)

// BatchItem is one RFC submitted through the batch endpoint
type BatchItem struct {
	RFC   string `json:"rfc" binding:"required"`
	Alias string `json:"alias"`
}

// ImportRow is one row of a supplier file import. Unlike the plain
// batch, rows carry roster metadata that updates existing memberships.
type ImportRow struct {
	RFC       string     `json:"rfc"`
	Alias     string     `json:"alias"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// BatchItemResult reports what happened to one input RFC
type BatchItemResult struct {
	RFC          string     `json:"rfc"`
	Status       string     `json:"status"`
	MembershipID *uuid.UUID `json:"membership_id,omitempty"`
}

// BatchResult aggregates a batch add
type BatchResult struct {
	Results  []BatchItemResult `json:"results"`
	Added    int               `json:"added"`
	Inactive int               `json:"inactive"`
	Existing int               `json:"existing"`
	Invalid  int               `json:"invalid"`
}

// MembershipService manages the tenant supplier roster and enforces
// the plan burst ceiling on activations.
type MembershipService struct {
	membershipRepo supplier.MembershipRepository
	groupRepo      supplier.GroupRepository
	tenantRepo     identity.TenantRepository
	logger         *zap.Logger
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(
	membershipRepo supplier.MembershipRepository,
	groupRepo supplier.GroupRepository,
	tenantRepo identity.TenantRepository,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{
		membershipRepo: membershipRepo,
		groupRepo:      groupRepo,
		tenantRepo:     tenantRepo,
		logger:         logger,
	}
}

// burstCeiling resolves the activation ceiling for a tenant. A nil
// result means the plan imposes no ceiling.
func (s *MembershipService) burstCeiling(ctx context.Context, tenantID uuid.UUID) (*int, error) {
	tenant, err := s.tenantRepo.FindByIDWithPlan(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	limit := tenant.SupplierLimit()
	if limit == nil {
		return nil, nil
	}
	ceiling := identity.BurstLimit(*limit)
	return &ceiling, nil
}

// AddBatch registers a list of RFCs for a tenant. RFCs are normalized
// before anything else; malformed ones are reported, not fatal.
// Existing memberships are left untouched. New memberships start
// active while the fresh active count stays under the burst ceiling
// and inactive afterwards. The batch itself never fails on the
// ceiling.
func (s *MembershipService) AddBatch(ctx context.Context, tenantID uuid.UUID, items []BatchItem) (*BatchResult, error) {
	rows := make([]ImportRow, len(items))
	for i, it := range items {
		rows[i] = ImportRow{RFC: it.RFC, Alias: it.Alias}
	}
	return s.addRows(ctx, tenantID, rows, false)
}

// AddBatchFromFile registers imported rows. Same rules as AddBatch,
// except existing memberships get their alias and coverage dates
// refreshed from the row.
func (s *MembershipService) AddBatchFromFile(ctx context.Context, tenantID uuid.UUID, rows []ImportRow) (*BatchResult, error) {
	return s.addRows(ctx, tenantID, rows, true)
}

func (s *MembershipService) addRows(ctx context.Context, tenantID uuid.UUID, rows []ImportRow, updateExisting bool) (*BatchResult, error) {
	ceiling, err := s.burstCeiling(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	active, err := s.membershipRepo.CountActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Results: make([]BatchItemResult, 0, len(rows))}
	for _, row := range rows {
		rfc := supplier.NormalizeRFC(row.RFC)
		if !supplier.ValidRFC(rfc) {
			result.Invalid++
			result.Results = append(result.Results, BatchItemResult{RFC: rfc, Status: BatchStatusInvalid})
			continue
		}

		existing, err := s.membershipRepo.FindByRFC(ctx, tenantID, rfc)
		if err != nil && err != shared.ErrNotFound {
			return nil, err
		}
		if existing != nil {
			if updateExisting {
				existing.Alias = row.Alias
				existing.StartDate = row.StartDate
				existing.EndDate = row.EndDate
				if err := s.membershipRepo.Update(ctx, existing); err != nil {
					return nil, err
				}
			}
			result.Existing++
			result.Results = append(result.Results, BatchItemResult{
				RFC:          rfc,
				Status:       BatchStatusExists,
				MembershipID: &existing.ID,
			})
			continue
		}

		m, err := supplier.NewMembership(tenantID, rfc, row.Alias)
		if err != nil {
			result.Invalid++
			result.Results = append(result.Results, BatchItemResult{RFC: rfc, Status: BatchStatusInvalid})
			continue
		}
		m.StartDate = row.StartDate
		m.EndDate = row.EndDate

		status := BatchStatusAdded
		if ceiling != nil && active >= int64(*ceiling) {
			m.Deactivate()
			status = BatchStatusAddedInactive
			result.Inactive++
		} else {
			active++
			result.Added++
		}

		if err := s.membershipRepo.Save(ctx, m); err != nil {
			return nil, err
		}
		result.Results = append(result.Results, BatchItemResult{
			RFC:          rfc,
			Status:       status,
			MembershipID: &m.ID,
		})
	}

	s.logger.Info("supplier batch processed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("added", result.Added),
		zap.Int("inactive", result.Inactive),
		zap.Int("existing", result.Existing),
		zap.Int("invalid", result.Invalid),
	)
	return result, nil
}

// SetActive flips a membership's active flag. Activation re-checks the
// burst ceiling against the current active count; deactivation is
// always allowed.
func (s *MembershipService) SetActive(ctx context.Context, tenantID uuid.UUID, rfc string, active bool) (*supplier.Membership, error) {
	m, err := s.membershipRepo.FindByRFC(ctx, tenantID, supplier.NormalizeRFC(rfc))
	if err != nil {
		return nil, err
	}

	if !active {
		m.Deactivate()
		if err := s.membershipRepo.Update(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	}

	if m.Active {
		return m, nil
	}

	ceiling, err := s.burstCeiling(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if ceiling != nil {
		current, err := s.membershipRepo.CountActive(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if current >= int64(*ceiling) {
			return nil, shared.ErrBurstLimitExceeded
		}
	}

	m.Activate()
	if err := s.membershipRepo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SetGroup assigns a membership to a group resolved by name, creating
// the group when no case-insensitive match exists. A nil name clears
// the assignment.
func (s *MembershipService) SetGroup(ctx context.Context, tenantID uuid.UUID, rfc string, groupName *string) (*supplier.Membership, error) {
	m, err := s.membershipRepo.FindByRFC(ctx, tenantID, supplier.NormalizeRFC(rfc))
	if err != nil {
		return nil, err
	}

	if groupName == nil {
		m.AssignGroup(nil)
		if err := s.membershipRepo.Update(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	}

	group, err := s.groupRepo.FindByNameFold(ctx, tenantID, *groupName)
	if err != nil && err != shared.ErrNotFound {
		return nil, err
	}
	if group == nil {
		group, err = supplier.NewGroup(tenantID, *groupName)
		if err != nil {
			return nil, err
		}
		if err := s.groupRepo.Save(ctx, group); err != nil {
			return nil, err
		}
	}

	m.AssignGroup(&group.ID)
	if err := s.membershipRepo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a membership permanently
func (s *MembershipService) Delete(ctx context.Context, tenantID uuid.UUID, rfc string) error {
	normalized := supplier.NormalizeRFC(rfc)
	if _, err := s.membershipRepo.FindByRFC(ctx, tenantID, normalized); err != nil {
		return err
	}
	return s.membershipRepo.Delete(ctx, tenantID, normalized)
}

// List returns a page of the tenant's roster
func (s *MembershipService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[supplier.Membership], error) {
	return s.membershipRepo.FindByTenant(ctx, tenantID, filter)
}
