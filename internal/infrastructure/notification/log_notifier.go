package notification

import (
	"context"

	appreconciliation "github.com/satguard/backend/internal/application/reconciliation"
	"github.com/satguard/backend/internal/domain/identity"
	"go.uber.org/zap"
)

// LogNotifier records run notifications in the log instead of sending
// them anywhere. It stands in for the mail transport, which lives
// outside this service.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notifier")}
}

// NotifyRunCompleted logs the run summary addressed to the tenant
func (n *LogNotifier) NotifyRunCompleted(ctx context.Context, tenant identity.Tenant, summary appreconciliation.RunSummary) error {
	n.logger.Info("reconciliation summary notification",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("business_name", tenant.BusinessName),
		zap.String("email", tenant.Email),
		zap.String("run_id", summary.RunID.String()),
		zap.Int("processed", summary.Processed),
		zap.Int("matched", summary.Matched),
		zap.Int("clean", summary.Clean),
	)
	return nil
}
