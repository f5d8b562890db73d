package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	appreconciliation "github.com/satguard/backend/internal/application/reconciliation"
	"go.uber.org/zap"
)

// FleetRunner kicks off a reconciliation pass over every active tenant.
type FleetRunner interface {
	ReconcileAllTenants(ctx context.Context) (*appreconciliation.FleetResult, error)
	ReconcileAllTenantsDofPriority(ctx context.Context) (*appreconciliation.FleetResult, error)
}

// FleetTriggerConfig holds configuration for the daily fleet trigger
type FleetTriggerConfig struct {
	Hour          int
	Minute        int
	DofPriority   bool
	JobTimeout    time.Duration
	CheckInterval time.Duration
}

// DefaultFleetTriggerConfig returns the default trigger configuration
func DefaultFleetTriggerConfig() FleetTriggerConfig {
	return FleetTriggerConfig{
		Hour:          6,
		Minute:        0,
		JobTimeout:    30 * time.Minute,
		CheckInterval: time.Minute,
	}
}

// ParseDailySchedule reads the minute and hour fields of a cron
// expression like "0 6 * * *". Only daily schedules are supported.
func ParseDailySchedule(schedule string) (hour, minute int, err error) {
	fields := strings.Fields(schedule)
	if len(fields) != 5 {
		return 0, 0, fmt.Errorf("invalid cron schedule %q", schedule)
	}
	minute, err = strconv.Atoi(fields[0])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in schedule %q", schedule)
	}
	hour, err = strconv.Atoi(fields[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in schedule %q", schedule)
	}
	return hour, minute, nil
}

// FleetTrigger runs the fleet reconciliation once per day at the
// configured time.
type FleetTrigger struct {
	config FleetTriggerConfig
	runner FleetRunner
	logger *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewFleetTrigger creates a new FleetTrigger
func NewFleetTrigger(config FleetTriggerConfig, runner FleetRunner, logger *zap.Logger) *FleetTrigger {
	if config.CheckInterval == 0 {
		config.CheckInterval = time.Minute
	}
	return &FleetTrigger{
		config: config,
		runner: runner,
		logger: logger.Named("scheduler"),
	}
}

// Start starts the trigger loop
func (t *FleetTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Fleet trigger started",
		zap.Int("hour", t.config.Hour),
		zap.Int("minute", t.config.Minute),
		zap.Bool("dof_priority", t.config.DofPriority),
	)
	return nil
}

// Stop stops the trigger and waits for an in-flight pass to finish
func (t *FleetTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Fleet trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *FleetTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx)
		}
	}
}

func (t *FleetTrigger) checkAndTrigger(ctx context.Context) {
	now := time.Now()
	currentDate := now.Format("2006-01-02")

	t.mu.Lock()
	alreadyRan := t.lastRunDate == currentDate
	t.mu.Unlock()
	if alreadyRan {
		return
	}
	if now.Hour() != t.config.Hour || now.Minute() != t.config.Minute {
		return
	}

	t.mu.Lock()
	t.lastRunDate = currentDate
	t.mu.Unlock()

	t.RunOnce(ctx)
}

// RunOnce executes one fleet pass immediately, bounded by the job
// timeout.
func (t *FleetTrigger) RunOnce(ctx context.Context) {
	runCtx := ctx
	if t.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.config.JobTimeout)
		defer cancel()
	}

	t.logger.Info("Starting scheduled fleet reconciliation")
	var result *appreconciliation.FleetResult
	var err error
	if t.config.DofPriority {
		result, err = t.runner.ReconcileAllTenantsDofPriority(runCtx)
	} else {
		result, err = t.runner.ReconcileAllTenants(runCtx)
	}
	if err != nil {
		t.logger.Error("Scheduled fleet reconciliation failed", zap.Error(err))
		return
	}
	t.logger.Info("Scheduled fleet reconciliation finished",
		zap.Int("tenants", result.Tenants),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
}
