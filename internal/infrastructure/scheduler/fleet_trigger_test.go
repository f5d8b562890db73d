package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appreconciliation "github.com/satguard/backend/internal/application/reconciliation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	mu      sync.Mutex
	satRuns int
	dofRuns int
	fail    bool
}

func (f *fakeRunner) ReconcileAllTenants(ctx context.Context) (*appreconciliation.FleetResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.satRuns++
	if f.fail {
		return nil, errors.New("boom")
	}
	return &appreconciliation.FleetResult{Tenants: 2, Succeeded: 2}, nil
}

func (f *fakeRunner) ReconcileAllTenantsDofPriority(ctx context.Context) (*appreconciliation.FleetResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dofRuns++
	return &appreconciliation.FleetResult{Tenants: 2, Succeeded: 2}, nil
}

func TestParseDailySchedule(t *testing.T) {
	t.Run("valid schedule", func(t *testing.T) {
		hour, minute, err := ParseDailySchedule("30 6 * * *")
		require.NoError(t, err)
		assert.Equal(t, 6, hour)
		assert.Equal(t, 30, minute)
	})

	t.Run("rejects malformed schedules", func(t *testing.T) {
		_, _, err := ParseDailySchedule("every day at noon")
		require.Error(t, err)
		_, _, err = ParseDailySchedule("99 6 * * *")
		require.Error(t, err)
		_, _, err = ParseDailySchedule("0 25 * * *")
		require.Error(t, err)
	})
}

func TestRunOnce(t *testing.T) {
	t.Run("runs the blocklist pass by default", func(t *testing.T) {
		runner := &fakeRunner{}
		trigger := NewFleetTrigger(DefaultFleetTriggerConfig(), runner, zap.NewNop())
		trigger.RunOnce(context.Background())
		assert.Equal(t, 1, runner.satRuns)
		assert.Equal(t, 0, runner.dofRuns)
	})

	t.Run("runs the gazette-first pass when configured", func(t *testing.T) {
		runner := &fakeRunner{}
		cfg := DefaultFleetTriggerConfig()
		cfg.DofPriority = true
		trigger := NewFleetTrigger(cfg, runner, zap.NewNop())
		trigger.RunOnce(context.Background())
		assert.Equal(t, 1, runner.dofRuns)
	})

	t.Run("runner failure is logged, not fatal", func(t *testing.T) {
		runner := &fakeRunner{fail: true}
		trigger := NewFleetTrigger(DefaultFleetTriggerConfig(), runner, zap.NewNop())
		trigger.RunOnce(context.Background())
		assert.Equal(t, 1, runner.satRuns)
	})
}

func TestStartStop(t *testing.T) {
	runner := &fakeRunner{}
	cfg := DefaultFleetTriggerConfig()
	cfg.CheckInterval = 10 * time.Millisecond
	trigger := NewFleetTrigger(cfg, runner, zap.NewNop())

	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(stopCtx))
	require.NoError(t, trigger.Stop(stopCtx))
}
