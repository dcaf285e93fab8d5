package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/docpipe/internal/config"
	"github.com/aleister1102/docpipe/internal/coordinator"
	"github.com/aleister1102/docpipe/internal/datastore"
	"github.com/aleister1102/docpipe/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner records executed runs and can block until its context dies.
type stubRunner struct {
	mu           sync.Mutex
	runs         []coordinator.RunContext
	delay        time.Duration
	blockOnCtx   bool
	resultStatus models.RunStatus
}

func (r *stubRunner) Execute(ctx context.Context, run coordinator.RunContext) *models.RunSummary {
	r.mu.Lock()
	r.runs = append(r.runs, run)
	r.mu.Unlock()

	if r.blockOnCtx {
		<-ctx.Done()
	} else if r.delay > 0 {
		time.Sleep(r.delay)
	}

	status := r.resultStatus
	if status == "" {
		status = models.RunStatusSucceeded
	}
	return &models.RunSummary{
		RunID:          run.ID,
		ProcessingDate: run.ProcessingDate,
		StartTime:      run.StartTime,
		EndTime:        time.Now(),
		Status:         status,
	}
}

func (r *stubRunner) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func newTestHistory(t *testing.T) (*datastore.RunHistory, *datastore.Store) {
	t.Helper()
	store, err := datastore.NewStore(filepath.Join(t.TempDir(), "runs.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return datastore.NewRunHistory(store), store
}

func intervalConfig(seconds int) config.ScheduleConfig {
	cfg := config.NewDefaultScheduleConfig()
	cfg.PollIntervalSeconds = seconds
	cfg.RunOnStart = false
	cfg.ShutdownGraceSecs = 1
	return cfg
}

func TestNewScheduler_Validation(t *testing.T) {
	history, _ := newTestHistory(t)
	runner := &stubRunner{}

	tests := []struct {
		name    string
		mutate  func(*config.ScheduleConfig)
		wantErr bool
	}{
		{name: "interval mode", mutate: func(*config.ScheduleConfig) {}},
		{name: "cron mode", mutate: func(c *config.ScheduleConfig) {
			c.PollIntervalSeconds = 0
			c.PollCron = "0 2 * * *"
		}},
		{name: "invalid cron", mutate: func(c *config.ScheduleConfig) {
			c.PollIntervalSeconds = 0
			c.PollCron = "not a cron"
		}, wantErr: true},
		{name: "unknown timezone", mutate: func(c *config.ScheduleConfig) {
			c.Timezone = "Mars/Olympus"
		}, wantErr: true},
		{name: "neither trigger", mutate: func(c *config.ScheduleConfig) {
			c.PollIntervalSeconds = 0
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := intervalConfig(60)
			tt.mutate(&cfg)
			_, err := NewScheduler(cfg, runner, history, zerolog.Nop())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	history, _ := newTestHistory(t)
	runner := &stubRunner{}

	cfg := intervalConfig(3600)
	cfg.ProcessingDateOverride = "2026-01-15"
	s, err := NewScheduler(cfg, runner, history, zerolog.Nop())
	require.NoError(t, err)

	summary, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, models.RunStatusSucceeded, summary.Status)

	require.Equal(t, 1, runner.runCount())
	assert.Equal(t, "2026-01-15", runner.runs[0].ProcessingDate.Format("2006-01-02"))

	// Start and completion both landed in run history.
	record, err := history.GetRun(summary.RunID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, models.RunStatusSucceeded, record.Status)
}

func TestScheduler_DefaultProcessingDateIsYesterday(t *testing.T) {
	history, _ := newTestHistory(t)
	runner := &stubRunner{}

	s, err := NewScheduler(intervalConfig(3600), runner, history, zerolog.Nop())
	require.NoError(t, err)
	s.nowFunc = func() time.Time {
		return time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	}

	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", runner.runs[0].ProcessingDate.Format("2006-01-02"))
}

func TestScheduler_OneActiveRunInvariant(t *testing.T) {
	history, _ := newTestHistory(t)
	runner := &stubRunner{delay: 100 * time.Millisecond}

	s, err := NewScheduler(intervalConfig(3600), runner, history, zerolog.Nop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = s.RunOnce(context.Background())
		}(i)
	}
	wg.Wait()

	// Exactly one of the two concurrent invocations ran.
	assert.Equal(t, 1, runner.runCount())
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestScheduler_IntervalLoopFires(t *testing.T) {
	history, _ := newTestHistory(t)
	runner := &stubRunner{}

	cfg := intervalConfig(1)
	cfg.RunOnStart = true
	s, err := NewScheduler(cfg, runner, history, zerolog.Nop())
	require.NoError(t, err)
	// Shrink the interval below what the config schema allows to keep the
	// test fast.
	s.interval = 20 * time.Millisecond

	s.Start(context.Background())
	time.Sleep(120 * time.Millisecond)
	s.Stop()

	count := runner.runCount()
	assert.GreaterOrEqual(t, count, 2, "initial run plus at least one interval fire")

	// No further runs after Stop.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, count, runner.runCount())
}

func TestScheduler_StopWaitsForActiveRun(t *testing.T) {
	history, _ := newTestHistory(t)
	runner := &stubRunner{delay: 80 * time.Millisecond}

	cfg := intervalConfig(3600)
	cfg.RunOnStart = true
	s, err := NewScheduler(cfg, runner, history, zerolog.Nop())
	require.NoError(t, err)

	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond) // let the initial run begin
	s.Stop()

	require.Equal(t, 1, runner.runCount())
	record, err := history.GetRun(1)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, models.RunStatusSucceeded, record.Status, "run completed within the grace period")
}

func TestScheduler_AbandonsRunAfterGracePeriod(t *testing.T) {
	history, _ := newTestHistory(t)
	runner := &stubRunner{blockOnCtx: true}

	cfg := intervalConfig(3600)
	cfg.RunOnStart = true
	cfg.ShutdownGraceSecs = 1
	s, err := NewScheduler(cfg, runner, history, zerolog.Nop())
	require.NoError(t, err)

	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond) // let the run block
	s.Stop()

	record, err := history.GetRun(1)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, models.RunStatusFailed, record.Status)
	assert.Contains(t, record.ErrorSummary, "shutdown")
}

func TestScheduler_CronNextFire(t *testing.T) {
	history, _ := newTestHistory(t)
	runner := &stubRunner{}

	cfg := config.NewDefaultScheduleConfig()
	cfg.PollIntervalSeconds = 0
	cfg.PollCron = "0 2 * * *"
	cfg.Timezone = "America/New_York"
	s, err := NewScheduler(cfg, runner, history, zerolog.Nop())
	require.NoError(t, err)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 12:00 UTC on Feb 1 is 07:00 in New York; the next 02:00 local fire is
	// the following day.
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	next := s.nextFire(now)
	assert.True(t, next.Equal(time.Date(2026, 2, 2, 2, 0, 0, 0, ny)), "got %s", next)
}
