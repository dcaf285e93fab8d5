package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/aleister1102/docpipe/internal/config"
	"github.com/aleister1102/docpipe/internal/coordinator"
	"github.com/aleister1102/docpipe/internal/datastore"
	"github.com/aleister1102/docpipe/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CycleRunner executes one processing cycle. Satisfied by
// coordinator.CycleCoordinator; stubbed in tests.
type CycleRunner interface {
	Execute(ctx context.Context, run coordinator.RunContext) *models.RunSummary
}

// Scheduler fires processing cycles on a fixed interval or a cron expression.
// At most one run is ever active: a trigger that lands while a run is still
// going is skipped, never queued. Cycles execute synchronously in the loop
// goroutine, so interval mode measures from the end of one run to the start
// of the next trigger check.
type Scheduler struct {
	cfg     config.ScheduleConfig
	logger  zerolog.Logger
	runner  CycleRunner
	history *datastore.RunHistory

	interval     time.Duration
	cronSchedule cron.Schedule
	location     *time.Location

	stopChan  chan struct{}
	stopOnce  sync.Once
	loopWG    sync.WaitGroup
	running   atomic.Bool
	abandoned atomic.Bool

	activeRunID atomic.Int64
	cancelRunMu sync.Mutex
	cancelRun   context.CancelFunc

	// nowFunc is swapped in tests.
	nowFunc func() time.Time
}

// NewScheduler builds a scheduler from the schedule configuration. Exactly one
// of the interval or the cron expression must be set; the configuration
// validator enforces this before the scheduler is constructed, and the parse
// here is the last line of defense.
func NewScheduler(cfg config.ScheduleConfig, runner CycleRunner, history *datastore.RunHistory, logger zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cfg:      cfg,
		logger:   logger.With().Str("module", "Scheduler").Logger(),
		runner:   runner,
		history:  history,
		stopChan: make(chan struct{}),
		nowFunc:  time.Now,
	}

	tz := cfg.Timezone
	if tz == "" {
		tz = config.DefaultTimezone
	}
	location, err := time.LoadLocation(tz)
	if err != nil {
		return nil, common.NewValidationError("timezone", tz, "unknown timezone")
	}
	s.location = location

	switch {
	case cfg.PollCron != "":
		schedule, err := cron.ParseStandard(cfg.PollCron)
		if err != nil {
			return nil, common.NewValidationError("poll_cron", cfg.PollCron, "invalid cron expression")
		}
		s.cronSchedule = schedule
	case cfg.PollIntervalSeconds > 0:
		s.interval = time.Duration(cfg.PollIntervalSeconds) * time.Second
	default:
		return nil, common.WrapError(common.ErrInvalidConfiguration, "either poll_interval_seconds or poll_cron must be set")
	}

	return s, nil
}

// Start runs the scheduling loop until Stop is called or ctx is cancelled.
// It returns immediately; the loop runs in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.loopWG.Add(1)
	go s.loop(ctx)

	s.logger.Info().
		Str("mode", s.mode()).
		Bool("run_on_start", s.cfg.RunOnStart).
		Msg("Scheduler started")
}

func (s *Scheduler) mode() string {
	if s.cronSchedule != nil {
		return "cron"
	}
	return "interval"
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.loopWG.Done()

	if s.cfg.RunOnStart {
		s.trigger(ctx)
	}

	for {
		now := s.nowFunc()
		next := s.nextFire(now)
		wait := next.Sub(now)
		if wait < 0 {
			wait = 0
		}
		s.logger.Info().Time("next_fire", next).Msg("Waiting for next cycle")

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			s.trigger(ctx)
		case <-s.stopChan:
			timer.Stop()
			s.logger.Info().Msg("Scheduler loop stopping")
			return
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("Scheduler context cancelled")
			return
		}
	}
}

// nextFire computes the next trigger time after now.
func (s *Scheduler) nextFire(now time.Time) time.Time {
	if s.cronSchedule != nil {
		return s.cronSchedule.Next(now.In(s.location))
	}
	return now.Add(s.interval)
}

// trigger runs one cycle unless another is already active.
func (s *Scheduler) trigger(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn().Msg("Previous run still active, skipping this trigger")
		return
	}
	defer s.running.Store(false)

	if _, err := s.runCycle(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Cycle could not be started")
	}
}

// runCycle resolves the processing date, records the run, executes it and
// records completion. Returns the summary for callers that want it.
func (s *Scheduler) runCycle(ctx context.Context) (*models.RunSummary, error) {
	startTime := s.nowFunc()
	processingDate, err := coordinator.ResolveProcessingDate(s.cfg.ProcessingDateOverride, startTime.In(s.location))
	if err != nil {
		return nil, err
	}

	runID, err := s.history.RecordRunStart(processingDate, startTime)
	if err != nil {
		return nil, err
	}
	s.activeRunID.Store(runID)

	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunMu.Lock()
	s.cancelRun = cancel
	s.cancelRunMu.Unlock()
	defer func() {
		s.cancelRunMu.Lock()
		s.cancelRun = nil
		s.cancelRunMu.Unlock()
		cancel()
	}()

	s.logger.Info().
		Int64("run_id", runID).
		Str("processing_date", processingDate.Format("2006-01-02")).
		Msg("Starting processing cycle")

	summary := s.runner.Execute(runCtx, coordinator.RunContext{
		ID:             runID,
		ProcessingDate: processingDate,
		StartTime:      startTime,
	})
	s.activeRunID.Store(0)

	// A run abandoned during shutdown was already marked Failed by Stop.
	if s.abandoned.Load() {
		return summary, nil
	}
	if err := s.history.RecordRunCompletion(summary); err != nil {
		s.logger.Error().Err(err).Int64("run_id", runID).Msg("Failed to record run completion")
	}
	return summary, nil
}

// RunOnce executes a single cycle immediately, bypassing the loop. Used by
// one-shot invocations; respects the same one-active-run invariant.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.RunSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, common.NewError("a run is already active")
	}
	defer s.running.Store(false)
	return s.runCycle(ctx)
}

// Stop prevents new triggers and waits for an active run to finish, up to the
// configured grace period. A run still going after the grace period is marked
// Failed with reason "shutdown" and its context is cancelled.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })

	grace := time.Duration(s.cfg.ShutdownGraceSecs) * time.Second
	if grace <= 0 {
		grace = time.Duration(config.DefaultShutdownGraceSecs) * time.Second
	}

	done := make(chan struct{})
	go func() {
		s.loopWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Scheduler stopped cleanly")
		return
	case <-time.After(grace):
	}

	// Grace expired with a run still active: abandon it.
	s.abandoned.Store(true)
	if runID := s.activeRunID.Load(); runID != 0 {
		s.markAbandoned(runID)
	}
	s.cancelRunMu.Lock()
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.cancelRunMu.Unlock()

	<-done
	s.logger.Warn().Msg("Scheduler stopped after abandoning the active run")
}

// markAbandoned fails the run row only if it is still ACTIVE, so a run that
// completed at the edge of the grace period keeps its own terminal status.
func (s *Scheduler) markAbandoned(runID int64) {
	updated, err := s.history.MarkRunAbandoned(runID, s.nowFunc(), "shutdown")
	if err != nil {
		s.logger.Error().Err(err).Int64("run_id", runID).Msg("Failed to mark abandoned run")
		return
	}
	if !updated {
		s.logger.Info().Int64("run_id", runID).Msg("Run completed before it could be abandoned")
	}
}
