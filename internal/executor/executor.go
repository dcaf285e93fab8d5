package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/aleister1102/docpipe/internal/models"
	"github.com/rs/zerolog"
)

// Action is one named post-processing step. Policy, when set, replaces the
// executor's default retry policy for this action only.
type Action struct {
	Name   string
	Run    func(ctx context.Context) error
	Policy *common.RetryPolicy
}

// ParallelActionExecutor runs a set of actions concurrently, one goroutine per
// action, each with its own retry loop and per-attempt timeout. A failing
// action never affects its siblings; RunAll returns once every action has
// reached a terminal outcome, with results in input order.
type ParallelActionExecutor struct {
	logger  zerolog.Logger
	policy  common.RetryPolicy
	timeout time.Duration
}

// NewParallelActionExecutor creates an executor with the given per-attempt
// timeout and retry policy.
func NewParallelActionExecutor(timeout time.Duration, policy common.RetryPolicy, logger zerolog.Logger) *ParallelActionExecutor {
	return &ParallelActionExecutor{
		logger:  logger.With().Str("module", "ParallelActionExecutor").Logger(),
		policy:  policy,
		timeout: timeout,
	}
}

// RunAll executes all actions and blocks until each has succeeded or
// exhausted its retries. The result slice is index-aligned with actions.
func (e *ParallelActionExecutor) RunAll(ctx context.Context, actions []Action) []models.ActionResult {
	results := make([]models.ActionResult, len(actions))

	var wg sync.WaitGroup
	for i, action := range actions {
		wg.Add(1)
		go func(idx int, act Action) {
			defer wg.Done()
			results[idx] = e.runOne(ctx, act)
		}(i, action)
	}
	wg.Wait()

	return results
}

func (e *ParallelActionExecutor) runOne(ctx context.Context, action Action) models.ActionResult {
	started := time.Now()

	policy := e.policy
	if action.Policy != nil {
		policy = *action.Policy
	}
	outcome := policy.Execute(ctx, e.logger, action.Name, func(attempt int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		err := action.Run(attemptCtx)
		// An attempt cut off by its own deadline is transient as long as the
		// run context itself is still alive.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return common.WrapErrorf(common.ErrTimeout, "action '%s' attempt %d timed out", action.Name, attempt)
		}
		return err
	})

	result := models.ActionResult{
		Name:     action.Name,
		Success:  outcome.Success,
		Duration: time.Since(started),
	}
	if !outcome.Success {
		if outcome.LastError != nil {
			result.Error = outcome.LastError.Error()
		}
		e.logger.Error().
			Err(outcome.LastError).
			Str("action", action.Name).
			Int("attempts", outcome.Attempts).
			Msg("Post-action failed after retries")
	} else {
		e.logger.Info().
			Str("action", action.Name).
			Int("attempts", outcome.Attempts).
			Dur("duration", result.Duration).
			Msg("Post-action completed")
	}
	return result
}
