package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxAttempts int) common.RetryPolicy {
	return common.RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestRunAll_PreservesInputOrder(t *testing.T) {
	exec := NewParallelActionExecutor(time.Second, fastPolicy(1), zerolog.Nop())

	actions := []Action{
		{Name: "slow", Run: func(context.Context) error {
			time.Sleep(30 * time.Millisecond)
			return nil
		}},
		{Name: "fast", Run: func(context.Context) error { return nil }},
		{Name: "medium", Run: func(context.Context) error {
			time.Sleep(10 * time.Millisecond)
			return nil
		}},
	}

	results := exec.RunAll(context.Background(), actions)
	require.Len(t, results, 3)
	assert.Equal(t, "slow", results[0].Name)
	assert.Equal(t, "fast", results[1].Name)
	assert.Equal(t, "medium", results[2].Name)
	for _, r := range results {
		assert.True(t, r.Success)
	}
}

func TestRunAll_FailureIsolation(t *testing.T) {
	exec := NewParallelActionExecutor(time.Second, fastPolicy(2), zerolog.Nop())

	actions := []Action{
		{Name: "broken", Run: func(context.Context) error { return errors.New("boom") }},
		{Name: "healthy", Run: func(context.Context) error { return nil }},
	}

	results := exec.RunAll(context.Background(), actions)
	require.Len(t, results, 2)

	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "boom")
	assert.True(t, results[1].Success, "one failing action must not affect its siblings")
	assert.Empty(t, results[1].Error)
}

func TestRunAll_RetriesTransientFailures(t *testing.T) {
	exec := NewParallelActionExecutor(time.Second, fastPolicy(3), zerolog.Nop())

	var calls int32
	actions := []Action{
		{Name: "flaky", Run: func(context.Context) error {
			if atomic.AddInt32(&calls, 1) < 3 {
				return errors.New("transient")
			}
			return nil
		}},
	}

	results := exec.RunAll(context.Background(), actions)
	assert.True(t, results[0].Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRunAll_FatalErrorStopsRetrying(t *testing.T) {
	exec := NewParallelActionExecutor(time.Second, fastPolicy(3), zerolog.Nop())

	var calls int32
	actions := []Action{
		{Name: "misconfigured", Run: func(context.Context) error {
			atomic.AddInt32(&calls, 1)
			return common.ErrInvalidConfiguration
		}},
	}

	results := exec.RunAll(context.Background(), actions)
	assert.False(t, results[0].Success)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "fatal errors are not retried")
}

func TestRunAll_PerActionPolicyOverride(t *testing.T) {
	// The executor default allows a single attempt; the flaky action carries
	// its own more generous policy and must retry past its two failures.
	exec := NewParallelActionExecutor(time.Second, fastPolicy(1), zerolog.Nop())
	generous := fastPolicy(3)

	var flakyCalls, plainCalls int32
	actions := []Action{
		{Name: "flaky", Policy: &generous, Run: func(context.Context) error {
			if atomic.AddInt32(&flakyCalls, 1) < 3 {
				return errors.New("transient")
			}
			return nil
		}},
		{Name: "plain", Run: func(context.Context) error {
			atomic.AddInt32(&plainCalls, 1)
			return errors.New("transient")
		}},
	}

	results := exec.RunAll(context.Background(), actions)
	require.Len(t, results, 2)

	assert.True(t, results[0].Success, "per-action policy allows three attempts")
	assert.Equal(t, int32(3), atomic.LoadInt32(&flakyCalls))
	assert.False(t, results[1].Success)
	assert.Equal(t, int32(1), atomic.LoadInt32(&plainCalls), "actions without their own policy keep the executor default")
}

func TestRunAll_PerAttemptTimeout(t *testing.T) {
	exec := NewParallelActionExecutor(20*time.Millisecond, fastPolicy(1), zerolog.Nop())

	actions := []Action{
		{Name: "hung", Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
	}

	start := time.Now()
	results := exec.RunAll(context.Background(), actions)
	assert.False(t, results[0].Success)
	assert.Less(t, time.Since(start), time.Second, "hung action must be cut off by the attempt timeout")
}

func TestRunAll_JoinBarrier(t *testing.T) {
	exec := NewParallelActionExecutor(time.Second, fastPolicy(1), zerolog.Nop())

	var done int32
	actions := []Action{
		{Name: "a", Run: func(context.Context) error {
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&done, 1)
			return nil
		}},
		{Name: "b", Run: func(context.Context) error {
			time.Sleep(40 * time.Millisecond)
			atomic.AddInt32(&done, 1)
			return nil
		}},
		{Name: "c", Run: func(context.Context) error {
			atomic.AddInt32(&done, 1)
			return nil
		}},
	}

	_ = exec.RunAll(context.Background(), actions)
	assert.Equal(t, int32(3), atomic.LoadInt32(&done), "RunAll must not return before every action finished")
}

func TestRunAll_EmptyActionList(t *testing.T) {
	exec := NewParallelActionExecutor(time.Second, fastPolicy(1), zerolog.Nop())
	results := exec.RunAll(context.Background(), nil)
	assert.Empty(t, results)
}
