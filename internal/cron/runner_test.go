package cron

import (
	"Waitingway/internal/metrics"
	"Waitingway/pkg/log"
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger log.Logger = log.NewWithWriter("test", io.Discard)

// Job stub counting its runs.
type stubJob struct {
	period  time.Duration
	timeout time.Duration
	runs    atomic.Int32
	body    func(ctx context.Context) error
}

func (j *stubJob) Name() string           { return "stub" }
func (j *stubJob) Period() time.Duration  { return j.period }
func (j *stubJob) Timeout() time.Duration { return j.timeout }
func (j *stubJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.body(ctx)
}

func newRunner() (*Runner, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewRunner(logger, m), m
}

// Helper to wait on a scheduled loop without hanging the test run.
func awaitDone(t *testing.T, done <-chan struct{}) {
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cron loop did not stop")
	}
}

func TestRunnerTimesOutAndRunsAgain(t *testing.T) {
	runner, m := newRunner()
	hang := make(chan struct{})
	defer close(hang)

	job := &stubJob{
		period:  20 * time.Millisecond,
		timeout: 50 * time.Millisecond,
		// Never returns on its own, not even on cancellation
		body: func(ctx context.Context) error {
			<-hang
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	done := runner.Schedule(ctx, job)

	require.Eventually(t, func() bool { return job.runs.Load() >= 2 }, 3*time.Second, 5*time.Millisecond)
	// Second run can only start after the first timeout plus one period
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.CronRunsTotal.WithLabelValues("stub", metrics.OutcomeTimeout)), float64(1))

	cancel()
	awaitDone(t, done)
}

func TestRunnerCancelsChildContextOnTimeout(t *testing.T) {
	runner, m := newRunner()
	observed := make(chan error, 1)
	job := &stubJob{
		period:  time.Hour,
		timeout: 30 * time.Millisecond,
		body: func(ctx context.Context) error {
			<-ctx.Done()
			observed <- ctx.Err()
			return ctx.Err()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := runner.Schedule(ctx, job)

	select {
	case err := <-observed:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("run body was never cancelled")
	}
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.CronRunsTotal.WithLabelValues("stub", metrics.OutcomeTimeout)) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	awaitDone(t, done)
}

func TestRunnerStopsRunAtTimeout(t *testing.T) {
	runner, m := newRunner()
	const timeout = 40 * time.Millisecond
	stoppedAfter := make(chan time.Duration, 1)
	job := &stubJob{
		period:  time.Hour,
		timeout: timeout,
		body: func(ctx context.Context) error {
			start := time.Now()
			<-ctx.Done()
			stoppedAfter <- time.Since(start)
			return ctx.Err()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := runner.Schedule(ctx, job)

	select {
	case elapsed := <-stoppedAfter:
		assert.GreaterOrEqual(t, elapsed, timeout)
		assert.LessOrEqual(t, elapsed, timeout+50*time.Millisecond)
	case <-time.After(3 * time.Second):
		t.Fatal("run body was never cancelled")
	}
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.CronRunsTotal.WithLabelValues("stub", metrics.OutcomeTimeout)) == 1
	}, time.Second, time.Millisecond)

	cancel()
	awaitDone(t, done)
}

func TestRunnerKeepsGoingAfterFailure(t *testing.T) {
	runner, m := newRunner()
	job := &stubJob{
		period: 10 * time.Millisecond,
		body:   func(ctx context.Context) error { return errors.New("lobby unreachable") },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := runner.Schedule(ctx, job)

	require.Eventually(t, func() bool { return job.runs.Load() >= 3 }, 3*time.Second, 5*time.Millisecond)
	cancel()
	awaitDone(t, done)

	assert.GreaterOrEqual(t, testutil.ToFloat64(m.CronRunsTotal.WithLabelValues("stub", metrics.OutcomeFailure)), float64(3))
}

func TestRunnerStopsBetweenPeriods(t *testing.T) {
	runner, _ := newRunner()
	job := &stubJob{
		period: 100 * time.Millisecond,
		body:   func(ctx context.Context) error { return nil },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := runner.Schedule(ctx, job)

	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 2*time.Millisecond)
	cancel()
	awaitDone(t, done)

	// One more period of wall clock must not start another run
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestRunnerDefaultTimeout(t *testing.T) {
	runner, m := newRunner()
	job := &stubJob{
		period: time.Hour,
		body:   func(ctx context.Context) error { return nil },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := runner.Schedule(ctx, job)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.CronRunsTotal.WithLabelValues("stub", metrics.OutcomeSuccess)) == 1
	}, time.Second, 2*time.Millisecond)

	cancel()
	awaitDone(t, done)
}
