// Periodic execution of background jobs with a per-run timeout and cooperative cancellation.

package cron

import (
	"Waitingway/internal/metrics"
	"Waitingway/pkg/log"
	"context"
	"time"

	"github.com/pkg/errors"
)

// Timeout applied to a run when the job doesn't ask for one.
const DefaultTimeout = 30 * time.Second

// Job is a unit of background work scheduled by the Runner.
type Job interface {
	// Name used in logs and metrics
	Name() string
	// Time to sleep between the end of one run and the start of the next one
	Period() time.Duration
	// Budget of a single run, zero selects DefaultTimeout
	Timeout() time.Duration
	// Run performs one pass, it is expected to return soon after ctx is done
	Run(ctx context.Context) error
}

// Runner drives every scheduled Job of Waitingway.
type Runner struct {
	logger  log.Logger
	metrics *metrics.Metrics
}

func NewRunner(logger log.Logger, m *metrics.Metrics) *Runner {
	return &Runner{logger: logger, metrics: m}
}

// Schedule starts job in the background and returns a channel closed once its loop has ended.
// The loop ends when ctx is done, a run in flight is asked to stop through its child context.
func (r *Runner) Schedule(ctx context.Context, job Job) <-chan struct{} {
	done := make(chan struct{})
	logger := r.logger.With("job", job.Name())
	go func() {
		defer close(done)
		for {
			r.runOnce(ctx, logger, job)

			select {
			case <-ctx.Done():
				logger.Info().Msg("Cron job stopped")
				return
			case <-time.After(job.Period()):
			}
		}
	}()
	return done
}

// Helper running a single pass of job, raced against its timeout.
func (r *Runner) runOnce(ctx context.Context, logger log.Logger, job Job) {
	timeout := job.Timeout()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger.Info().Msg("Running cron job")
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so a body finishing after the timeout never blocks
	result := make(chan error, 1)
	start := time.Now()
	go func() {
		result <- job.Run(runCtx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var err error
	timedOut := false
	select {
	case err = <-result:
	case <-timer.C:
		// Ask the body to wind down, it is not waited on any longer
		cancel()
		timedOut = true
		logger.Error().Dur("timeout", timeout).Msg("Cron job timed out")
	}

	elapsed := time.Since(start)
	r.metrics.CronRunDuration.WithLabelValues(job.Name()).Observe(elapsed.Seconds())
	logger.Info().Dur("took", elapsed).Msg("Cron job finished")

	outcome := metrics.OutcomeSuccess
	switch {
	case timedOut:
		outcome = metrics.OutcomeTimeout
	case runCtx.Err() != nil || errors.Is(err, context.Canceled):
		outcome = metrics.OutcomeCancelled
		logger.Warn().Msg("Cron job was cancelled")
	case err != nil:
		outcome = metrics.OutcomeFailure
		logger.Error().Err(err).Msg("Cron job failed")
	}
	r.metrics.CronRunsTotal.WithLabelValues(job.Name(), outcome).Inc()
}
