// Closes open external connections and background jobs before shutting down Waitingway.
// Inspired from https://medium.com/tokopedia-engineering/gracefully-shutdown-your-go-application-9e7d5c73b5ac

package cleanup

import (
	"Waitingway/pkg/log"
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// operation is a clean up function standard.
type Operation func(ctx context.Context) error

// Used by tests to observe a forced exit instead of terminating the test binary.
var exit = os.Exit

// GracefulShutdown function waits for termination system-calls and performs clean-up operations.
// Signal registration happens before returning so a signal raised right after the call is never lost.
func GracefulShutdown(ctx context.Context, logger log.Logger, timeout time.Duration, operations map[string]Operation) <-chan struct{} {
	wait := make(chan struct{})

	// buffered channel to receive shutdown signal
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		sig := <-s
		signal.Stop(s)

		logger.Warn().Str("signal", sig.String()).Msg("Graceful shutdown in progress.")

		// Force exit after timeout duration has been elapsed
		force := time.AfterFunc(timeout, func() {
			logger.Warn().Msgf("Timeout of %fs has been elapsed. Forcing shutdown!", timeout.Seconds())
			exit(3)
		})
		defer force.Stop()

		// Executing the cleanup operations asynchronously for better performance
		var wg sync.WaitGroup

		for opname, op := range operations {
			// Adding task to be executed asynchronously
			wg.Add(1)
			go func(opname string, op Operation) {
				defer wg.Done()
				logger.Info().Msgf("Shutting down: %s", opname)
				if err := op(ctx); err != nil {
					logger.Error().Err(err).Msgf("%s shutdown failed.", opname)
					return
				}
				logger.Info().Msgf("%s shutdown completed.", opname)
			}(opname, op)
		}
		// Wait for all of the tasks to finish
		wg.Wait()
		close(wait)
	}()

	return wait
}
