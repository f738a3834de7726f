// Package shutdown runs a blocking component and tears it down cleanly
// on SIGINT/SIGTERM. Headless brew sessions use it to stop the control
// server and abandon the session before exiting.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// DefaultTimeout is how long teardown may take before we give up.
const DefaultTimeout = 5 * time.Second

// Run starts runner in a goroutine and blocks until it returns or a
// termination signal arrives. On signal the runner's context is
// cancelled and teardown is called with a timeout-bound context.
func Run(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	runner func(ctx context.Context) error,
	teardown func(ctx context.Context) error,
) error {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- runner(runCtx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig)
		runCancel()

		teardownCtx, teardownCancel := context.WithTimeout(context.Background(), timeout)
		defer teardownCancel()

		if teardown != nil {
			if err := teardown(teardownCtx); err != nil {
				logger.Error("teardown error", "error", err)
			}
		}

		select {
		case err := <-runDone:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		case <-teardownCtx.Done():
			logger.Warn("shutdown timeout exceeded")
		}

		logger.Info("shutdown complete")
		return nil

	case err := <-runDone:
		return err
	}
}
