package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunReturnsRunnerError(t *testing.T) {
	want := errors.New("boom")
	err := Run(context.Background(), discardLogger(), time.Second,
		func(ctx context.Context) error { return want },
		nil,
	)
	if !errors.Is(err, want) {
		t.Errorf("Run returned %v, want %v", err, want)
	}
}

func TestRunReturnsNilOnCleanExit(t *testing.T) {
	err := Run(context.Background(), discardLogger(), time.Second,
		func(ctx context.Context) error { return nil },
		nil,
	)
	if err != nil {
		t.Errorf("Run returned %v, want nil", err)
	}
}

func TestRunSignalTriggersTeardown(t *testing.T) {
	var tornDown atomic.Bool

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), discardLogger(), time.Second,
			func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
			func(ctx context.Context) error {
				tornDown.Store(true)
				return nil
			},
		)
	}()

	// Give Run a moment to install its signal handler.
	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("sending signal: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v after signal, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after signal")
	}

	if !tornDown.Load() {
		t.Error("teardown was not called")
	}
}

func TestRunContextCancelStopsRunner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, discardLogger(), time.Second,
			func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
			nil,
		)
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}
}
