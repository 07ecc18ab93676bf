package util

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context cancelled on the first SIGINT or
// SIGTERM. Payloads see the cancellation through their context while the
// batch still gives every item an outcome. A second signal exits the process.
func SetupSignalHandler() context.Context {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return watchSignals(context.Background(), sigCh, os.Exit)
}

// watchSignals cancels the returned context on the first value from sigCh and
// calls exit(1) on the second
func watchSignals(parent context.Context, sigCh <-chan os.Signal, exit func(int)) context.Context {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal, payloads will see a cancelled context", "signal", sig.String())
		cancel()

		sig = <-sigCh
		slog.Warn("received second shutdown signal, forcing exit", "signal", sig.String())
		exit(1)
	}()

	return ctx
}
