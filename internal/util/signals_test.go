package util

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestWatchSignals(t *testing.T) {
	sigCh := make(chan os.Signal, 2)
	exited := make(chan int, 1)

	ctx := watchSignals(context.Background(), sigCh, func(code int) { exited <- code })

	select {
	case <-ctx.Done():
		t.Fatal("context should not be cancelled before a signal")
	default:
	}

	sigCh <- syscall.SIGINT
	select {
	case <-ctx.Done():
		if ctx.Err() != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", ctx.Err())
		}
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled after the first signal")
	}

	select {
	case code := <-exited:
		t.Fatalf("exit(%d) called after a single signal", code)
	case <-time.After(20 * time.Millisecond):
	}

	sigCh <- syscall.SIGTERM
	select {
	case code := <-exited:
		if code != 1 {
			t.Errorf("expected exit code 1, got %d", code)
		}
	case <-time.After(time.Second):
		t.Fatal("second signal did not force an exit")
	}
}

func TestWatchSignals_ParentCancelled(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := watchSignals(parent, make(chan os.Signal), func(int) {})

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context should follow its parent")
	}
}

func TestSetupSignalHandler(t *testing.T) {
	ctx := SetupSignalHandler()

	go func() {
		time.Sleep(10 * time.Millisecond)
		syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
	}()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled after SIGTERM")
	}
}
