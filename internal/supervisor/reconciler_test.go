package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestReconcilerServiceRunsImmediatelyAndOnTick(t *testing.T) {
	var calls atomic.Int32
	svc := &reconcilerService{
		reconcile: func(ctx context.Context) error {
			calls.Add(1)
			return nil
		},
		interval: 5 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve() error = %v, want context.DeadlineExceeded", err)
	}
	if calls.Load() < 2 {
		t.Fatalf("reconcile called %d times, want at least 2 (immediate + at least one tick)", calls.Load())
	}
}

func TestReconcilerServiceSurvivesReconcileError(t *testing.T) {
	var calls atomic.Int32
	svc := &reconcilerService{
		reconcile: func(ctx context.Context) error {
			calls.Add(1)
			return errors.New("transient library db hiccup")
		},
		interval: 5 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_ = svc.Serve(ctx)
	if calls.Load() < 2 {
		t.Fatalf("reconcile called %d times after errors, want retries to continue", calls.Load())
	}
}

func TestSupervisorStartStop(t *testing.T) {
	var calls atomic.Int32
	sup := NewReconciler(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, 5*time.Millisecond)

	done := sup.ServeBackground(context.Background())
	time.Sleep(20 * time.Millisecond)
	sup.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop within timeout")
	}
	if calls.Load() == 0 {
		t.Fatal("reconcile was never called before Stop")
	}
}
