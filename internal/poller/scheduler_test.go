package poller

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopJob(context.Context) {}

// TestScheduler_StopBeforeStart verifies that calling Stop() on a scheduler
// that was never started does not panic and is a safe no-op.
func TestScheduler_StopBeforeStart(t *testing.T) {
	scheduler := NewScheduler(time.Minute, noopJob, testLogger())

	// this must not panic
	scheduler.Stop()
}

// TestScheduler_StopTwice verifies that Stop() is idempotent.
func TestScheduler_StopTwice(t *testing.T) {
	scheduler := NewScheduler(time.Minute, noopJob, testLogger())
	scheduler.Start(context.Background())

	scheduler.Stop()
	scheduler.Stop()
}

// TestScheduler_StartTwice verifies that Start() is idempotent and calling
// it multiple times does not spawn multiple loops.
func TestScheduler_StartTwice(t *testing.T) {
	var running, maxRunning atomic.Int32
	job := func(ctx context.Context) {
		n := running.Add(1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
	}

	scheduler := NewScheduler(5*time.Millisecond, job, testLogger())
	scheduler.Start(context.Background())
	scheduler.Start(context.Background()) // second call should be no-op

	time.Sleep(100 * time.Millisecond)
	scheduler.Stop()

	if got := maxRunning.Load(); got != 1 {
		t.Errorf("max concurrent runs = %d, want 1", got)
	}
}

// TestScheduler_StopBeforeStartThenStart verifies that Start after Stop is a no-op.
func TestScheduler_StopBeforeStartThenStart(t *testing.T) {
	var runs atomic.Int32
	scheduler := NewScheduler(5*time.Millisecond, func(context.Context) { runs.Add(1) }, testLogger())

	scheduler.Stop()
	scheduler.Start(context.TODO())
	time.Sleep(30 * time.Millisecond)
	scheduler.Stop()

	if got := runs.Load(); got != 0 {
		t.Errorf("runs = %d, want 0", got)
	}
}

// TestScheduler_ConcurrentStartStop verifies that calling Start() and Stop()
// concurrently does not cause a race condition or panic.
// Run with: go test -race ./internal/poller/...
func TestScheduler_ConcurrentStartStop(t *testing.T) {
	for i := 0; i < 100; i++ {
		scheduler := NewScheduler(time.Minute, noopJob, testLogger())

		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			scheduler.Start(context.Background())
		}()

		go func() {
			defer wg.Done()
			scheduler.Stop()
		}()

		wg.Wait()
		scheduler.Stop()
	}
}

// TestScheduler_DoesNotRunImmediately verifies that Start waits for the first
// tick instead of running the job straight away.
func TestScheduler_DoesNotRunImmediately(t *testing.T) {
	var runs atomic.Int32
	scheduler := NewScheduler(time.Hour, func(context.Context) { runs.Add(1) }, testLogger())
	scheduler.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	scheduler.Stop()

	if got := runs.Load(); got != 0 {
		t.Errorf("runs = %d, want 0", got)
	}
}

// TestScheduler_RunsOnInterval verifies the job runs repeatedly on the interval.
func TestScheduler_RunsOnInterval(t *testing.T) {
	var runs atomic.Int32
	scheduler := NewScheduler(10*time.Millisecond, func(context.Context) { runs.Add(1) }, testLogger())
	scheduler.Start(context.Background())
	time.Sleep(75 * time.Millisecond)
	scheduler.Stop()

	if got := runs.Load(); got < 3 {
		t.Errorf("runs = %d, want at least 3", got)
	}
}

// TestScheduler_Trigger verifies that Trigger runs the job without waiting
// for the interval.
func TestScheduler_Trigger(t *testing.T) {
	done := make(chan struct{}, 1)
	scheduler := NewScheduler(time.Hour, func(context.Context) { done <- struct{}{} }, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	if !scheduler.Trigger() {
		t.Fatal("Trigger() = false, want true")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for triggered run")
	}
}

// TestScheduler_TriggerWhenNotRunning verifies that Trigger refuses requests
// before Start and after Stop, when no run could ever pick them up.
func TestScheduler_TriggerWhenNotRunning(t *testing.T) {
	scheduler := NewScheduler(time.Hour, func(context.Context) {}, testLogger())

	if scheduler.Trigger() {
		t.Error("Trigger() before Start = true, want false")
	}

	scheduler.Start(context.Background())
	scheduler.Stop()

	for i := 0; i < 2; i++ {
		if scheduler.Trigger() {
			t.Errorf("Trigger() #%d after Stop = true, want false", i+1)
		}
	}
}

// TestScheduler_TriggerCoalesces verifies that triggers issued while a run is
// in flight fold into a single pending run.
func TestScheduler_TriggerCoalesces(t *testing.T) {
	release := make(chan struct{})
	var runs atomic.Int32
	job := func(ctx context.Context) {
		if runs.Add(1) == 1 {
			<-release
		}
	}

	scheduler := NewScheduler(time.Hour, job, testLogger())
	scheduler.Start(context.Background())

	scheduler.Trigger()
	// wait for the first run to be in flight
	deadline := time.Now().Add(time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	queued := 0
	for i := 0; i < 5; i++ {
		if scheduler.Trigger() {
			queued++
		}
	}
	close(release)
	time.Sleep(50 * time.Millisecond)
	scheduler.Stop()

	if queued != 1 {
		t.Errorf("queued triggers = %d, want 1", queued)
	}
	if got := runs.Load(); got != 2 {
		t.Errorf("runs = %d, want 2", got)
	}
}

// TestScheduler_StopCancelsInFlightJob verifies that Stop cancels the context
// handed to a running job and waits for it to return.
func TestScheduler_StopCancelsInFlightJob(t *testing.T) {
	started := make(chan struct{})
	var sawCancel atomic.Bool
	job := func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		sawCancel.Store(true)
	}

	scheduler := NewScheduler(time.Hour, job, testLogger())
	scheduler.Start(context.Background())
	scheduler.Trigger()
	<-started

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return")
	}

	if !sawCancel.Load() {
		t.Error("job context was not cancelled by Stop()")
	}
}

// TestScheduler_ContextCancellation verifies that cancelling the parent context
// stops the scheduler gracefully.
func TestScheduler_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	scheduler := NewScheduler(time.Minute, noopJob, testLogger())
	scheduler.Start(ctx)

	cancel()

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Stop() did not complete after parent context cancellation")
	}
}

// TestScheduler_JobPanicRecovery verifies that a panicking job does not kill
// the loop; later runs still happen.
func TestScheduler_JobPanicRecovery(t *testing.T) {
	var runs atomic.Int32
	job := func(ctx context.Context) {
		if runs.Add(1) == 1 {
			panic("simulated failure")
		}
	}

	scheduler := NewScheduler(10*time.Millisecond, job, testLogger())
	scheduler.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	scheduler.Stop()

	if got := runs.Load(); got < 2 {
		t.Errorf("runs = %d, want at least 2 (loop should survive panic)", got)
	}
}
