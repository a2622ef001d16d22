package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is the unit of work run by a [Scheduler]. The context is cancelled when
// the scheduler stops, which lets an in-flight fetch abort early.
type Job func(ctx context.Context)

// Scheduler runs a single [Job] on a fixed interval, plus on demand.
//
// Scheduler is single-flight: the job is invoked from one goroutine only, so
// two runs never overlap. Ticks that arrive while a run is in progress are
// dropped (time.Ticker semantics) and on-demand triggers coalesce into at
// most one pending run.
//
// Start does not run the job immediately; callers that need a first result
// before serving (such as the board's first refresh) run it themselves.
//
// All lifecycle methods (Start, Stop, Trigger) are safe for concurrent use.
type Scheduler struct {
	interval time.Duration
	job      Job
	logger   *slog.Logger
	trigger  chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewScheduler creates a new [Scheduler].
//
// Parameters:
//   - interval: Time between scheduled runs
//   - job: Work to perform on every tick or trigger
//   - logger: Logger for scheduler events (panic recovery, etc.)
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop].
func NewScheduler(interval time.Duration, job Job, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		job:      job,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Start begins the scheduling loop in a background goroutine.
//
// Start is non-blocking. If ctx is nil, context.Background() is used as the
// parent context. Start is idempotent; subsequent calls after the first are
// no-ops. If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.runSafe(runCtx, "interval")
			case <-s.trigger:
				s.runSafe(runCtx, "trigger")
				// a manual run restarts the interval
				ticker.Reset(s.interval)
			}
		}
	}()
}

// Trigger requests an immediate run without waiting for the next tick.
//
// Trigger never blocks. It returns false when the scheduler is not running
// (before Start or after Stop), or when a triggered run is already pending,
// in which case the request is folded into that pending run.
func (s *Scheduler) Trigger() bool {
	s.mu.Lock()
	running := s.started && !s.stopped
	s.mu.Unlock()
	if !running {
		return false
	}

	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop halts the scheduler and waits for the loop to exit.
//
// Stop cancels the context passed to an in-flight job and blocks until it
// returns. Stop is idempotent and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// runSafe calls the job with panic recovery. A panicking job is logged with a
// correlation ID and the full stack; the loop keeps going.
func (s *Scheduler) runSafe(ctx context.Context, reason string) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("scheduled job panic",
				"correlation_id", correlationID,
				"reason", reason,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	if ctx.Err() != nil {
		return
	}
	s.job(ctx)
}
