package defconboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jpalmerr/defconboard/dashboard"
	"github.com/jpalmerr/defconboard/internal/metrics"
	"github.com/jpalmerr/defconboard/internal/poller"
	"github.com/jpalmerr/defconboard/internal/server"
	"github.com/jpalmerr/defconboard/internal/store"
)

const (
	defaultPollingInterval = 5 * time.Minute
	defaultTimeout         = 10 * time.Second
	defaultPort            = 8080
	defaultTitle           = "DEFCON Board"
	defaultIcon            = "mdi:shield-alert"

	minPollingInterval = time.Second
	minTimeout         = time.Second
	maxTimeout         = 60 * time.Second

	tracerName = "github.com/jpalmerr/defconboard"
)

// Board scrapes the source page on an interval and publishes immutable
// [Snapshot] values describing the DEFCON level and every command's state.
//
// A Board is created using [New] and driven either by [Board.Start], which
// also serves the dashboard, or by [Board.Run] for headless use. Manual
// refreshes via [Board.Refresh] are serialized with scheduled ones, so no two
// cycles ever overlap.
//
// The typical lifecycle is:
//
//	board, err := defconboard.New(defconboard.WithPollingInterval(time.Minute))
//	if err != nil {
//	    slog.Error("failed to create board", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	if err := board.Start(ctx); err != nil { // blocks until ctx is cancelled
//	    slog.Error("board failed", "error", err)
//	}
type Board struct {
	title             string
	sourceURL         string
	commands          []Command
	pollingInterval   time.Duration
	timeout           time.Duration
	port              int
	logger            *slog.Logger
	now               func() time.Time
	levelExtractor    LevelExtractor
	snapshotCallbacks []func(Snapshot)
	errorCallbacks    []func(error)

	client    *poller.Client
	scheduler *poller.Scheduler
	store     *store.MemoryStore
	metrics   *metrics.Recorder
	tracer    trace.Tracer

	// refreshMu serializes cycles and guards table.
	refreshMu sync.Mutex
	table     StateTable

	current atomic.Pointer[Snapshot]
	started atomic.Bool
}

// New creates a [Board] with the given options.
//
// Defaults:
//   - Source: [DefaultSourceURL]
//   - Commands: [DefaultCommands]
//   - Polling interval: 5 minutes
//   - Fetch timeout: 10 seconds
//   - Port: 8080
//
// Returns an error if any option is invalid or two commands share an ID.
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		title:           defaultTitle,
		sourceURL:       DefaultSourceURL,
		pollingInterval: defaultPollingInterval,
		timeout:         defaultTimeout,
		port:            defaultPort,
		userAgent:       poller.DefaultUserAgent,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.commands == nil {
		cfg.commands = DefaultCommands()
	}

	seen := make(map[CommandID]bool, len(cfg.commands))
	for _, cmd := range cfg.commands {
		if seen[cmd.id] {
			return nil, fmt.Errorf("duplicate command id: %q", cmd.id)
		}
		seen[cmd.id] = true
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.now
	if now == nil {
		now = time.Now
	}
	levelExtractor := cfg.levelExtractor
	if levelExtractor == nil {
		levelExtractor = ExtractLevel
	}

	b := &Board{
		title:             cfg.title,
		sourceURL:         cfg.sourceURL,
		commands:          cfg.commands,
		pollingInterval:   cfg.pollingInterval,
		timeout:           cfg.timeout,
		port:              cfg.port,
		logger:            logger,
		now:               now,
		levelExtractor:    levelExtractor,
		snapshotCallbacks: cfg.snapshotCallbacks,
		errorCallbacks:    cfg.errorCallbacks,
		client:            poller.NewClient(cfg.userAgent),
		store:             store.NewMemoryStore(),
		metrics:           metrics.New(cfg.registry),
		tracer:            otel.Tracer(tracerName),
		table:             make(StateTable, len(cfg.commands)),
	}
	b.scheduler = poller.NewScheduler(b.pollingInterval, func(ctx context.Context) {
		// failures are logged and reported inside Refresh
		_, _ = b.Refresh(ctx)
	}, logger)

	return b, nil
}

// Refresh runs one fetch-parse-diff-publish cycle and returns the new
// snapshot.
//
// Calls are serialized: a Refresh issued while another cycle is running waits
// for it to finish and then runs its own cycle. On failure the previous
// snapshot and state table are left untouched and the returned error is a
// *[RefreshError] wrapping the cause. A cycle whose context is cancelled never
// publishes.
func (b *Board) Refresh(ctx context.Context) (Snapshot, error) {
	b.refreshMu.Lock()
	defer b.refreshMu.Unlock()
	return b.refreshLocked(ctx)
}

// transition is a state change observed during a cycle.
type transition struct {
	id         CommandID
	from, to   AlertState
	flashUntil time.Time
}

func (b *Board) refreshLocked(ctx context.Context) (Snapshot, error) {
	cycleID := uuid.NewString()
	logger := b.logger.With("cycle_id", cycleID)
	at := b.now()
	start := time.Now()

	ctx, span := b.tracer.Start(ctx, "refresh", trace.WithAttributes(
		attribute.String("defconboard.cycle_id", cycleID),
		attribute.String("defconboard.source_url", b.sourceURL),
	))
	defer span.End()

	body, err := b.client.Fetch(ctx, b.sourceURL, b.timeout)
	if err != nil {
		return Snapshot{}, b.fail(logger, span, &RefreshError{Err: err, At: at, CycleID: cycleID}, time.Since(start))
	}

	text := string(body)
	level, hasLevel := b.extractLevel(text, logger)

	// diff against a copy; the table is only committed if the cycle publishes
	working := b.table.Clone()
	order := make([]CommandID, 0, len(b.commands))
	states := make(map[CommandID]CommandState, len(b.commands))
	var transitions []transition
	for _, cmd := range b.commands {
		id := cmd.ID()
		prev := working[id]
		next := ExtractCommandState(text, cmd)
		changed, flashUntil := working.Diff(id, next, at)

		order = append(order, id)
		states[id] = CommandState{
			State:      next,
			URL:        cmd.URL(),
			Changed:    changed,
			FlashUntil: flashUntil,
		}
		if changed {
			transitions = append(transitions, transition{id: id, from: prev, to: next, flashUntil: flashUntil})
		}
	}

	if err := ctx.Err(); err != nil {
		return Snapshot{}, b.fail(logger, span, &RefreshError{Err: err, At: at, CycleID: cycleID}, time.Since(start))
	}

	snap := newSnapshot(at, level, hasLevel, order, states)
	b.table = working
	b.current.Store(&snap)
	b.store.Publish(toStoreSnapshot(snap, b.commands))

	elapsed := time.Since(start)
	b.metrics.ObserveRefresh(metrics.ResultSuccess, elapsed)
	b.metrics.SetLevel(level, hasLevel)
	b.metrics.SetLastSuccess(at)
	for _, cmd := range b.commands {
		b.metrics.SetCommand(string(cmd.ID()), states[cmd.ID()].State == StateRaised)
	}
	for _, tr := range transitions {
		b.metrics.Transition(string(tr.id), string(tr.to))
		logger.Info("command state changed",
			"command", tr.id,
			"from", tr.from,
			"to", tr.to,
			"flash_until", tr.flashUntil,
		)
	}

	raised := len(snap.Raised())
	span.SetAttributes(
		attribute.Bool("defconboard.has_level", hasLevel),
		attribute.Int("defconboard.level", level),
		attribute.Int("defconboard.raised", raised),
		attribute.Int("defconboard.transitions", len(transitions)),
	)
	logger.Debug("refresh completed",
		"level", level,
		"has_level", hasLevel,
		"raised", raised,
		"transitions", len(transitions),
		"latency_ms", elapsed.Milliseconds(),
	)

	for _, cb := range b.snapshotCallbacks {
		invokeCallbackSafe(cb, snap, "snapshot", logger)
	}
	return snap, nil
}

// fail records a failed cycle. Cancellation is counted separately and is not
// reported to error callbacks or the store.
func (b *Board) fail(logger *slog.Logger, span trace.Span, rerr *RefreshError, elapsed time.Duration) error {
	span.RecordError(rerr.Err)
	span.SetStatus(codes.Error, rerr.Error())

	if errors.Is(rerr, context.Canceled) {
		b.metrics.ObserveRefresh(metrics.ResultCanceled, elapsed)
		logger.Debug("refresh canceled")
		return rerr
	}

	b.metrics.ObserveRefresh(metrics.ResultFailure, elapsed)
	b.store.RecordFailure(rerr.Error(), b.now())

	attrs := []any{
		"error", rerr.Err.Error(),
		"latency_ms", elapsed.Milliseconds(),
	}
	var fe *FetchError
	if errors.As(rerr, &fe) {
		attrs = append(attrs, "kind", fe.Kind)
	}
	logger.Warn("refresh failed", attrs...)

	for _, cb := range b.errorCallbacks {
		invokeCallbackSafe(cb, error(rerr), "error", logger)
	}
	return rerr
}

// extractLevel runs the level extractor with panic recovery and range checks.
func (b *Board) extractLevel(text string, logger *slog.Logger) (level int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("level extractor panic",
				"correlation_id", uuid.NewString(),
				"panic", r,
				"stack", string(debug.Stack()),
			)
			level, ok = 0, false
		}
	}()

	level, ok = b.levelExtractor(text)
	if !ok {
		logger.Debug("no level found on page")
		return 0, false
	}
	if level < 1 || level > 5 {
		logger.Debug("discarding out-of-range level", "level", level)
		return 0, false
	}
	return level, true
}

// Snapshot returns the most recently published snapshot.
//
// If nothing has been published yet, Snapshot runs a refresh (serialized
// with any in-flight cycle) and returns its result. A failure is returned as
// an error wrapping both [ErrNotReady] and the *[RefreshError].
func (b *Board) Snapshot(ctx context.Context) (Snapshot, error) {
	if s := b.current.Load(); s != nil {
		return *s, nil
	}

	b.refreshMu.Lock()
	defer b.refreshMu.Unlock()

	// a cycle may have published while we waited for the lock
	if s := b.current.Load(); s != nil {
		return *s, nil
	}
	snap, err := b.refreshLocked(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return snap, nil
}

// Latest returns the most recently published snapshot without blocking.
// ok is false until the first successful refresh.
func (b *Board) Latest() (Snapshot, bool) {
	s := b.current.Load()
	if s == nil {
		return Snapshot{}, false
	}
	return *s, true
}

// Ready reports whether a snapshot has been published.
func (b *Board) Ready() bool {
	return b.current.Load() != nil
}

// RequestRefresh asks the running scheduler for an immediate refresh and
// returns without waiting for it.
//
// Requests made while one is already pending are folded into it. Returns
// false if the board is not running (before Run/Start or after they return)
// or a request is already pending.
func (b *Board) RequestRefresh() bool {
	return b.scheduler.Trigger()
}

// Start runs the board and serves the dashboard until ctx is cancelled.
//
// Start performs the first refresh synchronously. If it fails, Start returns
// an error wrapping [ErrNotReady] without serving anything. Afterwards the
// scheduler refreshes on the configured interval and the dashboard is
// available at http://localhost:<port>.
//
// Returns nil on graceful shutdown. A Board can only be started once.
func (b *Board) Start(ctx context.Context) error {
	return b.run(ctx, true)
}

// Run is like [Board.Start] but does not serve the dashboard. Use it when
// embedding the board and consuming snapshots through [Board.Latest] or
// callbacks.
func (b *Board) Run(ctx context.Context) error {
	return b.run(ctx, false)
}

func (b *Board) run(ctx context.Context, serve bool) error {
	if !b.started.CompareAndSwap(false, true) {
		return errors.New("board already started")
	}
	defer b.client.Close()

	b.logger.Info("defconboard starting",
		"command_count", len(b.commands),
		"source_url", b.sourceURL,
	)
	b.logger.Info("polling configured",
		"interval", b.pollingInterval.String(),
		"timeout", b.timeout.String(),
	)

	if ctx.Err() != nil {
		return nil
	}

	if _, err := b.Snapshot(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	b.scheduler.Start(ctx)

	if serve {
		httpServer := server.NewServer(b.store, server.Options{
			Port:    b.port,
			Assets:  dashboard.Assets,
			Title:   b.title,
			Now:     b.now,
			Metrics: b.metrics.Handler(),
			Refresh: func(ctx context.Context) error {
				_, err := b.Refresh(ctx)
				return err
			},
		}, b.logger)
		if err := httpServer.Start(ctx); err != nil {
			b.scheduler.Stop()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))
	}

	<-ctx.Done()
	b.scheduler.Stop()
	b.logger.Info("defconboard stopped")
	return nil
}

// Commands returns a copy of the configured command set.
func (b *Board) Commands() []Command {
	cp := make([]Command, len(b.commands))
	copy(cp, b.commands)
	return cp
}

// SourceURL returns the page scraped on every cycle.
func (b *Board) SourceURL() string {
	return b.sourceURL
}

// Port returns the configured HTTP port for the dashboard server.
func (b *Board) Port() int {
	return b.port
}

// PollingInterval returns the configured interval between refreshes.
func (b *Board) PollingInterval() time.Duration {
	return b.pollingInterval
}

// Timeout returns the per-fetch timeout.
func (b *Board) Timeout() time.Duration {
	return b.timeout
}

// toStoreSnapshot converts a snapshot to its JSON-facing storage form,
// in configuration order.
func toStoreSnapshot(s Snapshot, commands []Command) store.Snapshot {
	var level *int
	if l, ok := s.Level(); ok {
		level = &l
	}

	out := store.Snapshot{
		Updated:     s.updated,
		DefconLevel: level,
		Commands:    make([]store.CommandStatus, 0, len(commands)),
	}
	for _, cmd := range commands {
		cs := s.commands[cmd.ID()]
		var flashUntil *time.Time
		if !cs.FlashUntil.IsZero() {
			f := cs.FlashUntil
			flashUntil = &f
		}
		out.Commands = append(out.Commands, store.CommandStatus{
			ID:          string(cmd.ID()),
			Name:        cmd.Name(),
			Icon:        defaultIcon,
			State:       string(cs.State),
			URL:         cs.URL,
			Changed:     cs.Changed,
			FlashUntil:  flashUntil,
			LastUpdated: s.updated,
		})
	}
	return out
}

// invokeCallbackSafe calls a callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe[T any](cb func(T), v T, kind string, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("callback panicked",
				"callback", kind,
				"correlation_id", uuid.NewString(),
				"panic", r,
			)
		}
	}()
	cb(v)
}
