// Package defconboard tracks a public DEFCON status page and publishes the
// national threat level and per-command alert states as immutable snapshots.
//
// DefconBoard is SDK-first: a [Board] scrapes one aggregate page on an
// interval, derives a level (1-5) and a raised/normal state for every
// configured [Command], and remembers previous states so that transitions
// are flagged as changed for one cycle and flash for ten minutes.
//
// # Quick Start
//
// Run the board with the built-in command set and serve the dashboard:
//
//	board, _ := defconboard.New()
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	board.Start(ctx) // blocks until context is cancelled
//
// For headless use, call [Board.Run] and read [Board.Latest], or a single
// [Board.Refresh] for one-shot checks.
//
// # Configuration
//
// Boards use the functional options pattern:
//
//	spacecom, _ := defconboard.NewCommand(defconboard.Spacecom, spacecomURL,
//	    defconboard.WithAliases("Space Command"),
//	)
//	board, err := defconboard.New(
//	    defconboard.WithCommands(spacecom),
//	    defconboard.WithPollingInterval(time.Minute),
//	    defconboard.WithTimeout(5*time.Second),
//	    defconboard.WithSnapshotCallback(onSnapshot),
//	)
//
// # Extraction
//
// The level is read with [ExtractLevel] unless replaced via
// [WithLevelExtractor]. A command counts as raised when its ID or one of its
// aliases appears anywhere in the page ([ExtractCommandState]). Both are
// heuristics over raw page text and can be fooled by unrelated mentions.
//
// # Architecture
//
// The internal packages are not part of the public API:
//
//   - internal/poller: page fetcher and single-flight interval scheduler
//   - internal/store: latest snapshot plus pub/sub for the dashboard
//   - internal/server: REST API, Server-Sent Events and /metrics
//   - internal/metrics: Prometheus collectors
//   - internal/telemetry: OpenTelemetry tracer setup
//   - dashboard: embedded web UI assets
package defconboard
