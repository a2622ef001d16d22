package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jpalmerr/defconboard/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "DEFCON Board"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"

	// operationName labels server spans.
	operationName = "defconboard"
)

// RefreshFunc runs one refresh cycle synchronously.
type RefreshFunc func(ctx context.Context) error

// Options configures a [Server].
type Options struct {
	// Port is the TCP port to listen on. Zero picks a free port.
	Port int

	// Assets holds the dashboard at assets/index.html. May be nil.
	Assets fs.FS

	// Title replaces {{.Title}} in the dashboard. Defaults to "DEFCON Board".
	Title string

	// Now is the clock used to compute flashing. Defaults to time.Now.
	Now func() time.Time

	// Refresh backs POST /api/refresh. The route is not registered when nil.
	Refresh RefreshFunc

	// Metrics is served at /metrics. The route is not registered when nil.
	Metrics http.Handler
}

// Server handles HTTP requests for the dashboard and API.
//
// Routes:
//   - GET /: the embedded dashboard HTML
//   - GET /api/snapshot: the latest snapshot with flashing computed per request
//   - GET /api/sse: Server-Sent Events stream of snapshot updates
//   - POST /api/refresh: run a refresh now and return the result
//   - GET /healthz: 200 once a snapshot exists, 503 before
//   - GET /metrics: Prometheus exposition
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	opts       Options
	httpServer *http.Server
	listener   net.Listener
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server]. The server is not started until
// [Server.Start] is called.
func NewServer(st store.Store, opts Options, logger *slog.Logger) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		store:  st,
		opts:   opts,
		logger: logger,
	}
}

// Handler returns the instrumented route table.
//
// Requests are traced with otelhttp, except the long-lived SSE stream and
// metric scrapes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/sse", s.handleSSE)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.opts.Refresh != nil {
		mux.HandleFunc("/api/refresh", s.handleRefresh)
	}
	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics)
	}
	if s.opts.Assets != nil {
		mux.HandleFunc("/", s.handleDashboard)
	}

	return otelhttp.NewHandler(mux, operationName,
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/api/sse" && r.URL.Path != "/metrics"
		}),
	)
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns once the listener is bound. The server
// runs until ctx is cancelled, then shuts down with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.opts.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.opts.Port, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE handlers exit on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// commandView is a stored command plus its read-time flashing flag.
type commandView struct {
	store.CommandStatus
	Flashing bool `json:"flashing"`
}

// snapshotView is the JSON body of /api/snapshot and each SSE event.
type snapshotView struct {
	Updated     *time.Time    `json:"updated"`
	DefconLevel *int          `json:"defcon_level"`
	Commands    []commandView `json:"commands"`
	Health      store.Health  `json:"health"`
}

// render builds the view for snap at now. snap may be nil before the first
// successful refresh.
func render(snap *store.Snapshot, health store.Health, now time.Time) snapshotView {
	view := snapshotView{
		Commands: []commandView{},
		Health:   health,
	}
	if snap == nil {
		return view
	}

	updated := snap.Updated
	view.Updated = &updated
	view.DefconLevel = snap.DefconLevel
	view.Commands = make([]commandView, 0, len(snap.Commands))
	for _, c := range snap.Commands {
		view.Commands = append(view.Commands, commandView{
			CommandStatus: c,
			Flashing:      c.FlashUntil != nil && now.Before(*c.FlashUntil),
		})
	}
	return view
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.opts.Assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.opts.Assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// escape to prevent XSS through the configured title
	title := s.opts.Title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleSnapshot returns the latest snapshot as JSON, or 503 before the
// first successful refresh.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, health := s.store.Latest()
	status := http.StatusOK
	if snap == nil {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, render(snap, health, s.opts.Now()))
}

// handleRefresh runs a refresh cycle and returns the resulting snapshot.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.opts.Refresh(r.Context()); err != nil {
		s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	snap, health := s.store.Latest()
	s.writeJSON(w, http.StatusOK, render(snap, health, s.opts.Now()))
}

// handleHealth reports readiness together with refresh health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, health := s.store.Latest()
	status := http.StatusOK
	if !health.Ready {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, health)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleSSE streams snapshot updates via Server-Sent Events.
//
// Every event carries the full snapshot view. Writes use deadlines so a slow
// or vanished client cannot block the handler past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// not every ResponseWriter supports deadlines
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	send := func(snap *store.Snapshot, health store.Health) error {
		data, err := json.Marshal(render(snap, health, s.opts.Now()))
		if err != nil {
			return nil
		}
		return writeAndFlush(data)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before reading the current state so no update is missed
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	if err := send(s.store.Latest()); err != nil {
		return
	}

	for {
		select {
		case update, ok := <-ch:
			if !ok {
				return
			}
			if err := send(update.Snapshot, update.Health); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and on server shutdown (BaseContext)
			return
		}
	}
}
