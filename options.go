package defconboard

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title             string
	sourceURL         string
	commands          []Command
	pollingInterval   time.Duration
	timeout           time.Duration
	port              int
	logger            *slog.Logger
	now               func() time.Time
	levelExtractor    LevelExtractor
	userAgent         string
	registry          *prometheus.Registry
	snapshotCallbacks []func(Snapshot)
	errorCallbacks    []func(error)
}

// Option is a function that configures a [Board] during construction.
//
// Options return an error if validation fails; [New] stops at the first
// failing option.
type Option func(*boardConfig) error

// WithSourceURL sets the aggregate page scraped for the level and the
// command mentions.
//
// Defaults to [DefaultSourceURL].
//
// Returns an error if the URL is not an absolute http(s) URL.
func WithSourceURL(rawURL string) Option {
	return func(cfg *boardConfig) error {
		if err := validateHTTPURL(rawURL); err != nil {
			return err
		}
		cfg.sourceURL = rawURL
		return nil
	}
}

// WithCommands sets the tracked command set, replacing the default eight.
//
// Order is preserved in snapshots and on the dashboard. Duplicate IDs are
// rejected by [New].
//
// Example:
//
//	stratcom, _ := defconboard.NewCommand(defconboard.Stratcom, stratcomURL)
//	board, err := defconboard.New(defconboard.WithCommands(stratcom))
func WithCommands(commands ...Command) Option {
	return func(cfg *boardConfig) error {
		if len(commands) == 0 {
			return errors.New("at least one command is required")
		}
		cfg.commands = append([]Command(nil), commands...)
		return nil
	}
}

// WithPollingInterval sets how often the source page is scraped.
//
// Defaults to 5 minutes. Ticks that fall due while a refresh is still running
// are skipped, not queued.
//
// Returns an error if the interval is shorter than one second.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d < minPollingInterval {
			return errors.New("polling interval must be at least 1s")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithTimeout bounds a single fetch of the source page.
//
// Defaults to 10 seconds.
//
// Returns an error if the timeout is outside the range 1s to 60s.
func WithTimeout(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d < minTimeout || d > maxTimeout {
			return errors.New("timeout must be between 1s and 60s")
		}
		cfg.timeout = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server started by
// [Board.Start]. Defaults to 8080.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "DEFCON Board".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Board.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithClock replaces the clock used for snapshot timestamps and flash
// windows. Tests use it to step time deterministically.
//
// Returns an error if now is nil.
func WithClock(now func() time.Time) Option {
	return func(cfg *boardConfig) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.now = now
		return nil
	}
}

// WithLevelExtractor replaces the heuristic used to find the DEFCON level.
//
// Defaults to [ExtractLevel]. Use [FirstLevel] to keep the default as a
// fallback.
//
// Returns an error if the extractor is nil.
func WithLevelExtractor(extractor LevelExtractor) Option {
	return func(cfg *boardConfig) error {
		if extractor == nil {
			return errors.New("level extractor cannot be nil")
		}
		cfg.levelExtractor = extractor
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent to the source site.
//
// Returns an error if the value is blank.
func WithUserAgent(ua string) Option {
	return func(cfg *boardConfig) error {
		if strings.TrimSpace(ua) == "" {
			return errors.New("user agent cannot be empty")
		}
		cfg.userAgent = ua
		return nil
	}
}

// WithMetricsRegistry registers the board's collectors on registry instead of
// a private one. The dashboard's /metrics endpoint serves whichever registry
// is in use.
//
// Returns an error if registry is nil.
func WithMetricsRegistry(registry *prometheus.Registry) Option {
	return func(cfg *boardConfig) error {
		if registry == nil {
			return errors.New("metrics registry cannot be nil")
		}
		cfg.registry = registry
		return nil
	}
}

// WithSnapshotCallback registers a function called after every published
// snapshot.
//
// Multiple callbacks run in registration order, synchronously, while the
// refresh lock is held. Callbacks must be non-blocking and must not call
// [Board.Refresh]. Panics are recovered and logged.
//
// Example:
//
//	board, err := defconboard.New(
//	    defconboard.WithSnapshotCallback(func(s defconboard.Snapshot) {
//	        for _, id := range s.IDs() {
//	            if cs, _ := s.Command(id); cs.Changed {
//	                log.Printf("%s is now %s", id, cs.State)
//	            }
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithSnapshotCallback(cb func(Snapshot)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.snapshotCallbacks = append(cfg.snapshotCallbacks, cb)
		return nil
	}
}

// WithErrorCallback registers a function called with the *[RefreshError] of
// every failed refresh. Cancelled refreshes are not reported.
//
// The same rules as [WithSnapshotCallback] apply. Nil callbacks are silently
// ignored.
func WithErrorCallback(cb func(error)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.errorCallbacks = append(cfg.errorCallbacks, cb)
		return nil
	}
}
