package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/defconboard"
	"github.com/jpalmerr/defconboard/config"
	"github.com/jpalmerr/defconboard/internal/telemetry"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// serveCmd starts the DefconBoard dashboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the DefconBoard dashboard server.

The server will:
  - Load configuration from the specified YAML file
  - Run a first refresh, exiting if the source cannot be read
  - Serve the dashboard UI, JSON API and /metrics on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  defconboard serve -c config.yaml
  defconboard serve --config /etc/defconboard/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(os.Stderr, cfg.SlogLevel())

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing {
		shutdown, err := telemetry.InitTracer(ctx, os.Stderr, version)
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("trace flush failed", "error", err)
			}
		}()
	}

	board, err := newBoard(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("starting server",
		"port", board.Port(),
		"commands", len(board.Commands()),
		"poll_interval", board.PollingInterval().String(),
		"source_url", board.SourceURL(),
	)

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- board.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

// newBoard builds a board from cfg. The user agent carries the binary
// version unless the config overrides it.
func newBoard(cfg *config.Config, logger *slog.Logger) (*defconboard.Board, error) {
	opts := []defconboard.Option{
		defconboard.WithLogger(logger),
		defconboard.WithUserAgent("defconboard/" + version),
	}

	cfgOpts, err := config.Options(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build options: %w", err)
	}
	opts = append(opts, cfgOpts...)

	board, err := defconboard.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create DefconBoard: %w", err)
	}
	return board, nil
}
