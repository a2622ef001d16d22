package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/defconboard"
)

func main() {
	// start mock page (see mock_server.go)
	go StartMockDefconServer(":9999")
	time.Sleep(100 * time.Millisecond)

	board, err := defconboard.New(
		defconboard.WithSourceURL("http://localhost:9999/raised-levels"),
		defconboard.WithPollingInterval(5*time.Second),
		defconboard.WithPort(8080),
		defconboard.WithSnapshotCallback(func(s defconboard.Snapshot) {
			for _, id := range s.IDs() {
				if st, _ := s.Command(id); st.Changed {
					slog.Info("transition", "command", id, "state", st.State)
				}
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create defconboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  DefconBoard Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser")
	fmt.Println("  The mock page flips one command every 20-60s")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := board.Start(ctx); err != nil {
		slog.Error("defconboard error", "error", err)
		os.Exit(1)
	}
}
