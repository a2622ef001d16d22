// Standalone mock raised-levels page for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/defconboard serve -c example/config.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
)

func main() {
	addr := flag.String("addr", ":9999", "listen address")
	flag.Parse()

	fmt.Printf("Mock raised-levels page on %s/raised-levels\n", *addr)
	fmt.Println("POST /set?level=N&raised=STRATCOM,FINCOM to change it")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		mu     sync.Mutex
		level  = "4"
		raised = []string{"STRATCOM"}
	)

	http.HandleFunc("/raised-levels", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body><p>Current national posture: DEFCON %s</p><ul>", level)
		for _, cmd := range raised {
			fmt.Fprintf(w, "<li>%s elevated</li>", cmd)
		}
		fmt.Fprint(w, "</ul></body></html>")
	})

	http.HandleFunc("/set", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		mu.Lock()
		defer mu.Unlock()

		if v := r.URL.Query().Get("level"); v != "" {
			level = v
		}
		if r.URL.Query().Has("raised") {
			raised = nil
			for _, cmd := range strings.Split(r.URL.Query().Get("raised"), ",") {
				if cmd = strings.TrimSpace(cmd); cmd != "" {
					raised = append(raised, cmd)
				}
			}
		}
		slog.Info("page changed", "level", level, "raised", raised)
		w.WriteHeader(http.StatusNoContent)
	})

	if err := http.ListenAndServe(*addr, nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
