package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
)

// mockPage is the state of the fake raised-levels page.
type mockPage struct {
	mu           sync.Mutex
	level        int
	raised       map[string]bool
	nextChangeAt time.Time
}

var mockCommands = []string{
	"CYBERCOM", "SOCOM", "STRATCOM", "TRANSCOM",
	"BIOCOM", "DISASTERCOM", "FINCOM", "Space Command",
}

// StartMockDefconServer runs a fake raised-levels page on addr.
// Every 20-60 seconds one command flips and the level moves by one.
// Call this in a goroutine before creating the board.
func StartMockDefconServer(addr string) {
	page := &mockPage{
		level:        4,
		raised:       map[string]bool{"STRATCOM": true},
		nextChangeAt: time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/raised-levels", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page.render(time.Now())))
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}

// render advances the page when its change is due and returns the HTML.
func (p *mockPage) render(now time.Time) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if now.After(p.nextChangeAt) {
		cmd := mockCommands[rand.Intn(len(mockCommands))]
		p.raised[cmd] = !p.raised[cmd]

		if rand.Intn(2) == 0 && p.level > 1 {
			p.level--
		} else if p.level < 5 {
			p.level++
		}
		p.nextChangeAt = now.Add(time.Duration(20+rand.Intn(41)) * time.Second)
		slog.Info("page changed", "command", cmd, "raised", p.raised[cmd], "level", p.level)
	}

	var b strings.Builder
	b.WriteString("<html><body><h1>Raised Levels</h1>\n")
	fmt.Fprintf(&b, "<p>Current national posture: DEFCON %d</p>\n<ul>\n", p.level)
	for _, cmd := range mockCommands {
		if p.raised[cmd] {
			fmt.Fprintf(&b, "<li>%s elevated</li>\n", cmd)
		}
	}
	b.WriteString("</ul></body></html>\n")
	return b.String()
}
