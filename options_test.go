package defconboard

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNew_Defaults(t *testing.T) {
	b, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if b.Port() != 8080 {
		t.Errorf("Port() = %v, want %v", b.Port(), 8080)
	}
	if b.PollingInterval() != 5*time.Minute {
		t.Errorf("PollingInterval() = %v, want %v", b.PollingInterval(), 5*time.Minute)
	}
	if b.Timeout() != 10*time.Second {
		t.Errorf("Timeout() = %v, want %v", b.Timeout(), 10*time.Second)
	}
	if b.SourceURL() != DefaultSourceURL {
		t.Errorf("SourceURL() = %v, want %v", b.SourceURL(), DefaultSourceURL)
	}
	if len(b.Commands()) != 8 {
		t.Errorf("len(Commands()) = %v, want %v", len(b.Commands()), 8)
	}
	if b.title != "DEFCON Board" {
		t.Errorf("title = %q, want %q", b.title, "DEFCON Board")
	}
}

func TestNew_DuplicateCommandIDs(t *testing.T) {
	a, _ := NewCommand(Socom, "https://a.example.com")
	b, _ := NewCommand(Socom, "https://b.example.com")

	_, err := New(WithCommands(a, b))
	if err == nil {
		t.Fatal("New() expected error for duplicate command ids, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate command id") {
		t.Errorf("New() error = %v, want error containing 'duplicate command id'", err)
	}
}

func TestWithCommands_Empty(t *testing.T) {
	if _, err := New(WithCommands()); err == nil {
		t.Error("New() expected error for empty command set, got nil")
	}
}

func TestCommands_Immutability(t *testing.T) {
	b, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cmds := b.Commands()
	cmds[0] = Command{}

	if b.Commands()[0].ID() != Cybercom {
		t.Error("Commands() mutation affected the Board")
	}
}

func TestWithSourceURL(t *testing.T) {
	b, err := New(WithSourceURL("http://localhost:9000/levels"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if b.SourceURL() != "http://localhost:9000/levels" {
		t.Errorf("SourceURL() = %v", b.SourceURL())
	}
}

func TestWithSourceURL_Invalid(t *testing.T) {
	for _, u := range []string{"", "localhost", "ftp://example.com"} {
		if _, err := New(WithSourceURL(u)); err == nil {
			t.Errorf("WithSourceURL(%q) expected error, got nil", u)
		}
	}
}

func TestWithPollingInterval(t *testing.T) {
	b, err := New(WithPollingInterval(30 * time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if b.PollingInterval() != 30*time.Second {
		t.Errorf("PollingInterval() = %v, want %v", b.PollingInterval(), 30*time.Second)
	}
}

func TestWithPollingInterval_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
	}{
		{"zero", 0},
		{"negative", -time.Second},
		{"sub-second", 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(WithPollingInterval(tt.interval)); err == nil {
				t.Errorf("WithPollingInterval(%v) expected error, got nil", tt.interval)
			}
		})
	}
}

func TestWithTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{"minimum", time.Second, false},
		{"maximum", 60 * time.Second, false},
		{"typical", 5 * time.Second, false},
		{"too short", 999 * time.Millisecond, true},
		{"too long", 61 * time.Second, true},
		{"zero", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(WithTimeout(tt.timeout))
			if (err != nil) != tt.wantErr {
				t.Fatalf("WithTimeout(%v) error = %v, wantErr %v", tt.timeout, err, tt.wantErr)
			}
			if err == nil && b.Timeout() != tt.timeout {
				t.Errorf("Timeout() = %v, want %v", b.Timeout(), tt.timeout)
			}
		})
	}
}

func TestWithPort_Invalid(t *testing.T) {
	for _, port := range []int{0, -1, 65536} {
		if _, err := New(WithPort(port)); err == nil {
			t.Errorf("WithPort(%d) expected error, got nil", port)
		}
	}
}

func TestWithPort_ValidEdgeCases(t *testing.T) {
	for _, port := range []int{1, 65535} {
		b, err := New(WithPort(port))
		if err != nil {
			t.Errorf("WithPort(%d) error = %v", port, err)
			continue
		}
		if b.Port() != port {
			t.Errorf("Port() = %d, want %d", b.Port(), port)
		}
	}
}

func TestWithLogger_Nil(t *testing.T) {
	_, err := New(WithLogger(nil))
	if err == nil {
		t.Fatal("New() expected error for nil logger, got nil")
	}
	if !strings.Contains(err.Error(), "logger cannot be nil") {
		t.Errorf("New() error = %v, want error containing 'logger cannot be nil'", err)
	}
}

func TestWithClock_Nil(t *testing.T) {
	if _, err := New(WithClock(nil)); err == nil {
		t.Error("New() expected error for nil clock, got nil")
	}
}

func TestWithLevelExtractor_Nil(t *testing.T) {
	if _, err := New(WithLevelExtractor(nil)); err == nil {
		t.Error("New() expected error for nil level extractor, got nil")
	}
}

func TestWithUserAgent_Blank(t *testing.T) {
	if _, err := New(WithUserAgent("  ")); err == nil {
		t.Error("New() expected error for blank user agent, got nil")
	}
}

func TestWithMetricsRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	b, err := New(WithMetricsRegistry(reg))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if b.metrics.Registry() != reg {
		t.Error("metrics recorder does not use the supplied registry")
	}

	if _, err := New(WithMetricsRegistry(nil)); err == nil {
		t.Error("New() expected error for nil registry, got nil")
	}
}

func TestWithTitle(t *testing.T) {
	b, err := New(WithTitle("Ops Wall"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if b.title != "Ops Wall" {
		t.Errorf("title = %q, want %q", b.title, "Ops Wall")
	}
}
