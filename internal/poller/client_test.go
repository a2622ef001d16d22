package poller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/http/httptrace"
	"strings"
	"testing"
	"time"
)

func TestClient_Fetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Method = %q, want GET", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>DEFCON 4</html>"))
	}))
	defer server.Close()

	client := NewClient("")
	body, err := client.Fetch(context.Background(), server.URL, time.Second)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "<html>DEFCON 4</html>" {
		t.Errorf("body = %q, want %q", body, "<html>DEFCON 4</html>")
	}
}

func TestClient_Fetch_SendsUserAgent(t *testing.T) {
	got := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.UserAgent()
	}))
	defer server.Close()

	client := NewClient("defconboard/test")
	if _, err := client.Fetch(context.Background(), server.URL, time.Second); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if ua := <-got; ua != "defconboard/test" {
		t.Errorf("User-Agent = %q, want %q", ua, "defconboard/test")
	}
}

func TestClient_Fetch_DefaultUserAgent(t *testing.T) {
	got := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.UserAgent()
	}))
	defer server.Close()

	if _, err := NewClient("").Fetch(context.Background(), server.URL, time.Second); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if ua := <-got; ua != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", ua, DefaultUserAgent)
	}
}

func TestClient_Fetch_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
	}{
		{"500 Internal Server Error", http.StatusInternalServerError},
		{"503 Service Unavailable", http.StatusServiceUnavailable},
		{"404 Not Found", http.StatusNotFound},
		{"301 without location", http.StatusMovedPermanently},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte("nope"))
			}))
			defer server.Close()

			body, err := NewClient("").Fetch(context.Background(), server.URL, time.Second)
			if body != nil {
				t.Errorf("body = %q, want nil", body)
			}

			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("error = %v, want *FetchError", err)
			}
			if fetchErr.Kind != KindNonSuccessStatus {
				t.Errorf("Kind = %q, want %q", fetchErr.Kind, KindNonSuccessStatus)
			}
			if fetchErr.Code != tt.code {
				t.Errorf("Code = %d, want %d", fetchErr.Code, tt.code)
			}
		})
	}
}

func TestClient_Fetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	_, err := NewClient("").Fetch(context.Background(), server.URL, 50*time.Millisecond)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fetchErr.Kind != KindTimeout {
		t.Errorf("Kind = %q, want %q", fetchErr.Kind, KindTimeout)
	}
	if !strings.Contains(fetchErr.Error(), "timed out") {
		t.Errorf("Error() = %q, want to contain 'timed out'", fetchErr.Error())
	}
}

func TestClient_Fetch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // nothing listening anymore

	_, err := NewClient("").Fetch(context.Background(), url, time.Second)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fetchErr.Kind != KindNetwork {
		t.Errorf("Kind = %q, want %q", fetchErr.Kind, KindNetwork)
	}
}

func TestClient_Fetch_InvalidURL(t *testing.T) {
	_, err := NewClient("").Fetch(context.Background(), "http://[::1", time.Second)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fetchErr.Kind != KindNetwork {
		t.Errorf("Kind = %q, want %q", fetchErr.Kind, KindNetwork)
	}
}

func TestClient_Fetch_CancelledParent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := NewClient("").Fetch(ctx, server.URL, 5*time.Second)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fetchErr.Kind != KindNetwork {
		t.Errorf("Kind = %q, want %q", fetchErr.Kind, KindNetwork)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("errors.Is(err, context.Canceled) = false, want true (err = %v)", err)
	}
}

func TestClient_Fetch_BodyTooLarge(t *testing.T) {
	page := "DEFCON 3 " + strings.Repeat("x", maxResponseBodySize) + " STRATCOM raised"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	body, err := NewClient("").Fetch(context.Background(), server.URL, 5*time.Second)
	if err == nil {
		t.Fatalf("Fetch() error = nil, want error (len(body) = %d)", len(body))
	}
	if body != nil {
		t.Errorf("body = %d bytes, want nil", len(body))
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fetchErr.Kind != KindNetwork {
		t.Errorf("Kind = %q, want %q", fetchErr.Kind, KindNetwork)
	}
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("errors.Is(err, ErrBodyTooLarge) = false (err = %v)", err)
	}
}

func TestClient_Fetch_BodyAtLimit(t *testing.T) {
	page := strings.Repeat("a", maxResponseBodySize)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	body, err := NewClient("").Fetch(context.Background(), server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(body) != maxResponseBodySize {
		t.Errorf("len(body) = %d, want %d", len(body), maxResponseBodySize)
	}
}

// TestClient_ConnectionReuse verifies that the HTTP client reuses connections
// when making sequential requests to the same host.
func TestClient_ConnectionReuse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient("")

	var reusedCount int
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Reused {
				reusedCount++
			}
		},
	}

	const numRequests = 5

	for i := 0; i < numRequests; i++ {
		ctx := httptrace.WithClientTrace(context.Background(), trace)
		if _, err := client.Fetch(ctx, server.URL, 5*time.Second); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}

	expectedMinReuse := numRequests - 2 // allow some tolerance
	if reusedCount < expectedMinReuse {
		t.Errorf("expected at least %d reused connections, got %d out of %d requests",
			expectedMinReuse, reusedCount, numRequests)
	}
}

// TestClient_Close verifies that Close() is safe to call and idempotent.
func TestClient_Close(t *testing.T) {
	client := NewClient("")

	client.Close()
	client.Close()
	client.Close()
}

// TestClient_Close_NilClient verifies that Close() handles nil receiver safely.
func TestClient_Close_NilClient(t *testing.T) {
	var client *Client

	// should not panic on nil receiver
	client.Close()
}

func TestFetchError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  *FetchError
		want string
	}{
		{"timeout", &FetchError{Kind: KindTimeout, URL: "http://x"}, "fetch http://x: timed out"},
		{"status", &FetchError{Kind: KindNonSuccessStatus, URL: "http://x", Code: 500}, "fetch http://x: unexpected status 500 Internal Server Error"},
		{"network with cause", &FetchError{Kind: KindNetwork, URL: "http://x", Err: errors.New("refused")}, "fetch http://x: refused"},
		{"network bare", &FetchError{Kind: KindNetwork, URL: "http://x"}, "fetch http://x: network error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
