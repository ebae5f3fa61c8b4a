package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	s, err := NewServer(opts, NewStatusBroadcaster(), testStatus(), &recordingSink{})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Routes(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "spraygo_test_total", Help: "test"}))
	mux := newTestServer(t, Options{Gatherer: reg}).Mux()

	cases := []struct {
		method, path, body string
		want               int
		contains           string
	}{
		{http.MethodGet, "/", "", http.StatusOK, "SprayGo"},
		{http.MethodGet, "/static/", "", http.StatusOK, "EventSource"},
		{http.MethodGet, "/api/status", "", http.StatusOK, "homed_waiting"},
		{http.MethodPost, "/api/command", "H", http.StatusAccepted, "queued"},
		{http.MethodGet, "/api/command", "", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/metrics", "", http.StatusOK, "spraygo_test_total"},
		{http.MethodGet, "/nope", "", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := serve(mux, tc.method, tc.path, tc.body)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
			if tc.contains != "" && !strings.Contains(w.Body.String(), tc.contains) {
				t.Errorf("body does not contain %q", tc.contains)
			}
		})
	}
}

func TestServer_NoMetricsWithoutGatherer(t *testing.T) {
	mux := newTestServer(t, Options{}).Mux()
	if w := serve(mux, http.MethodGet, "/metrics", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestServer_CommandRateLimit(t *testing.T) {
	mux := newTestServer(t, Options{CommandsPerMin: 2}).Mux()

	for i := 0; i < 2; i++ {
		if w := serve(mux, http.MethodPost, "/api/command", "R"); w.Code != http.StatusAccepted {
			t.Fatalf("request %d: status = %d, want %d", i, w.Code, http.StatusAccepted)
		}
	}
	w := serve(mux, http.MethodPost, "/api/command", "R")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if !strings.Contains(w.Body.String(), "rate limit exceeded") {
		t.Errorf("body = %q, want rate limit error", w.Body.String())
	}

	// Status is not limited.
	if w := serve(mux, http.MethodGet, "/api/status", ""); w.Code != http.StatusOK {
		t.Errorf("status endpoint = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestOriginChecker(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		host    string
		origin  string
		want    bool
	}{
		{"no_origin", nil, "pi:8080", "", true},
		{"same_host", nil, "pi:8080", "http://pi:8080", true},
		{"other_host", nil, "pi:8080", "http://evil.example", false},
		{"other_port", nil, "pi:8080", "http://pi:9090", false},
		{"allowed", []string{"http://console.local/"}, "pi:8080", "http://console.local", true},
		{"not_allowed", []string{"http://console.local"}, "pi:8080", "http://pi:8080", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/console", nil)
			r.Host = tc.host
			if tc.origin != "" {
				r.Header.Set("Origin", tc.origin)
			}
			if got := originChecker(tc.allowed)(r); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestServer_EmergencyNotRateLimited(t *testing.T) {
	mux := newTestServer(t, Options{CommandsPerMin: 1}).Mux()

	if w := serve(mux, http.MethodPost, "/api/command", "13"); w.Code != http.StatusAccepted {
		t.Fatalf("first command: status = %d, want %d", w.Code, http.StatusAccepted)
	}
	if w := serve(mux, http.MethodPost, "/api/command", "R"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second command: status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	for _, body := range []string{"E", "e"} {
		if w := serve(mux, http.MethodPost, "/api/command", body); w.Code != http.StatusAccepted {
			t.Errorf("emergency %q over the limit: status = %d, want %d", body, w.Code, http.StatusAccepted)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/command", strings.NewReader(`{"command":"E"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Errorf("JSON emergency over the limit: status = %d, want %d", w.Code, http.StatusAccepted)
	}
}
