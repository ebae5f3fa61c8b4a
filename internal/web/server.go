package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cjeanneret/SprayGo/internal/debug"
	"github.com/cjeanneret/SprayGo/internal/operator"
)

// DefaultCommandsPerMin limits POST /api/command per client IP.
const DefaultCommandsPerMin = 120

// Options configures the operator web server.
type Options struct {
	Addr           string
	CommandsPerMin int                 // per client IP; 0 = DefaultCommandsPerMin
	AllowedOrigins []string            // websocket origins; empty = same host only
	Gatherer       prometheus.Gatherer // nil = no /metrics route
}

// Server wraps the HTTP server and handlers.
type Server struct {
	opts     Options
	handlers *Handlers
	log      zerolog.Logger
}

// NewServer creates a server configured for the given options and dependencies.
func NewServer(opts Options, broadcaster *StatusBroadcaster, status StatusSource, commands CommandSink) (*Server, error) {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, err
	}
	if opts.CommandsPerMin <= 0 {
		opts.CommandsPerMin = DefaultCommandsPerMin
	}

	handlers := NewHandlers(broadcaster, status, commands, subFS)
	handlers.upgrader.CheckOrigin = originChecker(opts.AllowedOrigins)

	return &Server{
		opts:     opts,
		handlers: handlers,
		log:      debug.WithComponent("web"),
	}, nil
}

// Mux returns an http.Handler with all routes registered.
func (s *Server) Mux() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	limiter := httprate.Limit(
		s.opts.CommandsPerMin,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
		}),
	)

	r.Get("/api/status", s.handlers.HandleStatus)
	r.With(exemptEmergency(limiter)).Post("/api/command", s.handlers.HandleCommand)
	r.Get("/api/events", s.handlers.HandleStatusStream)
	r.Get("/api/console", s.handlers.HandleConsole)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(s.handlers.staticFS))))
	r.Get("/", s.handlers.ServeIndex)

	return r
}

// Run starts the server and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.opts.Addr).Msg("web server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// exemptEmergency applies limiter to every command except an emergency stop,
// which must never be refused. The body is buffered and restored for the handler.
func exemptEmergency(limiter func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCommandBytes))
			if err != nil {
				http.Error(w, "invalid command body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			line, err := commandLine(r.Header.Get("Content-Type"), body)
			if err == nil && operator.Parse(line).Kind == operator.Emergency {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

// originChecker accepts requests without an Origin header, origins listed in
// allowed, or, when allowed is empty, an origin on the same host as the request.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(allowed) > 0 {
			for _, a := range allowed {
				if strings.EqualFold(strings.TrimRight(a, "/"), origin) {
					return true
				}
			}
			return false
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}
