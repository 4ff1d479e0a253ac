// Package http serves the expense tracker UI: a form plus a live list that
// refreshes over a websocket whenever the ledger or the status box changes.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/olahol/melody"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/security"
	"tally/internal/middleware/trace"
	"tally/internal/status"
	appweb "tally/web"
)

// Ledger is the slice of the adapter the handlers need.
type Ledger interface {
	Ready() bool
	Snapshot() []core.Record
	Snapshots() <-chan []core.Record
	Add(ctx context.Context, draft core.Draft) error
	Delete(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
}

// StatusSource exposes the current status message and its change feed.
type StatusSource interface {
	Current() (status.Message, bool)
	Changes() <-chan status.Message
}

type Server struct {
	http.Server
	templates *template.Template
	ledger    Ledger
	statusSrc StatusSource

	ws          *melody.Melody
	rateLimiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, ledger Ledger, statusSrc StatusSource) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:      ledger,
		statusSrc:   statusSrc,
		ws:          melody.New(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	ipExtractor := security.NewClientIPExtractor()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(ipExtractor.Extract)
	limited := s.rateLimiter.Middleware(ipExtractor.Extract, http.MethodPost, http.MethodDelete)
	requestLogger := applog.Middleware(applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentHTTP,
	}))

	chain := func(h http.HandlerFunc) http.Handler {
		return requestLogger(tracer.Middleware(headers.Middleware(limited(h))))
	}

	mux.Handle("/", chain(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/expenses", chain(s.handleExpenses))
	mux.Handle("/expenses/", chain(s.handleExpenseByID))
	// UI partials
	mux.Handle("/ui/expenses", chain(s.handleExpenseList))
	mux.Handle("/ui/status", chain(s.handleStatus))
	// Websocket upgrade needs the raw ResponseWriter, so it skips the chain
	mux.HandleFunc("/ws", s.handleWS)

	return s
}

// Shutdown stops the push loop, websocket sessions, and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		if err := s.ws.Close(); err != nil {
			slog.Warn("Failed closing websocket sessions", "error", err)
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("waiting for first snapshot"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
