package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/export"
	"finanzas/internal/ledger"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/middleware/security"
	"finanzas/internal/middleware/trace"
	"finanzas/internal/storage"
	appweb "finanzas/web"
)

// Ledger is what the handlers need from the service layer.
type Ledger interface {
	Records(kind core.Kind) []core.Record
	CreateRecord(ctx context.Context, kind core.Kind, r core.Record) (core.Record, error)
	UpdateRecord(ctx context.Context, kind core.Kind, id string, r core.Record) (core.Record, error)
	DeleteRecord(ctx context.Context, kind core.Kind, id string) error
	Summary(ctx context.Context, cfg ledger.FilterConfig) ledger.Summary
}

// Options tune the server. Zero values get defaults.
type Options struct {
	ExportDateLayout string
	RateLimit        ratelimit.Config
	Logger           *slog.Logger
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
}

type Server struct {
	http.Server
	templates    *template.Template
	ledger       Ledger
	store        storage.Store
	rateLimiter  *ratelimit.Limiter
	tracer       *trace.Middleware
	logger       *slog.Logger
	exportLayout string
	now          func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, templates and middleware. store is only used
// by the readiness probe.
func NewServer(addr string, l Ledger, store storage.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ExportDateLayout == "" {
		opts.ExportDateLayout = export.DefaultDateLayout
	}
	if opts.RateLimit.RequestsPerMinute == 0 {
		opts.RateLimit = ratelimit.DefaultConfig()
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 30 * time.Second
	}

	mux := http.NewServeMux()
	s := &Server{
		ledger:       l,
		store:        store,
		rateLimiter:  ratelimit.NewLimiter(opts.RateLimit),
		tracer:       trace.NewMiddleware(opts.Logger, security.ExtractClientIP),
		logger:       opts.Logger,
		exportLayout: opts.ExportDateLayout,
		now:          time.Now,
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		opts.Logger.Warn("Failed parsing templates", "error", err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		opts.Logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/costs", s.recordsHandler(core.KindCost))
	mux.HandleFunc("/incomes", s.recordsHandler(core.KindIncome))
	mux.HandleFunc("/records/update", s.handleUpdateRecord)
	mux.HandleFunc("/records/delete", s.handleDeleteRecord)
	mux.HandleFunc("/summary", s.handleSummaryPage)
	mux.HandleFunc("/ui/summary", s.handleSummaryPanel)
	mux.HandleFunc("/summary/export.pdf", s.handleExportPDF)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(security.ExtractClientIP, onRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

func onRateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "Demasiadas solicitudes, intenta de nuevo en un minuto").Write(w)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics exposes the request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// handleMetrics writes the request and rate limit counters in a
// Prometheus-like text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.Metrics()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", m.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", m.ServerErrors)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", s.rateLimiter.Hits())

	fmt.Fprintf(w, "# HELP rate_limit_active_clients Clients tracked in the current window\n")
	fmt.Fprintf(w, "# TYPE rate_limit_active_clients gauge\n")
	fmt.Fprintf(w, "rate_limit_active_clients %d\n", s.rateLimiter.ActiveClients())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady checks that the store answers. A collection that was never
// written is fine.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if _, err := s.store.Get(ctx, storage.KeyIncomes); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
