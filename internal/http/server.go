package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"bilancio/internal/analytics"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	appweb "bilancio/web"
)

// Ledger reads and extends the record collections.
type Ledger interface {
	Records(ctx context.Context, kind core.Kind) ([]core.Record, error)
	AddRecord(ctx context.Context, kind core.Kind, in core.RecordInput) (core.Record, error)
}

// ReadyFunc reports whether the storage behind the ledger is reachable.
type ReadyFunc func(ctx context.Context) error

// Options configures a Server. Ledger is required.
type Options struct {
	Addr           string
	Ledger         Ledger
	Renderer       analytics.ChartRenderer
	CurrencySymbol string
	Ready          ReadyFunc
	Logger         *log.Logger
	RateLimit      ratelimit.Config
}

// pages lists the templates that render a full page. Each is parsed
// together with the shared layout and partials.
var pages = []string{"index.html", "records.html", "balance.html"}

// Server serves the ledger pages.
type Server struct {
	http.Server
	templates map[string]*template.Template
	ledger    Ledger
	renderer  analytics.ChartRenderer
	ready     ReadyFunc
	logger    *log.Logger
	structLog *log.StructuredLogger
	now       func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	started        time.Time
	recordsCreated int64
	shutdownOnce   sync.Once
}

// NewServer parses the embedded templates and configures routes and
// middleware, returning a ready-to-run server.
func NewServer(opts Options) (*Server, error) {
	if opts.Ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "₹"
	}

	templates, err := parseTemplates(opts.CurrencySymbol)
	if err != nil {
		return nil, err
	}

	s := &Server{
		templates:        templates,
		ledger:           opts.Ledger,
		renderer:         opts.Renderer,
		ready:            opts.Ready,
		logger:           logger,
		structLog:        log.NewStructuredLogger(logger),
		now:              time.Now,
		rateLimiter:      ratelimit.NewLimiter(opts.RateLimit),
		securityDetector: security.NewDetector(logger),
		started:          time.Now(),
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)

	mux := http.NewServeMux()
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	assets, err := security.StaticAssets(static, time.Hour)
	if err != nil {
		return nil, err
	}
	mux.Handle("/static/", http.StripPrefix("/static/", assets))

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/income", s.handleRecords(core.KindIncome))
	mux.HandleFunc("/expense", s.handleRecords(core.KindExpense))
	mux.HandleFunc("/balance", s.handleBalance)
	mux.HandleFunc("/add_income", s.handleAddRecord(core.KindIncome))
	mux.HandleFunc("/add_expense", s.handleAddRecord(core.KindExpense))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, logger)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = log.RequestFieldsMiddleware(s.requestFields)(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func parseTemplates(symbol string) (map[string]*template.Template, error) {
	funcs := templateFuncs(symbol)
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(appweb.TemplatesFS,
			"templates/base.html",
			"templates/analytics.html",
			"templates/form.html",
			"templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		out[page] = t
	}
	return out, nil
}

// Shutdown stops background routines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// requestFields tags the log lines of a request with its trace ID and
// client address.
func (s *Server) requestFields(r *http.Request) log.LogFields {
	return log.LogFields{
		log.FieldRequestID: trace.GetRequestID(r.Context()),
		log.FieldClientIP:  s.securityDetector.ExtractClientIP(r),
	}
}

func (s *Server) recordCreated() {
	atomic.AddInt64(&s.recordsCreated, 1)
}
