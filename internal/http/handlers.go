package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/analytics"
	"bilancio/internal/core"
	"bilancio/internal/log"
)

// handleIndex is the dashboard over the expense collection.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !requireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	page, err := s.recordsPage(r.Context(), core.KindExpense)
	if err != nil {
		s.loadFailed(w, r, core.KindExpense, err)
		return
	}
	page.Title = "Expense Tracker"
	page.Active = "dashboard"
	s.render(w, r, http.StatusOK, "index.html", page)
}

// handleRecords lists one collection next to its add form.
func (s *Server) handleRecords(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet, http.MethodHead) {
			return
		}
		page, err := s.recordsPage(r.Context(), kind)
		if err != nil {
			s.loadFailed(w, r, kind, err)
			return
		}
		s.render(w, r, http.StatusOK, "records.html", page)
	}
}

// handleAddRecord stores a submitted record and redirects to its
// collection. A rejected submission re-renders the page with 422 and
// leaves the collection untouched.
func (s *Server) handleAddRecord(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		ctx := r.Context()

		parser := NewRequestBodyParser(r)
		if err := parser.Parse(); err != nil {
			s.structLog.LogError(ctx, "Failed to parse submission", err, log.ComponentHTTP, log.OpParse,
				log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "", ""))
			http.Error(w, "Invalid request format", http.StatusBadRequest)
			return
		}
		in := parser.RecordInput()

		if _, err := s.ledger.AddRecord(ctx, kind, in); err != nil {
			if core.IsValidationError(err) {
				s.rejectSubmission(w, r, kind, in, err)
				return
			}
			s.structLog.LogError(ctx, "Failed to save record", err, log.ComponentHTTP, log.OpCreate,
				log.LogFields{log.FieldKind: kind.String()})
			http.Error(w, "Failed to save the record, please try again later", http.StatusInternalServerError)
			return
		}
		s.recordCreated()

		http.Redirect(w, r, "/"+kind.String(), http.StatusSeeOther)
	}
}

func (s *Server) rejectSubmission(w http.ResponseWriter, r *http.Request, kind core.Kind, in core.RecordInput, cause error) {
	ctx := r.Context()
	s.structLog.LogRecordRejected(ctx, kind.String(), cause)

	page, err := s.recordsPage(ctx, kind)
	if err != nil {
		s.loadFailed(w, r, kind, err)
		return
	}
	page.Form = formFromInput(in)
	page.Error = validationMessage(cause)
	s.render(w, r, http.StatusUnprocessableEntity, "records.html", page)
}

// handleBalance compares the two collections month by month.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	ctx := r.Context()

	var income, expense []core.Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.ledger.Records(gctx, core.KindIncome)
		return err
	})
	g.Go(func() error {
		var err error
		expense, err = s.ledger.Records(gctx, core.KindExpense)
		return err
	})
	if err := g.Wait(); err != nil {
		s.structLog.LogError(ctx, "Failed to load records", err, log.ComponentHTTP, log.OpLoad, nil)
		http.Error(w, "Failed to load records", http.StatusInternalServerError)
		return
	}

	balance := analytics.Balance(income, expense)
	charts, err := analytics.RenderBalance(ctx, balance, s.renderer)
	if err != nil {
		s.structLog.LogError(ctx, "Failed to render balance", err, log.ComponentCharts, log.OpRender, nil)
		http.Error(w, "Failed to render the page", http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, "balance.html", balancePage{
		Title:   "Balance",
		Active:  "balance",
		Balance: balance,
		Charts:  charts,
	})
}

// recordsPage loads a collection and computes its analytics bundle.
func (s *Server) recordsPage(ctx context.Context, kind core.Kind) (recordsPage, error) {
	records, err := s.ledger.Records(ctx, kind)
	if err != nil {
		return recordsPage{}, err
	}
	bundle, err := analytics.Build(ctx, records, s.renderer, analytics.TitlesFor(kind))
	if err != nil {
		return recordsPage{}, fmt.Errorf("build analytics: %w", err)
	}
	return recordsPage{
		Title:          kind.Title(),
		Active:         kind.String(),
		Kind:           kind,
		Action:         "/add_" + kind.String(),
		Records:        records,
		Total:          analytics.Sum(records),
		CategoryTotals: analytics.CategoryTotalsMap(records),
		Analytics:      bundle,
		Form:           formValues{Date: s.now().Format(core.DateLayout)},
	}, nil
}

func (s *Server) loadFailed(w http.ResponseWriter, r *http.Request, kind core.Kind, err error) {
	s.structLog.LogError(r.Context(), "Failed to load records", err, log.ComponentHTTP, log.OpLoad,
		log.LogFields{log.FieldKind: kind.String()})
	http.Error(w, "Failed to load records", http.StatusInternalServerError)
}

// render executes a page into a buffer so that a template failure never
// leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data interface{}) {
	t, ok := s.templates[page]
	if !ok {
		s.logger.ErrorContext(r.Context(), "Unknown page template", "template", page)
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		s.structLog.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.LogFields{"template": page})
		http.Error(w, "Failed to render the page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = buf.WriteTo(w)
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the templates and the storage backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]string{"templates": "ok", "storage": "ok"}

	if len(s.templates) != len(pages) {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	}
	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics exposes counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.traceMiddleware.GetMetrics()
	limitMetrics := s.rateLimiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	metrics := []struct {
		name, help, typ string
		value           int64
	}{
		{"http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests},
		{"http_server_errors_total", "Responses with a 5xx status", "counter", traceMetrics.ServerErrors},
		{"records_created_total", "Records stored through the web forms", "counter", atomic.LoadInt64(&s.recordsCreated)},
		{"rate_limited_total", "Requests rejected by the rate limiter", "counter", limitMetrics.Rejected},
		{"rate_limit_clients", "Clients tracked by the rate limiter", "gauge", limitMetrics.ClientCount},
		{"suspicious_requests_total", "Requests flagged by the security detector", "counter", s.securityDetector.SuspiciousRequests()},
		{"uptime_seconds", "Seconds since the server started", "gauge", int64(time.Since(s.started).Seconds())},
	}
	for _, m := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n\n", m.name, m.help, m.name, m.typ, m.name, m.value)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
