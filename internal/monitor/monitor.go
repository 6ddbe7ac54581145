// Package monitor turns the harness into a long-running canary: the suite
// executes on a fixed interval and the outcomes are exposed over HTTP for
// Prometheus and humans.
//
// Endpoints:
//
//	GET /healthz      liveness probe
//	GET /metrics      Prometheus scrape endpoint
//	GET /runs/last    summary of the most recent run
//	GET /runs         recent summaries from the archive, when configured
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shashiranjanraj/mediaprobe/internal/report"
	"github.com/shashiranjanraj/mediaprobe/pkg/metrics"
)

// RunFunc executes one full suite run and returns its summary.
type RunFunc func(ctx context.Context) (report.RunSummary, error)

// Monitor schedules suite runs and serves their results.
type Monitor struct {
	Addr     string
	Interval time.Duration
	Run      RunFunc
	Archive  *report.MongoArchive // nil disables /runs
	Log      *slog.Logger

	mu   sync.RWMutex
	last *report.RunSummary
}

// Start runs the schedule loop and the HTTP server until ctx is cancelled.
// The first run fires immediately, not after the first interval.
func (m *Monitor) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              m.Addr,
		Handler:           m.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		m.Log.Info("monitor listening", "addr", m.Addr, "interval", m.Interval.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	m.runOnce(ctx)

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.runOnce(ctx)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
}

// runOnce executes the suite and stores the summary. A run error is logged,
// not fatal — the canary keeps its schedule.
func (m *Monitor) runOnce(ctx context.Context) {
	sum, err := m.Run(ctx)
	if err != nil {
		m.Log.Error("monitor: run failed", "error", err)
		return
	}
	m.mu.Lock()
	m.last = &sum
	m.mu.Unlock()
}

func (m *Monitor) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", metrics.Handler())

	r.Get("/runs/last", func(w http.ResponseWriter, _ *http.Request) {
		m.mu.RLock()
		last := m.last
		m.mu.RUnlock()
		if last == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no run has completed yet"})
			return
		}
		writeJSON(w, http.StatusOK, last)
	})

	r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
		if m.Archive == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run archive is not configured"})
			return
		}
		limit := 20
		if q := req.URL.Query().Get("limit"); q != "" {
			if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}
		runs, err := m.Archive.Latest(limit)
		if err != nil {
			m.Log.Error("monitor: archive query failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "archive query failed"})
			return
		}
		writeJSON(w, http.StatusOK, runs)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
