package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/doxbuilder/internal/history"
	"git.home.luguber.info/inful/doxbuilder/internal/version"
)

// AdminServer exposes the daemon's operational endpoints: health, status,
// metrics, and a manual build trigger.
type AdminServer struct {
	server    *http.Server
	queue     *Queue
	store     *history.Store // may be nil
	startTime time.Time
}

// NewAdminServer wires the admin HTTP server. registry may be nil, in which
// case /metrics is not served.
func NewAdminServer(listen string, queue *Queue, store *history.Store, registry *prom.Registry) *AdminServer {
	s := &AdminServer{
		queue:     queue,
		store:     store,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /build", s.handleTrigger)
	if registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	s.server = &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins serving in the background.
func (s *AdminServer) Start(ctx context.Context) error {
	slog.Info("Starting admin server", "addr", s.server.Addr)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Admin server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *AdminServer) Stop(ctx context.Context) error {
	slog.Info("Stopping admin server")
	return s.server.Shutdown(ctx)
}

func (s *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Version,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *AdminServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"queue_depth": s.queue.Depth(),
		"running":     s.queue.Current(),
		"last_job":    s.queue.Last(),
	}
	if s.store != nil {
		if last, err := s.store.Last(r.Context()); err == nil && last != nil {
			status["last_build"] = map[string]any{
				"build_id": last.BuildID,
				"version":  last.Version,
				"outcome":  last.Outcome,
				"finished": last.FinishedAt,
			}
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *AdminServer) handleTrigger(w http.ResponseWriter, r *http.Request) {
	job := NewBuildJob(BuildTypeManual, "http trigger")
	if err := s.queue.Enqueue(job); err != nil {
		if errors.Is(err, ErrBuildPending) {
			writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": job.ID, "status": job.Status})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("Failed to encode response", "error", err)
	}
}
