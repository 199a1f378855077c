package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/climate-node/internal/journal"
)

// HTTP listener timeouts.
const (
	readTimeout             = 5 * time.Second
	writeTimeout            = 10 * time.Second
	idleTimeout             = 60 * time.Second
	gracefulShutdownTimeout = 5 * time.Second
)

// Logger defines the logging interface used by Serve.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// History is the journal query behind /cycles.
type History interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// ServerOptions configures the diagnostics listener.
type ServerOptions struct {
	Addr    string
	Version string

	// History is optional; without it /cycles is not routed.
	History History
}

// Router builds the diagnostics routes:
//
//	GET /metrics   Prometheus exposition
//	GET /healthz   version and the last cycle outcome
//	GET /cycles    recent journal entries (?limit=N), when History is set
func (r *Recorder) Router(opts ServerOptions) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", r.handleHealth(opts.Version))
	if opts.History != nil {
		router.Get("/cycles", handleCycles(opts.History))
	}
	return router
}

// Serve listens on opts.Addr until ctx is done, then shuts the listener
// down gracefully.
//
// Returns:
//   - error: nil after a clean shutdown, or the listen error
func (r *Recorder) Serve(ctx context.Context, opts ServerOptions, logger Logger) error {
	server := &http.Server{
		Addr:              opts.Addr,
		Handler:           r.Router(opts),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("diagnostics listener starting", "address", opts.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("diagnostics listener: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down diagnostics listener: %w", err)
	}
	logger.Info("diagnostics listener stopped")
	return nil
}

// healthResponse is the /healthz body.
type healthResponse struct {
	Status     string     `json:"status"`
	Version    string     `json:"version"`
	LastCycle  *time.Time `json:"last_cycle,omitempty"`
	LastResult string     `json:"last_result,omitempty"`
	Published  bool       `json:"published"`
}

func (r *Recorder) handleHealth(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{Status: "ok", Version: version}

		if report, ok := r.lastReport(); ok {
			started := report.StartedAt
			resp.LastCycle = &started
			resp.LastResult = report.Outcome().String()
			resp.Published = report.Published
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// cycleView is one /cycles entry.
type cycleView struct {
	ID          string    `json:"id"`
	Mode        string    `json:"mode"`
	StartedAt   time.Time `json:"started_at"`
	DurationMS  int64     `json:"duration_ms"`
	NetworkUp   bool      `json:"network_up"`
	BrokerUp    bool      `json:"broker_up"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Published   bool      `json:"published"`
	Result      string    `json:"result"`
	Fault       string    `json:"fault,omitempty"`
}

func handleCycles(history History) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		limit := 0
		if v := req.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
				return
			}
			limit = n
		}

		entries, err := history.Recent(req.Context(), limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "reading journal failed"})
			return
		}

		views := make([]cycleView, 0, len(entries))
		for _, e := range entries {
			views = append(views, cycleView{
				ID:          e.ID,
				Mode:        string(e.Mode),
				StartedAt:   e.StartedAt,
				DurationMS:  e.Duration.Milliseconds(),
				NetworkUp:   e.NetworkUp,
				BrokerUp:    e.BrokerUp,
				Temperature: e.Temperature,
				Humidity:    e.Humidity,
				Published:   e.Published,
				Result:      e.Result,
				Fault:       e.Fault,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"cycles": views})
	}
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Client went away
}
