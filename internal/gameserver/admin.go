package gameserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/game/session"
)

// AdminConfig holds the admin router's collaborators.
type AdminConfig struct {
	Coordinator *combat.Coordinator
	Sessions    *session.Manager
	// Gatherer serves /metrics; nil omits the route.
	Gatherer prometheus.Gatherer
	// Ready reports whether the tick loop is running; nil means always ready.
	Ready func() bool
}

type healthResponse struct {
	Status   string `json:"status"`
	Players  int    `json:"players"`
	Sessions int    `json:"sessions"`
}

// NewAdminRouter builds the admin HTTP router. It starts no goroutines and
// opens no listeners.
//
// Routes:
//
//	GET /healthz          liveness plus player and session counts
//	GET /metrics          Prometheus exposition
//	GET /combat/sessions  JSON snapshot of every combat session
//	GET /combat/sessions/{uid}
func NewAdminRouter(cfg AdminConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{
			Status:   "ok",
			Players:  cfg.Sessions.PlayerCount(),
			Sessions: cfg.Coordinator.SessionCount(),
		}
		status := http.StatusOK
		if cfg.Ready != nil && !cfg.Ready() {
			resp.Status = "starting"
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/combat/sessions", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, cfg.Coordinator.Snapshot())
		})
		r.Get("/{uid}", func(w http.ResponseWriter, req *http.Request) {
			snap, ok := cfg.Coordinator.Session(chi.URLParam(req, "uid"))
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no combat session"})
				return
			}
			writeJSON(w, http.StatusOK, snap)
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
