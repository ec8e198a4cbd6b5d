package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ztnlabs/nexus/pkg/policy"
	"github.com/ztnlabs/nexus/pkg/roblox"
	"github.com/ztnlabs/nexus/pkg/telemetry"
)

// Server wires the proxy components behind the HTTP surface.
type Server struct {
	client     *roblox.Client
	aggregator *roblox.Aggregator
	usage      *telemetry.Store
	status     *policy.Status
	blocks     *policy.BlockList
	actions    *policy.ActionLog
	logger     zerolog.Logger
}

// NewServer creates the HTTP surface over the given components.
func NewServer(
	client *roblox.Client,
	aggregator *roblox.Aggregator,
	usage *telemetry.Store,
	status *policy.Status,
	blocks *policy.BlockList,
	actions *policy.ActionLog,
	logger zerolog.Logger,
) *Server {
	return &Server{
		client:     client,
		aggregator: aggregator,
		usage:      usage,
		status:     status,
		blocks:     blocks,
		actions:    actions,
		logger:     logger,
	}
}

// Router builds the chi router for the surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api/roblox", func(r chi.Router) {
		r.Use(s.recordUsage)
		r.Use(s.requireEnabled)
		r.Use(s.rejectBlocked)

		r.Get("/user", s.handleUser)
		r.Get("/universes", s.handleUniverses)
		r.Get("/gamepasses", s.handleGamePasses)
		r.Get("/clothing", s.handleClothing)
		r.Get("/ugc", s.handleUGC)
		r.Get("/all-assets", s.handleAllAssets)
	})

	r.Get("/api/nexus/stats", s.handleStats)
	r.Get("/api/nexus/admin", s.handleAdminQuery)
	r.Post("/api/nexus/admin", s.handleAdminAction)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// Headers are already out; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the plain error shape used by validation failures.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"apiEnabled": s.status.Enabled(),
	})
}
