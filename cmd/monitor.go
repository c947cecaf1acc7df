package cmd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/grovetools/elementipelago/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type snapshotter interface {
	Snapshot() session.Snapshot
}

type healthResponse struct {
	Status           string   `json:"status"`
	Address          string   `json:"address,omitempty"`
	Slot             string   `json:"slot,omitempty"`
	SlotID           int      `json:"slot_id"`
	Team             int      `json:"team"`
	SeedName         string   `json:"seed_name,omitempty"`
	CheckedLocations int      `json:"checked_locations"`
	MissingLocations int      `json:"missing_locations"`
	ItemsReceived    int      `json:"items_received"`
	HintPoints       int      `json:"hint_points"`
	Games            []string `json:"cached_games"`
	HasGraph         bool     `json:"has_graph"`
}

// newMonitorRouter serves /metrics from reg and /healthz from the session
// snapshot. /healthz answers 503 while not logged in.
func newMonitorRouter(reg *prometheus.Registry, s snapshotter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		snap := s.Snapshot()
		resp := healthResponse{
			Status:           snap.Status.String(),
			Address:          snap.Address,
			Slot:             snap.Slot,
			SlotID:           int(snap.SlotID),
			Team:             int(snap.Team),
			SeedName:         snap.SeedName,
			CheckedLocations: len(snap.CheckedLocations),
			MissingLocations: len(snap.MissingLocations),
			ItemsReceived:    snap.NextItemIndex,
			HintPoints:       snap.HintPoints,
			Games:            snap.Games,
			HasGraph:         snap.HasGraph,
		}
		if resp.Games == nil {
			resp.Games = []string{}
		}

		w.Header().Set("Content-Type", "application/json")
		if snap.Status != session.StatusConnected {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	return r
}
