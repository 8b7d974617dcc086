package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/markRiceOld/trackerApi/internal/telemetry"
)

// RegisterMeta exposes the introspection endpoints: the route listing and
// the aggregated event stats. Both sit behind the same auth wrap as the
// rest of the API.
func RegisterMeta(mux *http.ServeMux, rr *RouteRegistry, events telemetry.Repository, wrap func(http.Handler) http.Handler) {
	routesHandler := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"routes": rr.List()})
	}
	statsHandler := func(w http.ResponseWriter, r *http.Request) {
		evs, err := events.GetEvents()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load events"})
			return
		}
		writeJSON(w, http.StatusOK, telemetry.CalculateStats(evs))
	}

	Handle(mux, rr, "GET /api/routes", "List registered API routes", "", wrapFunc(wrap, routesHandler))
	Handle(mux, rr, "GET /api/stats", "Aggregated telemetry stats", "", wrapFunc(wrap, statsHandler))
}

func wrapFunc(wrap func(http.Handler) http.Handler, h http.HandlerFunc) http.HandlerFunc {
	if wrap == nil {
		return h
	}
	return wrap(h).ServeHTTP
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: write json: %v", err)
	}
}
