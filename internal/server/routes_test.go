package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markRiceOld/trackerApi/internal/telemetry"
)

func TestHandle_RecordsRouteDoc(t *testing.T) {
	mux := http.NewServeMux()
	rr := &RouteRegistry{}

	Handle(mux, rr, "GET /ping", "liveness probe", "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	docs := rr.List()
	require.Len(t, docs, 1)
	require.Equal(t, "GET", docs[0].Method)
	require.Equal(t, "/ping", docs[0].Pattern)
	require.Equal(t, "liveness probe", docs[0].Summary)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRegisterMeta_RoutesAndStats(t *testing.T) {
	mux := http.NewServeMux()
	rr := &RouteRegistry{}
	rr.Add(RouteDoc{Method: "POST", Pattern: "/api/day/gather", Summary: "Materialize the window"})

	events := telemetry.NewMemoryRepository()
	require.NoError(t, events.RecordEvent(telemetry.EventGatherRun, nil))

	RegisterMeta(mux, rr, events, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/routes", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Routes []RouteDoc `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	patterns := make([]string, 0, len(listing.Routes))
	for _, d := range listing.Routes {
		patterns = append(patterns, d.Pattern)
	}
	require.Contains(t, patterns, "/api/day/gather")
	require.Contains(t, patterns, "/api/routes")
	require.Contains(t, patterns, "/api/stats")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats telemetry.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, 1, stats.GatherRuns)
	require.Equal(t, 1, stats.TotalEvents)
}
