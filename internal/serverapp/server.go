// Package serverapp assembles the full HTTP handler: auth, the domain
// APIs, the meta endpoints and the middleware chain.
package serverapp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/markRiceOld/trackerApi/internal/action"
	"github.com/markRiceOld/trackerApi/internal/auth"
	"github.com/markRiceOld/trackerApi/internal/config"
	"github.com/markRiceOld/trackerApi/internal/daystate"
	"github.com/markRiceOld/trackerApi/internal/httpmw"
	"github.com/markRiceOld/trackerApi/internal/interval"
	"github.com/markRiceOld/trackerApi/internal/plan"
	"github.com/markRiceOld/trackerApi/internal/routine"
	"github.com/markRiceOld/trackerApi/internal/server"
	"github.com/markRiceOld/trackerApi/internal/telemetry"
	"github.com/markRiceOld/trackerApi/internal/today"
)

type Options struct {
	Config *config.Config
	Store  Store
	Logger *log.Logger
}

// Store is the persistence surface serverapp needs. *store.Store
// satisfies it; tests can plug in anything that returns per-user repos.
type Store interface {
	auth.Repo
	Actions(userID string) action.Repo
	Intervals(userID string) interval.Repo
	Routines(userID string) routine.Repo
	Days(userID string) daystate.Repo
	Plans(userID string) plan.Repo
}

func NewHandler(opts Options) (http.Handler, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	mux := http.NewServeMux()
	rr := &server.RouteRegistry{}
	events := telemetry.NewMemoryRepository()

	authService := auth.NewService(opts.Store, opts.Logger)
	logSecurityHints(opts.Logger)
	authHandler := auth.NewHandler(authService)
	mux.HandleFunc("/api/auth/request-otp", authHandler.RequestOTP)
	mux.HandleFunc("/api/auth/verify-otp", authHandler.VerifyOTP)
	mux.HandleFunc("/api/auth/session", authHandler.Session)
	mux.HandleFunc("/api/auth/logout", authHandler.Logout)
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/auth/request-otp", Summary: "Request a login code", ExampleBody: `{"email":"me@example.com"}`})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/auth/verify-otp", Summary: "Exchange a login code for a session", ExampleBody: `{"email":"me@example.com","code":"123456"}`})
	rr.Add(server.RouteDoc{Method: "GET", Pattern: "/api/auth/session", Summary: "Current session info"})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/auth/logout", Summary: "Revoke the current session"})

	// Every domain repo is resolved per request from the authenticated
	// user. RequireAPI rejects unauthenticated requests before the
	// resolvers run, so a missing user only ever yields an empty scope.
	userID := func(r *http.Request) string {
		u, _ := auth.UserFromContext(r.Context())
		return u.ID
	}

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authService.RequireAPI(h))
	}

	actionHandler := action.NewHandler(nil)
	actionHandler.SetRepoResolver(func(r *http.Request) action.Repo {
		return opts.Store.Actions(userID(r))
	})
	actionHandler.SetTelemetry(events)
	api("/api/actions", actionHandler.ActionsRoot)
	api("/api/actions/", actionHandler.ActionsSub)
	rr.Add(server.RouteDoc{Method: "GET", Pattern: "/api/actions", Summary: "List actions, filterable by due date, done, gathered"})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/actions", Summary: "Create a standalone action", ExampleBody: `{"title":"Call the bank","dueDate":"2026-09-01","estimatedMinutes":20}`})
	rr.Add(server.RouteDoc{Method: "PATCH", Pattern: "/api/actions/{id}", Summary: "Update action fields"})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/actions/{id}/toggle", Summary: "Flip the done flag"})
	rr.Add(server.RouteDoc{Method: "PUT", Pattern: "/api/actions/{id}/start-time", Summary: "Set or clear the planned start time", ExampleBody: `{"startTimeOfDay":"14:30"}`})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/actions/{id}/postpone", Summary: "Resolve an unfinished action by moving it forward", ExampleBody: `{"toDate":"2026-09-02"}`})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/actions/{id}/outsource", Summary: "Resolve an unfinished action by delegating it"})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/actions/{id}/fate", Summary: "Assign a terminal fate", ExampleBody: `{"fate":"Backlog"}`})

	intervalHandler := interval.NewHandler(nil)
	intervalHandler.SetRepoResolver(func(r *http.Request) interval.Repo {
		return opts.Store.Intervals(userID(r))
	})
	api("/api/intervals", intervalHandler.IntervalsRoot)
	api("/api/intervals/", intervalHandler.IntervalsSub)
	rr.Add(server.RouteDoc{Method: "GET", Pattern: "/api/intervals", Summary: "List interval sources"})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/intervals", Summary: "Create an interval source", ExampleBody: `{"title":"Water plants","estimatedMinutes":15,"repeatValue":3,"repeatUnit":"day"}`})
	rr.Add(server.RouteDoc{Method: "PATCH", Pattern: "/api/intervals/{id}", Summary: "Update an interval source"})
	rr.Add(server.RouteDoc{Method: "DELETE", Pattern: "/api/intervals/{id}", Summary: "Retire an interval source"})

	routineHandler := routine.NewHandler(nil)
	routineHandler.SetRepoResolver(func(r *http.Request) routine.Repo {
		return opts.Store.Routines(userID(r))
	})
	api("/api/routines", routineHandler.RoutinesRoot)
	api("/api/routines/", routineHandler.RoutinesSub)
	rr.Add(server.RouteDoc{Method: "GET", Pattern: "/api/routines", Summary: "List routines"})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/routines", Summary: "Create a routine", ExampleBody: `{"title":"Morning pages","estimatedMinutes":30,"timeBlocks":["07:00"]}`})
	rr.Add(server.RouteDoc{Method: "PATCH", Pattern: "/api/routines/{id}", Summary: "Update a routine"})
	rr.Add(server.RouteDoc{Method: "DELETE", Pattern: "/api/routines/{id}", Summary: "Retire a routine"})

	planHandler := plan.NewHandler(nil)
	planHandler.SetRepoResolver(func(r *http.Request) plan.Repo {
		return opts.Store.Plans(userID(r))
	})
	api("/api/goals", planHandler.GoalsRoot)
	api("/api/goals/", planHandler.GoalsSub)
	api("/api/milestones", planHandler.MilestonesRoot)
	api("/api/milestones/", planHandler.MilestonesSub)
	api("/api/projects", planHandler.ProjectsRoot)
	api("/api/projects/", planHandler.ProjectsSub)
	rr.Add(server.RouteDoc{Method: "GET", Pattern: "/api/goals", Summary: "List goals"})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/goals", Summary: "Create a goal", ExampleBody: `{"title":"Run a marathon"}`})
	rr.Add(server.RouteDoc{Method: "GET", Pattern: "/api/milestones", Summary: "List milestones, optionally scoped with ?goal=<id>"})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/milestones", Summary: "Create a milestone under a goal", ExampleBody: `{"goalId":"g1","title":"Finish a half","order":1}`})
	rr.Add(server.RouteDoc{Method: "PATCH", Pattern: "/api/milestones/{id}", Summary: "Update or reorder a milestone"})
	rr.Add(server.RouteDoc{Method: "GET", Pattern: "/api/projects", Summary: "List projects"})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/projects", Summary: "Create a project", ExampleBody: `{"title":"Garden rework","priority":"secondary"}`})

	todayHandler := today.NewHandler()
	todayHandler.SetActionResolver(func(r *http.Request) action.Repo {
		return opts.Store.Actions(userID(r))
	})
	todayHandler.SetIntervalResolver(func(r *http.Request) interval.Repo {
		return opts.Store.Intervals(userID(r))
	})
	todayHandler.SetRoutineResolver(func(r *http.Request) routine.Repo {
		return opts.Store.Routines(userID(r))
	})
	todayHandler.SetDayResolver(func(r *http.Request) daystate.Repo {
		return opts.Store.Days(userID(r))
	})
	todayHandler.SetTelemetry(events)
	todayHandler.SetWindowDays(opts.Config.Day.GatherWindowDays)
	todayHandler.SetFallbackTime(opts.Config.Day.DefaultRoutineTime)
	api("/api/day/", todayHandler.DaySub)
	rr.Add(server.RouteDoc{Method: "GET", Pattern: "/api/day/today", Summary: "Today's gathered actions"})
	rr.Add(server.RouteDoc{Method: "GET", Pattern: "/api/day/pre-day-status", Summary: "Unresolved actions blocking today"})
	rr.Add(server.RouteDoc{Method: "GET", Pattern: "/api/day/not-done", Summary: "Unfinished actions classified by source link"})
	rr.Add(server.RouteDoc{Method: "GET", Pattern: "/api/day/state", Summary: "Workflow state for a date"})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/day/gather", Summary: "Materialize the upcoming window of actions", ExampleBody: `{"date":"2026-09-01"}`})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/day/complete-pre-day", Summary: "Mark pre-day done for a date", ExampleBody: `{"date":"2026-09-01"}`})
	rr.Add(server.RouteDoc{Method: "POST", Pattern: "/api/day/complete-after-day", Summary: "Mark after-day done for a date", ExampleBody: `{"date":"2026-09-01"}`})

	server.RegisterMeta(mux, rr, events, authService.RequireAPI)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "tracker",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, _, err := opts.Store.GetUserByID("readyz-probe"); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "tracker",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
	), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func logSecurityHints(logger *log.Logger) {
	if logger == nil {
		return
	}
	env := strings.ToLower(strings.TrimSpace(os.Getenv("TRACKER_ENV")))
	cookieSecure := strings.ToLower(strings.TrimSpace(os.Getenv("TRACKER_COOKIE_SECURE")))

	if env == "production" || env == "prod" {
		if cookieSecure != "1" && cookieSecure != "true" && cookieSecure != "yes" {
			logger.Printf("[security] TRACKER_ENV=%s but TRACKER_COOKIE_SECURE is not explicitly true", env)
		}
	}
}
