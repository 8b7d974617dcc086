package today

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/markRiceOld/trackerApi/internal/action"
	"github.com/markRiceOld/trackerApi/internal/calendar"
	"github.com/markRiceOld/trackerApi/internal/daystate"
	"github.com/markRiceOld/trackerApi/internal/gather"
	"github.com/markRiceOld/trackerApi/internal/interval"
	"github.com/markRiceOld/trackerApi/internal/routine"
	"github.com/markRiceOld/trackerApi/internal/telemetry"
)

// Handler serves the /api/day/* surface: the planning reads, the gating
// completions, and the materialization run. Repos are resolved per request
// so every call operates on the authenticated user's records.
type Handler struct {
	actionResolver   func(*http.Request) action.Repo
	intervalResolver func(*http.Request) interval.Repo
	routineResolver  func(*http.Request) routine.Repo
	dayResolver      func(*http.Request) daystate.Repo

	windowDays   int
	fallbackTime string
	telemetry    telemetry.Repository
}

func NewHandler() *Handler {
	return &Handler{
		windowDays:   gather.DefaultWindowDays,
		fallbackTime: "09:00",
	}
}

func (h *Handler) SetActionResolver(fn func(*http.Request) action.Repo)     { h.actionResolver = fn }
func (h *Handler) SetIntervalResolver(fn func(*http.Request) interval.Repo) { h.intervalResolver = fn }
func (h *Handler) SetRoutineResolver(fn func(*http.Request) routine.Repo)   { h.routineResolver = fn }
func (h *Handler) SetDayResolver(fn func(*http.Request) daystate.Repo)      { h.dayResolver = fn }
func (h *Handler) SetTelemetry(repo telemetry.Repository)                   { h.telemetry = repo }

func (h *Handler) SetWindowDays(days int) {
	if days > 0 {
		h.windowDays = days
	}
}

func (h *Handler) SetFallbackTime(clock string) {
	if normalized, ok := calendar.NormalizeClock(clock); ok {
		h.fallbackTime = normalized
	}
}

func (h *Handler) record(eventType telemetry.EventType, metadata telemetry.EventMetadata) {
	if h.telemetry == nil {
		return
	}
	_ = h.telemetry.RecordEvent(eventType, metadata)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func (h *Handler) serviceForRequest(r *http.Request) *Service {
	return &Service{
		Actions:   h.actionResolver(r),
		Days:      h.dayResolver(r),
		Intervals: h.intervalResolver(r),
	}
}

func (h *Handler) gatherForRequest(r *http.Request) *gather.Service {
	return &gather.Service{
		Actions:      h.actionResolver(r),
		Intervals:    h.intervalResolver(r),
		Routines:     h.routineResolver(r),
		Days:         h.dayResolver(r),
		WindowDays:   h.windowDays,
		FallbackTime: h.fallbackTime,
	}
}

// queryDate reads ?date= and defaults to the current day.
func queryDate(r *http.Request) string {
	d := strings.TrimSpace(r.URL.Query().Get("date"))
	if d == "" {
		return calendar.Key(time.Now())
	}
	return d
}

// /api/day/{op}
func (h *Handler) DaySub(w http.ResponseWriter, r *http.Request) {
	op := strings.TrimPrefix(r.URL.Path, "/api/day/")
	op = strings.Trim(op, "/")

	switch op {
	case "today":
		h.today(w, r)
	case "pre-day-status":
		h.preDayStatus(w, r)
	case "not-done":
		h.notDone(w, r)
	case "state":
		h.state(w, r)
	case "gather":
		h.gather(w, r)
	case "complete-pre-day":
		h.completePreDay(w, r)
	case "complete-after-day":
		h.completeAfterDay(w, r)
	default:
		writeErr(w, 404, "not found")
	}
}

func (h *Handler) today(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, 405, "method not allowed")
		return
	}
	actions, err := h.serviceForRequest(r).TodayActions(queryDate(r))
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, actions)
}

func (h *Handler) preDayStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, 405, "method not allowed")
		return
	}
	status, err := h.serviceForRequest(r).Status(queryDate(r))
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, status)
}

func (h *Handler) notDone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, 405, "method not allowed")
		return
	}
	nd, err := h.serviceForRequest(r).Classify(queryDate(r))
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, nd)
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, 405, "method not allowed")
		return
	}
	dateKey := queryDate(r)
	if !calendar.IsDateKey(dateKey) {
		writeErr(w, 400, "date must be YYYY-MM-DD")
		return
	}
	state, _, err := h.dayResolver(r).Get(dateKey)
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	state.DateKey = dateKey
	writeJSON(w, 200, state)
}

func (h *Handler) gather(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, 405, "method not allowed")
		return
	}

	var in struct {
		Date  string `json:"date"`
		Force bool   `json:"force"`
	}
	if r.Body != nil {
		_ = decodeJSON(r, &in)
	}
	dateKey := strings.TrimSpace(in.Date)
	if dateKey == "" {
		dateKey = calendar.Key(time.Now())
	}
	if !calendar.IsDateKey(dateKey) {
		writeErr(w, 400, "date must be YYYY-MM-DD")
		return
	}

	res, err := h.gatherForRequest(r).Run(dateKey, !in.Force)
	if err != nil && len(res.DatesProcessed) == 0 {
		writeErr(w, 500, err.Error())
		return
	}

	h.record(telemetry.EventGatherRun, telemetry.EventMetadata{
		"date":           dateKey,
		"datesProcessed": len(res.DatesProcessed),
		"actionsCreated": res.ActionsCreated,
	})
	writeJSON(w, 200, res)
}

func (h *Handler) completePreDay(w http.ResponseWriter, r *http.Request) {
	h.complete(w, r, telemetry.EventPreDayCompleted, func(repo daystate.Repo, dateKey string) (any, error) {
		return repo.CompletePreDay(dateKey, time.Now())
	})
}

func (h *Handler) completeAfterDay(w http.ResponseWriter, r *http.Request) {
	h.complete(w, r, telemetry.EventAfterDayCompleted, func(repo daystate.Repo, dateKey string) (any, error) {
		return repo.CompleteAfterDay(dateKey, time.Now())
	})
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request, event telemetry.EventType, fn func(daystate.Repo, string) (any, error)) {
	if r.Method != http.MethodPost {
		writeErr(w, 405, "method not allowed")
		return
	}

	var in struct {
		Date string `json:"date"`
	}
	if r.Body != nil {
		_ = decodeJSON(r, &in)
	}
	dateKey := strings.TrimSpace(in.Date)
	if dateKey == "" {
		dateKey = calendar.Key(time.Now())
	}
	if !calendar.IsDateKey(dateKey) {
		writeErr(w, 400, "date must be YYYY-MM-DD")
		return
	}

	state, err := fn(h.dayResolver(r), dateKey)
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	h.record(event, telemetry.EventMetadata{"date": dateKey})
	writeJSON(w, 200, state)
}
