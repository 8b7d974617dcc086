package action

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/markRiceOld/trackerApi/internal/calendar"
	"github.com/markRiceOld/trackerApi/internal/model"
	"github.com/markRiceOld/trackerApi/internal/telemetry"
)

type Handler struct {
	repo         Repo
	repoResolver func(*http.Request) Repo
	telemetry    telemetry.Repository
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) SetRepoResolver(fn func(*http.Request) Repo) {
	h.repoResolver = fn
}

func (h *Handler) SetTelemetry(repo telemetry.Repository) {
	h.telemetry = repo
}

func (h *Handler) repoForRequest(r *http.Request) Repo {
	if h.repoResolver != nil {
		if repo := h.repoResolver(r); repo != nil {
			return repo
		}
	}
	return h.repo
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

func parseBoolPtr(s string) *bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "any" {
		return nil
	}
	if s == "1" || s == "true" || s == "yes" {
		b := true
		return &b
	}
	if s == "0" || s == "false" || s == "no" {
		b := false
		return &b
	}
	return nil
}

const maxEstimatedMinutes = 1440

// validateUpsert checks a create payload and normalizes it in place.
func validateUpsert(in *model.ActionUpsert) string {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return "title is required"
	}
	if in.Priority == "" {
		in.Priority = model.PriorityPrimary
	}
	if !in.Priority.Valid() {
		return "invalid priority"
	}
	if in.DueDate != nil && *in.DueDate != "" && !calendar.IsDateKey(*in.DueDate) {
		return "dueDate must be YYYY-MM-DD"
	}
	if in.DueDate != nil && *in.DueDate != "" {
		if in.EstimatedMinutes == nil {
			return "estimatedMinutes is required when dueDate is set"
		}
	}
	if in.EstimatedMinutes != nil && (*in.EstimatedMinutes < 0 || *in.EstimatedMinutes > maxEstimatedMinutes) {
		return "estimatedMinutes must be between 0 and 1440"
	}
	if in.StartTimeOfDay != nil && *in.StartTimeOfDay != "" {
		clock, ok := calendar.NormalizeClock(*in.StartTimeOfDay)
		if !ok {
			return "startTimeOfDay must be HH:mm"
		}
		in.StartTimeOfDay = &clock
	}
	return ""
}

// /api/actions  (collection)
func (h *Handler) ActionsRoot(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		filter := ListFilter{
			DueOn:      q.Get("due"),
			GatheredOn: q.Get("gatheredOn"),
			Done:       parseBoolPtr(q.Get("done")),
			FateUnset:  parseBoolPtr(q.Get("fateUnset")) != nil && *parseBoolPtr(q.Get("fateUnset")),
			Standalone: parseBoolPtr(q.Get("standalone")) != nil && *parseBoolPtr(q.Get("standalone")),
		}
		as, err := repo.List(filter)
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, as)
		return

	case http.MethodPost:
		var in model.ActionUpsert
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		if msg := validateUpsert(&in); msg != "" {
			writeErr(w, 400, msg)
			return
		}

		a, err := repo.Create(model.Action{
			Title:            in.Title,
			Done:             in.Done,
			Priority:         in.Priority,
			DueDate:          in.DueDate,
			EstimatedMinutes: in.EstimatedMinutes,
			StartTimeOfDay:   in.StartTimeOfDay,
			ProjectID:        in.ProjectID,
		})
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}

		h.record(telemetry.EventActionCreated, telemetry.EventMetadata{"actionId": string(a.ID)})
		writeJSON(w, 201, a)
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

// /api/actions/{id} and subroutes
func (h *Handler) ActionsSub(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	tail := strings.TrimPrefix(r.URL.Path, "/api/actions/")
	tail = strings.Trim(tail, "/")
	if tail == "" {
		writeErr(w, 404, "not found")
		return
	}

	parts := strings.Split(tail, "/")
	id := model.ActionID(parts[0])

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			a, err := repo.Get(id)
			if err == ErrNotFound {
				writeErr(w, 404, "not found")
				return
			}
			if err != nil {
				writeErr(w, 500, err.Error())
				return
			}
			writeJSON(w, 200, a)
			return

		case http.MethodPatch:
			h.patchAction(w, r, repo, id)
			return

		case http.MethodDelete:
			a, err := repo.Delete(id)
			if err == ErrNotFound {
				writeErr(w, 404, "not found")
				return
			}
			if err != nil {
				writeErr(w, 500, err.Error())
				return
			}
			writeJSON(w, 200, a)
			return

		default:
			writeErr(w, 405, "method not allowed")
			return
		}
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "toggle":
			h.toggle(w, r, repo, id)
			return
		case "start-time":
			h.startTime(w, r, repo, id)
			return
		case "postpone":
			h.postpone(w, r, repo, id)
			return
		case "outsource":
			h.outsource(w, r, repo, id)
			return
		case "fate":
			h.fate(w, r, repo, id)
			return
		}
	}

	writeErr(w, 404, "not found")
}

func (h *Handler) patchAction(w http.ResponseWriter, r *http.Request, repo Repo, id model.ActionID) {
	var p Patch
	if err := decodeJSON(r, &p); err != nil {
		writeErr(w, 400, "bad json")
		return
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		writeErr(w, 400, "title cannot be empty")
		return
	}
	if p.Priority != nil && !p.Priority.Valid() {
		writeErr(w, 400, "invalid priority")
		return
	}
	if p.DueDate != nil && *p.DueDate != "" && !calendar.IsDateKey(*p.DueDate) {
		writeErr(w, 400, "dueDate must be YYYY-MM-DD")
		return
	}
	if p.EstimatedMinutes != nil && (*p.EstimatedMinutes < 0 || *p.EstimatedMinutes > maxEstimatedMinutes) {
		writeErr(w, 400, "estimatedMinutes must be between 0 and 1440")
		return
	}
	if p.StartTimeOfDay != nil && *p.StartTimeOfDay != "" {
		clock, ok := calendar.NormalizeClock(*p.StartTimeOfDay)
		if !ok {
			writeErr(w, 400, "startTimeOfDay must be HH:mm")
			return
		}
		p.StartTimeOfDay = &clock
	}
	if p.Fate != nil && !p.Fate.Valid() {
		writeErr(w, 400, "invalid fate")
		return
	}
	if p.ForDate != nil && *p.ForDate != "" && !calendar.IsDateKey(*p.ForDate) {
		writeErr(w, 400, "forDate must be YYYY-MM-DD")
		return
	}

	if p.DueDate != nil && *p.DueDate != "" && p.EstimatedMinutes == nil {
		cur, err := repo.Get(id)
		if err == ErrNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		if cur.EstimatedMinutes == nil {
			writeErr(w, 400, "estimatedMinutes is required when dueDate is set")
			return
		}
	}

	a, err := repo.Update(id, p)
	if err == ErrNotFound {
		writeErr(w, 404, "not found")
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	if p.Done != nil && *p.Done {
		h.record(telemetry.EventActionCompleted, telemetry.EventMetadata{"actionId": string(a.ID)})
	}
	writeJSON(w, 200, a)
}

// /api/actions/{id}/toggle
func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, repo Repo, id model.ActionID) {
	if r.Method != http.MethodPost {
		writeErr(w, 405, "method not allowed")
		return
	}

	cur, err := repo.Get(id)
	if err == ErrNotFound {
		writeErr(w, 404, "not found")
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	done := !cur.Done
	a, err := repo.Update(id, Patch{Done: &done})
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	if done {
		h.record(telemetry.EventActionCompleted, telemetry.EventMetadata{"actionId": string(a.ID)})
	}
	writeJSON(w, 200, a)
}

// /api/actions/{id}/start-time
func (h *Handler) startTime(w http.ResponseWriter, r *http.Request, repo Repo, id model.ActionID) {
	if r.Method != http.MethodPut {
		writeErr(w, 405, "method not allowed")
		return
	}

	var in struct {
		StartTimeOfDay *string `json:"startTimeOfDay"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, 400, "bad json")
		return
	}
	if in.StartTimeOfDay == nil {
		writeErr(w, 400, `missing field "startTimeOfDay"`)
		return
	}

	value := *in.StartTimeOfDay
	if value != "" {
		clock, ok := calendar.NormalizeClock(value)
		if !ok {
			writeErr(w, 400, "startTimeOfDay must be HH:mm")
			return
		}
		value = clock
	}

	a, err := repo.Update(id, Patch{StartTimeOfDay: &value})
	if err == ErrNotFound {
		writeErr(w, 404, "not found")
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, a)
}

// /api/actions/{id}/postpone
//
// The original action keeps its record with fate Postponed; a fresh copy
// is created for the target date. Gathered actions carry their source
// identity to the new date, so a later materialization run for that date
// sees the occurrence as already present.
func (h *Handler) postpone(w http.ResponseWriter, r *http.Request, repo Repo, id model.ActionID) {
	if r.Method != http.MethodPost {
		writeErr(w, 405, "method not allowed")
		return
	}

	var in struct {
		ToDate string `json:"toDate"`
	}
	if r.Body != nil {
		_ = decodeJSON(r, &in)
	}

	cur, err := repo.Get(id)
	if err == ErrNotFound {
		writeErr(w, 404, "not found")
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	if cur.Fate != nil {
		writeErr(w, 409, "action already has a fate")
		return
	}

	toDate := strings.TrimSpace(in.ToDate)
	if toDate == "" {
		base := calendar.Key(time.Now())
		if cur.Gathered && cur.ForDate != nil {
			base = *cur.ForDate
		} else if cur.DueDate != nil {
			base = *cur.DueDate
		}
		toDate = calendar.AddDays(base, 1)
	}
	if !calendar.IsDateKey(toDate) {
		writeErr(w, 400, "toDate must be YYYY-MM-DD")
		return
	}

	next := cur
	next.Done = false
	next.Fate = nil
	if cur.Gathered {
		next.ForDate = &toDate
	} else {
		next.DueDate = &toDate
	}

	created, err := repo.Create(next)
	if err == ErrDuplicateGathered {
		writeErr(w, 409, err.Error())
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	fate := model.FatePostponed
	updated, err := repo.Update(id, Patch{Fate: &fate})
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	h.record(telemetry.EventActionFated, telemetry.EventMetadata{
		"actionId": string(id),
		"fate":     string(fate),
	})
	writeJSON(w, 200, map[string]any{
		"postponed": updated,
		"created":   created,
	})
}

// /api/actions/{id}/outsource
//
// Marks the action OutsourceWoo and creates the two hand-off follow-ups
// due on the action's own date.
func (h *Handler) outsource(w http.ResponseWriter, r *http.Request, repo Repo, id model.ActionID) {
	if r.Method != http.MethodPost {
		writeErr(w, 405, "method not allowed")
		return
	}

	cur, err := repo.Get(id)
	if err == ErrNotFound {
		writeErr(w, 404, "not found")
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	if cur.Fate != nil {
		writeErr(w, 409, "action already has a fate")
		return
	}

	var dueDate *string
	if cur.Gathered {
		dueDate = cur.ForDate
	} else {
		dueDate = cur.DueDate
	}

	minutes := 15
	followUps := make([]model.Action, 0, 2)
	for _, title := range []string{
		"Find someone to do: " + cur.Title,
		"Hand off and follow up: " + cur.Title,
	} {
		a, err := repo.Create(model.Action{
			Title:            title,
			Priority:         model.PriorityOutsource,
			DueDate:          dueDate,
			EstimatedMinutes: &minutes,
			ProjectID:        cur.ProjectID,
		})
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		followUps = append(followUps, a)
	}

	fate := model.FateOutsourceWoo
	updated, err := repo.Update(id, Patch{Fate: &fate})
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	h.record(telemetry.EventActionFated, telemetry.EventMetadata{
		"actionId": string(id),
		"fate":     string(fate),
	})
	writeJSON(w, 200, map[string]any{
		"outsourced": updated,
		"followUps":  followUps,
	})
}

// /api/actions/{id}/fate
//
// Terminal dispositions only. Postponed and OutsourceWoo have their own
// endpoints because they create follow-up records.
func (h *Handler) fate(w http.ResponseWriter, r *http.Request, repo Repo, id model.ActionID) {
	if r.Method != http.MethodPost {
		writeErr(w, 405, "method not allowed")
		return
	}

	var in struct {
		Fate model.Fate `json:"fate"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, 400, "bad json")
		return
	}
	switch in.Fate {
	case model.FateBacklog, model.FateBucketList, model.FatePassedArchived:
	default:
		writeErr(w, 400, "fate must be Backlog, BucketList or PassedArchived")
		return
	}

	cur, err := repo.Get(id)
	if err == ErrNotFound {
		writeErr(w, 404, "not found")
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	if cur.Fate != nil {
		writeErr(w, 409, "action already has a fate")
		return
	}

	a, err := repo.Update(id, Patch{Fate: &in.Fate})
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	h.record(telemetry.EventActionFated, telemetry.EventMetadata{
		"actionId": string(id),
		"fate":     string(in.Fate),
	})
	writeJSON(w, 200, a)
}
