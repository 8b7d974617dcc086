package routine

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/markRiceOld/trackerApi/internal/calendar"
	"github.com/markRiceOld/trackerApi/internal/model"
)

type Handler struct {
	repo         Repo
	repoResolver func(*http.Request) Repo
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) SetRepoResolver(fn func(*http.Request) Repo) {
	h.repoResolver = fn
}

func (h *Handler) repoForRequest(r *http.Request) Repo {
	if h.repoResolver != nil {
		if repo := h.repoResolver(r); repo != nil {
			return repo
		}
	}
	return h.repo
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

const maxEstimatedMinutes = 1440

func validateUpsert(in *model.RoutineUpsert) string {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return "title is required"
	}
	if in.Status == "" {
		in.Status = model.StatusActive
	}
	if !in.Status.Valid() {
		return "status must be active or inactive"
	}
	if in.EstimatedMinutes < 0 || in.EstimatedMinutes > maxEstimatedMinutes {
		return "estimatedMinutes must be between 0 and 1440"
	}
	if in.EndDate != nil && *in.EndDate != "" && !calendar.IsDateKey(*in.EndDate) {
		return "endDate must be YYYY-MM-DD"
	}
	if in.TimerDurationMinutes != nil && *in.TimerDurationMinutes < 0 {
		return "timerDurationMinutes cannot be negative"
	}
	return ""
}

func validatePatch(p *Patch) string {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return "title cannot be empty"
	}
	if p.Status != nil && !p.Status.Valid() {
		return "status must be active or inactive"
	}
	if p.EstimatedMinutes != nil && (*p.EstimatedMinutes < 0 || *p.EstimatedMinutes > maxEstimatedMinutes) {
		return "estimatedMinutes must be between 0 and 1440"
	}
	if p.EndDate != nil && *p.EndDate != "" && !calendar.IsDateKey(*p.EndDate) {
		return "endDate must be YYYY-MM-DD"
	}
	return ""
}

// /api/routines  (collection)
func (h *Handler) RoutinesRoot(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	switch r.Method {
	case http.MethodGet:
		filter := ListFilter{Status: model.Status(r.URL.Query().Get("status"))}
		rts, err := repo.List(filter)
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, rts)
		return

	case http.MethodPost:
		var in model.RoutineUpsert
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		if msg := validateUpsert(&in); msg != "" {
			writeErr(w, 400, msg)
			return
		}

		rt := model.Routine{
			Title:                in.Title,
			Status:               in.Status,
			EstimatedMinutes:     in.EstimatedMinutes,
			EndDate:              in.EndDate,
			TimeBlocks:           in.TimeBlocks,
			TimerDurationMinutes: in.TimerDurationMinutes,
		}
		if len(in.Steps) > 0 {
			rt.Steps = newSteps(in.Steps, time.Now())
		}

		created, err := repo.Create(rt)
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 201, created)
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

// /api/routines/{id}
func (h *Handler) RoutinesSub(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	tail := strings.TrimPrefix(r.URL.Path, "/api/routines/")
	tail = strings.Trim(tail, "/")
	if tail == "" || strings.Contains(tail, "/") {
		writeErr(w, 404, "not found")
		return
	}
	id := tail

	switch r.Method {
	case http.MethodGet:
		rt, err := repo.Get(id)
		if err == ErrNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, rt)
		return

	case http.MethodPatch:
		var p Patch
		if err := decodeJSON(r, &p); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		if msg := validatePatch(&p); msg != "" {
			writeErr(w, 400, msg)
			return
		}

		rt, err := repo.Update(id, p)
		if err == ErrNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, rt)
		return

	case http.MethodDelete:
		rt, err := repo.Delete(id)
		if err == ErrNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, rt)
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}
