package plan

import (
	"encoding/json"
	"net/http"
	"strings"

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

func hasValue(p *string) bool {
	return p != nil && strings.TrimSpace(*p) != ""
}

func validDateField(p *string) bool {
	return p == nil || *p == "" || calendar.IsDateKey(*p)
}

func subID(r *http.Request, prefix string) (string, bool) {
	tail := strings.TrimPrefix(r.URL.Path, prefix)
	tail = strings.Trim(tail, "/")
	if tail == "" || strings.Contains(tail, "/") {
		return "", false
	}
	return tail, true
}

// /api/goals  (collection)
func (h *Handler) GoalsRoot(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	switch r.Method {
	case http.MethodGet:
		gs, err := repo.ListGoals()
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, gs)
		return

	case http.MethodPost:
		var in model.Goal
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		in.Title = strings.TrimSpace(in.Title)
		if in.Title == "" {
			writeErr(w, 400, "title is required")
			return
		}
		if hasValue(in.ParentGoalID) && hasValue(in.ParentMilestoneID) {
			writeErr(w, 400, "goal may nest under a parent goal or a parent milestone, not both")
			return
		}
		if !validDateField(in.StartDate) || !validDateField(in.EndDate) {
			writeErr(w, 400, "dates must be YYYY-MM-DD")
			return
		}

		g, err := repo.CreateGoal(in)
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 201, g)
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

// /api/goals/{id}
func (h *Handler) GoalsSub(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	id, ok := subID(r, "/api/goals/")
	if !ok {
		writeErr(w, 404, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		g, err := repo.GetGoal(id)
		if err == ErrGoalNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, g)
		return

	case http.MethodPatch:
		var p GoalPatch
		if err := decodeJSON(r, &p); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
			writeErr(w, 400, "title cannot be empty")
			return
		}
		if !validDateField(p.StartDate) || !validDateField(p.EndDate) {
			writeErr(w, 400, "dates must be YYYY-MM-DD")
			return
		}
		if p.ParentGoalID != nil || p.ParentMilestoneID != nil {
			cur, err := repo.GetGoal(id)
			if err == ErrGoalNotFound {
				writeErr(w, 404, "not found")
				return
			}
			if err != nil {
				writeErr(w, 500, err.Error())
				return
			}
			parentGoal, parentMilestone := cur.ParentGoalID, cur.ParentMilestoneID
			if p.ParentGoalID != nil {
				parentGoal = nilIfEmpty(p.ParentGoalID)
			}
			if p.ParentMilestoneID != nil {
				parentMilestone = nilIfEmpty(p.ParentMilestoneID)
			}
			if hasValue(parentGoal) && hasValue(parentMilestone) {
				writeErr(w, 400, "goal may nest under a parent goal or a parent milestone, not both")
				return
			}
		}

		g, err := repo.UpdateGoal(id, p)
		if err == ErrGoalNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, g)
		return

	case http.MethodDelete:
		g, err := repo.DeleteGoal(id)
		if err == ErrGoalNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, g)
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

// /api/milestones  (collection; list takes ?goal=<id>)
func (h *Handler) MilestonesRoot(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	switch r.Method {
	case http.MethodGet:
		goalID := strings.TrimSpace(r.URL.Query().Get("goal"))
		if goalID == "" {
			writeErr(w, 400, `missing query parameter "goal"`)
			return
		}
		ms, err := repo.ListMilestones(goalID)
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, ms)
		return

	case http.MethodPost:
		var in model.Milestone
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		in.Title = strings.TrimSpace(in.Title)
		if in.Title == "" {
			writeErr(w, 400, "title is required")
			return
		}
		if strings.TrimSpace(in.GoalID) == "" {
			writeErr(w, 400, "goalId is required")
			return
		}
		if !validDateField(in.PredictionDate) {
			writeErr(w, 400, "predictionDate must be YYYY-MM-DD")
			return
		}

		m, err := repo.CreateMilestone(in)
		if err == ErrGoalNotFound {
			writeErr(w, 404, "goal not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 201, m)
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

// /api/milestones/{id}
func (h *Handler) MilestonesSub(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	id, ok := subID(r, "/api/milestones/")
	if !ok {
		writeErr(w, 404, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		m, err := repo.GetMilestone(id)
		if err == ErrMilestoneNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, m)
		return

	case http.MethodPatch:
		var p MilestonePatch
		if err := decodeJSON(r, &p); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
			writeErr(w, 400, "title cannot be empty")
			return
		}
		if !validDateField(p.PredictionDate) {
			writeErr(w, 400, "predictionDate must be YYYY-MM-DD")
			return
		}

		m, err := repo.UpdateMilestone(id, p)
		if err == ErrMilestoneNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, m)
		return

	case http.MethodDelete:
		m, err := repo.DeleteMilestone(id)
		if err == ErrMilestoneNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, m)
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

// /api/projects  (collection)
func (h *Handler) ProjectsRoot(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	switch r.Method {
	case http.MethodGet:
		prs, err := repo.ListProjects()
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, prs)
		return

	case http.MethodPost:
		var in model.Project
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		in.Title = strings.TrimSpace(in.Title)
		if in.Title == "" {
			writeErr(w, 400, "title is required")
			return
		}
		if in.Priority != "" && !in.Priority.Valid() {
			writeErr(w, 400, "invalid priority")
			return
		}
		if hasValue(in.GoalID) && hasValue(in.MilestoneID) {
			writeErr(w, 400, "project may link to a goal or a milestone, not both")
			return
		}
		if !validDateField(in.StartDate) || !validDateField(in.EndDate) {
			writeErr(w, 400, "dates must be YYYY-MM-DD")
			return
		}

		pr, err := repo.CreateProject(in)
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 201, pr)
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

// /api/projects/{id}
func (h *Handler) ProjectsSub(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	id, ok := subID(r, "/api/projects/")
	if !ok {
		writeErr(w, 404, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		pr, err := repo.GetProject(id)
		if err == ErrProjectNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, pr)
		return

	case http.MethodPatch:
		var p ProjectPatch
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
		if !validDateField(p.StartDate) || !validDateField(p.EndDate) {
			writeErr(w, 400, "dates must be YYYY-MM-DD")
			return
		}
		if p.GoalID != nil || p.MilestoneID != nil {
			cur, err := repo.GetProject(id)
			if err == ErrProjectNotFound {
				writeErr(w, 404, "not found")
				return
			}
			if err != nil {
				writeErr(w, 500, err.Error())
				return
			}
			goal, milestone := cur.GoalID, cur.MilestoneID
			if p.GoalID != nil {
				goal = nilIfEmpty(p.GoalID)
			}
			if p.MilestoneID != nil {
				milestone = nilIfEmpty(p.MilestoneID)
			}
			if hasValue(goal) && hasValue(milestone) {
				writeErr(w, 400, "project may link to a goal or a milestone, not both")
				return
			}
		}

		pr, err := repo.UpdateProject(id, p)
		if err == ErrProjectNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, pr)
		return

	case http.MethodDelete:
		pr, err := repo.DeleteProject(id)
		if err == ErrProjectNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, pr)
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

func nilIfEmpty(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}
