package interval

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

func validMinutes(m int) bool {
	return m >= 0 && m <= maxEstimatedMinutes
}

func validRule(rule *model.RepeatRule) bool {
	if rule == nil {
		return true
	}
	switch rule.Unit {
	case model.RuleUnitWeek:
		for _, d := range rule.DaysOfWeek {
			if d < 1 || d > 7 {
				return false
			}
		}
	case model.RuleUnitMonth:
		for _, d := range rule.DaysOfMonth {
			if d < 1 || d > 31 {
				return false
			}
		}
	case model.RuleUnitYear:
		for _, m := range rule.Months {
			if m < 1 || m > 12 {
				return false
			}
		}
		for _, d := range rule.DaysOfMonth {
			if d < 1 || d > 31 {
				return false
			}
		}
	default:
		return false
	}
	return true
}

func validDates(dates []string) bool {
	for _, d := range dates {
		if !calendar.IsDateKey(strings.TrimSpace(d)) {
			return false
		}
	}
	return true
}

func scopeLinkCount(goalID, milestoneID, projectID *string) int {
	n := 0
	for _, p := range []*string{goalID, milestoneID, projectID} {
		if p != nil && strings.TrimSpace(*p) != "" {
			n++
		}
	}
	return n
}

func validateUpsert(in *model.IntervalUpsert) string {
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
	if !validMinutes(in.EstimatedMinutes) {
		return "estimatedMinutes must be between 0 and 1440"
	}
	if in.EndDate != nil && *in.EndDate != "" && !calendar.IsDateKey(*in.EndDate) {
		return "endDate must be YYYY-MM-DD"
	}
	if in.RepeatValue < 0 {
		return "repeatValue cannot be negative"
	}
	if in.RepeatUnit != nil && *in.RepeatUnit != "" && !model.RepeatUnit(*in.RepeatUnit).Valid() {
		return "repeatUnit must be day, week or month"
	}
	if !validDates(in.CustomRepeatDates) {
		return "customRepeatDates must be YYYY-MM-DD"
	}
	if !validRule(in.CustomRepeatRule) {
		return "invalid customRepeatRule"
	}
	if in.PredictedToDoTime != nil && *in.PredictedToDoTime != "" {
		clock, ok := calendar.NormalizeClock(*in.PredictedToDoTime)
		if !ok {
			return "predictedToDoTime must be HH:mm"
		}
		in.PredictedToDoTime = &clock
	}
	if scopeLinkCount(in.GoalID, in.MilestoneID, in.ProjectID) > 1 {
		return "interval may link to at most one of goal, milestone or project"
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
	if p.EstimatedMinutes != nil && !validMinutes(*p.EstimatedMinutes) {
		return "estimatedMinutes must be between 0 and 1440"
	}
	if p.EndDate != nil && *p.EndDate != "" && !calendar.IsDateKey(*p.EndDate) {
		return "endDate must be YYYY-MM-DD"
	}
	if p.RepeatValue != nil && *p.RepeatValue < 0 {
		return "repeatValue cannot be negative"
	}
	if p.RepeatUnit != nil && *p.RepeatUnit != "" && !model.RepeatUnit(*p.RepeatUnit).Valid() {
		return "repeatUnit must be day, week or month"
	}
	if p.CustomRepeatDates != nil && !validDates(*p.CustomRepeatDates) {
		return "customRepeatDates must be YYYY-MM-DD"
	}
	if p.CustomRepeatRule != nil && p.CustomRepeatRule.Unit != "" && !validRule(p.CustomRepeatRule) {
		return "invalid customRepeatRule"
	}
	if p.PredictedToDoTime != nil && *p.PredictedToDoTime != "" {
		clock, ok := calendar.NormalizeClock(*p.PredictedToDoTime)
		if !ok {
			return "predictedToDoTime must be HH:mm"
		}
		p.PredictedToDoTime = &clock
	}
	return ""
}

// /api/intervals  (collection)
func (h *Handler) IntervalsRoot(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	switch r.Method {
	case http.MethodGet:
		filter := ListFilter{Status: model.Status(r.URL.Query().Get("status"))}
		ivs, err := repo.List(filter)
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, ivs)
		return

	case http.MethodPost:
		var in model.IntervalUpsert
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		if msg := validateUpsert(&in); msg != "" {
			writeErr(w, 400, msg)
			return
		}

		iv := model.Interval{
			Title:             in.Title,
			Status:            in.Status,
			EstimatedMinutes:  in.EstimatedMinutes,
			EndDate:           in.EndDate,
			RepeatValue:       in.RepeatValue,
			CustomRepeatDates: in.CustomRepeatDates,
			CustomRepeatRule:  in.CustomRepeatRule,
			PredictedToDoTime: in.PredictedToDoTime,
			GoalID:            in.GoalID,
			MilestoneID:       in.MilestoneID,
			ProjectID:         in.ProjectID,
		}
		if in.RepeatUnit != nil && *in.RepeatUnit != "" {
			u := model.RepeatUnit(*in.RepeatUnit)
			iv.RepeatUnit = &u
		}
		if len(in.Steps) > 0 {
			iv.Steps = NewSteps(in.Steps, time.Now())
		}

		created, err := repo.Create(iv)
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

// /api/intervals/{id}
func (h *Handler) IntervalsSub(w http.ResponseWriter, r *http.Request) {
	repo := h.repoForRequest(r)

	tail := strings.TrimPrefix(r.URL.Path, "/api/intervals/")
	tail = strings.Trim(tail, "/")
	if tail == "" || strings.Contains(tail, "/") {
		writeErr(w, 404, "not found")
		return
	}
	id := tail

	switch r.Method {
	case http.MethodGet:
		iv, err := repo.Get(id)
		if err == ErrNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, iv)
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

		if p.GoalID != nil || p.MilestoneID != nil || p.ProjectID != nil {
			cur, err := repo.Get(id)
			if err == ErrNotFound {
				writeErr(w, 404, "not found")
				return
			}
			if err != nil {
				writeErr(w, 500, err.Error())
				return
			}
			goal, milestone, project := cur.GoalID, cur.MilestoneID, cur.ProjectID
			if p.GoalID != nil {
				goal = emptyToNil(p.GoalID)
			}
			if p.MilestoneID != nil {
				milestone = emptyToNil(p.MilestoneID)
			}
			if p.ProjectID != nil {
				project = emptyToNil(p.ProjectID)
			}
			if scopeLinkCount(goal, milestone, project) > 1 {
				writeErr(w, 400, "interval may link to at most one of goal, milestone or project")
				return
			}
		}

		iv, err := repo.Update(id, p)
		if err == ErrNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, iv)
		return

	case http.MethodDelete:
		iv, err := repo.Delete(id)
		if err == ErrNotFound {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, iv)
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

func emptyToNil(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}
