package plan

import (
	"errors"

	"github.com/markRiceOld/trackerApi/internal/model"
)

var (
	ErrGoalNotFound      = errors.New("goal not found")
	ErrMilestoneNotFound = errors.New("milestone not found")
	ErrProjectNotFound   = errors.New("project not found")
)

// GoalPatch represents a partial goal update.
// nil pointer => "no change"; empty string for the optional string fields
// => clear (set to nil).
type GoalPatch struct {
	Title             *string `json:"title,omitempty"`
	DOD               *string `json:"dod,omitempty"`
	IsGoalGroup       *bool   `json:"isGoalGroup,omitempty"`
	StartDate         *string `json:"startDate,omitempty"`
	EndDate           *string `json:"endDate,omitempty"`
	ParentGoalID      *string `json:"parentGoalId,omitempty"`
	ParentMilestoneID *string `json:"parentMilestoneId,omitempty"`
}

// MilestonePatch represents a partial milestone update. Changing Order
// reinserts the milestone at the target position and renumbers the goal's
// milestones; setting IsLast moves the last marker.
type MilestonePatch struct {
	Title          *string `json:"title,omitempty"`
	DOA            *string `json:"doa,omitempty"`
	PredictionDate *string `json:"predictionDate,omitempty"`
	Order          *int    `json:"order,omitempty"`
	IsLast         *bool   `json:"isLast,omitempty"`
}

// ProjectPatch represents a partial project update.
type ProjectPatch struct {
	Title       *string         `json:"title,omitempty"`
	DOD         *string         `json:"dod,omitempty"`
	Type        *string         `json:"type,omitempty"`
	Priority    *model.Priority `json:"priority,omitempty"`
	GoalID      *string         `json:"goalId,omitempty"`
	MilestoneID *string         `json:"milestoneId,omitempty"`
	StartDate   *string         `json:"startDate,omitempty"`
	EndDate     *string         `json:"endDate,omitempty"`
}

// Repo is a user-scoped store for the planning hierarchy.
type Repo interface {
	CreateGoal(g model.Goal) (model.Goal, error)
	GetGoal(id string) (model.Goal, error)
	UpdateGoal(id string, p GoalPatch) (model.Goal, error)
	DeleteGoal(id string) (model.Goal, error)
	ListGoals() ([]model.Goal, error)

	// CreateMilestone inserts at m.Order within the goal, shifting later
	// milestones up; an out-of-range order appends. IsLast moves the
	// goal's last marker to the new milestone.
	CreateMilestone(m model.Milestone) (model.Milestone, error)
	GetMilestone(id string) (model.Milestone, error)
	UpdateMilestone(id string, p MilestonePatch) (model.Milestone, error)
	DeleteMilestone(id string) (model.Milestone, error)
	ListMilestones(goalID string) ([]model.Milestone, error)

	CreateProject(pr model.Project) (model.Project, error)
	GetProject(id string) (model.Project, error)
	UpdateProject(id string, p ProjectPatch) (model.Project, error)
	DeleteProject(id string) (model.Project, error)
	ListProjects() ([]model.Project, error)
}

func setOrClear(dst **string, src *string) {
	if src == nil {
		return
	}
	if *src == "" {
		*dst = nil
	} else {
		*dst = src
	}
}

func (p GoalPatch) Apply(g *model.Goal) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	setOrClear(&g.DOD, p.DOD)
	if p.IsGoalGroup != nil {
		g.IsGoalGroup = *p.IsGoalGroup
	}
	setOrClear(&g.StartDate, p.StartDate)
	setOrClear(&g.EndDate, p.EndDate)
	setOrClear(&g.ParentGoalID, p.ParentGoalID)
	setOrClear(&g.ParentMilestoneID, p.ParentMilestoneID)
}

// Apply merges the scalar fields. Order and IsLast touch sibling rows and
// are handled by the repo.
func (p MilestonePatch) Apply(m *model.Milestone) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	setOrClear(&m.DOA, p.DOA)
	setOrClear(&m.PredictionDate, p.PredictionDate)
}

// Renumber assigns contiguous orders to a milestone sequence.
func Renumber(ms []model.Milestone) []model.Milestone {
	for i := range ms {
		ms[i].Order = i
	}
	return ms
}

// OrderedInsert returns siblings with m inserted at pos, renumbered. An
// out-of-range pos appends.
func OrderedInsert(siblings []model.Milestone, m model.Milestone, pos int) []model.Milestone {
	if pos < 0 || pos > len(siblings) {
		pos = len(siblings)
	}
	seq := make([]model.Milestone, 0, len(siblings)+1)
	seq = append(seq, siblings[:pos]...)
	seq = append(seq, m)
	seq = append(seq, siblings[pos:]...)
	return Renumber(seq)
}

func (p ProjectPatch) Apply(pr *model.Project) {
	if p.Title != nil {
		pr.Title = *p.Title
	}
	setOrClear(&pr.DOD, p.DOD)
	if p.Type != nil {
		pr.Type = *p.Type
	}
	if p.Priority != nil {
		pr.Priority = *p.Priority
	}
	setOrClear(&pr.GoalID, p.GoalID)
	setOrClear(&pr.MilestoneID, p.MilestoneID)
	setOrClear(&pr.StartDate, p.StartDate)
	setOrClear(&pr.EndDate, p.EndDate)
}
