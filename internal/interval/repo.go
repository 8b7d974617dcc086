package interval

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markRiceOld/trackerApi/internal/model"
)

var ErrNotFound = errors.New("interval not found")

// Patch represents a partial update.
// nil pointer => "no change"
// empty string for EndDate/RepeatUnit/PredictedToDoTime and the scope links
// => clear (set to nil)
//
// Slice-valued fields replace wholesale: a non-nil pointer swaps the whole
// list, an empty list clears it. A CustomRepeatRule with an empty Unit
// clears the rule.
type Patch struct {
	Title             *string           `json:"title,omitempty"`
	Status            *model.Status     `json:"status,omitempty"`
	EstimatedMinutes  *int              `json:"estimatedMinutes,omitempty"`
	EndDate           *string           `json:"endDate,omitempty"`
	RepeatValue       *int              `json:"repeatValue,omitempty"`
	RepeatUnit        *string           `json:"repeatUnit,omitempty"`
	CustomRepeatDates *[]string         `json:"customRepeatDates,omitempty"`
	CustomRepeatRule  *model.RepeatRule `json:"customRepeatRule,omitempty"`
	PredictedToDoTime *string           `json:"predictedToDoTime,omitempty"`
	Steps             *[]string         `json:"steps,omitempty"`
	GoalID            *string           `json:"goalId,omitempty"`
	MilestoneID       *string           `json:"milestoneId,omitempty"`
	ProjectID         *string           `json:"projectId,omitempty"`
}

type ListFilter struct {
	// Status keeps only intervals in the given status when non-empty.
	Status model.Status
}

// Repo is a user-scoped interval store.
type Repo interface {
	Create(iv model.Interval) (model.Interval, error)
	Get(id string) (model.Interval, error)
	Update(id string, p Patch) (model.Interval, error)
	Delete(id string) (model.Interval, error)
	List(f ListFilter) ([]model.Interval, error)
}

// NewSteps builds an ordered step list from titles, dropping blanks.
func NewSteps(titles []string, now time.Time) []model.Step {
	steps := make([]model.Step, 0, len(titles))
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		steps = append(steps, model.Step{
			ID:        uuid.NewString(),
			Title:     title,
			Order:     len(steps),
			CreatedAt: now,
		})
	}
	return steps
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

func (p Patch) Apply(iv *model.Interval, now time.Time) {
	if p.Title != nil {
		iv.Title = *p.Title
	}
	if p.Status != nil {
		iv.Status = *p.Status
	}
	if p.EstimatedMinutes != nil {
		iv.EstimatedMinutes = *p.EstimatedMinutes
	}
	setOrClear(&iv.EndDate, p.EndDate)
	if p.RepeatValue != nil {
		iv.RepeatValue = *p.RepeatValue
	}
	if p.RepeatUnit != nil {
		if *p.RepeatUnit == "" {
			iv.RepeatUnit = nil
		} else {
			u := model.RepeatUnit(*p.RepeatUnit)
			iv.RepeatUnit = &u
		}
	}
	if p.CustomRepeatDates != nil {
		if len(*p.CustomRepeatDates) == 0 {
			iv.CustomRepeatDates = nil
		} else {
			iv.CustomRepeatDates = append([]string(nil), *p.CustomRepeatDates...)
		}
	}
	if p.CustomRepeatRule != nil {
		if p.CustomRepeatRule.Unit == "" {
			iv.CustomRepeatRule = nil
		} else {
			rule := *p.CustomRepeatRule
			iv.CustomRepeatRule = &rule
		}
	}
	setOrClear(&iv.PredictedToDoTime, p.PredictedToDoTime)
	if p.Steps != nil {
		iv.Steps = NewSteps(*p.Steps, now)
	}
	setOrClear(&iv.GoalID, p.GoalID)
	setOrClear(&iv.MilestoneID, p.MilestoneID)
	setOrClear(&iv.ProjectID, p.ProjectID)
}

func Sort(out []model.Interval) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}
