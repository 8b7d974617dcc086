package routine

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markRiceOld/trackerApi/internal/calendar"
	"github.com/markRiceOld/trackerApi/internal/model"
)

var ErrNotFound = errors.New("routine not found")

// Patch represents a partial update.
// nil pointer => "no change"
// empty string for EndDate => clear; TimerDurationMinutes <= 0 => clear.
// TimeBlocks and Steps replace wholesale when non-nil.
type Patch struct {
	Title                *string       `json:"title,omitempty"`
	Status               *model.Status `json:"status,omitempty"`
	EstimatedMinutes     *int          `json:"estimatedMinutes,omitempty"`
	EndDate              *string       `json:"endDate,omitempty"`
	TimeBlocks           *[]string     `json:"timeBlocks,omitempty"`
	TimerDurationMinutes *int          `json:"timerDurationMinutes,omitempty"`
	Steps                *[]string     `json:"steps,omitempty"`
}

type ListFilter struct {
	Status model.Status
}

// Repo is a user-scoped routine store.
type Repo interface {
	Create(rt model.Routine) (model.Routine, error)
	Get(id string) (model.Routine, error)
	Update(id string, p Patch) (model.Routine, error)
	Delete(id string) (model.Routine, error)
	List(f ListFilter) ([]model.Routine, error)
}

// NormalizeTimeBlocks keeps the valid "HH:mm" entries in order, zero-padded.
// Invalid entries are dropped, valid duplicates are kept: two blocks at the
// same time are two occurrences.
func NormalizeTimeBlocks(blocks []string) []string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if clock, ok := calendar.NormalizeClock(b); ok {
			out = append(out, clock)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func newSteps(titles []string, now time.Time) []model.Step {
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

func (p Patch) Apply(rt *model.Routine, now time.Time) {
	if p.Title != nil {
		rt.Title = *p.Title
	}
	if p.Status != nil {
		rt.Status = *p.Status
	}
	if p.EstimatedMinutes != nil {
		rt.EstimatedMinutes = *p.EstimatedMinutes
	}
	if p.EndDate != nil {
		if *p.EndDate == "" {
			rt.EndDate = nil
		} else {
			rt.EndDate = p.EndDate
		}
	}
	if p.TimeBlocks != nil {
		rt.TimeBlocks = NormalizeTimeBlocks(*p.TimeBlocks)
	}
	if p.TimerDurationMinutes != nil {
		if *p.TimerDurationMinutes <= 0 {
			rt.TimerDurationMinutes = nil
		} else {
			rt.TimerDurationMinutes = p.TimerDurationMinutes
		}
	}
	if p.Steps != nil {
		rt.Steps = newSteps(*p.Steps, now)
	}
}

func Sort(out []model.Routine) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}
