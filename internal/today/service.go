package today

import (
	"github.com/markRiceOld/trackerApi/internal/action"
	"github.com/markRiceOld/trackerApi/internal/calendar"
	"github.com/markRiceOld/trackerApi/internal/daystate"
	"github.com/markRiceOld/trackerApi/internal/interval"
	"github.com/markRiceOld/trackerApi/internal/model"
)

// Service answers the day-planning read queries for one user. All reads
// degrade to empty results on a malformed date key so a bad query never
// turns into a server error.
type Service struct {
	Actions   action.Repo
	Days      daystate.Repo
	Intervals interval.Repo
}

// PreDayStatus is the planning-step read: whether yesterday still needs
// closing, whether today is accessible, and the scheduling problems in
// today's list.
type PreDayStatus struct {
	AfterDayRequired   bool                                `json:"afterDayRequired"`
	CanAccessToday     bool                                `json:"canAccessToday"`
	ActionsWithoutTime []model.Action                      `json:"actionsWithoutTime"`
	Overlaps           map[model.ActionID][]model.ActionID `json:"overlaps"`
}

// NotDone partitions a date's unfinished, undispositioned actions for the
// after-day wizard.
type NotDone struct {
	NonLinkedGathered []model.Action `json:"nonLinkedGathered"`
	LinkedGathered    []model.Action `json:"linkedGathered"`
	Standalone        []model.Action `json:"standalone"`
}

// TodayActions returns the date's schedulable list: user actions due that
// date plus occurrences gathered for it, fates excluded.
func (s *Service) TodayActions(dateKey string) ([]model.Action, error) {
	if !calendar.IsDateKey(dateKey) {
		return []model.Action{}, nil
	}

	due, err := s.Actions.List(action.ListFilter{DueOn: dateKey, FateUnset: true})
	if err != nil {
		return nil, err
	}
	gathered, err := s.Actions.List(action.ListFilter{GatheredOn: dateKey, FateUnset: true})
	if err != nil {
		return nil, err
	}

	out := make([]model.Action, 0, len(due)+len(gathered))
	out = append(out, due...)
	out = append(out, gathered...)
	return out, nil
}

// Status computes the pre-day read for a date. A malformed date reads as
// an open day with nothing scheduled: no after-day owed, today accessible.
func (s *Service) Status(dateKey string) (PreDayStatus, error) {
	status := PreDayStatus{
		CanAccessToday:     true,
		ActionsWithoutTime: []model.Action{},
		Overlaps:           map[model.ActionID][]model.ActionID{},
	}
	if !calendar.IsDateKey(dateKey) {
		return status, nil
	}

	yesterday, _, err := s.Days.Get(calendar.AddDays(dateKey, -1))
	if err != nil {
		return status, err
	}
	status.AfterDayRequired = yesterday.AfterDayCompletedAt == nil

	today, _, err := s.Days.Get(dateKey)
	if err != nil {
		return status, err
	}
	preDayDone := today.PreDayCompletedAt != nil
	status.CanAccessToday = !status.AfterDayRequired && preDayDone

	actions, err := s.TodayActions(dateKey)
	if err != nil {
		return status, err
	}
	for _, a := range actions {
		if !a.HasStartTime() {
			status.ActionsWithoutTime = append(status.ActionsWithoutTime, a)
		}
	}
	status.Overlaps = OverlapIDs(actions)
	return status, nil
}

// Classify buckets a date's not-done actions for closing out the day.
// Routine occurrences are always non-linked; an interval occurrence is
// linked only when its source interval still exists and carries a goal,
// milestone or project link. A vanished source counts as unlinked.
func (s *Service) Classify(dateKey string) (NotDone, error) {
	nd := NotDone{
		NonLinkedGathered: []model.Action{},
		LinkedGathered:    []model.Action{},
		Standalone:        []model.Action{},
	}
	if !calendar.IsDateKey(dateKey) {
		return nd, nil
	}

	notDone := false
	gathered, err := s.Actions.List(action.ListFilter{
		GatheredOn: dateKey,
		Done:       &notDone,
		FateUnset:  true,
	})
	if err != nil {
		return nd, err
	}

	linked := map[string]bool{}
	for _, a := range gathered {
		if a.SourceKind != model.SourceInterval {
			continue
		}
		if _, seen := linked[a.SourceID]; seen {
			continue
		}
		iv, err := s.Intervals.Get(a.SourceID)
		if err == interval.ErrNotFound {
			linked[a.SourceID] = false
			continue
		}
		if err != nil {
			return nd, err
		}
		linked[a.SourceID] = iv.Linked()
	}

	for _, a := range gathered {
		if a.SourceKind == model.SourceInterval && linked[a.SourceID] {
			nd.LinkedGathered = append(nd.LinkedGathered, a)
		} else {
			nd.NonLinkedGathered = append(nd.NonLinkedGathered, a)
		}
	}

	standalone, err := s.Actions.List(action.ListFilter{
		DueOn:      dateKey,
		Done:       &notDone,
		FateUnset:  true,
		Standalone: true,
	})
	if err != nil {
		return nd, err
	}
	nd.Standalone = append(nd.Standalone, standalone...)

	return nd, nil
}
