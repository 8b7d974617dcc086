// Package gather materializes recurring definitions into concrete actions
// for a rolling window of dates. Runs are idempotent: each occurrence is
// looked up by its source identity before creation, and dates whose
// gathering step already completed can be skipped wholesale.
package gather

import (
	"errors"
	"time"

	"github.com/markRiceOld/trackerApi/internal/action"
	"github.com/markRiceOld/trackerApi/internal/calendar"
	"github.com/markRiceOld/trackerApi/internal/daystate"
	"github.com/markRiceOld/trackerApi/internal/interval"
	"github.com/markRiceOld/trackerApi/internal/model"
	"github.com/markRiceOld/trackerApi/internal/recurrence"
	"github.com/markRiceOld/trackerApi/internal/routine"
)

const (
	// DefaultWindowDays is the materialization horizon: today plus the
	// next two days.
	DefaultWindowDays = 3
)

// Service runs materialization for one user.
type Service struct {
	Actions   action.Repo
	Intervals interval.Repo
	Routines  routine.Repo
	Days      daystate.Repo

	// WindowDays defaults to DefaultWindowDays when zero.
	WindowDays int
	// FallbackTime is the slot synthesized for a routine occurrence with
	// no usable time block.
	FallbackTime string
}

// Result reports one materialization run. DatesProcessed lists the dates
// whose gathering step completed during this run; a skipped or failed date
// is not in it, and ActionsCreated excludes a failed date's occurrences.
type Result struct {
	DatesProcessed []string `json:"datesProcessed"`
	ActionsCreated int      `json:"actionsCreated"`
}

// Run materializes the window starting at todayKey. With skipProcessed,
// dates already marked gathered are left untouched; without it the date is
// re-scanned (still without duplicates) and its timestamp refreshed.
//
// The returned error joins per-date failures; the Result is valid either
// way and covers the dates that did succeed.
func (s *Service) Run(todayKey string, skipProcessed bool) (Result, error) {
	res := Result{DatesProcessed: []string{}}
	if !calendar.IsDateKey(todayKey) {
		return res, errors.New("invalid date key")
	}

	window := s.WindowDays
	if window <= 0 {
		window = DefaultWindowDays
	}

	intervals, err := s.Intervals.List(interval.ListFilter{Status: model.StatusActive})
	if err != nil {
		return res, err
	}
	routines, err := s.Routines.List(routine.ListFilter{Status: model.StatusActive})
	if err != nil {
		return res, err
	}

	specs := make([]recurrence.Spec, len(intervals))
	for i, iv := range intervals {
		specs[i] = recurrence.FromInterval(iv)
	}

	var dateErrs []error
	for offset := 0; offset < window; offset++ {
		dateKey := calendar.AddDays(todayKey, offset)

		if skipProcessed {
			state, found, err := s.Days.Get(dateKey)
			if err != nil {
				dateErrs = append(dateErrs, err)
				continue
			}
			if found && state.ActionGatheringCompletedAt != nil {
				continue
			}
		}

		created, err := s.gatherDate(dateKey, intervals, specs, routines)
		if err != nil {
			dateErrs = append(dateErrs, err)
			continue
		}
		if _, err := s.Days.CompleteGathering(dateKey, time.Now()); err != nil {
			dateErrs = append(dateErrs, err)
			continue
		}

		res.DatesProcessed = append(res.DatesProcessed, dateKey)
		res.ActionsCreated += created
	}

	return res, errors.Join(dateErrs...)
}

func (s *Service) gatherDate(dateKey string, intervals []model.Interval, specs []recurrence.Spec, routines []model.Routine) (int, error) {
	created := 0

	for i, iv := range intervals {
		if !recurrence.OccursOn(specs[i], dateKey) {
			continue
		}
		ok, err := s.createIntervalOccurrence(iv, dateKey)
		if err != nil {
			return 0, err
		}
		if ok {
			created++
		}
	}

	for _, rt := range routines {
		if !recurrence.RoutineOccursOn(rt, dateKey) {
			continue
		}
		for _, occ := range recurrence.RoutineOccurrences(rt, s.FallbackTime) {
			ok, err := s.createRoutineOccurrence(rt, dateKey, occ.StartTimeOfDay)
			if err != nil {
				return 0, err
			}
			if ok {
				created++
			}
		}
	}

	return created, nil
}

// createIntervalOccurrence materializes at most one occurrence per
// (interval, date); the identity lookup ignores start time.
func (s *Service) createIntervalOccurrence(iv model.Interval, dateKey string) (bool, error) {
	_, exists, err := s.Actions.FindGathered(model.SourceInterval, iv.ID, dateKey, nil)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	a := model.Action{
		Title:      iv.Title,
		Gathered:   true,
		SourceKind: model.SourceInterval,
		SourceID:   iv.ID,
		ForDate:    &dateKey,
	}
	if iv.EstimatedMinutes > 0 {
		minutes := iv.EstimatedMinutes
		a.EstimatedMinutes = &minutes
	}
	if iv.PredictedToDoTime != nil {
		if clock, ok := calendar.NormalizeClock(*iv.PredictedToDoTime); ok {
			a.StartTimeOfDay = &clock
		}
	}

	_, err = s.Actions.Create(a)
	if errors.Is(err, action.ErrDuplicateGathered) {
		// another run won the race; the occurrence exists
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) createRoutineOccurrence(rt model.Routine, dateKey, startTime string) (bool, error) {
	_, exists, err := s.Actions.FindGathered(model.SourceRoutine, rt.ID, dateKey, &startTime)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	a := model.Action{
		Title:          rt.Title,
		Gathered:       true,
		SourceKind:     model.SourceRoutine,
		SourceID:       rt.ID,
		ForDate:        &dateKey,
		StartTimeOfDay: &startTime,
	}
	if rt.EstimatedMinutes > 0 {
		minutes := rt.EstimatedMinutes
		a.EstimatedMinutes = &minutes
	}

	_, err = s.Actions.Create(a)
	if errors.Is(err, action.ErrDuplicateGathered) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
