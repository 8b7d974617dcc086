package gather

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markRiceOld/trackerApi/internal/action"
	"github.com/markRiceOld/trackerApi/internal/calendar"
	"github.com/markRiceOld/trackerApi/internal/daystate"
	"github.com/markRiceOld/trackerApi/internal/interval"
	"github.com/markRiceOld/trackerApi/internal/model"
	"github.com/markRiceOld/trackerApi/internal/routine"
)

func newService(t *testing.T) (*Service, *action.MemoryRepo, *interval.MemoryRepo, *routine.MemoryRepo, *daystate.MemoryRepo) {
	t.Helper()

	actions := action.NewMemoryRepo()
	intervals := interval.NewMemoryRepo()
	routines := routine.NewMemoryRepo()
	days := daystate.NewMemoryRepo()
	svc := &Service{
		Actions:      actions,
		Intervals:    intervals,
		Routines:     routines,
		Days:         days,
		FallbackTime: "09:00",
	}
	return svc, actions, intervals, routines, days
}

func dailyInterval(t *testing.T, repo *interval.MemoryRepo, title, anchor string) model.Interval {
	t.Helper()

	unit := model.RepeatDay
	iv, err := repo.Create(model.Interval{
		Title:            title,
		EstimatedMinutes: 30,
		RepeatValue:      1,
		RepeatUnit:       &unit,
		CreatedAt:        calendar.At(anchor),
	})
	if err != nil {
		t.Fatalf("create interval: %v", err)
	}
	return iv
}

func TestRun_CreatesWindowOccurrences(t *testing.T) {
	svc, actions, intervals, routines, _ := newService(t)

	dailyInterval(t, intervals, "Stretch", "2024-05-01")
	_, err := routines.Create(model.Routine{
		Title:            "Journal",
		EstimatedMinutes: 10,
		TimeBlocks:       []string{"07:00", "21:00"},
		CreatedAt:        calendar.At("2024-05-01"),
	})
	require.NoError(t, err)

	res, err := svc.Run("2024-05-06", true)
	require.NoError(t, err)
	require.Equal(t, []string{"2024-05-06", "2024-05-07", "2024-05-08"}, res.DatesProcessed)
	// per date: 1 interval occurrence + 2 routine slots
	require.Equal(t, 9, res.ActionsCreated)

	day, err := actions.List(action.ListFilter{GatheredOn: "2024-05-06"})
	require.NoError(t, err)
	require.Len(t, day, 3)
}

func TestRun_SecondRunIsNoOp(t *testing.T) {
	svc, _, intervals, _, _ := newService(t)

	dailyInterval(t, intervals, "Stretch", "2024-05-01")

	first, err := svc.Run("2024-05-06", true)
	require.NoError(t, err)
	require.Len(t, first.DatesProcessed, 3)
	require.Equal(t, 3, first.ActionsCreated)

	second, err := svc.Run("2024-05-06", true)
	require.NoError(t, err)
	require.Empty(t, second.DatesProcessed)
	require.Equal(t, 0, second.ActionsCreated)
}

func TestRun_ForcedRerunRefreshesWithoutDuplicates(t *testing.T) {
	svc, actions, intervals, _, days := newService(t)

	dailyInterval(t, intervals, "Stretch", "2024-05-01")

	_, err := svc.Run("2024-05-06", true)
	require.NoError(t, err)

	before, found, err := days.Get("2024-05-06")
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, before.ActionGatheringCompletedAt)

	res, err := svc.Run("2024-05-06", false)
	require.NoError(t, err)
	require.Len(t, res.DatesProcessed, 3)
	require.Equal(t, 0, res.ActionsCreated)

	after, _, err := days.Get("2024-05-06")
	require.NoError(t, err)
	require.False(t, after.ActionGatheringCompletedAt.Before(*before.ActionGatheringCompletedAt))

	day, err := actions.List(action.ListFilter{GatheredOn: "2024-05-06"})
	require.NoError(t, err)
	require.Len(t, day, 1)
}

func TestRun_NoOccurrencesInWindow(t *testing.T) {
	svc, _, intervals, _, _ := newService(t)

	// weekly rule on Mondays; window starts the following Tuesday
	_, err := intervals.Create(model.Interval{
		Title:            "Plan week",
		CustomRepeatRule: &model.RepeatRule{Unit: model.RuleUnitWeek, DaysOfWeek: []int{1}},
		CreatedAt:        calendar.At("2024-05-01"),
	})
	require.NoError(t, err)

	// 2024-05-07 is a Tuesday; the window ends Thursday
	res, err := svc.Run("2024-05-07", true)
	require.NoError(t, err)
	require.Len(t, res.DatesProcessed, 3)
	require.Equal(t, 0, res.ActionsCreated)
}

func TestRun_InactiveDefinitionsIgnored(t *testing.T) {
	svc, _, intervals, routines, _ := newService(t)

	unit := model.RepeatDay
	_, err := intervals.Create(model.Interval{
		Title:       "Paused",
		Status:      model.StatusInactive,
		RepeatValue: 1,
		RepeatUnit:  &unit,
		CreatedAt:   calendar.At("2024-05-01"),
	})
	require.NoError(t, err)
	_, err = routines.Create(model.Routine{
		Title:      "Paused routine",
		Status:     model.StatusInactive,
		TimeBlocks: []string{"08:00"},
		CreatedAt:  calendar.At("2024-05-01"),
	})
	require.NoError(t, err)

	res, err := svc.Run("2024-05-06", true)
	require.NoError(t, err)
	require.Equal(t, 0, res.ActionsCreated)
}

func TestRun_EmptyTimeBlocksNeverMaterialize(t *testing.T) {
	svc, _, _, routines, _ := newService(t)

	_, err := routines.Create(model.Routine{
		Title:     "Blockless",
		CreatedAt: calendar.At("2024-05-01"),
	})
	require.NoError(t, err)

	res, err := svc.Run("2024-05-06", true)
	require.NoError(t, err)
	require.Equal(t, 0, res.ActionsCreated)
}

func TestRun_CarriesPredictedTime(t *testing.T) {
	svc, actions, intervals, _, _ := newService(t)

	unit := model.RepeatDay
	predicted := "14:30"
	_, err := intervals.Create(model.Interval{
		Title:             "Email pass",
		EstimatedMinutes:  20,
		RepeatValue:       1,
		RepeatUnit:        &unit,
		PredictedToDoTime: &predicted,
		CreatedAt:         calendar.At("2024-05-01"),
	})
	require.NoError(t, err)

	_, err = svc.Run("2024-05-06", true)
	require.NoError(t, err)

	day, err := actions.List(action.ListFilter{GatheredOn: "2024-05-06"})
	require.NoError(t, err)
	require.Len(t, day, 1)
	require.NotNil(t, day[0].StartTimeOfDay)
	require.Equal(t, "14:30", *day[0].StartTimeOfDay)
	require.NotNil(t, day[0].EstimatedMinutes)
	require.Equal(t, 20, *day[0].EstimatedMinutes)
}

func TestRun_RejectsBadDateKey(t *testing.T) {
	svc, _, _, _, _ := newService(t)

	res, err := svc.Run("05/06/2024", true)
	require.Error(t, err)
	require.Empty(t, res.DatesProcessed)
}
