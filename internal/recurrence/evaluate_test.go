package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markRiceOld/trackerApi/internal/model"
)

func strp(s string) *string { return &s }

func unitp(u model.RepeatUnit) *model.RepeatUnit { return &u }

func TestOccursOn_EmptySpecNeverOccurs(t *testing.T) {
	spec := Spec{AnchorDate: "2024-05-01"}
	for _, d := range []string{"2024-05-01", "2024-05-02", "2025-01-01"} {
		assert.False(t, OccursOn(spec, d), d)
	}
}

func TestOccursOn_EndDateWins(t *testing.T) {
	spec := Spec{
		ExplicitDates: []string{"2024-05-01", "2024-06-01"},
		StepValue:     1,
		StepUnit:      unitp(model.RepeatDay),
		EndDate:       strp("2024-05-15"),
		AnchorDate:    "2024-05-01",
	}
	assert.True(t, OccursOn(spec, "2024-05-01"))
	// After the end date nothing occurs, whatever the other fields say.
	assert.False(t, OccursOn(spec, "2024-06-01"))
	assert.False(t, OccursOn(spec, "2024-05-16"))
	// The end date itself is still in range.
	spec.ExplicitDates = []string{"2024-05-15"}
	assert.True(t, OccursOn(spec, "2024-05-15"))
}

func TestOccursOn_ExplicitDatesOverrideEverything(t *testing.T) {
	spec := Spec{
		ExplicitDates: []string{"2024-05-01", "2024-05-10"},
		StepValue:     1,
		StepUnit:      unitp(model.RepeatDay),
		Rule:          &model.RepeatRule{Unit: model.RuleUnitWeek, DaysOfWeek: []int{1, 2, 3, 4, 5, 6, 7}},
		AnchorDate:    "2024-04-01",
	}
	assert.True(t, OccursOn(spec, "2024-05-01"))
	assert.True(t, OccursOn(spec, "2024-05-10"))
	// Every other date would match both the rule and the daily step, but a
	// non-empty explicit list is an override, not a union.
	assert.False(t, OccursOn(spec, "2024-05-02"))
	assert.False(t, OccursOn(spec, "2024-05-09"))
}

func TestOccursOn_DailyStep(t *testing.T) {
	every := Spec{StepValue: 1, StepUnit: unitp(model.RepeatDay), AnchorDate: "2024-05-01"}
	assert.True(t, OccursOn(every, "2024-05-01"))
	assert.True(t, OccursOn(every, "2024-05-02"))
	assert.True(t, OccursOn(every, "2024-06-30"))
	assert.False(t, OccursOn(every, "2024-04-30"), "before anchor")

	weekly := Spec{StepValue: 7, StepUnit: unitp(model.RepeatDay), AnchorDate: "2024-05-01"}
	assert.True(t, OccursOn(weekly, "2024-05-01"))
	assert.True(t, OccursOn(weekly, "2024-05-08"))
	assert.True(t, OccursOn(weekly, "2024-05-15"))
	assert.False(t, OccursOn(weekly, "2024-05-07"))
	assert.False(t, OccursOn(weekly, "2024-05-09"))
}

func TestOccursOn_WeekStep(t *testing.T) {
	// Anchor is a Monday; every second week.
	spec := Spec{StepValue: 2, StepUnit: unitp(model.RepeatWeek), AnchorDate: "2024-05-06"}
	assert.True(t, OccursOn(spec, "2024-05-06"))
	assert.True(t, OccursOn(spec, "2024-05-20"))
	assert.False(t, OccursOn(spec, "2024-05-13"), "odd week")
	assert.False(t, OccursOn(spec, "2024-05-19"), "not a whole week offset")
}

func TestOccursOn_MonthStepRequiresSameDayOfMonth(t *testing.T) {
	spec := Spec{StepValue: 2, StepUnit: unitp(model.RepeatMonth), AnchorDate: "2024-01-15"}
	assert.True(t, OccursOn(spec, "2024-01-15"))
	assert.True(t, OccursOn(spec, "2024-03-15"))
	assert.True(t, OccursOn(spec, "2024-07-15"))
	assert.False(t, OccursOn(spec, "2024-02-15"), "month offset not multiple of 2")
	// Same month distance, wrong day of month: never a match.
	assert.False(t, OccursOn(spec, "2024-03-14"))
	assert.False(t, OccursOn(spec, "2024-03-16"))
	assert.False(t, OccursOn(spec, "2023-11-15"), "before anchor")
}

func TestOccursOn_WeeklyRule(t *testing.T) {
	spec := Spec{
		Rule:       &model.RepeatRule{Unit: model.RuleUnitWeek, DaysOfWeek: []int{1, 3}},
		AnchorDate: "2024-05-01",
	}
	assert.True(t, OccursOn(spec, "2024-05-06"), "Monday")
	assert.True(t, OccursOn(spec, "2024-05-08"), "Wednesday")
	assert.False(t, OccursOn(spec, "2024-05-07"), "Tuesday")
}

func TestOccursOn_WeeklyRuleGatedByStep(t *testing.T) {
	// Mondays, but only every second week counted in days from the anchor.
	spec := Spec{
		Rule:       &model.RepeatRule{Unit: model.RuleUnitWeek, DaysOfWeek: []int{1}},
		StepValue:  2,
		StepUnit:   unitp(model.RepeatWeek),
		AnchorDate: "2024-05-06",
	}
	assert.True(t, OccursOn(spec, "2024-05-06"))
	assert.False(t, OccursOn(spec, "2024-05-13"), "Monday but off-step")
	assert.True(t, OccursOn(spec, "2024-05-20"))
	assert.False(t, OccursOn(spec, "2024-05-21"), "on-step week but not Monday")
}

func TestOccursOn_MonthlyRule(t *testing.T) {
	spec := Spec{
		Rule:       &model.RepeatRule{Unit: model.RuleUnitMonth, DaysOfMonth: []int{1, 15}},
		AnchorDate: "2024-01-01",
	}
	assert.True(t, OccursOn(spec, "2024-05-01"))
	assert.True(t, OccursOn(spec, "2024-05-15"))
	assert.False(t, OccursOn(spec, "2024-05-14"))
}

func TestOccursOn_YearlyRule(t *testing.T) {
	withDays := Spec{
		Rule:       &model.RepeatRule{Unit: model.RuleUnitYear, Months: []int{5}, DaysOfMonth: []int{1}},
		AnchorDate: "2024-01-01",
	}
	assert.True(t, OccursOn(withDays, "2024-05-01"))
	assert.False(t, OccursOn(withDays, "2024-05-02"))
	assert.False(t, OccursOn(withDays, "2024-06-01"))

	wholeMonth := Spec{
		Rule:       &model.RepeatRule{Unit: model.RuleUnitYear, Months: []int{5}},
		AnchorDate: "2024-01-01",
	}
	assert.True(t, OccursOn(wholeMonth, "2024-05-02"))
	assert.True(t, OccursOn(wholeMonth, "2024-05-31"))
	assert.False(t, OccursOn(wholeMonth, "2024-04-30"))
}

func TestOccursOn_DegenerateRuleFallsThroughToStep(t *testing.T) {
	spec := Spec{
		Rule:       &model.RepeatRule{Unit: "fortnight"},
		StepValue:  1,
		StepUnit:   unitp(model.RepeatDay),
		AnchorDate: "2024-05-01",
	}
	assert.True(t, OccursOn(spec, "2024-05-03"))

	absentSelector := Spec{
		Rule:       &model.RepeatRule{Unit: model.RuleUnitWeek},
		StepValue:  1,
		StepUnit:   unitp(model.RepeatDay),
		AnchorDate: "2024-05-01",
	}
	assert.True(t, OccursOn(absentSelector, "2024-05-03"))
}

func TestOccursOn_EmptySelectorRuleMatchesNothing(t *testing.T) {
	// An explicitly empty selector is a decision, not a gap: the rule applies
	// and no date is a member, so the step underneath never gets consulted.
	base := Spec{StepValue: 1, StepUnit: unitp(model.RepeatDay), AnchorDate: "2024-05-01"}

	weekly := base
	weekly.Rule = &model.RepeatRule{Unit: model.RuleUnitWeek, DaysOfWeek: []int{}}
	assert.False(t, OccursOn(weekly, "2024-05-03"))
	assert.False(t, OccursOn(weekly, "2024-05-06"), "Monday, step-aligned")

	monthly := base
	monthly.Rule = &model.RepeatRule{Unit: model.RuleUnitMonth, DaysOfMonth: []int{}}
	assert.False(t, OccursOn(monthly, "2024-05-01"))

	yearly := base
	yearly.Rule = &model.RepeatRule{Unit: model.RuleUnitYear, Months: []int{}}
	assert.False(t, OccursOn(yearly, "2024-05-01"))
}

func TestOccursOn_MalformedDateKey(t *testing.T) {
	spec := Spec{StepValue: 1, StepUnit: unitp(model.RepeatDay), AnchorDate: "2024-05-01"}
	assert.False(t, OccursOn(spec, "2024-5-1"))
	assert.False(t, OccursOn(spec, "garbage"))
	assert.False(t, OccursOn(spec, ""))
}

func TestFromInterval(t *testing.T) {
	created := time.Date(2024, 5, 1, 17, 42, 0, 0, time.UTC)
	iv := model.Interval{
		CustomRepeatDates: []string{"2024-05-01", "2024-05-10T00:00:00.000Z", "junk"},
		RepeatValue:       3,
		RepeatUnit:        unitp(model.RepeatDay),
		EndDate:           strp("2024-12-31"),
		CreatedAt:         created,
	}
	spec := FromInterval(iv)
	require.Equal(t, []string{"2024-05-01", "2024-05-10"}, spec.ExplicitDates)
	assert.Equal(t, "2024-05-01", spec.AnchorDate)
	assert.Equal(t, 3, spec.StepValue)

	// Round-trip from the spec: exactly the two explicit dates occur.
	assert.True(t, OccursOn(spec, "2024-05-01"))
	assert.True(t, OccursOn(spec, "2024-05-10"))
	assert.False(t, OccursOn(spec, "2024-05-04"), "step would match but list overrides")
}

func TestFromInterval_OnlyMalformedDatesStillOverride(t *testing.T) {
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	iv := model.Interval{
		CustomRepeatDates: []string{"junk"},
		RepeatValue:       1,
		RepeatUnit:        unitp(model.RepeatDay),
		CreatedAt:         created,
	}
	spec := FromInterval(iv)
	// The stored list is non-empty, so the override stands even though every
	// entry dropped out; the daily step must not come back to life.
	require.NotNil(t, spec.ExplicitDates)
	assert.Empty(t, spec.ExplicitDates)
	assert.False(t, OccursOn(spec, "2024-05-03"))

	// No stored dates at all leaves the override absent and the step in charge.
	iv.CustomRepeatDates = nil
	spec = FromInterval(iv)
	assert.Nil(t, spec.ExplicitDates)
	assert.True(t, OccursOn(spec, "2024-05-03"))
}

func TestDecodeRepeatRule(t *testing.T) {
	r := model.DecodeRepeatRule(`{"unit":"week","daysOfWeek":[1,5]}`)
	require.NotNil(t, r)
	assert.Equal(t, []int{1, 5}, r.DaysOfWeek)

	assert.Nil(t, model.DecodeRepeatRule(""))
	assert.Nil(t, model.DecodeRepeatRule("{not json"))
}
