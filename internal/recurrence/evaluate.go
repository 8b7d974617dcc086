package recurrence

import (
	"slices"

	"github.com/markRiceOld/trackerApi/internal/calendar"
	"github.com/markRiceOld/trackerApi/internal/model"
)

// OccursOn reports whether the spec produces an occurrence on dateKey.
// A malformed dateKey never occurs.
func OccursOn(spec Spec, dateKey string) bool {
	if !calendar.IsDateKey(dateKey) {
		return false
	}
	if spec.EndDate != nil && calendar.IsDateKey(*spec.EndDate) && dateKey > *spec.EndDate {
		return false
	}

	// A present explicit-date list is an override, not a union: membership
	// decides and no other field is consulted, even when every usable entry
	// dropped out and the list matches nothing.
	if spec.ExplicitDates != nil {
		return slices.Contains(spec.ExplicitDates, dateKey)
	}

	if spec.Rule != nil {
		if match, applies := ruleMatches(*spec.Rule, dateKey); applies {
			if !match {
				return false
			}
			if !spec.hasStep() {
				return true
			}
			return stepMatches(spec.AnchorDate, dateKey, spec.StepValue, *spec.StepUnit)
		}
	}

	if spec.hasStep() {
		return stepMatches(spec.AnchorDate, dateKey, spec.StepValue, *spec.StepUnit)
	}

	return false
}

// ruleMatches evaluates a structured rule against a date. applies=false
// means the rule is degenerate (unknown unit, absent selector set) and the
// caller should fall through to the next branch. A selector that is present
// but decoded to an empty set applies and matches no date at all; membership
// in an empty set is still a decision, not a gap.
func ruleMatches(rule model.RepeatRule, dateKey string) (match, applies bool) {
	switch rule.Unit {
	case model.RuleUnitWeek:
		if rule.DaysOfWeek == nil {
			return false, false
		}
		return slices.Contains(rule.DaysOfWeek, calendar.ISOWeekday(dateKey)), true

	case model.RuleUnitMonth:
		if rule.DaysOfMonth == nil {
			return false, false
		}
		return slices.Contains(rule.DaysOfMonth, calendar.DayOfMonth(dateKey)), true

	case model.RuleUnitYear:
		if rule.Months == nil {
			return false, false
		}
		if !slices.Contains(rule.Months, calendar.Month(dateKey)) {
			return false, true
		}
		if len(rule.DaysOfMonth) > 0 && !slices.Contains(rule.DaysOfMonth, calendar.DayOfMonth(dateKey)) {
			return false, true
		}
		return true, true
	}
	return false, false
}

// stepMatches reports whether dateKey is exactly anchor + N*value units for
// some N >= 0.
func stepMatches(anchorKey, dateKey string, value int, unit model.RepeatUnit) bool {
	if !calendar.IsDateKey(anchorKey) {
		return false
	}
	diffDays := calendar.DaysBetween(anchorKey, dateKey)
	if diffDays < 0 {
		return false
	}

	switch unit {
	case model.RepeatDay:
		return diffDays%value == 0
	case model.RepeatWeek:
		return diffDays%7 == 0 && (diffDays/7)%value == 0
	case model.RepeatMonth:
		// Month steps require the exact same day-of-month as the anchor;
		// month-count divisibility alone is not enough.
		if calendar.DayOfMonth(dateKey) != calendar.DayOfMonth(anchorKey) {
			return false
		}
		months := calendar.MonthsBetween(anchorKey, dateKey)
		return months >= 0 && months%value == 0
	}
	return false
}
