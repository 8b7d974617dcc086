// Package recurrence decides, with no side effects, whether a recurring
// definition produces an occurrence on a given calendar date, and expands a
// routine's time blocks into per-day occurrence slots.
package recurrence

import (
	"github.com/markRiceOld/trackerApi/internal/calendar"
	"github.com/markRiceOld/trackerApi/internal/model"
)

// Spec is the evaluation view of an interval's recurrence fields.
//
// Precedence, first applicable branch wins:
//
//  1. dates after EndDate never occur
//  2. a present (non-nil) ExplicitDates list fully overrides everything
//     else: occurrence iff the date is in the list. A present list whose
//     usable entries all dropped out still overrides and matches nothing.
//  3. a structured Rule, gated by the periodic step when one is set
//  4. the bare periodic step measured from AnchorDate
//
// A spec with none of the above never occurs.
type Spec struct {
	ExplicitDates []string
	Rule          *model.RepeatRule
	StepValue     int
	StepUnit      *model.RepeatUnit
	EndDate       *string
	AnchorDate    string
}

// FromInterval builds the evaluation spec for an interval. Explicit date
// entries are truncated to their date-key prefix; entries that still do not
// parse as dates are kept out of the set (a malformed stored date can never
// match anything). Whether the override is present is judged on the stored
// list, not the cleaned one, so a list of only-malformed entries still
// suppresses the rule and step instead of quietly reviving them.
func FromInterval(iv model.Interval) Spec {
	var dates []string
	if len(iv.CustomRepeatDates) > 0 {
		dates = make([]string, 0, len(iv.CustomRepeatDates))
		for _, d := range iv.CustomRepeatDates {
			if len(d) > len(calendar.DateKeyLayout) {
				d = d[:len(calendar.DateKeyLayout)]
			}
			if calendar.IsDateKey(d) {
				dates = append(dates, d)
			}
		}
	}
	return Spec{
		ExplicitDates: dates,
		Rule:          iv.CustomRepeatRule,
		StepValue:     iv.RepeatValue,
		StepUnit:      iv.RepeatUnit,
		EndDate:       iv.EndDate,
		AnchorDate:    calendar.Key(iv.CreatedAt),
	}
}

func (s Spec) hasStep() bool {
	return s.StepUnit != nil && s.StepUnit.Valid() && s.StepValue > 0
}
