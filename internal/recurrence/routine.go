package recurrence

import (
	"github.com/markRiceOld/trackerApi/internal/calendar"
	"github.com/markRiceOld/trackerApi/internal/model"
)

// Occurrence is one daily slot produced by a routine.
type Occurrence struct {
	StartTimeOfDay string
}

// RoutineOccursOn reports whether the routine has any occurrence on
// dateKey: the date must be valid, not past the routine's end date, and at
// least one time block must be configured.
func RoutineOccursOn(r model.Routine, dateKey string) bool {
	if !calendar.IsDateKey(dateKey) {
		return false
	}
	if r.EndDate != nil && calendar.IsDateKey(*r.EndDate) && dateKey > *r.EndDate {
		return false
	}
	return len(r.TimeBlocks) > 0
}

// RoutineOccurrences expands the routine's time blocks into occurrence
// slots, one per block, in stored order. Blocks are validated when the
// routine is written, so they are trusted here. When a routine that was
// expected to produce slots has none, a single slot at fallbackTime is
// synthesized; that is a last-resort default, not a scheduling
// recommendation.
func RoutineOccurrences(r model.Routine, fallbackTime string) []Occurrence {
	if len(r.TimeBlocks) == 0 {
		return []Occurrence{{StartTimeOfDay: fallbackTime}}
	}
	out := make([]Occurrence, 0, len(r.TimeBlocks))
	for _, b := range r.TimeBlocks {
		out = append(out, Occurrence{StartTimeOfDay: b})
	}
	return out
}
