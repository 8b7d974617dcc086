package today

import (
	"sort"

	"github.com/markRiceOld/trackerApi/internal/calendar"
	"github.com/markRiceOld/trackerApi/internal/model"
)

type span struct {
	id    model.ActionID
	start int
	end   int
}

// OverlapIDs computes the pairwise time conflicts among a day's actions.
// Every input id gets an entry; actions without a valid "HH:mm" start time
// never conflict and keep an empty list. Each action occupies the half-open
// minute interval [start, start+duration), duration defaulting to 0: a
// duration-less action still occupies its start instant and conflicts only
// with an interval spanning it.
func OverlapIDs(actions []model.Action) map[model.ActionID][]model.ActionID {
	out := make(map[model.ActionID][]model.ActionID, len(actions))
	spans := make([]span, 0, len(actions))

	for _, a := range actions {
		out[a.ID] = []model.ActionID{}
		if a.StartTimeOfDay == nil {
			continue
		}
		start, ok := calendar.MinutesOfDay(*a.StartTimeOfDay)
		if !ok {
			continue
		}
		duration := 0
		if a.EstimatedMinutes != nil {
			duration = *a.EstimatedMinutes
		}
		spans = append(spans, span{id: a.ID, start: start, end: start + duration})
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].id < spans[j].id
	})

	for i := range spans {
		for j := range spans {
			if i == j {
				continue
			}
			if spans[i].start < spans[j].end && spans[j].start < spans[i].end {
				out[spans[i].id] = append(out[spans[i].id], spans[j].id)
			}
		}
	}
	return out
}
