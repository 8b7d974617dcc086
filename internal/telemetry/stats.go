package telemetry

// Stats summarizes recorded events for the /api/stats endpoint.
type Stats struct {
	TotalEvents       int               `json:"totalEvents"`
	ActionsCreated    int               `json:"actionsCreated"`
	ActionsCompleted  int               `json:"actionsCompleted"`
	ActionsFated      int               `json:"actionsFated"`
	GatherRuns        int               `json:"gatherRuns"`
	PreDaysCompleted  int               `json:"preDaysCompleted"`
	AfterDaysComplete int               `json:"afterDaysCompleted"`
	EventsByType      map[EventType]int `json:"eventsByType"`
}

func CalculateStats(events []Event) Stats {
	s := Stats{EventsByType: map[EventType]int{}}
	for _, e := range events {
		s.TotalEvents++
		s.EventsByType[e.Type]++
		switch e.Type {
		case EventActionCreated:
			s.ActionsCreated++
		case EventActionCompleted:
			s.ActionsCompleted++
		case EventActionFated:
			s.ActionsFated++
		case EventGatherRun:
			s.GatherRuns++
		case EventPreDayCompleted:
			s.PreDaysCompleted++
		case EventAfterDayCompleted:
			s.AfterDaysComplete++
		}
	}
	return s
}
