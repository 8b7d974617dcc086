package telemetry

import "time"

type EventType string

const (
	EventActionCreated     EventType = "action_created"
	EventActionCompleted   EventType = "action_completed"
	EventActionFated       EventType = "action_fated"
	EventGatherRun         EventType = "gather_run"
	EventPreDayCompleted   EventType = "pre_day_completed"
	EventAfterDayCompleted EventType = "after_day_completed"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
