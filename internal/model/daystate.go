package model

import "time"

// DayState tracks the three independent workflow milestones for one
// (user, date) pair. Each timestamp is set by an upsert the first time the
// corresponding step completes and refreshed on repeat completions; none
// is ever cleared.
type DayState struct {
	DateKey string `json:"dateKey"`

	ActionGatheringCompletedAt *time.Time `json:"actionGatheringCompletedAt,omitempty"`
	PreDayCompletedAt          *time.Time `json:"preDayCompletedAt,omitempty"`
	AfterDayCompletedAt        *time.Time `json:"afterDayCompletedAt,omitempty"`
}
