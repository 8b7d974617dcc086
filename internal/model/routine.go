package model

import "time"

// Routine is a recurring work definition with fixed daily time blocks.
// Each "HH:mm" entry in TimeBlocks produces one occurrence per day; an
// empty list means the routine never materializes. Unlike intervals,
// routines are never linked to goals, milestones or projects.
type Routine struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Status           Status  `json:"status"`
	EstimatedMinutes int     `json:"estimatedMinutes"`
	EndDate          *string `json:"endDate,omitempty"`

	TimeBlocks           []string `json:"timeBlocks"`
	TimerDurationMinutes *int     `json:"timerDurationMinutes,omitempty"`

	Steps []Step `json:"steps"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RoutineUpsert is the create payload accepted over HTTP.
type RoutineUpsert struct {
	Title                string   `json:"title"`
	Status               Status   `json:"status"`
	EstimatedMinutes     int      `json:"estimatedMinutes"`
	EndDate              *string  `json:"endDate"`
	TimeBlocks           []string `json:"timeBlocks"`
	TimerDurationMinutes *int     `json:"timerDurationMinutes"`
	Steps                []string `json:"steps"`
}
