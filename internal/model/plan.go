package model

import "time"

// Goal is a long-horizon objective. A goal may nest under either a parent
// goal or a parent milestone, never both.
type Goal struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	DOD         *string `json:"dod,omitempty"` // definition of done
	IsGoalGroup bool    `json:"isGoalGroup"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`

	ParentGoalID      *string `json:"parentGoalId,omitempty"`
	ParentMilestoneID *string `json:"parentMilestoneId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Milestone is an ordered checkpoint within a goal. Exactly one milestone
// per goal may be marked last; inserting before it shifts later orders up.
type Milestone struct {
	ID             string  `json:"id"`
	GoalID         string  `json:"goalId"`
	Title          string  `json:"title"`
	DOA            *string `json:"doa,omitempty"` // definition of achievement
	PredictionDate *string `json:"predictionDate,omitempty"`
	Order          int     `json:"order"`
	IsLast         bool    `json:"isLast"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Project groups actions and intervals. It may link to a goal or a
// milestone, never both.
type Project struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	DOD      *string  `json:"dod,omitempty"`
	Type     string   `json:"type"`
	Priority Priority `json:"priority"`

	GoalID      *string `json:"goalId,omitempty"`
	MilestoneID *string `json:"milestoneId,omitempty"`

	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
