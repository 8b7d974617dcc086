package model

import (
	"encoding/json"
	"time"
)

// Status marks recurring definitions as materialization candidates or not.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// RepeatUnit is the unit of a periodic repeat step measured from the
// interval's creation date.
type RepeatUnit string

const (
	RepeatDay   RepeatUnit = "day"
	RepeatWeek  RepeatUnit = "week"
	RepeatMonth RepeatUnit = "month"
)

func (u RepeatUnit) Valid() bool {
	return u == RepeatDay || u == RepeatWeek || u == RepeatMonth
}

// RepeatRule is a structured calendar pattern. Exactly one shape applies,
// selected by Unit:
//
//	"week"  -> DaysOfWeek (ISO, 1=Monday..7=Sunday)
//	"month" -> DaysOfMonth (1..31)
//	"year"  -> Months (1..12), optionally narrowed by DaysOfMonth
//
// A rule that decodes but carries an unknown unit or no selector at all is
// treated as absent by the evaluator; a selector that decodes to an empty
// set matches no dates.
type RepeatRule struct {
	Unit        string `json:"unit"`
	DaysOfWeek  []int  `json:"daysOfWeek,omitempty"`
	DaysOfMonth []int  `json:"daysOfMonth,omitempty"`
	Months      []int  `json:"months,omitempty"`
}

const (
	RuleUnitWeek  = "week"
	RuleUnitMonth = "month"
	RuleUnitYear  = "year"
)

// DecodeRepeatRule parses a stored JSON rule. A parse failure yields nil,
// never an error: a malformed stored rule means "no rule".
func DecodeRepeatRule(raw string) *RepeatRule {
	if raw == "" {
		return nil
	}
	var r RepeatRule
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil
	}
	return &r
}

// Step is an ordered sub-item of an interval or routine.
type Step struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

// Interval is a recurring work definition. When and how often it produces
// an occurrence is decided by the recurrence evaluator from the fields
// below; CreatedAt doubles as the anchor date for periodic repeats.
type Interval struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Status           Status  `json:"status"`
	EstimatedMinutes int     `json:"estimatedMinutes"`
	EndDate          *string `json:"endDate,omitempty"`

	RepeatValue       int         `json:"repeatValue"`
	RepeatUnit        *RepeatUnit `json:"repeatUnit,omitempty"`
	CustomRepeatDates []string    `json:"customRepeatDates,omitempty"`
	CustomRepeatRule  *RepeatRule `json:"customRepeatRule,omitempty"`

	PredictedToDoTime *string `json:"predictedToDoTime,omitempty"`

	Steps []Step `json:"steps"`

	// At most one of these is set.
	GoalID      *string `json:"goalId,omitempty"`
	MilestoneID *string `json:"milestoneId,omitempty"`
	ProjectID   *string `json:"projectId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Linked reports whether the interval is attached to a goal, milestone or
// project. Gathered actions from linked intervals are handled separately in
// the after-day wizard.
func (iv Interval) Linked() bool {
	return iv.GoalID != nil || iv.MilestoneID != nil || iv.ProjectID != nil
}

// IntervalUpsert is the create payload accepted over HTTP. Steps are
// plain titles; the server assigns IDs and order.
type IntervalUpsert struct {
	Title             string      `json:"title"`
	Status            Status      `json:"status"`
	EstimatedMinutes  int         `json:"estimatedMinutes"`
	EndDate           *string     `json:"endDate"`
	RepeatValue       int         `json:"repeatValue"`
	RepeatUnit        *string     `json:"repeatUnit"`
	CustomRepeatDates []string    `json:"customRepeatDates"`
	CustomRepeatRule  *RepeatRule `json:"customRepeatRule"`
	PredictedToDoTime *string     `json:"predictedToDoTime"`
	Steps             []string    `json:"steps"`
	GoalID            *string     `json:"goalId"`
	MilestoneID       *string     `json:"milestoneId"`
	ProjectID         *string     `json:"projectId"`
}
