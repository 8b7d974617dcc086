package model

import (
	"time"
)

type ActionID string

// Priority buckets actions by urgency/importance:
// P = primary, S = secondary, O = outsource, B = bucket list.
type Priority string

const (
	PriorityPrimary    Priority = "P"
	PrioritySecondary  Priority = "S"
	PriorityOutsource  Priority = "O"
	PriorityBucketList Priority = "B"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityPrimary, PrioritySecondary, PriorityOutsource, PriorityBucketList:
		return true
	}
	return false
}

// SourceKind records where a gathered action came from.
// Empty means the user created it directly.
type SourceKind string

const (
	SourceNone     SourceKind = ""
	SourceInterval SourceKind = "interval"
	SourceRoutine  SourceKind = "routine"
)

// Fate is the terminal disposition applied during the after-day wizard.
// At most one is ever set; nil means the action is still scheduled or done.
type Fate string

const (
	FatePostponed      Fate = "Postponed"
	FateOutsourceWoo   Fate = "OutsourceWoo"
	FateBacklog        Fate = "Backlog"
	FateBucketList     Fate = "BucketList"
	FatePassedArchived Fate = "PassedArchived"
)

func (f Fate) Valid() bool {
	switch f {
	case FatePostponed, FateOutsourceWoo, FateBacklog, FateBucketList, FatePassedArchived:
		return true
	}
	return false
}

// Action is a concrete, schedulable unit of work for one date.
// It is either created directly by the user or materialized ("gathered")
// from an interval or routine.
//
// Date fields are calendar date keys ("YYYY-MM-DD"); DueDate is the date a
// user-created action is due, ForDate the date a gathered action was
// materialized for. StartTimeOfDay is "HH:mm".
type Action struct {
	ID               ActionID `json:"id"`
	Title            string   `json:"title"`
	Done             bool     `json:"done"`
	Priority         Priority `json:"priority"`
	DueDate          *string  `json:"dueDate,omitempty"`
	EstimatedMinutes *int     `json:"estimatedMinutes,omitempty"`
	StartTimeOfDay   *string  `json:"startTimeOfDay,omitempty"`
	ProjectID        *string  `json:"projectId,omitempty"`

	Gathered   bool       `json:"gathered"`
	SourceKind SourceKind `json:"sourceKind,omitempty"`
	SourceID   string     `json:"sourceId,omitempty"`
	ForDate    *string    `json:"forDate,omitempty"`

	Fate *Fate `json:"fate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasStartTime reports whether the action carries a start time at all.
// Validity of the "HH:mm" encoding is checked by the calendar package.
func (a Action) HasStartTime() bool {
	return a.StartTimeOfDay != nil && *a.StartTimeOfDay != ""
}

// ActionUpsert is the create payload accepted over HTTP.
type ActionUpsert struct {
	Title            string   `json:"title"`
	Done             bool     `json:"done"`
	Priority         Priority `json:"priority"`
	DueDate          *string  `json:"dueDate"`
	EstimatedMinutes *int     `json:"estimatedMinutes"`
	StartTimeOfDay   *string  `json:"startTimeOfDay"`
	ProjectID        *string  `json:"projectId"`
}
