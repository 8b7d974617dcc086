package action

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markRiceOld/trackerApi/internal/model"
)

var (
	ErrNotFound = errors.New("action not found")

	// ErrDuplicateGathered signals that a gathered action with the same
	// (source, date, start time) identity already exists. Callers racing on
	// materialization treat it as "already materialized", not a failure.
	ErrDuplicateGathered = errors.New("gathered action already exists")
)

// Patch represents a partial update.
// nil pointer => "no change"
// empty string for DueDate/StartTimeOfDay/ProjectID => clear (set to nil)
type Patch struct {
	Title            *string         `json:"title,omitempty"`
	Done             *bool           `json:"done,omitempty"`
	Priority         *model.Priority `json:"priority,omitempty"`
	DueDate          *string         `json:"dueDate,omitempty"`
	EstimatedMinutes *int            `json:"estimatedMinutes,omitempty"`
	StartTimeOfDay   *string         `json:"startTimeOfDay,omitempty"`
	ProjectID        *string         `json:"projectId,omitempty"`
	ForDate          *string         `json:"forDate,omitempty"`
	Fate             *model.Fate     `json:"fate,omitempty"`
}

// ListFilter narrows List results. Date fields are date keys; at most one
// of DueOn/GatheredOn is normally set per call.
type ListFilter struct {
	// DueOn matches user actions due on the given date.
	DueOn string
	// GatheredOn matches gathered actions materialized for the given date.
	GatheredOn string
	// Done filters by completion when non-nil.
	Done *bool
	// FateUnset keeps only actions with no disposition applied.
	FateUnset bool
	// Standalone keeps only user-created actions with no project link.
	Standalone bool
}

// Repo is a user-scoped action store.
type Repo interface {
	Create(a model.Action) (model.Action, error)
	Get(id model.ActionID) (model.Action, error)
	Update(id model.ActionID, p Patch) (model.Action, error)
	Delete(id model.ActionID) (model.Action, error)
	List(f ListFilter) ([]model.Action, error)

	// FindGathered looks up a gathered action by its materialization
	// identity. A nil startTime ignores the start-time component (interval
	// occurrences are unique per date regardless of time).
	FindGathered(kind model.SourceKind, sourceID, dateKey string, startTime *string) (model.Action, bool, error)
}

func newID() model.ActionID {
	return model.ActionID(uuid.NewString())
}

func normalize(a *model.Action) {
	if a.Priority == "" {
		a.Priority = model.PriorityPrimary
	}
}

// Apply merges the patch into a.
func (p Patch) Apply(a *model.Action) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Done != nil {
		a.Done = *p.Done
	}
	if p.Priority != nil {
		a.Priority = *p.Priority
	}

	// pointer string fields with "empty clears" semantics
	if p.DueDate != nil {
		if *p.DueDate == "" {
			a.DueDate = nil
		} else {
			a.DueDate = p.DueDate
		}
	}
	if p.StartTimeOfDay != nil {
		if *p.StartTimeOfDay == "" {
			a.StartTimeOfDay = nil
		} else {
			a.StartTimeOfDay = p.StartTimeOfDay
		}
	}
	if p.ProjectID != nil {
		if *p.ProjectID == "" {
			a.ProjectID = nil
		} else {
			a.ProjectID = p.ProjectID
		}
	}
	if p.ForDate != nil {
		a.ForDate = p.ForDate
	}

	if p.EstimatedMinutes != nil {
		a.EstimatedMinutes = p.EstimatedMinutes
	}
	if p.Fate != nil {
		a.Fate = p.Fate
	}
}

// Matches reports whether a passes the filter.
func (f ListFilter) Matches(a model.Action) bool {
	if f.DueOn != "" {
		if a.DueDate == nil || *a.DueDate != f.DueOn {
			return false
		}
	}
	if f.GatheredOn != "" {
		if !a.Gathered || a.ForDate == nil || *a.ForDate != f.GatheredOn {
			return false
		}
	}
	if f.Done != nil && a.Done != *f.Done {
		return false
	}
	if f.FateUnset && a.Fate != nil {
		return false
	}
	if f.Standalone {
		if a.Gathered || a.ProjectID != nil {
			return false
		}
	}
	return true
}

// Sort orders due/scheduled soonest first (nil dates last), then by
// most recently updated.
func Sort(out []model.Action) {
	day := func(a model.Action) *string {
		if a.Gathered {
			return a.ForDate
		}
		return a.DueDate
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := day(out[i]), day(out[j])
		switch {
		case di == nil && dj == nil:
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		case di == nil:
			return false
		case dj == nil:
			return true
		case *di != *dj:
			return *di < *dj
		default:
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
	})
}

// gatheredIdentityMatches reports whether an existing action claims the
// given materialization identity.
func gatheredIdentityMatches(a model.Action, kind model.SourceKind, sourceID, dateKey string, startTime *string) bool {
	if !a.Gathered || a.SourceKind != kind || a.SourceID != sourceID {
		return false
	}
	if a.ForDate == nil || *a.ForDate != dateKey {
		return false
	}
	if startTime == nil {
		return true
	}
	return a.StartTimeOfDay != nil && *a.StartTimeOfDay == *startTime
}

// StampNew assigns a fresh ID and creation timestamps to a new record.
func StampNew(a *model.Action, now time.Time) {
	a.ID = newID()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.SourceKind != model.SourceNone {
		a.SourceID = strings.TrimSpace(a.SourceID)
	}
	normalize(a)
}
