// Package daystate stores the per-(user, date) workflow record behind the
// day gating: gathering done, pre-day done, after-day done. Completions are
// one-way; a repeat completion just refreshes the timestamp.
package daystate

import (
	"time"

	"github.com/markRiceOld/trackerApi/internal/model"
)

// Repo is a user-scoped day-state store. Every Complete* call is an atomic
// upsert keyed by the date: the record is created on first write.
type Repo interface {
	Get(dateKey string) (model.DayState, bool, error)
	CompleteGathering(dateKey string, at time.Time) (model.DayState, error)
	CompletePreDay(dateKey string, at time.Time) (model.DayState, error)
	CompleteAfterDay(dateKey string, at time.Time) (model.DayState, error)
}
