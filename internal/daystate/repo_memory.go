package daystate

import (
	"sync"
	"time"

	"github.com/markRiceOld/trackerApi/internal/model"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	days map[string]model.DayState
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{days: map[string]model.DayState{}}
}

func (r *MemoryRepo) Get(dateKey string) (model.DayState, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ds, ok := r.days[dateKey]
	return ds, ok, nil
}

func (r *MemoryRepo) CompleteGathering(dateKey string, at time.Time) (model.DayState, error) {
	return r.upsert(dateKey, func(ds *model.DayState) {
		ds.ActionGatheringCompletedAt = &at
	})
}

func (r *MemoryRepo) CompletePreDay(dateKey string, at time.Time) (model.DayState, error) {
	return r.upsert(dateKey, func(ds *model.DayState) {
		ds.PreDayCompletedAt = &at
	})
}

func (r *MemoryRepo) CompleteAfterDay(dateKey string, at time.Time) (model.DayState, error) {
	return r.upsert(dateKey, func(ds *model.DayState) {
		ds.AfterDayCompletedAt = &at
	})
}

func (r *MemoryRepo) upsert(dateKey string, set func(*model.DayState)) (model.DayState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ds, ok := r.days[dateKey]
	if !ok {
		ds = model.DayState{DateKey: dateKey}
	}
	set(&ds)
	r.days[dateKey] = ds
	return ds, nil
}
