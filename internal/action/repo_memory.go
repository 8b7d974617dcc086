package action

import (
	"sync"
	"time"

	"github.com/markRiceOld/trackerApi/internal/model"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	actions map[model.ActionID]model.Action
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{actions: map[model.ActionID]model.Action{}}
}

func (r *MemoryRepo) Create(a model.Action) (model.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.Gathered && a.ForDate != nil {
		startTime := a.StartTimeOfDay
		if a.SourceKind == model.SourceInterval {
			startTime = nil
		}
		for _, existing := range r.actions {
			if gatheredIdentityMatches(existing, a.SourceKind, a.SourceID, *a.ForDate, startTime) {
				return model.Action{}, ErrDuplicateGathered
			}
		}
	}

	StampNew(&a, time.Now())
	r.actions[a.ID] = a
	return a, nil
}

func (r *MemoryRepo) Get(id model.ActionID) (model.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.actions[id]
	if !ok {
		return model.Action{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) Update(id model.ActionID, p Patch) (model.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.actions[id]
	if !ok {
		return model.Action{}, ErrNotFound
	}
	p.Apply(&a)
	a.UpdatedAt = time.Now()
	r.actions[id] = a
	return a, nil
}

func (r *MemoryRepo) Delete(id model.ActionID) (model.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.actions[id]
	if !ok {
		return model.Action{}, ErrNotFound
	}
	delete(r.actions, id)
	return a, nil
}

func (r *MemoryRepo) List(f ListFilter) ([]model.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Action, 0, len(r.actions))
	for _, a := range r.actions {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	Sort(out)
	return out, nil
}

func (r *MemoryRepo) FindGathered(kind model.SourceKind, sourceID, dateKey string, startTime *string) (model.Action, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.actions {
		if gatheredIdentityMatches(a, kind, sourceID, dateKey, startTime) {
			return a, true, nil
		}
	}
	return model.Action{}, false, nil
}
