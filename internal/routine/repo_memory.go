package routine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markRiceOld/trackerApi/internal/model"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	routines map[string]model.Routine
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{routines: map[string]model.Routine{}}
}

func (r *MemoryRepo) Create(rt model.Routine) (model.Routine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	rt.ID = uuid.NewString()
	if rt.Status == "" {
		rt.Status = model.StatusActive
	}
	rt.TimeBlocks = NormalizeTimeBlocks(rt.TimeBlocks)
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = now
	}
	rt.UpdatedAt = now
	r.routines[rt.ID] = rt
	return rt, nil
}

func (r *MemoryRepo) Get(id string) (model.Routine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.routines[id]
	if !ok {
		return model.Routine{}, ErrNotFound
	}
	return rt, nil
}

func (r *MemoryRepo) Update(id string, p Patch) (model.Routine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.routines[id]
	if !ok {
		return model.Routine{}, ErrNotFound
	}
	now := time.Now()
	p.Apply(&rt, now)
	rt.UpdatedAt = now
	r.routines[id] = rt
	return rt, nil
}

func (r *MemoryRepo) Delete(id string) (model.Routine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.routines[id]
	if !ok {
		return model.Routine{}, ErrNotFound
	}
	delete(r.routines, id)
	return rt, nil
}

func (r *MemoryRepo) List(f ListFilter) ([]model.Routine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Routine, 0, len(r.routines))
	for _, rt := range r.routines {
		if f.Status != "" && rt.Status != f.Status {
			continue
		}
		out = append(out, rt)
	}
	Sort(out)
	return out, nil
}
