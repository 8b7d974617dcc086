package interval

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markRiceOld/trackerApi/internal/model"
)

type MemoryRepo struct {
	mu        sync.RWMutex
	intervals map[string]model.Interval
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{intervals: map[string]model.Interval{}}
}

func (r *MemoryRepo) Create(iv model.Interval) (model.Interval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	iv.ID = uuid.NewString()
	if iv.Status == "" {
		iv.Status = model.StatusActive
	}
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = now
	}
	iv.UpdatedAt = now
	r.intervals[iv.ID] = iv
	return iv, nil
}

func (r *MemoryRepo) Get(id string) (model.Interval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	iv, ok := r.intervals[id]
	if !ok {
		return model.Interval{}, ErrNotFound
	}
	return iv, nil
}

func (r *MemoryRepo) Update(id string, p Patch) (model.Interval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	iv, ok := r.intervals[id]
	if !ok {
		return model.Interval{}, ErrNotFound
	}
	now := time.Now()
	p.Apply(&iv, now)
	iv.UpdatedAt = now
	r.intervals[id] = iv
	return iv, nil
}

func (r *MemoryRepo) Delete(id string) (model.Interval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	iv, ok := r.intervals[id]
	if !ok {
		return model.Interval{}, ErrNotFound
	}
	delete(r.intervals, id)
	return iv, nil
}

func (r *MemoryRepo) List(f ListFilter) ([]model.Interval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Interval, 0, len(r.intervals))
	for _, iv := range r.intervals {
		if f.Status != "" && iv.Status != f.Status {
			continue
		}
		out = append(out, iv)
	}
	Sort(out)
	return out, nil
}
