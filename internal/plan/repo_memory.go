package plan

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markRiceOld/trackerApi/internal/model"
)

type MemoryRepo struct {
	mu         sync.RWMutex
	goals      map[string]model.Goal
	milestones map[string]model.Milestone
	projects   map[string]model.Project
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		goals:      map[string]model.Goal{},
		milestones: map[string]model.Milestone{},
		projects:   map[string]model.Project{},
	}
}

func (r *MemoryRepo) CreateGoal(g model.Goal) (model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	g.ID = uuid.NewString()
	g.CreatedAt = now
	g.UpdatedAt = now
	r.goals[g.ID] = g
	return g, nil
}

func (r *MemoryRepo) GetGoal(id string) (model.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.goals[id]
	if !ok {
		return model.Goal{}, ErrGoalNotFound
	}
	return g, nil
}

func (r *MemoryRepo) UpdateGoal(id string, p GoalPatch) (model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.goals[id]
	if !ok {
		return model.Goal{}, ErrGoalNotFound
	}
	p.Apply(&g)
	g.UpdatedAt = time.Now()
	r.goals[id] = g
	return g, nil
}

func (r *MemoryRepo) DeleteGoal(id string) (model.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.goals[id]
	if !ok {
		return model.Goal{}, ErrGoalNotFound
	}
	delete(r.goals, id)
	return g, nil
}

func (r *MemoryRepo) ListGoals() ([]model.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Goal, 0, len(r.goals))
	for _, g := range r.goals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// goalMilestones returns the goal's milestones ordered by Order.
// Caller holds the lock.
func (r *MemoryRepo) goalMilestones(goalID string) []model.Milestone {
	out := make([]model.Milestone, 0)
	for _, m := range r.milestones {
		if m.GoalID == goalID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// writeBack stores a renumbered sequence. Caller holds the lock.
func (r *MemoryRepo) writeBack(ms []model.Milestone) {
	for _, m := range Renumber(ms) {
		r.milestones[m.ID] = m
	}
}

func (r *MemoryRepo) CreateMilestone(m model.Milestone) (model.Milestone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.goals[m.GoalID]; !ok {
		return model.Milestone{}, ErrGoalNotFound
	}

	now := time.Now()
	m.ID = uuid.NewString()
	m.CreatedAt = now
	m.UpdatedAt = now

	siblings := r.goalMilestones(m.GoalID)
	if m.IsLast {
		for i := range siblings {
			siblings[i].IsLast = false
		}
	}
	r.writeBack(OrderedInsert(siblings, m, m.Order))

	return r.milestones[m.ID], nil
}

func (r *MemoryRepo) GetMilestone(id string) (model.Milestone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.milestones[id]
	if !ok {
		return model.Milestone{}, ErrMilestoneNotFound
	}
	return m, nil
}

func (r *MemoryRepo) UpdateMilestone(id string, p MilestonePatch) (model.Milestone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.milestones[id]
	if !ok {
		return model.Milestone{}, ErrMilestoneNotFound
	}

	p.Apply(&m)
	if p.IsLast != nil {
		if *p.IsLast {
			for _, sib := range r.goalMilestones(m.GoalID) {
				if sib.ID != m.ID && sib.IsLast {
					sib.IsLast = false
					r.milestones[sib.ID] = sib
				}
			}
		}
		m.IsLast = *p.IsLast
	}
	m.UpdatedAt = time.Now()
	r.milestones[id] = m

	if p.Order != nil && *p.Order != m.Order {
		seq := make([]model.Milestone, 0)
		for _, sib := range r.goalMilestones(m.GoalID) {
			if sib.ID != id {
				seq = append(seq, sib)
			}
		}
		r.writeBack(OrderedInsert(seq, m, *p.Order))
	}

	return r.milestones[id], nil
}

func (r *MemoryRepo) DeleteMilestone(id string) (model.Milestone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.milestones[id]
	if !ok {
		return model.Milestone{}, ErrMilestoneNotFound
	}
	delete(r.milestones, id)
	r.writeBack(r.goalMilestones(m.GoalID))
	return m, nil
}

func (r *MemoryRepo) ListMilestones(goalID string) ([]model.Milestone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.goalMilestones(goalID), nil
}

func (r *MemoryRepo) CreateProject(pr model.Project) (model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	pr.ID = uuid.NewString()
	if pr.Priority == "" {
		pr.Priority = model.PriorityPrimary
	}
	pr.CreatedAt = now
	pr.UpdatedAt = now
	r.projects[pr.ID] = pr
	return pr, nil
}

func (r *MemoryRepo) GetProject(id string) (model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pr, ok := r.projects[id]
	if !ok {
		return model.Project{}, ErrProjectNotFound
	}
	return pr, nil
}

func (r *MemoryRepo) UpdateProject(id string, p ProjectPatch) (model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pr, ok := r.projects[id]
	if !ok {
		return model.Project{}, ErrProjectNotFound
	}
	p.Apply(&pr)
	pr.UpdatedAt = time.Now()
	r.projects[id] = pr
	return pr, nil
}

func (r *MemoryRepo) DeleteProject(id string) (model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pr, ok := r.projects[id]
	if !ok {
		return model.Project{}, ErrProjectNotFound
	}
	delete(r.projects, id)
	return pr, nil
}

func (r *MemoryRepo) ListProjects() ([]model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Project, 0, len(r.projects))
	for _, pr := range r.projects {
		out = append(out, pr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
