package store

import (
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/markRiceOld/trackerApi/internal/model"
	"github.com/markRiceOld/trackerApi/internal/plan"
)

type planRepo struct {
	db     *sql.DB
	userID string
}

type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func (r *planRepo) CreateGoal(g model.Goal) (model.Goal, error) {
	now := time.Now()
	g.ID = uuid.NewString()
	g.CreatedAt = now
	g.UpdatedAt = now

	doc, err := marshalDoc(g)
	if err != nil {
		return model.Goal{}, err
	}
	if _, err := r.db.Exec(
		`INSERT INTO goals (user_id, id, doc) VALUES (?, ?, ?)`,
		r.userID, g.ID, doc); err != nil {
		return model.Goal{}, err
	}
	return g, nil
}

func (r *planRepo) getGoal(q querier, id string) (model.Goal, error) {
	var doc string
	err := q.QueryRow(
		`SELECT doc FROM goals WHERE user_id = ? AND id = ?`,
		r.userID, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Goal{}, plan.ErrGoalNotFound
	}
	if err != nil {
		return model.Goal{}, err
	}
	return unmarshalDoc[model.Goal](doc)
}

func (r *planRepo) GetGoal(id string) (model.Goal, error) {
	return r.getGoal(r.db, id)
}

func (r *planRepo) UpdateGoal(id string, p plan.GoalPatch) (model.Goal, error) {
	g, err := r.GetGoal(id)
	if err != nil {
		return model.Goal{}, err
	}
	p.Apply(&g)
	g.UpdatedAt = time.Now()

	doc, err := marshalDoc(g)
	if err != nil {
		return model.Goal{}, err
	}
	if _, err := r.db.Exec(
		`UPDATE goals SET doc = ? WHERE user_id = ? AND id = ?`,
		doc, r.userID, id); err != nil {
		return model.Goal{}, err
	}
	return g, nil
}

func (r *planRepo) DeleteGoal(id string) (model.Goal, error) {
	g, err := r.GetGoal(id)
	if err != nil {
		return model.Goal{}, err
	}
	if _, err := r.db.Exec(
		`DELETE FROM goals WHERE user_id = ? AND id = ?`,
		r.userID, id); err != nil {
		return model.Goal{}, err
	}
	return g, nil
}

func (r *planRepo) ListGoals() ([]model.Goal, error) {
	rows, err := r.db.Query(`SELECT doc FROM goals WHERE user_id = ?`, r.userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Goal, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		g, err := unmarshalDoc[model.Goal](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
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
func (r *planRepo) goalMilestones(q querier, goalID string) ([]model.Milestone, error) {
	rows, err := q.Query(
		`SELECT doc FROM milestones WHERE user_id = ? AND goal_id = ?`,
		r.userID, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Milestone, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		m, err := unmarshalDoc[model.Milestone](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// writeMilestones upserts every milestone in the sequence.
func (r *planRepo) writeMilestones(tx *sql.Tx, ms []model.Milestone) error {
	for _, m := range ms {
		doc, err := marshalDoc(m)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO milestones (user_id, id, goal_id, doc) VALUES (?, ?, ?, ?)
			 ON CONFLICT (user_id, id) DO UPDATE SET doc = excluded.doc`,
			r.userID, m.ID, m.GoalID, doc); err != nil {
			return err
		}
	}
	return nil
}

func (r *planRepo) CreateMilestone(m model.Milestone) (model.Milestone, error) {
	var out model.Milestone
	err := inTx(r.db, func(tx *sql.Tx) error {
		if _, err := r.getGoal(tx, m.GoalID); err != nil {
			return err
		}

		now := time.Now()
		m.ID = uuid.NewString()
		m.CreatedAt = now
		m.UpdatedAt = now

		siblings, err := r.goalMilestones(tx, m.GoalID)
		if err != nil {
			return err
		}
		if m.IsLast {
			for i := range siblings {
				siblings[i].IsLast = false
			}
		}
		seq := plan.OrderedInsert(siblings, m, m.Order)
		if err := r.writeMilestones(tx, seq); err != nil {
			return err
		}
		for _, sib := range seq {
			if sib.ID == m.ID {
				out = sib
			}
		}
		return nil
	})
	if err != nil {
		return model.Milestone{}, err
	}
	return out, nil
}

func (r *planRepo) getMilestone(q querier, id string) (model.Milestone, error) {
	var doc string
	err := q.QueryRow(
		`SELECT doc FROM milestones WHERE user_id = ? AND id = ?`,
		r.userID, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Milestone{}, plan.ErrMilestoneNotFound
	}
	if err != nil {
		return model.Milestone{}, err
	}
	return unmarshalDoc[model.Milestone](doc)
}

func (r *planRepo) GetMilestone(id string) (model.Milestone, error) {
	return r.getMilestone(r.db, id)
}

func (r *planRepo) UpdateMilestone(id string, p plan.MilestonePatch) (model.Milestone, error) {
	var out model.Milestone
	err := inTx(r.db, func(tx *sql.Tx) error {
		m, err := r.getMilestone(tx, id)
		if err != nil {
			return err
		}

		p.Apply(&m)
		if p.IsLast != nil {
			if *p.IsLast {
				siblings, err := r.goalMilestones(tx, m.GoalID)
				if err != nil {
					return err
				}
				for i := range siblings {
					if siblings[i].ID != m.ID && siblings[i].IsLast {
						siblings[i].IsLast = false
					}
				}
				if err := r.writeMilestones(tx, siblings); err != nil {
					return err
				}
			}
			m.IsLast = *p.IsLast
		}
		m.UpdatedAt = time.Now()
		if err := r.writeMilestones(tx, []model.Milestone{m}); err != nil {
			return err
		}

		if p.Order != nil && *p.Order != m.Order {
			siblings, err := r.goalMilestones(tx, m.GoalID)
			if err != nil {
				return err
			}
			seq := make([]model.Milestone, 0, len(siblings))
			for _, sib := range siblings {
				if sib.ID != id {
					seq = append(seq, sib)
				}
			}
			reordered := plan.OrderedInsert(seq, m, *p.Order)
			if err := r.writeMilestones(tx, reordered); err != nil {
				return err
			}
			for _, sib := range reordered {
				if sib.ID == id {
					m = sib
				}
			}
		}

		out = m
		return nil
	})
	if err != nil {
		return model.Milestone{}, err
	}
	return out, nil
}

func (r *planRepo) DeleteMilestone(id string) (model.Milestone, error) {
	var out model.Milestone
	err := inTx(r.db, func(tx *sql.Tx) error {
		m, err := r.getMilestone(tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`DELETE FROM milestones WHERE user_id = ? AND id = ?`,
			r.userID, id); err != nil {
			return err
		}
		remaining, err := r.goalMilestones(tx, m.GoalID)
		if err != nil {
			return err
		}
		if err := r.writeMilestones(tx, plan.Renumber(remaining)); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return model.Milestone{}, err
	}
	return out, nil
}

func (r *planRepo) ListMilestones(goalID string) ([]model.Milestone, error) {
	return r.goalMilestones(r.db, goalID)
}

func (r *planRepo) CreateProject(pr model.Project) (model.Project, error) {
	now := time.Now()
	pr.ID = uuid.NewString()
	if pr.Priority == "" {
		pr.Priority = model.PriorityPrimary
	}
	pr.CreatedAt = now
	pr.UpdatedAt = now

	doc, err := marshalDoc(pr)
	if err != nil {
		return model.Project{}, err
	}
	if _, err := r.db.Exec(
		`INSERT INTO projects (user_id, id, doc) VALUES (?, ?, ?)`,
		r.userID, pr.ID, doc); err != nil {
		return model.Project{}, err
	}
	return pr, nil
}

func (r *planRepo) GetProject(id string) (model.Project, error) {
	var doc string
	err := r.db.QueryRow(
		`SELECT doc FROM projects WHERE user_id = ? AND id = ?`,
		r.userID, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, plan.ErrProjectNotFound
	}
	if err != nil {
		return model.Project{}, err
	}
	return unmarshalDoc[model.Project](doc)
}

func (r *planRepo) UpdateProject(id string, p plan.ProjectPatch) (model.Project, error) {
	pr, err := r.GetProject(id)
	if err != nil {
		return model.Project{}, err
	}
	p.Apply(&pr)
	pr.UpdatedAt = time.Now()

	doc, err := marshalDoc(pr)
	if err != nil {
		return model.Project{}, err
	}
	if _, err := r.db.Exec(
		`UPDATE projects SET doc = ? WHERE user_id = ? AND id = ?`,
		doc, r.userID, id); err != nil {
		return model.Project{}, err
	}
	return pr, nil
}

func (r *planRepo) DeleteProject(id string) (model.Project, error) {
	pr, err := r.GetProject(id)
	if err != nil {
		return model.Project{}, err
	}
	if _, err := r.db.Exec(
		`DELETE FROM projects WHERE user_id = ? AND id = ?`,
		r.userID, id); err != nil {
		return model.Project{}, err
	}
	return pr, nil
}

func (r *planRepo) ListProjects() ([]model.Project, error) {
	rows, err := r.db.Query(`SELECT doc FROM projects WHERE user_id = ?`, r.userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Project, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		pr, err := unmarshalDoc[model.Project](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
