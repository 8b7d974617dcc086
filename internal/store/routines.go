package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/markRiceOld/trackerApi/internal/model"
	"github.com/markRiceOld/trackerApi/internal/routine"
)

type routineRepo struct {
	db     *sql.DB
	userID string
}

func (r *routineRepo) Create(rt model.Routine) (model.Routine, error) {
	now := time.Now()
	rt.ID = uuid.NewString()
	if rt.Status == "" {
		rt.Status = model.StatusActive
	}
	rt.TimeBlocks = routine.NormalizeTimeBlocks(rt.TimeBlocks)
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = now
	}
	rt.UpdatedAt = now

	doc, err := marshalDoc(rt)
	if err != nil {
		return model.Routine{}, err
	}
	if _, err := r.db.Exec(
		`INSERT INTO routines (user_id, id, status, doc) VALUES (?, ?, ?, ?)`,
		r.userID, rt.ID, string(rt.Status), doc); err != nil {
		return model.Routine{}, err
	}
	return rt, nil
}

func (r *routineRepo) Get(id string) (model.Routine, error) {
	var doc string
	err := r.db.QueryRow(
		`SELECT doc FROM routines WHERE user_id = ? AND id = ?`,
		r.userID, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Routine{}, routine.ErrNotFound
	}
	if err != nil {
		return model.Routine{}, err
	}
	return unmarshalDoc[model.Routine](doc)
}

func (r *routineRepo) Update(id string, p routine.Patch) (model.Routine, error) {
	rt, err := r.Get(id)
	if err != nil {
		return model.Routine{}, err
	}
	now := time.Now()
	p.Apply(&rt, now)
	rt.UpdatedAt = now

	doc, err := marshalDoc(rt)
	if err != nil {
		return model.Routine{}, err
	}
	if _, err := r.db.Exec(
		`UPDATE routines SET status = ?, doc = ? WHERE user_id = ? AND id = ?`,
		string(rt.Status), doc, r.userID, id); err != nil {
		return model.Routine{}, err
	}
	return rt, nil
}

func (r *routineRepo) Delete(id string) (model.Routine, error) {
	rt, err := r.Get(id)
	if err != nil {
		return model.Routine{}, err
	}
	if _, err := r.db.Exec(
		`DELETE FROM routines WHERE user_id = ? AND id = ?`,
		r.userID, id); err != nil {
		return model.Routine{}, err
	}
	return rt, nil
}

func (r *routineRepo) List(f routine.ListFilter) ([]model.Routine, error) {
	q := `SELECT doc FROM routines WHERE user_id = ?`
	args := []any{r.userID}
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, string(f.Status))
	}

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Routine, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		rt, err := unmarshalDoc[model.Routine](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	routine.Sort(out)
	return out, nil
}
