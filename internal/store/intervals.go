package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/markRiceOld/trackerApi/internal/interval"
	"github.com/markRiceOld/trackerApi/internal/model"
)

type intervalRepo struct {
	db     *sql.DB
	userID string
}

func (r *intervalRepo) Create(iv model.Interval) (model.Interval, error) {
	now := time.Now()
	iv.ID = uuid.NewString()
	if iv.Status == "" {
		iv.Status = model.StatusActive
	}
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = now
	}
	iv.UpdatedAt = now

	doc, err := marshalDoc(iv)
	if err != nil {
		return model.Interval{}, err
	}
	if _, err := r.db.Exec(
		`INSERT INTO intervals (user_id, id, status, doc) VALUES (?, ?, ?, ?)`,
		r.userID, iv.ID, string(iv.Status), doc); err != nil {
		return model.Interval{}, err
	}
	return iv, nil
}

func (r *intervalRepo) Get(id string) (model.Interval, error) {
	var doc string
	err := r.db.QueryRow(
		`SELECT doc FROM intervals WHERE user_id = ? AND id = ?`,
		r.userID, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Interval{}, interval.ErrNotFound
	}
	if err != nil {
		return model.Interval{}, err
	}
	return unmarshalDoc[model.Interval](doc)
}

func (r *intervalRepo) Update(id string, p interval.Patch) (model.Interval, error) {
	iv, err := r.Get(id)
	if err != nil {
		return model.Interval{}, err
	}
	now := time.Now()
	p.Apply(&iv, now)
	iv.UpdatedAt = now

	doc, err := marshalDoc(iv)
	if err != nil {
		return model.Interval{}, err
	}
	if _, err := r.db.Exec(
		`UPDATE intervals SET status = ?, doc = ? WHERE user_id = ? AND id = ?`,
		string(iv.Status), doc, r.userID, id); err != nil {
		return model.Interval{}, err
	}
	return iv, nil
}

func (r *intervalRepo) Delete(id string) (model.Interval, error) {
	iv, err := r.Get(id)
	if err != nil {
		return model.Interval{}, err
	}
	if _, err := r.db.Exec(
		`DELETE FROM intervals WHERE user_id = ? AND id = ?`,
		r.userID, id); err != nil {
		return model.Interval{}, err
	}
	return iv, nil
}

func (r *intervalRepo) List(f interval.ListFilter) ([]model.Interval, error) {
	q := `SELECT doc FROM intervals WHERE user_id = ?`
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

	out := make([]model.Interval, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		iv, err := unmarshalDoc[model.Interval](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	interval.Sort(out)
	return out, nil
}
