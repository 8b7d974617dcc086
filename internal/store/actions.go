package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/markRiceOld/trackerApi/internal/action"
	"github.com/markRiceOld/trackerApi/internal/model"
)

type actionRepo struct {
	db     *sql.DB
	userID string
}

func (r *actionRepo) Create(a model.Action) (model.Action, error) {
	action.StampNew(&a, time.Now())
	if err := r.write(a, true); err != nil {
		// The partial unique indexes on gathered identity turn a racing
		// duplicate into a constraint violation.
		if isUniqueViolation(err) {
			return model.Action{}, action.ErrDuplicateGathered
		}
		return model.Action{}, err
	}
	return a, nil
}

func (r *actionRepo) write(a model.Action, insert bool) error {
	doc, err := marshalDoc(a)
	if err != nil {
		return err
	}
	if insert {
		_, err = r.db.Exec(
			`INSERT INTO actions (user_id, id, gathered, source_kind, source_id, for_date, start_time, doc)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.userID, string(a.ID), a.Gathered, string(a.SourceKind), a.SourceID,
			nullString(a.ForDate), nullString(a.StartTimeOfDay), doc)
		return err
	}
	_, err = r.db.Exec(
		`UPDATE actions SET gathered = ?, source_kind = ?, source_id = ?, for_date = ?, start_time = ?, doc = ?
		 WHERE user_id = ? AND id = ?`,
		a.Gathered, string(a.SourceKind), a.SourceID,
		nullString(a.ForDate), nullString(a.StartTimeOfDay), doc,
		r.userID, string(a.ID))
	return err
}

func (r *actionRepo) Get(id model.ActionID) (model.Action, error) {
	var doc string
	err := r.db.QueryRow(
		`SELECT doc FROM actions WHERE user_id = ? AND id = ?`,
		r.userID, string(id)).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Action{}, action.ErrNotFound
	}
	if err != nil {
		return model.Action{}, err
	}
	return unmarshalDoc[model.Action](doc)
}

func (r *actionRepo) Update(id model.ActionID, p action.Patch) (model.Action, error) {
	a, err := r.Get(id)
	if err != nil {
		return model.Action{}, err
	}
	p.Apply(&a)
	a.UpdatedAt = time.Now()
	if err := r.write(a, false); err != nil {
		return model.Action{}, err
	}
	return a, nil
}

func (r *actionRepo) Delete(id model.ActionID) (model.Action, error) {
	a, err := r.Get(id)
	if err != nil {
		return model.Action{}, err
	}
	if _, err := r.db.Exec(
		`DELETE FROM actions WHERE user_id = ? AND id = ?`,
		r.userID, string(id)); err != nil {
		return model.Action{}, err
	}
	return a, nil
}

func (r *actionRepo) List(f action.ListFilter) ([]model.Action, error) {
	rows, err := r.db.Query(`SELECT doc FROM actions WHERE user_id = ?`, r.userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Action, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		a, err := unmarshalDoc[model.Action](doc)
		if err != nil {
			return nil, err
		}
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	action.Sort(out)
	return out, nil
}

func (r *actionRepo) FindGathered(kind model.SourceKind, sourceID, dateKey string, startTime *string) (model.Action, bool, error) {
	q := `SELECT doc FROM actions
	      WHERE user_id = ? AND gathered = 1 AND source_kind = ? AND source_id = ? AND for_date = ?`
	args := []any{r.userID, string(kind), sourceID, dateKey}
	if startTime != nil {
		q += ` AND start_time = ?`
		args = append(args, *startTime)
	}

	var doc string
	err := r.db.QueryRow(q, args...).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Action{}, false, nil
	}
	if err != nil {
		return model.Action{}, false, err
	}
	a, err := unmarshalDoc[model.Action](doc)
	if err != nil {
		return model.Action{}, false, err
	}
	return a, true, nil
}
