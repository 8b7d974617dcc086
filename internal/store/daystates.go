package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/markRiceOld/trackerApi/internal/model"
)

type dayStateRepo struct {
	db     *sql.DB
	userID string
}

func (r *dayStateRepo) Get(dateKey string) (model.DayState, bool, error) {
	var doc string
	err := r.db.QueryRow(
		`SELECT doc FROM day_states WHERE user_id = ? AND date_key = ?`,
		r.userID, dateKey).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DayState{}, false, nil
	}
	if err != nil {
		return model.DayState{}, false, err
	}
	ds, err := unmarshalDoc[model.DayState](doc)
	if err != nil {
		return model.DayState{}, false, err
	}
	return ds, true, nil
}

func (r *dayStateRepo) CompleteGathering(dateKey string, at time.Time) (model.DayState, error) {
	return r.upsert(dateKey, func(ds *model.DayState) {
		ds.ActionGatheringCompletedAt = &at
	})
}

func (r *dayStateRepo) CompletePreDay(dateKey string, at time.Time) (model.DayState, error) {
	return r.upsert(dateKey, func(ds *model.DayState) {
		ds.PreDayCompletedAt = &at
	})
}

func (r *dayStateRepo) CompleteAfterDay(dateKey string, at time.Time) (model.DayState, error) {
	return r.upsert(dateKey, func(ds *model.DayState) {
		ds.AfterDayCompletedAt = &at
	})
}

func (r *dayStateRepo) upsert(dateKey string, set func(*model.DayState)) (model.DayState, error) {
	var out model.DayState
	err := inTx(r.db, func(tx *sql.Tx) error {
		ds := model.DayState{DateKey: dateKey}
		var doc string
		err := tx.QueryRow(
			`SELECT doc FROM day_states WHERE user_id = ? AND date_key = ?`,
			r.userID, dateKey).Scan(&doc)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// first completion for this date
		case err != nil:
			return err
		default:
			if ds, err = unmarshalDoc[model.DayState](doc); err != nil {
				return err
			}
		}

		set(&ds)
		raw, err := marshalDoc(ds)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO day_states (user_id, date_key, doc) VALUES (?, ?, ?)
			 ON CONFLICT (user_id, date_key) DO UPDATE SET doc = excluded.doc`,
			r.userID, dateKey, raw); err != nil {
			return err
		}
		out = ds
		return nil
	})
	if err != nil {
		return model.DayState{}, err
	}
	return out, nil
}
