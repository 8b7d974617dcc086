// Package store backs the tracker repos with a single sqlite database.
// Rows hold the JSON-encoded record plus the handful of columns the
// queries and uniqueness constraints need, so patch and filter semantics
// live in the domain packages and apply identically to the in-memory
// repos.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/markRiceOld/trackerApi/internal/action"
	"github.com/markRiceOld/trackerApi/internal/daystate"
	"github.com/markRiceOld/trackerApi/internal/interval"
	"github.com/markRiceOld/trackerApi/internal/plan"
	"github.com/markRiceOld/trackerApi/internal/routine"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - initial schema
const currentSchemaVersion = 1

type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, applies the required
// pragmas and brings the schema up to date. Idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// sqlite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying handle for ops tooling (backups, integrity
// checks). Prefer the repo views for everything else.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental migrations based on user_version.
// The base schema covers version 1; future versions slot in here.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version == currentSchemaVersion {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Per-user repo views. Each is a thin handle; the Store owns the
// connection.

func (s *Store) Actions(userID string) action.Repo {
	return &actionRepo{db: s.db, userID: userID}
}

func (s *Store) Intervals(userID string) interval.Repo {
	return &intervalRepo{db: s.db, userID: userID}
}

func (s *Store) Routines(userID string) routine.Repo {
	return &routineRepo{db: s.db, userID: userID}
}

func (s *Store) Days(userID string) daystate.Repo {
	return &dayStateRepo{db: s.db, userID: userID}
}

func (s *Store) Plans(userID string) plan.Repo {
	return &planRepo{db: s.db, userID: userID}
}
