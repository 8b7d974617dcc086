package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/markRiceOld/trackerApi/internal/auth"
)

// The Store itself implements auth.Repo; users and sessions are global,
// not user-scoped.

const timeLayout = time.RFC3339Nano

func (s *Store) GetOrCreateUser(email string, now time.Time) (auth.User, bool, error) {
	var u auth.User
	created := false
	err := inTx(s.db, func(tx *sql.Tx) error {
		var createdAt string
		err := tx.QueryRow(
			`SELECT id, created_at FROM users WHERE email = ?`, email).
			Scan(&u.ID, &createdAt)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			u = auth.User{ID: auth.NewID(), Email: email, CreatedAt: now}
			created = true
			_, err := tx.Exec(
				`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)`,
				u.ID, u.Email, now.Format(timeLayout))
			return err
		case err != nil:
			return err
		}
		u.Email = email
		u.CreatedAt, err = time.Parse(timeLayout, createdAt)
		return err
	})
	if err != nil {
		return auth.User{}, false, err
	}
	return u, created, nil
}

func (s *Store) GetUserByID(id string) (auth.User, bool, error) {
	var (
		u         auth.User
		createdAt string
	)
	err := s.db.QueryRow(
		`SELECT id, email, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, false, nil
	}
	if err != nil {
		return auth.User{}, false, err
	}
	if u.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return auth.User{}, false, err
	}
	return u, true, nil
}

func (s *Store) PutChallenge(ch auth.OTPChallenge) error {
	_, err := s.db.Exec(
		`INSERT INTO otp_challenges (email, code_hash, expires_at, requested_at, attempts)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (email) DO UPDATE SET
		     code_hash = excluded.code_hash,
		     expires_at = excluded.expires_at,
		     requested_at = excluded.requested_at,
		     attempts = excluded.attempts`,
		ch.Email, ch.CodeHash, ch.ExpiresAt.Format(timeLayout),
		ch.RequestedAt.Format(timeLayout), ch.Attempts)
	return err
}

func (s *Store) GetChallenge(email string) (auth.OTPChallenge, bool, error) {
	var (
		ch                     auth.OTPChallenge
		expiresAt, requestedAt string
	)
	err := s.db.QueryRow(
		`SELECT email, code_hash, expires_at, requested_at, attempts
		 FROM otp_challenges WHERE email = ?`, email).
		Scan(&ch.Email, &ch.CodeHash, &expiresAt, &requestedAt, &ch.Attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.OTPChallenge{}, false, nil
	}
	if err != nil {
		return auth.OTPChallenge{}, false, err
	}
	if ch.ExpiresAt, err = time.Parse(timeLayout, expiresAt); err != nil {
		return auth.OTPChallenge{}, false, err
	}
	if ch.RequestedAt, err = time.Parse(timeLayout, requestedAt); err != nil {
		return auth.OTPChallenge{}, false, err
	}
	return ch, true, nil
}

func (s *Store) DeleteChallenge(email string) error {
	_, err := s.db.Exec(`DELETE FROM otp_challenges WHERE email = ?`, email)
	return err
}

func (s *Store) CreateSession(sess auth.Session) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, user_id, token_hash, created_at, last_seen, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.TokenHash,
		sess.CreatedAt.Format(timeLayout), sess.LastSeen.Format(timeLayout),
		sess.ExpiresAt.Format(timeLayout))
	return err
}

func (s *Store) GetSessionByTokenHash(tokenHash string) (auth.Session, bool, error) {
	var (
		sess                           auth.Session
		createdAt, lastSeen, expiresAt string
	)
	err := s.db.QueryRow(
		`SELECT id, user_id, token_hash, created_at, last_seen, expires_at
		 FROM sessions WHERE token_hash = ?`, tokenHash).
		Scan(&sess.ID, &sess.UserID, &sess.TokenHash, &createdAt, &lastSeen, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Session{}, false, nil
	}
	if err != nil {
		return auth.Session{}, false, err
	}
	if sess.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return auth.Session{}, false, err
	}
	if sess.LastSeen, err = time.Parse(timeLayout, lastSeen); err != nil {
		return auth.Session{}, false, err
	}
	if sess.ExpiresAt, err = time.Parse(timeLayout, expiresAt); err != nil {
		return auth.Session{}, false, err
	}
	return sess, true, nil
}

func (s *Store) DeleteSessionByID(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

func (s *Store) DeleteSessionByTokenHash(tokenHash string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	return err
}

func (s *Store) TouchSession(sessionID string, lastSeen time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET last_seen = ? WHERE id = ?`,
		lastSeen.Format(timeLayout), sessionID)
	return err
}
