package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventmarket/internal/models"
)

// SessionRepository keeps login sessions in the sessions table.
type SessionRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func (r *SessionRepository) CreateSession(ctx context.Context, session models.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	_, err := r.Dialect.exec(ctx, r.DB,
		`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		session.Token, session.UserID, session.ExpiresAt, session.CreatedAt,
	)
	return err
}

func (r *SessionRepository) GetSession(ctx context.Context, token string) (models.Session, error) {
	var session models.Session
	err := r.Dialect.queryRow(ctx, r.DB,
		`SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?`, token,
	).Scan(&session.Token, &session.UserID, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, models.ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}

func (r *SessionRepository) TouchSession(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := r.Dialect.exec(ctx, r.DB, `UPDATE sessions SET expires_at = ? WHERE token = ?`, expiresAt, token)
	return err
}

func (r *SessionRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.Dialect.exec(ctx, r.DB, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// PurgeExpired removes sessions whose expiry is at or before now.
func (r *SessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.Dialect.exec(ctx, r.DB, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
