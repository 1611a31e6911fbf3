package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sandevgo/tuskbridge/internal/core"
)

// SessionsRepo is a durable core.SessionStore. Tokens survive restarts, so a
// conversation resumes its engine session after the bridge is redeployed.
type SessionsRepo struct {
	db *sql.DB
}

func NewSessionsRepo(db *sql.DB) *SessionsRepo {
	return &SessionsRepo{db: db}
}

func (r *SessionsRepo) Get(ctx context.Context, key core.SessionKey) (string, bool, error) {
	var token string
	err := r.db.QueryRowContext(ctx,
		`SELECT token FROM sessions WHERE session_key = ?`, key.String(),
	).Scan(&token)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query session: %w", err)
	}
	return token, true, nil
}

func (r *SessionsRepo) Put(ctx context.Context, key core.SessionKey, token string) error {
	query := `
		INSERT INTO sessions (session_key, token) VALUES (?, ?)
		ON CONFLICT(session_key) DO UPDATE SET
			token = excluded.token,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query, key.String(), token); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// Count returns the number of stored sessions.
func (r *SessionsRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}
