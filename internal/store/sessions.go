package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SessionRow is the persisted half of a browser session. ID is the opaque
// value kept in the browser cookie.
type SessionRow struct {
	ID        string
	Token     string
	UserID    int64
	Username  string
	UserAgent string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveSession inserts row or replaces the credentials of an existing one.
func (s *Store) SaveSession(ctx context.Context, row SessionRow) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO sessions (id, token, user_id, username, user_agent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			username = excluded.username,
			user_agent = excluded.user_agent,
			updated_at = excluded.updated_at
	`
	_, err := s.DB.ExecContext(ctx, query, row.ID, row.Token, row.UserID, row.Username, row.UserAgent, now.Unix(), now.Unix())
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*SessionRow, error) {
	query := `SELECT id, token, user_id, username, user_agent, created_at, updated_at FROM sessions WHERE id = ?`
	var (
		row              SessionRow
		created, updated int64
	)
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&row.ID, &row.Token, &row.UserID, &row.Username, &row.UserAgent, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	row.CreatedAt = time.Unix(created, 0).UTC()
	row.UpdatedAt = time.Unix(updated, 0).UTC()
	return &row, nil
}

// DeleteSession removes the row. Deleting a missing row is not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// TouchSession records that the session was used at t.
func (s *Store) TouchSession(ctx context.Context, id string, t time.Time) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, t.UTC().Unix(), id)
	return err
}

// PruneSessions deletes sessions not used since cutoff. It returns how many
// went and the users left without any session.
func (s *Store) PruneSessions(ctx context.Context, cutoff time.Time) (int64, []int64, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `DELETE FROM sessions WHERE updated_at < ? RETURNING user_id`, cutoff.UTC().Unix())
	if err != nil {
		return 0, nil, err
	}
	var (
		n     int64
		users []int64
		seen  = make(map[int64]bool)
	)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, nil, err
		}
		n++
		if !seen[id] {
			seen[id] = true
			users = append(users, id)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, nil, err
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}

	var gone []int64
	for _, id := range users {
		var left bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM sessions WHERE user_id = ?)`, id).Scan(&left); err != nil {
			return 0, nil, err
		}
		if !left {
			gone = append(gone, id)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, nil, err
	}
	return n, gone, nil
}

// ListSessions returns the most recently updated sessions first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, token, user_id, username, user_agent, created_at, updated_at
		FROM sessions
		ORDER BY updated_at DESC
		LIMIT ?
	`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var (
			row              SessionRow
			created, updated int64
		)
		if err := rows.Scan(&row.ID, &row.Token, &row.UserID, &row.Username, &row.UserAgent, &created, &updated); err != nil {
			return nil, err
		}
		row.CreatedAt = time.Unix(created, 0).UTC()
		row.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n)
	return n, err
}
