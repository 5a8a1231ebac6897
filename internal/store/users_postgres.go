package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUserStore persists users, refresh sessions and suspensions.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

func (s *PostgresUserStore) Create(ctx context.Context, p CreateUserParams) (User, error) {
	var u User
	q := `
INSERT INTO users (email, name, password_hash)
VALUES ($1, $2, $3)
RETURNING id::text, email, name, image, is_admin, verified, created_at;
`
	err := s.pool.QueryRow(ctx, q, p.Email, p.Name, p.PasswordHash).
		Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.IsAdmin, &u.Verified, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrConflict
		}
		return User{}, err
	}
	return u, nil
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (UserRow, error) {
	q := `
SELECT id::text, email, name, image, is_admin, verified, created_at, password_hash
FROM users
WHERE lower(email) = lower($1)
LIMIT 1;
`
	var row UserRow
	err := s.pool.QueryRow(ctx, q, email).Scan(&row.User.ID, &row.User.Email, &row.User.Name,
		&row.User.Image, &row.User.IsAdmin, &row.User.Verified, &row.User.CreatedAt, &row.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRow{}, ErrNotFound
		}
		return UserRow{}, err
	}
	return row, nil
}

func (s *PostgresUserStore) GetByID(ctx context.Context, userID string) (User, error) {
	q := `
SELECT id::text, email, name, image, is_admin, verified, created_at
FROM users WHERE id = $1;
`
	var u User
	err := s.pool.QueryRow(ctx, q, userID).
		Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.IsAdmin, &u.Verified, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (s *PostgresUserStore) List(ctx context.Context, limit int) ([]User, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
SELECT id::text, email, name, image, is_admin, verified, created_at
FROM users ORDER BY created_at DESC LIMIT $1;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.IsAdmin, &u.Verified, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresUserStore) CreateRefreshSession(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	q := `
INSERT INTO refresh_sessions (id, user_id, token_hash, expires_at)
VALUES ($1, $2, $3, $4);
`
	_, err := s.pool.Exec(ctx, q, uuid.New(), userID, tokenHash, expiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
	}
	return err
}

func (s *PostgresUserStore) GetRefreshSessionByHash(ctx context.Context, tokenHash string) (RefreshSession, error) {
	q := `
SELECT id, user_id::text, token_hash, expires_at, revoked_at
FROM refresh_sessions WHERE token_hash = $1;
`
	var rs RefreshSession
	err := s.pool.QueryRow(ctx, q, tokenHash).
		Scan(&rs.ID, &rs.UserID, &rs.TokenHash, &rs.ExpiresAt, &rs.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RefreshSession{}, ErrNotFound
		}
		return RefreshSession{}, err
	}
	return rs, nil
}

func (s *PostgresUserStore) RevokeRefreshSession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE refresh_sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, sessionID)
	return err
}

func (s *PostgresUserStore) Suspend(ctx context.Context, p SuspendUserParams) (Suspension, error) {
	q := `
INSERT INTO user_suspensions (user_id, reason, created_by, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id::text, user_id::text, reason, created_by::text, created_at, expires_at, lifted_at;
`
	var susp Suspension
	err := s.pool.QueryRow(ctx, q, p.UserID, p.Reason, p.CreatedBy, p.ExpiresAt).
		Scan(&susp.ID, &susp.UserID, &susp.Reason, &susp.CreatedBy, &susp.CreatedAt, &susp.ExpiresAt, &susp.LiftedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Suspension{}, ErrNotFound
		}
		return Suspension{}, err
	}
	return susp, nil
}

func (s *PostgresUserStore) LiftSuspension(ctx context.Context, suspensionID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE user_suspensions SET lifted_at = now() WHERE id = $1 AND lifted_at IS NULL`, suspensionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresUserStore) ActiveSuspension(ctx context.Context, userID string, now time.Time) (*Suspension, error) {
	q := `
SELECT id::text, user_id::text, reason, created_by::text, created_at, expires_at, lifted_at
FROM user_suspensions
WHERE user_id = $1 AND lifted_at IS NULL AND (expires_at IS NULL OR expires_at > $2)
ORDER BY created_at DESC
LIMIT 1;
`
	var susp Suspension
	err := s.pool.QueryRow(ctx, q, userID, now).
		Scan(&susp.ID, &susp.UserID, &susp.Reason, &susp.CreatedBy, &susp.CreatedAt, &susp.ExpiresAt, &susp.LiftedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &susp, nil
}
