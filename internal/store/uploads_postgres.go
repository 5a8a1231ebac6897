package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUploadStore persists upload metadata in Postgres.
type PostgresUploadStore struct {
	pool *pgxpool.Pool
}

func NewPostgresUploadStore(pool *pgxpool.Pool) *PostgresUploadStore {
	return &PostgresUploadStore{pool: pool}
}

func (s *PostgresUploadStore) Create(ctx context.Context, p CreateUploadParams) (Upload, error) {
	q := `
INSERT INTO uploads (user_id, filename, content_type, size, storage_key)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text, user_id::text, filename, content_type, size, storage_key, completed_at, created_at;
`
	var up Upload
	err := s.pool.QueryRow(ctx, q, p.UserID, p.Filename, p.ContentType, p.Size, p.StorageKey).
		Scan(&up.ID, &up.UserID, &up.Filename, &up.ContentType, &up.Size, &up.StorageKey,
			&up.CompletedAt, &up.CreatedAt)
	return up, err
}

func (s *PostgresUploadStore) Complete(ctx context.Context, uploadID, userID string) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE uploads SET completed_at = now()
WHERE id = $1 AND user_id = $2 AND completed_at IS NULL`, uploadID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFoundOrForbidden
	}
	return nil
}

func (s *PostgresUploadStore) GetByID(ctx context.Context, uploadID string) (Upload, error) {
	q := `
SELECT id::text, user_id::text, filename, content_type, size, storage_key, completed_at, created_at
FROM uploads WHERE id = $1;
`
	var up Upload
	err := s.pool.QueryRow(ctx, q, uploadID).
		Scan(&up.ID, &up.UserID, &up.Filename, &up.ContentType, &up.Size, &up.StorageKey,
			&up.CompletedAt, &up.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Upload{}, ErrNotFound
		}
		return Upload{}, err
	}
	return up, nil
}
