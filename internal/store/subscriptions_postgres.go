package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSubscriptionStore persists calendar subscriptions in Postgres.
type PostgresSubscriptionStore struct {
	pool *pgxpool.Pool
}

func NewPostgresSubscriptionStore(pool *pgxpool.Pool) *PostgresSubscriptionStore {
	return &PostgresSubscriptionStore{pool: pool}
}

func (s *PostgresSubscriptionStore) Create(ctx context.Context, userID, sectionID string) (CalendarSubscription, error) {
	q := `
INSERT INTO calendar_subscriptions (user_id, section_id)
VALUES ($1, $2)
RETURNING id::text, user_id::text, section_id::text, created_at;
`
	var sub CalendarSubscription
	err := s.pool.QueryRow(ctx, q, userID, sectionID).
		Scan(&sub.ID, &sub.UserID, &sub.SectionID, &sub.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return CalendarSubscription{}, ErrConflict
			case "23503":
				return CalendarSubscription{}, ErrNotFound
			}
		}
		return CalendarSubscription{}, err
	}
	return sub, nil
}

func (s *PostgresSubscriptionStore) Delete(ctx context.Context, userID, sectionID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM calendar_subscriptions WHERE user_id = $1 AND section_id = $2`,
		userID, sectionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresSubscriptionStore) ListByUser(ctx context.Context, userID string) ([]CalendarSubscription, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id::text, user_id::text, section_id::text, created_at
FROM calendar_subscriptions
WHERE user_id = $1
ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalendarSubscription
	for rows.Next() {
		var sub CalendarSubscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.SectionID, &sub.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
