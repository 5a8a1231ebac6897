package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is the public user projection.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRow adds the credential column for the login path.
type UserRow struct {
	User         User
	PasswordHash string
}

// Suspension is a moderation record against a user. Active means not lifted
// and not expired.
type Suspension struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Reason    string     `json:"reason"`
	CreatedBy *string    `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	LiftedAt  *time.Time `json:"lifted_at,omitempty"`
}

type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
}

type SuspendUserParams struct {
	UserID    string
	Reason    string
	CreatedBy string
	ExpiresAt *time.Time
}

type RefreshSession struct {
	ID        uuid.UUID
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// UserStore defines user, credential and suspension persistence.
type UserStore interface {
	Create(ctx context.Context, p CreateUserParams) (User, error)
	FindByEmail(ctx context.Context, email string) (UserRow, error)
	GetByID(ctx context.Context, userID string) (User, error)
	List(ctx context.Context, limit int) ([]User, error)

	CreateRefreshSession(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshSessionByHash(ctx context.Context, tokenHash string) (RefreshSession, error)
	RevokeRefreshSession(ctx context.Context, sessionID uuid.UUID) error

	Suspend(ctx context.Context, p SuspendUserParams) (Suspension, error)
	LiftSuspension(ctx context.Context, suspensionID string) error
	// ActiveSuspension returns the most recent active suspension for the
	// user, or nil when the user is in good standing.
	ActiveSuspension(ctx context.Context, userID string, now time.Time) (*Suspension, error)
}
