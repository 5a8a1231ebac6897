package store

import (
	"context"
	"time"
)

// CalendarSubscription marks a section whose meetings appear in the
// user's personal calendar feed.
type CalendarSubscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SectionID string    `json:"section_id"`
	CreatedAt time.Time `json:"created_at"`
}

type SubscriptionStore interface {
	Create(ctx context.Context, userID, sectionID string) (CalendarSubscription, error)
	Delete(ctx context.Context, userID, sectionID string) error
	ListByUser(ctx context.Context, userID string) ([]CalendarSubscription, error)
}
