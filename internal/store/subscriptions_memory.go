package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemorySubscriptionStore is a development-only in-memory implementation.
type InMemorySubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]CalendarSubscription // key: userID + "|" + sectionID
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{subs: make(map[string]CalendarSubscription)}
}

func subKey(userID, sectionID string) string { return userID + "|" + sectionID }

func (s *InMemorySubscriptionStore) Create(_ context.Context, userID, sectionID string) (CalendarSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := subKey(userID, sectionID)
	if _, ok := s.subs[key]; ok {
		return CalendarSubscription{}, ErrConflict
	}
	sub := CalendarSubscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		SectionID: sectionID,
		CreatedAt: time.Now().UTC(),
	}
	s.subs[key] = sub
	return sub, nil
}

func (s *InMemorySubscriptionStore) Delete(_ context.Context, userID, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := subKey(userID, sectionID)
	if _, ok := s.subs[key]; !ok {
		return ErrNotFound
	}
	delete(s.subs, key)
	return nil
}

func (s *InMemorySubscriptionStore) ListByUser(_ context.Context, userID string) ([]CalendarSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []CalendarSubscription{}
	for _, sub := range s.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
