package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryUserStore is a development-only in-memory implementation.
type InMemoryUserStore struct {
	mu          sync.RWMutex
	users       map[string]UserRow
	sessions    map[string]RefreshSession // token hash -> session
	suspensions map[string]Suspension
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:       make(map[string]UserRow),
		sessions:    make(map[string]RefreshSession),
		suspensions: make(map[string]Suspension),
	}
}

// Seed inserts a fully formed user, bypassing Create. Test helper.
func (s *InMemoryUserStore) Seed(u User, passwordHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = UserRow{User: u, PasswordHash: passwordHash}
}

func (s *InMemoryUserStore) Create(_ context.Context, p CreateUserParams) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.users {
		if strings.EqualFold(row.User.Email, p.Email) {
			return User{}, ErrConflict
		}
	}
	u := User{
		ID:        uuid.NewString(),
		Email:     p.Email,
		Name:      p.Name,
		CreatedAt: time.Now().UTC(),
	}
	s.users[u.ID] = UserRow{User: u, PasswordHash: p.PasswordHash}
	return u, nil
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (UserRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.users {
		if strings.EqualFold(row.User.Email, email) {
			return row, nil
		}
	}
	return UserRow{}, ErrNotFound
}

func (s *InMemoryUserStore) GetByID(_ context.Context, userID string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return row.User, nil
}

func (s *InMemoryUserStore) List(_ context.Context, limit int) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out := make([]User, 0, len(s.users))
	for _, row := range s.users {
		out = append(out, row.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryUserStore) CreateRefreshSession(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[tokenHash]; exists {
		return ErrConflict
	}
	s.sessions[tokenHash] = RefreshSession{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (s *InMemoryUserStore) GetRefreshSessionByHash(_ context.Context, tokenHash string) (RefreshSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, ok := s.sessions[tokenHash]
	if !ok {
		return RefreshSession{}, ErrNotFound
	}
	return rs, nil
}

func (s *InMemoryUserStore) RevokeRefreshSession(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, rs := range s.sessions {
		if rs.ID == sessionID && rs.RevokedAt == nil {
			now := time.Now().UTC()
			rs.RevokedAt = &now
			s.sessions[hash] = rs
		}
	}
	return nil
}

func (s *InMemoryUserStore) Suspend(_ context.Context, p SuspendUserParams) (Suspension, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[p.UserID]; !ok {
		return Suspension{}, ErrNotFound
	}
	createdBy := p.CreatedBy
	susp := Suspension{
		ID:        uuid.NewString(),
		UserID:    p.UserID,
		Reason:    p.Reason,
		CreatedBy: &createdBy,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: p.ExpiresAt,
	}
	s.suspensions[susp.ID] = susp
	return susp, nil
}

func (s *InMemoryUserStore) LiftSuspension(_ context.Context, suspensionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	susp, ok := s.suspensions[suspensionID]
	if !ok || susp.LiftedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	susp.LiftedAt = &now
	s.suspensions[suspensionID] = susp
	return nil
}

func (s *InMemoryUserStore) ActiveSuspension(_ context.Context, userID string, now time.Time) (*Suspension, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *Suspension
	for id := range s.suspensions {
		susp := s.suspensions[id]
		if susp.UserID != userID || susp.LiftedAt != nil {
			continue
		}
		if susp.ExpiresAt != nil && !susp.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || susp.CreatedAt.After(latest.CreatedAt) {
			copy := susp
			latest = &copy
		}
	}
	return latest, nil
}
