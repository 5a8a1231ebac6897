package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryUploadStore is a development-only in-memory implementation.
type InMemoryUploadStore struct {
	mu      sync.RWMutex
	uploads map[string]Upload
}

func NewInMemoryUploadStore() *InMemoryUploadStore {
	return &InMemoryUploadStore{uploads: make(map[string]Upload)}
}

func (s *InMemoryUploadStore) Create(_ context.Context, p CreateUploadParams) (Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	up := Upload{
		ID:          uuid.NewString(),
		UserID:      p.UserID,
		Filename:    p.Filename,
		ContentType: p.ContentType,
		Size:        p.Size,
		StorageKey:  p.StorageKey,
		CreatedAt:   time.Now().UTC(),
	}
	s.uploads[up.ID] = up
	return up, nil
}

func (s *InMemoryUploadStore) Complete(_ context.Context, uploadID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	up, ok := s.uploads[uploadID]
	if !ok || up.UserID != userID || up.CompletedAt != nil {
		return ErrNotFoundOrForbidden
	}
	now := time.Now().UTC()
	up.CompletedAt = &now
	s.uploads[uploadID] = up
	return nil
}

func (s *InMemoryUploadStore) GetByID(_ context.Context, uploadID string) (Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	up, ok := s.uploads[uploadID]
	if !ok {
		return Upload{}, ErrNotFound
	}
	return up, nil
}
