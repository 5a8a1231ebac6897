package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryCommentStore is a development-only in-memory implementation.
type InMemoryCommentStore struct {
	mu          sync.RWMutex
	comments    map[string]Comment
	attachments map[string][]Attachment         // commentID -> attachments
	reactions   map[string]map[string]time.Time // commentID -> "type|userID" -> added
	authors     map[string]AuthorSummary        // userID -> summary
	uploads     *InMemoryUploadStore            // optional, validates attachment ownership
}

func NewInMemoryCommentStore() *InMemoryCommentStore {
	return &InMemoryCommentStore{
		comments:    make(map[string]Comment),
		attachments: make(map[string][]Attachment),
		reactions:   make(map[string]map[string]time.Time),
		authors:     make(map[string]AuthorSummary),
	}
}

// WithUploads wires an upload store so attachment ownership is enforced.
func (s *InMemoryCommentStore) WithUploads(u *InMemoryUploadStore) *InMemoryCommentStore {
	s.uploads = u
	return s
}

// RegisterAuthor seeds the joined author projection for a user id.
func (s *InMemoryCommentStore) RegisterAuthor(a AuthorSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authors[a.ID] = a
}

func (s *InMemoryCommentStore) Create(_ context.Context, p CreateCommentParams) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rootID *string
	if p.ParentID != nil {
		parent, ok := s.comments[*p.ParentID]
		if !ok {
			return Comment{}, ErrNotFound
		}
		if parent.TargetType != p.TargetType || parent.TargetID != p.TargetID {
			return Comment{}, ErrParentMismatch
		}
		if parent.RootID != nil {
			rootID = parent.RootID
		} else {
			rootID = p.ParentID
		}
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	if rootID == nil {
		rootID = &id
	}
	userID := p.UserID
	c := Comment{
		ID:         id,
		TargetType: p.TargetType,
		TargetID:   p.TargetID,
		UserID:     &userID,
		ParentID:   p.ParentID,
		RootID:     rootID,
		Body:       p.Body,
		Status:     StatusActive,
		Visibility: p.Visibility,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for _, uploadID := range p.AttachmentIDs {
		a := Attachment{ID: uuid.NewString(), UploadID: uploadID}
		if s.uploads != nil {
			up, err := s.uploads.GetByID(context.Background(), uploadID)
			if err != nil || up.UserID != p.UserID || up.CompletedAt == nil {
				return Comment{}, ErrInvalidAttachment
			}
			a.Filename = up.Filename
			a.ContentType = up.ContentType
			a.Size = up.Size
		}
		s.attachments[id] = append(s.attachments[id], a)
	}

	s.comments[id] = c
	return s.withJoined(c), nil
}

func (s *InMemoryCommentStore) ListByTarget(_ context.Context, targetType, targetID string) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Comment{}
	for _, c := range s.comments {
		if c.TargetType == targetType && c.TargetID == targetID {
			out = append(out, s.withJoined(c))
		}
	}
	return out, nil
}

func (s *InMemoryCommentStore) GetByID(_ context.Context, commentID string) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[commentID]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return s.withJoined(c), nil
}

func (s *InMemoryCommentStore) UpdateBody(_ context.Context, commentID, userID, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok || c.UserID == nil || *c.UserID != userID || c.Status != StatusActive {
		return ErrNotFoundOrForbidden
	}
	c.Body = body
	c.UpdatedAt = time.Now().UTC()
	s.comments[commentID] = c
	return nil
}

func (s *InMemoryCommentStore) SoftDelete(_ context.Context, commentID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok || c.UserID == nil || *c.UserID != userID || c.Status == StatusDeleted {
		return ErrNotFoundOrForbidden
	}
	c.Status = StatusDeleted
	c.UpdatedAt = time.Now().UTC()
	s.comments[commentID] = c
	return nil
}

func (s *InMemoryCommentStore) SetStatus(_ context.Context, commentID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	s.comments[commentID] = c
	return nil
}

func (s *InMemoryCommentStore) AddReaction(_ context.Context, commentID, userID, reactionType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[commentID]; !ok {
		return ErrNotFound
	}
	if s.reactions[commentID] == nil {
		s.reactions[commentID] = make(map[string]time.Time)
	}
	s.reactions[commentID][reactionType+"|"+userID] = time.Now().UTC()
	return nil
}

func (s *InMemoryCommentStore) RemoveReaction(_ context.Context, commentID, userID, reactionType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.reactions[commentID], reactionType+"|"+userID)
	return nil
}

func (s *InMemoryCommentStore) ListByStatus(_ context.Context, status string, limit int) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out := []Comment{}
	for _, c := range s.comments {
		if c.Status == status {
			out = append(out, s.withJoined(c))
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// withJoined attaches author/attachments/reactions projections. Callers hold
// at least a read lock.
func (s *InMemoryCommentStore) withJoined(c Comment) Comment {
	if c.UserID != nil {
		if a, ok := s.authors[*c.UserID]; ok {
			author := a
			c.Author = &author
		}
	}
	c.Attachments = append([]Attachment(nil), s.attachments[c.ID]...)
	for key := range s.reactions[c.ID] {
		for i := 0; i < len(key); i++ {
			if key[i] == '|' {
				c.Reactions = append(c.Reactions, Reaction{Type: key[:i], UserID: key[i+1:]})
				break
			}
		}
	}
	return c
}
