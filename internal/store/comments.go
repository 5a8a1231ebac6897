package store

import (
	"context"
	"time"
)

// Comment moderation states. Transitions are performed by the moderation
// endpoints; readers only ever observe the stored value.
const (
	StatusActive     = "active"
	StatusSoftbanned = "softbanned"
	StatusDeleted    = "deleted"
)

// Comment visibility values.
const (
	VisibilityPublic    = "public"
	VisibilityAnonymous = "anonymous"
)

// Discussion target kinds a comment can attach to.
const (
	TargetSection = "section"
	TargetCourse  = "course"
	TargetTeacher = "teacher"
)

// ValidTargetType reports whether t names a known discussion target kind.
func ValidTargetType(t string) bool {
	switch t {
	case TargetSection, TargetCourse, TargetTeacher:
		return true
	}
	return false
}

// AuthorSummary is the joined author projection attached to a comment row.
type AuthorSummary struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
	Verified bool   `json:"verified"`
	IsGuest  bool   `json:"is_guest"`
}

// Attachment is a file reference joined onto a comment row.
type Attachment struct {
	ID          string `json:"id"`
	UploadID    string `json:"upload_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
}

// Reaction is a single (type, user) pair; aggregation happens at render time.
type Reaction struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

// Comment is a flat comment row with its joined author, attachments and
// reactions, exactly as read from storage.
type Comment struct {
	ID          string         `json:"id"`
	TargetType  string         `json:"target_type"`
	TargetID    string         `json:"target_id"`
	UserID      *string        `json:"user_id,omitempty"`
	ParentID    *string        `json:"parent_id,omitempty"`
	RootID      *string        `json:"root_id,omitempty"`
	Body        string         `json:"body"`
	Status      string         `json:"status"`
	Visibility  string         `json:"visibility"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Author      *AuthorSummary `json:"author,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	Reactions   []Reaction     `json:"reactions,omitempty"`
}

// CreateCommentParams carries a new comment write.
type CreateCommentParams struct {
	TargetType    string
	TargetID      string
	UserID        string
	ParentID      *string
	Body          string
	Visibility    string
	AttachmentIDs []string
}

// CommentStore defines the contract for comment persistence.
type CommentStore interface {
	Create(ctx context.Context, p CreateCommentParams) (Comment, error)
	// ListByTarget returns every comment row for one discussion target with
	// author, attachments and reactions joined, unordered.
	ListByTarget(ctx context.Context, targetType, targetID string) ([]Comment, error)
	GetByID(ctx context.Context, commentID string) (Comment, error)
	UpdateBody(ctx context.Context, commentID, userID, body string) error
	// SoftDelete is the author-facing delete: it moves the row to deleted.
	SoftDelete(ctx context.Context, commentID, userID string) error
	// SetStatus is the moderation transition (active -> softbanned -> deleted).
	SetStatus(ctx context.Context, commentID, status string) error
	AddReaction(ctx context.Context, commentID, userID, reactionType string) error
	RemoveReaction(ctx context.Context, commentID, userID, reactionType string) error
	// ListByStatus feeds the admin moderation queue.
	ListByStatus(ctx context.Context, status string, limit int) ([]Comment, error)
}
