package store

import (
	"context"
	"time"
)

// Upload is a stored file's metadata. The bytes themselves live in object
// storage under StorageKey; the portal only tracks metadata and ownership.
type Upload struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type,omitempty"`
	Size        int64      `json:"size"`
	StorageKey  string     `json:"-"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type CreateUploadParams struct {
	UserID      string
	Filename    string
	ContentType string
	Size        int64
	StorageKey  string
}

// UploadStore defines upload metadata persistence. Two-phase: Create
// registers the pending upload, Complete confirms the bytes arrived.
type UploadStore interface {
	Create(ctx context.Context, p CreateUploadParams) (Upload, error)
	Complete(ctx context.Context, uploadID, userID string) error
	GetByID(ctx context.Context, uploadID string) (Upload, error)
}
