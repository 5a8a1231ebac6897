// Package store defines the portal's persistence contracts and their
// Postgres and in-memory implementations. The in-memory backends exist for
// development and tests; production requires Postgres.
package store

import "errors"

// Sentinel errors shared by all stores.
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrNotFoundOrForbidden = errors.New("not found or not owned by user")
	ErrParentMismatch      = errors.New("parent comment belongs to a different target")
	ErrInvalidAttachment   = errors.New("attachment not owned by user")
)
