package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/example/course-portal/internal/platform/api"
	"github.com/example/course-portal/internal/platform/auth"
	"github.com/example/course-portal/internal/store"
)

const maxUploadSize = 20 << 20 // 20 MiB

type createUploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type createUploadResponse struct {
	Upload     store.Upload `json:"upload"`
	StorageKey string       `json:"storage_key"`
}

// CreateUpload handles POST /v1/uploads. Registers upload metadata and
// hands back the object-storage key the client should PUT the bytes to;
// the client then confirms with the complete endpoint.
func CreateUpload(uploads store.UploadStore, users store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		if !requireGoodStanding(w, r, users, userID) {
			return
		}

		var req createUploadRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		req.Filename = path.Base(strings.TrimSpace(req.Filename))
		if req.Filename == "" || req.Filename == "." || req.Filename == "/" {
			api.BadRequest(w, "MISSING_FILENAME", "filename is required", "", nil)
			return
		}
		if req.Size <= 0 || req.Size > maxUploadSize {
			api.BadRequest(w, "INVALID_SIZE", "size must be positive and at most 20 MiB", "", nil)
			return
		}

		storageKey := "uploads/" + userID + "/" + uuid.NewString() + "/" + req.Filename
		up, err := uploads.Create(r.Context(), store.CreateUploadParams{
			UserID:      userID,
			Filename:    req.Filename,
			ContentType: strings.TrimSpace(req.ContentType),
			Size:        req.Size,
			StorageKey:  storageKey,
		})
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusCreated, createUploadResponse{Upload: up, StorageKey: storageKey})
	}
}

// CompleteUpload handles POST /v1/uploads/{upload_id}/complete
func CompleteUpload(uploads store.UploadStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		uploadID := strings.TrimSpace(chi.URLParam(r, "upload_id"))
		if uploadID == "" {
			api.BadRequest(w, "MISSING_ID", "upload_id is required", "", nil)
			return
		}

		if err := uploads.Complete(r.Context(), uploadID, userID); err != nil {
			if errors.Is(err, store.ErrNotFoundOrForbidden) {
				api.NotFound(w, "NOT_FOUND", "upload not found", "")
				return
			}
			api.Internal(w, "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetUpload handles GET /v1/uploads/{upload_id}. Metadata is visible to
// the owner and admins only.
func GetUpload(uploads store.UploadStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		uploadID := strings.TrimSpace(chi.URLParam(r, "upload_id"))
		if uploadID == "" {
			api.BadRequest(w, "MISSING_ID", "upload_id is required", "", nil)
			return
		}

		up, err := uploads.GetByID(r.Context(), uploadID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "upload not found", "")
				return
			}
			api.Internal(w, "")
			return
		}
		role, _ := auth.RoleFromContext(r.Context())
		if up.UserID != userID && role != "admin" {
			api.NotFound(w, "NOT_FOUND", "upload not found", "")
			return
		}
		api.WriteJSON(w, http.StatusOK, up)
	}
}
