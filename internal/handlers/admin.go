package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/course-portal/internal/platform/api"
	"github.com/example/course-portal/internal/platform/auth"
	"github.com/example/course-portal/internal/platform/events"
	"github.com/example/course-portal/internal/store"
)

type setStatusRequest struct {
	Status string `json:"status"`
}

type suspendRequest struct {
	Reason    string     `json:"reason"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func limitParam(r *http.Request, def, max int) int {
	limit := def
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= max {
			limit = parsed
		}
	}
	return limit
}

// ModerationQueue handles GET /v1/admin/comments?status=&limit=
func ModerationQueue(cs store.CommentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := strings.TrimSpace(r.URL.Query().Get("status"))
		if status == "" {
			status = store.StatusSoftbanned
		}
		switch status {
		case store.StatusActive, store.StatusSoftbanned, store.StatusDeleted:
		default:
			api.BadRequest(w, "INVALID_STATUS", "unknown status", "", nil)
			return
		}

		comments, err := cs.ListByStatus(r.Context(), status, limitParam(r, 50, 200))
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, comments)
	}
}

// SetCommentStatus handles POST /v1/admin/comments/{comment_id}/status.
// Moderation transitions: active -> softbanned -> deleted, active -> deleted,
// and softbanned -> active to undo a ban. Deleted is terminal.
func SetCommentStatus(cs store.CommentStore, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		var req setStatusRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		switch req.Status {
		case store.StatusActive, store.StatusSoftbanned, store.StatusDeleted:
		default:
			api.BadRequest(w, "INVALID_STATUS", "status must be active, softbanned or deleted", "", nil)
			return
		}

		current, err := cs.GetByID(r.Context(), commentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "comment not found", "")
				return
			}
			api.Internal(w, "")
			return
		}
		if current.Status == store.StatusDeleted && req.Status != store.StatusDeleted {
			api.Conflict(w, "TERMINAL_STATUS", "deleted comments cannot be restored", "", nil)
			return
		}

		if err := cs.SetStatus(r.Context(), commentID, req.Status); err != nil {
			api.Internal(w, "")
			return
		}

		adminID, _ := auth.UserIDFromContext(r.Context())
		pub.Publish(events.SubjectCommentModerated, "comments.moderated", adminID, map[string]any{
			"comment_id": commentID,
			"from":       current.Status,
			"to":         req.Status,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListUsers handles GET /v1/admin/users?limit=
func ListUsers(users store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := users.List(r.Context(), limitParam(r, 100, 500))
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, list)
	}
}

// SuspendUser handles POST /v1/admin/users/{user_id}/suspend
func SuspendUser(users store.UserStore, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, _ := auth.UserIDFromContext(r.Context())
		userID := strings.TrimSpace(chi.URLParam(r, "user_id"))
		if userID == "" {
			api.BadRequest(w, "MISSING_ID", "user_id is required", "", nil)
			return
		}
		if userID == adminID {
			api.BadRequest(w, "SELF_SUSPEND", "cannot suspend yourself", "", nil)
			return
		}

		var req suspendRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if strings.TrimSpace(req.Reason) == "" {
			api.BadRequest(w, "MISSING_REASON", "reason is required", "", nil)
			return
		}
		if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
			api.BadRequest(w, "INVALID_EXPIRY", "expires_at must be in the future", "", nil)
			return
		}

		susp, err := users.Suspend(r.Context(), store.SuspendUserParams{
			UserID:    userID,
			Reason:    req.Reason,
			CreatedBy: adminID,
			ExpiresAt: req.ExpiresAt,
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "user not found", "")
				return
			}
			api.Internal(w, "")
			return
		}

		pub.Publish(events.SubjectUserSuspended, "users.suspended", userID, map[string]any{
			"suspension_id": susp.ID,
			"created_by":    adminID,
		})
		api.WriteJSON(w, http.StatusCreated, susp)
	}
}

// LiftSuspension handles DELETE /v1/admin/suspensions/{suspension_id}
func LiftSuspension(users store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suspensionID := strings.TrimSpace(chi.URLParam(r, "suspension_id"))
		if suspensionID == "" {
			api.BadRequest(w, "MISSING_ID", "suspension_id is required", "", nil)
			return
		}

		if err := users.LiftSuspension(r.Context(), suspensionID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "suspension not found or already lifted", "")
				return
			}
			api.Internal(w, "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
