package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/course-portal/internal/platform/api"
	"github.com/example/course-portal/internal/platform/auth"
	"github.com/example/course-portal/internal/platform/events"
	"github.com/example/course-portal/internal/store"
	"github.com/example/course-portal/internal/thread"
)

const maxCommentBody = 10_000

var allowedReactions = map[string]bool{
	"like":  true,
	"heart": true,
	"laugh": true,
	"sad":   true,
	"wow":   true,
}

type createCommentRequest struct {
	Body          string   `json:"body"`
	ParentID      *string  `json:"parent_id,omitempty"`
	Anonymous     bool     `json:"anonymous,omitempty"`
	AttachmentIDs []string `json:"attachment_ids,omitempty"`
}

type updateCommentRequest struct {
	Body string `json:"body"`
}

type reactionRequest struct {
	Type string `json:"type"`
}

func targetFromRequest(r *http.Request) (targetType, targetID string, ok bool) {
	targetType = strings.TrimSpace(chi.URLParam(r, "target_type"))
	targetID = strings.TrimSpace(chi.URLParam(r, "target_id"))
	return targetType, targetID, store.ValidTargetType(targetType) && targetID != ""
}

// GetThread handles GET /v1/comments/{target_type}/{target_id}. It is
// viewer-aware: the same thread renders differently for strangers, the
// comment authors and admins, so responses are never cached.
func GetThread(cs store.CommentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetType, targetID, ok := targetFromRequest(r)
		if !ok {
			api.BadRequest(w, "INVALID_TARGET", "target must be section, course or teacher", "", nil)
			return
		}

		rows, err := cs.ListByTarget(r.Context(), targetType, targetID)
		if err != nil {
			api.Internal(w, "")
			return
		}

		result, err := thread.Build(rows, viewerFromContext(r.Context()))
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, result)
	}
}

// CreateComment handles POST /v1/comments/{target_type}/{target_id}
func CreateComment(cs store.CommentStore, users store.UserStore, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		targetType, targetID, ok := targetFromRequest(r)
		if !ok {
			api.BadRequest(w, "INVALID_TARGET", "target must be section, course or teacher", "", nil)
			return
		}
		if !requireGoodStanding(w, r, users, userID) {
			return
		}

		var req createCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if strings.TrimSpace(req.Body) == "" {
			api.BadRequest(w, "EMPTY_BODY", "body must not be empty", "", nil)
			return
		}
		if len(req.Body) > maxCommentBody {
			api.BadRequest(w, "BODY_TOO_LONG", "body exceeds the maximum length", "", nil)
			return
		}

		visibility := store.VisibilityPublic
		if req.Anonymous {
			visibility = store.VisibilityAnonymous
		}

		created, err := cs.Create(r.Context(), store.CreateCommentParams{
			TargetType:    targetType,
			TargetID:      targetID,
			UserID:        userID,
			ParentID:      req.ParentID,
			Body:          req.Body,
			Visibility:    visibility,
			AttachmentIDs: req.AttachmentIDs,
		})
		if err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				api.NotFound(w, "PARENT_NOT_FOUND", "parent comment not found", "")
			case errors.Is(err, store.ErrParentMismatch):
				api.BadRequest(w, "PARENT_MISMATCH", "parent belongs to another discussion", "", nil)
			case errors.Is(err, store.ErrInvalidAttachment):
				api.BadRequest(w, "INVALID_ATTACHMENT", "attachment is missing, pending or not yours", "", nil)
			default:
				api.Internal(w, "")
			}
			return
		}

		pub.Publish(events.SubjectCommentCreated, "comments.created", userID, map[string]any{
			"comment_id":  created.ID,
			"target_type": targetType,
			"target_id":   targetID,
		})
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// UpdateComment handles PUT /v1/comments/{comment_id}
func UpdateComment(cs store.CommentStore, users store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}
		if !requireGoodStanding(w, r, users, userID) {
			return
		}

		var req updateCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if strings.TrimSpace(req.Body) == "" {
			api.BadRequest(w, "EMPTY_BODY", "body must not be empty", "", nil)
			return
		}
		if len(req.Body) > maxCommentBody {
			api.BadRequest(w, "BODY_TOO_LONG", "body exceeds the maximum length", "", nil)
			return
		}

		if err := cs.UpdateBody(r.Context(), commentID, userID, req.Body); err != nil {
			if errors.Is(err, store.ErrNotFoundOrForbidden) {
				api.NotFound(w, "NOT_FOUND", "comment not found", "")
				return
			}
			api.Internal(w, "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteComment handles DELETE /v1/comments/{comment_id}. Author-facing
// soft delete: the row stays in the thread with its content removed.
func DeleteComment(cs store.CommentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		if err := cs.SoftDelete(r.Context(), commentID, userID); err != nil {
			if errors.Is(err, store.ErrNotFoundOrForbidden) {
				api.NotFound(w, "NOT_FOUND", "comment not found", "")
				return
			}
			api.Internal(w, "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// AddReaction handles POST /v1/comments/{comment_id}/reactions. Repeating
// the same reaction is a no-op.
func AddReaction(cs store.CommentStore, users store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}
		if !requireGoodStanding(w, r, users, userID) {
			return
		}

		var req reactionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if !allowedReactions[req.Type] {
			api.BadRequest(w, "INVALID_REACTION", "unknown reaction type", "", nil)
			return
		}

		if err := cs.AddReaction(r.Context(), commentID, userID, req.Type); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "comment not found", "")
				return
			}
			api.Internal(w, "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RemoveReaction handles DELETE /v1/comments/{comment_id}/reactions/{type}
func RemoveReaction(cs store.CommentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		reactionType := strings.TrimSpace(chi.URLParam(r, "type"))
		if commentID == "" || reactionType == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id and type are required", "", nil)
			return
		}

		if err := cs.RemoveReaction(r.Context(), commentID, userID, reactionType); err != nil {
			api.Internal(w, "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
