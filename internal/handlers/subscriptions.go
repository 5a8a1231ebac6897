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
)

type createSubscriptionRequest struct {
	SectionID string `json:"section_id"`
}

// ListSubscriptions handles GET /v1/me/subscriptions
func ListSubscriptions(subs store.SubscriptionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		list, err := subs.ListByUser(r.Context(), userID)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, list)
	}
}

// CreateSubscription handles POST /v1/me/subscriptions
func CreateSubscription(subs store.SubscriptionStore, catalog store.CatalogStore, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}

		var req createSubscriptionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		req.SectionID = strings.TrimSpace(req.SectionID)
		if req.SectionID == "" {
			api.BadRequest(w, "MISSING_ID", "section_id is required", "", nil)
			return
		}

		if _, err := catalog.GetSection(r.Context(), req.SectionID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "section not found", "")
				return
			}
			api.Internal(w, "")
			return
		}

		sub, err := subs.Create(r.Context(), userID, req.SectionID)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrConflict):
				api.Conflict(w, "ALREADY_SUBSCRIBED", "already subscribed to this section", "", nil)
			case errors.Is(err, store.ErrNotFound):
				api.NotFound(w, "NOT_FOUND", "section not found", "")
			default:
				api.Internal(w, "")
			}
			return
		}

		pub.Publish(events.SubjectSubscriptionsChanged, "subscriptions.changed", userID, map[string]any{
			"section_id": req.SectionID,
			"action":     "subscribed",
		})
		api.WriteJSON(w, http.StatusCreated, sub)
	}
}

// DeleteSubscription handles DELETE /v1/me/subscriptions/{section_id}
func DeleteSubscription(subs store.SubscriptionStore, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		sectionID := strings.TrimSpace(chi.URLParam(r, "section_id"))
		if sectionID == "" {
			api.BadRequest(w, "MISSING_ID", "section_id is required", "", nil)
			return
		}

		if err := subs.Delete(r.Context(), userID, sectionID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "subscription not found", "")
				return
			}
			api.Internal(w, "")
			return
		}

		pub.Publish(events.SubjectSubscriptionsChanged, "subscriptions.changed", userID, map[string]any{
			"section_id": sectionID,
			"action":     "unsubscribed",
		})
		w.WriteHeader(http.StatusNoContent)
	}
}
