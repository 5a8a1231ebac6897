package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/course-portal/internal/ics"
	"github.com/example/course-portal/internal/platform/api"
	"github.com/example/course-portal/internal/platform/auth"
	"github.com/example/course-portal/internal/platform/signing"
	"github.com/example/course-portal/internal/store"
)

// Personal feed links stay valid for half a year before the client has to
// fetch a fresh one.
const feedLinkTTL = 180 * 24 * time.Hour

func writeCalendar(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// SectionCalendar handles GET /v1/sections/{section_id}/calendar.ics
func SectionCalendar(catalog store.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sectionID := strings.TrimSpace(chi.URLParam(r, "section_id"))
		if sectionID == "" {
			api.BadRequest(w, "MISSING_ID", "section_id is required", "", nil)
			return
		}
		detail, err := catalog.GetSection(r.Context(), sectionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "section not found", "")
				return
			}
			api.Internal(w, "")
			return
		}

		name := fmt.Sprintf("%s %s", detail.Course.Code, detail.Section.Code)
		body := ics.Render(name, ics.FromSection(detail))
		writeCalendar(w, "section-"+sectionID+".ics", body)
	}
}

// PersonalCalendar handles GET /v1/users/{user_id}/calendar.ics?exp=&sig=.
// Authentication rides in the signed query, not a bearer token, because
// calendar apps poll the URL without headers.
func PersonalCalendar(catalog store.CatalogStore, subs store.SubscriptionStore, signer *signing.Signer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(chi.URLParam(r, "user_id"))
		if userID == "" {
			api.BadRequest(w, "MISSING_ID", "user_id is required", "", nil)
			return
		}
		exp, sig, err := signing.ExtractFeed(r.URL.Query())
		if err != nil {
			api.Unauthorized(w, "INVALID_SIGNATURE", "signed feed params are missing or malformed", "")
			return
		}
		if !signer.Verify(userID, exp, sig) {
			api.Unauthorized(w, "INVALID_SIGNATURE", "feed link is invalid or expired", "")
			return
		}

		list, err := subs.ListByUser(r.Context(), userID)
		if err != nil {
			api.Internal(w, "")
			return
		}

		var meetings []ics.Meeting
		for _, sub := range list {
			detail, err := catalog.GetSection(r.Context(), sub.SectionID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					// Section dropped from the catalog after subscribing.
					continue
				}
				api.Internal(w, "")
				return
			}
			meetings = append(meetings, ics.FromSection(detail)...)
		}

		body := ics.Render("My Schedule", meetings)
		writeCalendar(w, "schedule.ics", body)
	}
}

type feedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FeedURL handles GET /v1/me/calendar-url: returns the signed personal
// feed link for the authenticated user.
func FeedURL(signer *signing.Signer, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		exp := time.Now().UTC().Add(feedLinkTTL)
		feed := signer.Sign(userID, exp)
		u, err := signing.FeedURL(baseURL, feed)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, feedURLResponse{URL: u, ExpiresAt: exp})
	}
}
