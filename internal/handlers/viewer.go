package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/example/course-portal/internal/platform/api"
	"github.com/example/course-portal/internal/platform/auth"
	"github.com/example/course-portal/internal/store"
	"github.com/example/course-portal/internal/thread"
)

// viewerFromContext resolves the thread viewer from whatever identity the
// auth middleware placed in the context. A request without a token renders
// as a signed-out visitor.
func viewerFromContext(ctx context.Context) thread.Viewer {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok || userID == "" {
		return thread.Viewer{}
	}
	role, _ := auth.RoleFromContext(ctx)
	return thread.Viewer{
		UserID:          userID,
		IsAdmin:         role == "admin",
		IsAuthenticated: true,
	}
}

// requireGoodStanding blocks write actions for suspended users. It writes
// the 403 itself and reports whether the caller may proceed.
func requireGoodStanding(w http.ResponseWriter, r *http.Request, users store.UserStore, userID string) bool {
	susp, err := users.ActiveSuspension(r.Context(), userID, time.Now().UTC())
	if err != nil {
		api.Internal(w, "")
		return false
	}
	if susp != nil {
		api.Forbidden(w, "SUSPENDED", "account is suspended: "+susp.Reason, "")
		return false
	}
	return true
}
