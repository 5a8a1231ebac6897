package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/course-portal/internal/platform/api"
	"github.com/example/course-portal/internal/platform/auth"
	"github.com/example/course-portal/internal/platform/events"
	"github.com/example/course-portal/internal/store"
	"github.com/example/course-portal/internal/tokens"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type authResponse struct {
	User            store.User `json:"user"`
	AccessToken     string     `json:"access_token"`
	AccessExpiresAt time.Time  `json:"access_expires_at"`
	RefreshToken    string     `json:"refresh_token"`
}

func roleOf(u store.User) string {
	if u.IsAdmin {
		return "admin"
	}
	return "user"
}

func issueTokens(w http.ResponseWriter, r *http.Request, users store.UserStore, svc tokens.Service, u store.User) (authResponse, bool) {
	access, exp, err := svc.NewAccessToken(u.ID, roleOf(u), time.Now().UTC())
	if err != nil {
		api.Internal(w, "")
		return authResponse{}, false
	}
	raw, hash, err := tokens.NewRefreshToken()
	if err != nil {
		api.Internal(w, "")
		return authResponse{}, false
	}
	expiresAt := time.Now().UTC().Add(svc.RefreshTokenTTL)
	if err := users.CreateRefreshSession(r.Context(), u.ID, hash, expiresAt); err != nil {
		api.Internal(w, "")
		return authResponse{}, false
	}
	return authResponse{User: u, AccessToken: access, AccessExpiresAt: exp, RefreshToken: raw}, true
}

// Register handles POST /v1/auth/register
func Register(users store.UserStore, svc tokens.Service, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		req.Name = strings.TrimSpace(req.Name)
		if _, err := mail.ParseAddress(req.Email); err != nil {
			api.BadRequest(w, "INVALID_EMAIL", "a valid email is required", "", nil)
			return
		}
		if req.Name == "" {
			api.BadRequest(w, "MISSING_NAME", "name is required", "", nil)
			return
		}
		if len(req.Password) < 8 {
			api.BadRequest(w, "WEAK_PASSWORD", "password must be at least 8 characters", "", nil)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			api.Internal(w, "")
			return
		}

		u, err := users.Create(r.Context(), store.CreateUserParams{
			Email:        req.Email,
			Name:         req.Name,
			PasswordHash: string(hash),
		})
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				api.Conflict(w, "EMAIL_TAKEN", "email is already registered", "", nil)
				return
			}
			api.Internal(w, "")
			return
		}

		resp, ok := issueTokens(w, r, users, svc, u)
		if !ok {
			return
		}
		pub.Publish(events.SubjectAuthRegistered, "auth.registered", u.ID, nil)
		api.WriteJSON(w, http.StatusCreated, resp)
	}
}

// Login handles POST /v1/auth/login
func Login(users store.UserStore, svc tokens.Service, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))

		row, err := users.FindByEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.Unauthorized(w, "INVALID_CREDENTIALS", "invalid email or password", "")
				return
			}
			api.Internal(w, "")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(req.Password)) != nil {
			api.Unauthorized(w, "INVALID_CREDENTIALS", "invalid email or password", "")
			return
		}

		resp, ok := issueTokens(w, r, users, svc, row.User)
		if !ok {
			return
		}
		pub.Publish(events.SubjectAuthLoggedIn, "auth.logged_in", row.User.ID, nil)
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// Refresh handles POST /v1/auth/refresh. Refresh tokens are single use:
// each refresh revokes the presented session and issues a replacement.
func Refresh(users store.UserStore, svc tokens.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if strings.TrimSpace(req.RefreshToken) == "" {
			api.BadRequest(w, "MISSING_TOKEN", "refresh_token is required", "", nil)
			return
		}

		sess, err := users.GetRefreshSessionByHash(r.Context(), tokens.HashRefreshToken(req.RefreshToken))
		if err != nil {
			api.Unauthorized(w, "INVALID_TOKEN", "refresh token is not recognized", "")
			return
		}
		now := time.Now().UTC()
		if sess.RevokedAt != nil || now.After(sess.ExpiresAt) {
			api.Unauthorized(w, "INVALID_TOKEN", "refresh token is expired or revoked", "")
			return
		}

		u, err := users.GetByID(r.Context(), sess.UserID)
		if err != nil {
			api.Unauthorized(w, "INVALID_TOKEN", "refresh token is not recognized", "")
			return
		}

		if err := users.RevokeRefreshSession(r.Context(), sess.ID); err != nil {
			api.Internal(w, "")
			return
		}
		resp, ok := issueTokens(w, r, users, svc, u)
		if !ok {
			return
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

type meResponse struct {
	User       store.User        `json:"user"`
	Suspension *store.Suspension `json:"suspension,omitempty"`
}

// Me handles GET /v1/me
func Me(users store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		u, err := users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.Unauthorized(w, "UNAUTHORIZED", "account no longer exists", "")
				return
			}
			api.Internal(w, "")
			return
		}
		susp, err := users.ActiveSuspension(r.Context(), userID, time.Now().UTC())
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, meResponse{User: u, Suspension: susp})
	}
}
