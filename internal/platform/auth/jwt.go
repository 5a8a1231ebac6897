package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

type ctxKeyUserID struct{}
type ctxKeyRole struct{}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUserID{}).(string)
	return v, ok
}

// WithUserID injects user_id into context. Useful for testing.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, uid)
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyRole{}).(string)
	return v, ok
}

// WithRole injects role into context. Useful for testing.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole{}, role)
}

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type JWTVerifier struct {
	Secret []byte
}

func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func contextWithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID{}, claims.Subject)
	if strings.TrimSpace(claims.Role) != "" {
		ctx = context.WithValue(ctx, ctxKeyRole{}, claims.Role)
	}
	return ctx
}

// RequireUser middleware validates Bearer token and injects user_id into context.
func RequireUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearerToken(r)
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			claims, err := verifier.Parse(tok)
			if err != nil || strings.TrimSpace(claims.Subject) == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
		})
	}
}

// OptionalUser injects identity when a valid Bearer token is present and
// passes the request through anonymously otherwise. Used by viewer-aware
// public reads (comment threads render differently per viewer).
func OptionalUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := verifier.Parse(tok)
			if err != nil || strings.TrimSpace(claims.Subject) == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
		})
	}
}
