package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/course-portal/internal/store"
	"github.com/example/course-portal/internal/tokens"
)

func testTokenService() tokens.Service {
	return tokens.Service{
		Secret:          []byte("test-jwt-secret-32-bytes-padded!"),
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func TestRegister(t *testing.T) {
	users := store.NewInMemoryUserStore()
	handler := Register(users, testTokenService(), nil)

	req := setupReq(http.MethodPost, "/v1/auth/register",
		`{"email":"new@uni.edu","name":"New Student","password":"hunter2hunter2"}`, nil, "")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp authResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Email != "new@uni.edu" {
		t.Fatalf("unexpected email %q", resp.User.Email)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens issued")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := store.NewInMemoryUserStore()
	handler := Register(users, testTokenService(), nil)

	body := `{"email":"dup@uni.edu","name":"A","password":"hunter2hunter2"}`
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodPost, "/v1/auth/register", body, nil, ""))
	if rr.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodPost, "/v1/auth/register", body, nil, ""))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestRegister_WeakPassword(t *testing.T) {
	handler := Register(store.NewInMemoryUserStore(), testTokenService(), nil)
	req := setupReq(http.MethodPost, "/v1/auth/register",
		`{"email":"weak@uni.edu","name":"W","password":"short"}`, nil, "")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func registerAndLogin(t *testing.T, users *store.InMemoryUserStore) authResponse {
	t.Helper()
	svc := testTokenService()

	rr := httptest.NewRecorder()
	Register(users, svc, nil).ServeHTTP(rr, setupReq(http.MethodPost, "/v1/auth/register",
		`{"email":"s@uni.edu","name":"S","password":"hunter2hunter2"}`, nil, ""))
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	Login(users, svc, nil).ServeHTTP(rr, setupReq(http.MethodPost, "/v1/auth/login",
		`{"email":"s@uni.edu","password":"hunter2hunter2"}`, nil, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp authResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestLogin_WrongPassword(t *testing.T) {
	users := store.NewInMemoryUserStore()
	registerAndLogin(t, users)

	rr := httptest.NewRecorder()
	Login(users, testTokenService(), nil).ServeHTTP(rr, setupReq(http.MethodPost, "/v1/auth/login",
		`{"email":"s@uni.edu","password":"wrong-password"}`, nil, ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	users := store.NewInMemoryUserStore()
	session := registerAndLogin(t, users)
	handler := Refresh(users, testTokenService())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token":"`+session.RefreshToken+`"}`, nil, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var fresh authResponse
	if err := json.NewDecoder(rr.Body).Decode(&fresh); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fresh.RefreshToken == session.RefreshToken {
		t.Fatal("expected a rotated refresh token")
	}

	// Old refresh token is single use.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token":"`+session.RefreshToken+`"}`, nil, ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for reused token, got %d", rr.Code)
	}
}

func TestRefresh_UnknownToken(t *testing.T) {
	handler := Refresh(store.NewInMemoryUserStore(), testTokenService())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token":"made-up"}`, nil, ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMe(t *testing.T) {
	users := store.NewInMemoryUserStore()
	session := registerAndLogin(t, users)

	handler := Me(users)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodGet, "/v1/me", "", nil, session.User.ID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp meResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.ID != session.User.ID {
		t.Fatalf("unexpected user %+v", resp.User)
	}
	if resp.Suspension != nil {
		t.Fatalf("expected no suspension, got %+v", resp.Suspension)
	}
}

func TestMe_Unauthorized(t *testing.T) {
	handler := Me(store.NewInMemoryUserStore())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodGet, "/v1/me", "", nil, ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
