package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/course-portal/internal/store"
)

func TestCreateSubscription(t *testing.T) {
	cat := calendarCatalog(t)
	subs := store.NewInMemorySubscriptionStore()
	handler := CreateSubscription(subs, cat, nil)

	req := setupReq(http.MethodPost, "/v1/me/subscriptions", `{"section_id":"s-1"}`, nil, "user-a")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var sub store.CalendarSubscription
	if err := json.NewDecoder(rr.Body).Decode(&sub); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sub.SectionID != "s-1" || sub.UserID != "user-a" {
		t.Fatalf("unexpected subscription %+v", sub)
	}

	// Subscribing twice conflicts.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodPost, "/v1/me/subscriptions", `{"section_id":"s-1"}`, nil, "user-a"))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestCreateSubscription_UnknownSection(t *testing.T) {
	handler := CreateSubscription(store.NewInMemorySubscriptionStore(), store.NewInMemoryCatalogStore(), nil)
	req := setupReq(http.MethodPost, "/v1/me/subscriptions", `{"section_id":"ghost"}`, nil, "user-a")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDeleteSubscription(t *testing.T) {
	cat := calendarCatalog(t)
	subs := store.NewInMemorySubscriptionStore()

	rr := httptest.NewRecorder()
	CreateSubscription(subs, cat, nil).ServeHTTP(rr,
		setupReq(http.MethodPost, "/v1/me/subscriptions", `{"section_id":"s-1"}`, nil, "user-a"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rr.Code)
	}

	handler := DeleteSubscription(subs, nil)
	req := setupReq(http.MethodDelete, "/v1/me/subscriptions/s-1", "",
		map[string]string{"section_id": "s-1"}, "user-a")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	// Gone now.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodDelete, "/v1/me/subscriptions/s-1", "",
		map[string]string{"section_id": "s-1"}, "user-a"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestListSubscriptions_Unauthorized(t *testing.T) {
	handler := ListSubscriptions(store.NewInMemorySubscriptionStore())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodGet, "/v1/me/subscriptions", "", nil, ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
