package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/course-portal/internal/store"
)

func TestModerationQueue(t *testing.T) {
	cs := store.NewInMemoryCommentStore()
	ctx := context.Background()
	_, _ = cs.Create(ctx, store.CreateCommentParams{
		TargetType: store.TargetSection, TargetID: "sec-1",
		UserID: "user-a", Body: "ok", Visibility: store.VisibilityPublic,
	})
	flagged, _ := cs.Create(ctx, store.CreateCommentParams{
		TargetType: store.TargetSection, TargetID: "sec-1",
		UserID: "user-b", Body: "bad", Visibility: store.VisibilityPublic,
	})
	_ = cs.SetStatus(ctx, flagged.ID, store.StatusSoftbanned)

	handler := ModerationQueue(cs)
	req := asAdmin(setupReq(http.MethodGet, "/v1/admin/comments?status=softbanned", "", nil, "admin-1"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var list []store.Comment
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].ID != flagged.ID {
		t.Fatalf("expected the flagged comment only, got %+v", list)
	}
}

func TestSetCommentStatus(t *testing.T) {
	cs := store.NewInMemoryCommentStore()
	c, _ := cs.Create(context.Background(), store.CreateCommentParams{
		TargetType: store.TargetSection, TargetID: "sec-1",
		UserID: "user-a", Body: "spam", Visibility: store.VisibilityPublic,
	})

	handler := SetCommentStatus(cs, nil)
	req := asAdmin(setupReq(http.MethodPost, "/v1/admin/comments/"+c.ID+"/status",
		`{"status":"softbanned"}`, map[string]string{"comment_id": c.ID}, "admin-1"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	got, _ := cs.GetByID(context.Background(), c.ID)
	if got.Status != store.StatusSoftbanned {
		t.Fatalf("expected softbanned, got %q", got.Status)
	}
}

func TestSetCommentStatus_DeletedIsTerminal(t *testing.T) {
	cs := store.NewInMemoryCommentStore()
	c, _ := cs.Create(context.Background(), store.CreateCommentParams{
		TargetType: store.TargetSection, TargetID: "sec-1",
		UserID: "user-a", Body: "gone", Visibility: store.VisibilityPublic,
	})
	_ = cs.SetStatus(context.Background(), c.ID, store.StatusDeleted)

	handler := SetCommentStatus(cs, nil)
	req := asAdmin(setupReq(http.MethodPost, "/v1/admin/comments/"+c.ID+"/status",
		`{"status":"active"}`, map[string]string{"comment_id": c.ID}, "admin-1"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 restoring a deleted comment, got %d", rr.Code)
	}
}

func TestSuspendUser_AndLift(t *testing.T) {
	users := store.NewInMemoryUserStore()
	u, _ := users.Create(context.Background(), store.CreateUserParams{Email: "s@uni.edu", Name: "S", PasswordHash: "h"})

	suspend := SuspendUser(users, nil)
	req := asAdmin(setupReq(http.MethodPost, "/v1/admin/users/"+u.ID+"/suspend",
		`{"reason":"abuse"}`, map[string]string{"user_id": u.ID}, "admin-1"))
	rr := httptest.NewRecorder()
	suspend.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var susp store.Suspension
	if err := json.NewDecoder(rr.Body).Decode(&susp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	lift := LiftSuspension(users)
	req = asAdmin(setupReq(http.MethodDelete, "/v1/admin/suspensions/"+susp.ID, "",
		map[string]string{"suspension_id": susp.ID}, "admin-1"))
	rr = httptest.NewRecorder()
	lift.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestSuspendUser_Self(t *testing.T) {
	users := store.NewInMemoryUserStore()
	handler := SuspendUser(users, nil)
	req := asAdmin(setupReq(http.MethodPost, "/v1/admin/users/admin-1/suspend",
		`{"reason":"oops"}`, map[string]string{"user_id": "admin-1"}, "admin-1"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self-suspend, got %d", rr.Code)
	}
}
