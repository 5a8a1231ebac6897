package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	"github.com/example/course-portal/internal/platform/auth"
)

// setupReq builds a request with chi URL params and optional user_id in context.
func setupReq(method, url string, body string, params map[string]string, userID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != "" {
		ctx = auth.WithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

// asAdmin marks the request identity as an admin.
func asAdmin(req *http.Request) *http.Request {
	return req.WithContext(auth.WithRole(req.Context(), "admin"))
}
