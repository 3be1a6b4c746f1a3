package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/ContactKeeper/internal/middleware"
)

// withRoute attaches the authenticated user and chi URL params to req.
func withRoute(req *http.Request, userID string, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != "" {
		ctx = middleware.WithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}
