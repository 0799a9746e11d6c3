package testutil

import (
	"context"
	"net/http"

	"medtransit/pkg/domain"
	"medtransit/pkg/requestcontext"
)

// AsCaller returns ctx carrying the principal and logical clock reading the
// auth and clock middleware would attach to an authenticated request.
func AsCaller(ctx context.Context, principal string, height uint64) context.Context {
	return requestcontext.WithCaller(ctx, domain.Principal(principal), domain.Height(height))
}

// WithCaller attaches a principal and clock reading to the request context,
// skipping the middleware chain in handler tests.
func WithCaller(req *http.Request, principal string, height uint64) *http.Request {
	return req.WithContext(AsCaller(req.Context(), principal, height))
}

// WithPrincipal attaches only a principal. Empty principals are left out so the
// request looks unauthenticated.
func WithPrincipal(req *http.Request, principal string) *http.Request {
	if principal == "" {
		return req
	}
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), domain.Principal(principal)))
}
