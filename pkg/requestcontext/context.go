// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values: the authenticated principal, the logical clock reading
// and the request id.
//
// Middleware sets these values; services read them. Keeping the package free of
// net/http lets services import it without pulling in transport code.
//
// Usage in services:
//
//	caller := requestcontext.Principal(ctx)
//	now := requestcontext.Height(ctx)
//
// Usage in tests:
//
//	ctx = requestcontext.WithPrincipal(ctx, "admin")
//	ctx = requestcontext.WithHeight(ctx, 100)
package requestcontext

import (
	"context"

	"medtransit/pkg/domain"
)

type (
	principalKey struct{}
	heightKey    struct{}
	requestIDKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyPrincipal = principalKey{}
	ContextKeyHeight    = heightKey{}
	ContextKeyRequestID = requestIDKey{}
)

// Principal retrieves the authenticated caller. Returns "" if not set.
func Principal(ctx context.Context) domain.Principal {
	if p, ok := ctx.Value(ContextKeyPrincipal).(domain.Principal); ok {
		return p
	}
	return ""
}

// WithPrincipal injects the authenticated caller into the context.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// Height retrieves the logical clock reading for this call.
// Returns 0 when not set; there is no wall-clock fallback.
func Height(ctx context.Context) domain.Height {
	if h, ok := ctx.Value(ContextKeyHeight).(domain.Height); ok {
		return h
	}
	return 0
}

// HasHeight reports whether a logical clock reading was supplied.
func HasHeight(ctx context.Context) bool {
	_, ok := ctx.Value(ContextKeyHeight).(domain.Height)
	return ok
}

// WithHeight injects the logical clock reading into the context.
func WithHeight(ctx context.Context, h domain.Height) context.Context {
	return context.WithValue(ctx, ContextKeyHeight, h)
}

// RequestID retrieves the request id from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// WithCaller is shorthand for the principal and clock pair every operation needs.
func WithCaller(ctx context.Context, p domain.Principal, h domain.Height) context.Context {
	return WithHeight(WithPrincipal(ctx, p), h)
}
