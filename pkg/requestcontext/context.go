// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them without importing net/http.
//
//	principal := requestcontext.Principal(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithPrincipal(ctx, "analyst@example.org", "Agency-A")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type (
	principalKey    struct{}
	organizationKey struct{}
	requestIDKey    struct{}
	requestTimeKey  struct{}
)

var (
	ContextKeyPrincipal    = principalKey{}
	ContextKeyOrganization = organizationKey{}
	ContextKeyRequestID    = requestIDKey{}
	ContextKeyRequestTime  = requestTimeKey{}
)

// Principal returns the authenticated identity, or "" when unauthenticated.
func Principal(ctx context.Context) string {
	if p, ok := ctx.Value(ContextKeyPrincipal).(string); ok {
		return p
	}
	return ""
}

// Organization returns the caller's organization claim, or "".
func Organization(ctx context.Context) string {
	if o, ok := ctx.Value(ContextKeyOrganization).(string); ok {
		return o
	}
	return ""
}

// WithPrincipal injects the principal identity and organization.
func WithPrincipal(ctx context.Context, principal, organization string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyPrincipal, principal)
	return context.WithValue(ctx, ContextKeyOrganization, organization)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() outside HTTP requests (tests, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
