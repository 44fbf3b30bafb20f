package testutil

import (
	"net/http"
	"time"

	"insighthub/pkg/requestcontext"
)

// WithPrincipal simulates what the auth middleware does for an authenticated request.
func WithPrincipal(req *http.Request, principal, organization string) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), principal, organization)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
