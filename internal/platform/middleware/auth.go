package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "insighthub/pkg/domain-errors"
	"insighthub/pkg/platform/httputil"
	"insighthub/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the caller's identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Identity, error)
}

// Identity is the authenticated caller recorded in the audit trail.
type Identity struct {
	Principal    string
	Organization string
}

// RequireAuth rejects requests without a valid bearer token and stores the
// principal and organization in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			identity, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithPrincipal(ctx, identity.Principal, identity.Organization)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
