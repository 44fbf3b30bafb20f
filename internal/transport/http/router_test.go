package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "insighthub/internal/jwt_token"
	"insighthub/pkg/platform/httputil"
	"insighthub/pkg/requestcontext"
	"insighthub/pkg/testutil"
)

type whoami struct{}

func (whoami) Register(r chi.Router) {
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"principal":    requestcontext.Principal(ctx),
			"organization": requestcontext.Organization(ctx),
			"request_id":   requestcontext.RequestID(ctx),
		})
	})
}

func newTestRouter(health map[string]HealthCheck) (http.Handler, *jwttoken.JWTService) {
	jwtSvc := jwttoken.NewJWTService("test-key", "insighthub")
	return NewRouter(Config{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Validator:      jwtSvc,
		RequestTimeout: 5 * time.Second,
		Health:         health,
	}, whoami{}), jwtSvc
}

func TestDomainRoutesRequireAuth(t *testing.T) {
	r, jwtSvc := newTestRouter(nil)

	testutil.Given(t, "no bearer token", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/whoami"))
		testutil.Then(t, "the request is rejected", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		})
	})

	testutil.Given(t, "a valid token", func(t *testing.T) {
		token, err := jwtSvc.GenerateAccessToken("analyst@bank", "Bank", time.Minute)
		require.NoError(t, err)
		req := testutil.NewRequest(t, http.MethodGet, "/whoami")
		req.Header.Set("Authorization", "Bearer "+token)
		rr := testutil.DoRequest(r, req)

		testutil.Then(t, "identity and request id reach the handler", func(t *testing.T) {
			require.Equal(t, http.StatusOK, rr.Code)
			body := testutil.UnmarshalResponse[map[string]string](t, rr)
			assert.Equal(t, "analyst@bank", (*body)["principal"])
			assert.Equal(t, "Bank", (*body)["organization"])
			assert.NotEmpty(t, (*body)["request_id"])
		})
	})
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})
	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	assert.Equal(t, http.StatusOK, rr.Code)

	r, _ = newTestRouter(map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	})
	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	testutil.AssertJSONContains(t, rr, "redis", "down")
}
