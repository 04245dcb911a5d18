package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"rental/config"
	"rental/infras/jwt"
	otelMocks "rental/infras/otel/mocks"
	"rental/permissions"
	"rental/shared/constant"
	"rental/transport/http/middleware"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPermissions = `{
	"endpoints": [
		{"path": "/v1/bookings/{id}/approve", "method": "PATCH", "permissions": ["admin"]},
		{"path": "/v1/bookings/mybookings", "method": "GET", "permissions": ["admin", "user"]},
		{"path": "/v1/ping", "method": "GET", "skip": true}
	]
}`

func newAuthRouter(t *testing.T) (http.Handler, jwt.JWT) {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.AccessSecret = "test-secret"
	cfg.App.APIKey = "internal-key"

	data, err := permissions.Parse([]byte(testPermissions))
	require.NoError(t, err)

	otel := otelMocks.NewOtel()
	tokens := jwt.New(cfg, otel)
	authRole := middleware.NewAuthRoleMiddleware(tokens, otel, data, cfg)

	ok := func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value(constant.ContextKeyUserRole).(string)
		w.Header().Set("X-Seen-Role", role)
		w.WriteHeader(http.StatusOK)
	}

	mux := chi.NewRouter()
	mux.Group(func(group chi.Router) {
		group.Use(authRole.APIKey, authRole.Auth, authRole.RBAC)
		group.Get("/v1/ping", ok)
		group.Get("/v1/unlisted", ok)
		group.Route("/v1/bookings", func(bookings chi.Router) {
			bookings.Get("/mybookings", ok)
			bookings.Patch("/{id}/approve", ok)
		})
	})

	return mux, tokens
}

func TestAuthRole(t *testing.T) {
	mux, tokens := newAuthRouter(t)

	sign := func(role string, ttl time.Duration) string {
		token, err := tokens.Sign(jwt.Claims{UserID: "u-1", Email: "u@example.com", Role: role}, ttl)
		require.NoError(t, err)

		return "Bearer " + token
	}

	tests := []struct {
		name     string
		method   string
		path     string
		headers  map[string]string
		wantCode int
		wantRole string
	}{
		{
			name:     "public route needs no token",
			method:   http.MethodGet,
			path:     "/v1/ping",
			wantCode: http.StatusOK,
		},
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/v1/bookings/mybookings",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "malformed header",
			method:   http.MethodGet,
			path:     "/v1/bookings/mybookings",
			headers:  map[string]string{constant.RequestHeaderAuthorization: "Token abc"},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "expired token",
			method:   http.MethodGet,
			path:     "/v1/bookings/mybookings",
			headers:  map[string]string{constant.RequestHeaderAuthorization: sign(constant.RoleUser, -time.Hour)},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "customer on customer route",
			method:   http.MethodGet,
			path:     "/v1/bookings/mybookings",
			headers:  map[string]string{constant.RequestHeaderAuthorization: sign(constant.RoleUser, time.Hour)},
			wantCode: http.StatusOK,
			wantRole: constant.RoleUser,
		},
		{
			name:     "customer on admin route",
			method:   http.MethodPatch,
			path:     "/v1/bookings/b-1/approve",
			headers:  map[string]string{constant.RequestHeaderAuthorization: sign(constant.RoleUser, time.Hour)},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "admin on admin route",
			method:   http.MethodPatch,
			path:     "/v1/bookings/b-1/approve",
			headers:  map[string]string{constant.RequestHeaderAuthorization: sign(constant.RoleAdmin, time.Hour)},
			wantCode: http.StatusOK,
			wantRole: constant.RoleAdmin,
		},
		{
			name:     "route without permission entry",
			method:   http.MethodGet,
			path:     "/v1/unlisted",
			headers:  map[string]string{constant.RequestHeaderAuthorization: sign(constant.RoleAdmin, time.Hour)},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "internal api key bypasses token and role checks",
			method:   http.MethodPatch,
			path:     "/v1/bookings/b-1/approve",
			headers:  map[string]string{constant.RequestHeaderAPIKey: "internal-key"},
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong api key",
			method:   http.MethodPatch,
			path:     "/v1/bookings/b-1/approve",
			headers:  map[string]string{constant.RequestHeaderAPIKey: "guess"},
			wantCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantRole, rec.Header().Get("X-Seen-Role"))
		})
	}
}
