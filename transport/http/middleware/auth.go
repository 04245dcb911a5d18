package middleware

import (
	"context"
	"errors"
	"net/http"
	"rental/config"
	"rental/infras/jwt"
	"rental/infras/otel"
	"rental/permissions"
	"rental/shared/constant"
	"rental/shared/failure"
	"rental/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type internalCallKey struct{}

type Auth interface {
	Auth(http.Handler) http.Handler
	APIKey(http.Handler) http.Handler
}

type Role interface {
	RBAC(http.Handler) http.Handler
}

type AuthRole interface {
	Auth
	Role
}

type authRoleImpl struct {
	jwtService jwt.JWT
	otel       otel.Otel
	permission *permissions.PermissionData
	cfg        *config.Config
}

func NewAuthRoleMiddleware(jwtService jwt.JWT, otel otel.Otel, permissions *permissions.PermissionData, cfg *config.Config) AuthRole {
	return &authRoleImpl{
		jwtService: jwtService,
		otel:       otel,
		permission: permissions,
		cfg:        cfg,
	}
}

var tokenErrorMessages = []struct {
	err     error
	message string
}{
	{err: jwt.ErrExpiredToken, message: "Token has expired"},
	{err: jwt.ErrInvalidToken, message: "Invalid token"},
	{err: jwt.ErrInvalidClaim, message: "Invalid token claims"},
}

// APIKey marks requests carrying the internal API key so Auth and RBAC let them through.
// A wrong key is rejected outright.
func (m *authRoleImpl) APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, scope := m.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, "api_key.middleware")
		defer scope.End()

		apiKey := r.Header.Get(constant.RequestHeaderAPIKey)
		if apiKey == constant.Empty {
			scope.SetAttribute("http.source", "client")
			next.ServeHTTP(w, r)

			return
		}

		scope.SetAttribute("http.source", "internal")

		if m.cfg.App.APIKey == constant.Empty || apiKey != m.cfg.App.APIKey {
			deny(w, scope, failure.ForbiddenError)

			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), internalCallKey{}, true)))
	})
}

// Auth validates the bearer access token and puts the caller's identity on the context.
func (m *authRoleImpl) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, scope := m.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, "auth.middleware")
		defer scope.End()

		pattern := routePattern(r)

		scope.SetAttributes(map[string]any{
			"middleware.type": "auth",
			"http.route":      pattern,
			"http.method":     r.Method,
		})

		if isInternalCall(r) || (m.permission != nil && m.permission.FindPermissions(pattern, r.Method).Skip) {
			next.ServeHTTP(w, r)

			return
		}

		authHeader := r.Header.Get(constant.RequestHeaderAuthorization)
		if authHeader == constant.Empty {
			deny(w, scope, failure.Unauthorized("Missing authorization header"))

			return
		}

		tokenString, err := jwt.ExtractTokenFromHeader(authHeader)
		if err != nil {
			deny(w, scope, failure.Unauthorized("Invalid authorization header format"))

			return
		}

		claims, err := m.jwtService.ValidateToken(ctx, tokenString, jwt.AccessToken)
		if err != nil {
			deny(w, scope, failure.Unauthorized(tokenErrorMessage(err)))

			return
		}

		if claims.UserID == constant.Empty || claims.Role == constant.Empty {
			log.Error().Str("tokenID", claims.TokenID).Msg("JWT claims: user id or role is empty")
			deny(w, scope, failure.Unauthorized("Invalid token claims"))

			return
		}

		identity := r.Context()
		identity = context.WithValue(identity, constant.ContextKeyUserID, claims.UserID)
		identity = context.WithValue(identity, constant.ContextKeyUserEmail, claims.Email)
		identity = context.WithValue(identity, constant.ContextKeyUserRole, claims.Role)
		identity = context.WithValue(identity, constant.ContextKeyTokenID, claims.TokenID)

		next.ServeHTTP(w, r.WithContext(identity))
	})
}

// RBAC checks the caller's role against the route's permission entry. Routes without an entry
// are denied.
func (m *authRoleImpl) RBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, scope := m.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, "rbac.middleware")
		defer scope.End()

		if isInternalCall(r) {
			next.ServeHTTP(w, r)

			return
		}

		if m.permission == nil {
			deny(w, scope, failure.ForbiddenError)

			return
		}

		if m.permission.Skip {
			next.ServeHTTP(w, r)

			return
		}

		pattern := routePattern(r)
		permission := m.permission.FindPermissions(pattern, r.Method)

		if permission.Skip {
			next.ServeHTTP(w, r)

			return
		}

		role, _ := r.Context().Value(constant.ContextKeyUserRole).(string)

		if permission.Path == constant.Empty || !permission.Allows(role) {
			scope.SetAttributes(map[string]any{
				"user_role":     role,
				"allowed_roles": permission.Permissions,
				"http.route":    pattern,
			})
			deny(w, scope, failure.ForbiddenError)

			return
		}

		next.ServeHTTP(w, r)
	})
}

// routePattern resolves the chi pattern for the request before the router has matched it,
// e.g. /v1/bookings/{id}/approve.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return r.URL.Path
	}

	return rctx.Routes.Find(chi.NewRouteContext(), r.Method, r.URL.Path)
}

func isInternalCall(r *http.Request) bool {
	internal, _ := r.Context().Value(internalCallKey{}).(bool)

	return internal
}

func tokenErrorMessage(err error) string {
	for _, candidate := range tokenErrorMessages {
		if errors.Is(err, candidate.err) {
			return candidate.message
		}
	}

	return "Token validation failed"
}

func deny(w http.ResponseWriter, scope otel.Scope, err error) {
	scope.TraceError(err)
	response.WithError(w, err)
}
