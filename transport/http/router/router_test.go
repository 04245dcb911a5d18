package router_test

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental/permissions"
	"rental/shared/constant"
	"rental/transport/http/router"
)

func TestSetupRoutes_EveryRouteHasPermissions(t *testing.T) {
	mux := chi.NewRouter()

	r := router.New(router.DomainHandlers{})
	r.SetupRoutes(mux)

	data := permissions.Get()
	require.NotNil(t, data)

	routes := 0

	err := chi.Walk(mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes++

		permission := data.FindPermissions(route, method)
		assert.NotEmpty(t, permission.Permissions, "%s %s has no permission entry", method, route)
		assert.Contains(t, permission.Permissions, constant.RoleAdmin, "%s %s", method, route)

		return nil
	})

	require.NoError(t, err)
	assert.Len(t, data.Endpoints, routes)
}

func TestPermissions_CustomerRoutes(t *testing.T) {
	data := permissions.Get()
	require.NotNil(t, data)

	allowed := []struct{ method, path string }{
		{http.MethodPost, "/v1/bookings/"},
		{http.MethodGet, "/v1/bookings/mybookings"},
		{http.MethodPost, "/v1/payments/{id}/proof"},
		{http.MethodGet, "/v1/availability/"},
	}

	for _, route := range allowed {
		assert.Contains(t, data.FindPermissions(route.path, route.method).Permissions, constant.RoleUser, "%s %s", route.method, route.path)
	}

	assert.NotContains(t, data.FindPermissions("/v1/bookings/{id}/approve", http.MethodPatch).Permissions, constant.RoleUser)
	assert.NotContains(t, data.FindPermissions("/v1/blocks/", http.MethodPost).Permissions, constant.RoleUser)
}
