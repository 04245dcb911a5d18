// Package permissions holds the role table for every HTTP route, keyed by chi route pattern.
package permissions

import (
	_ "embed"
	"encoding/json"
	"slices"

	"github.com/rs/zerolog/log"
)

//go:embed permissions.json
var permissionsData []byte

// Permission lists the roles allowed on one route. Skip marks a public route.
type Permission struct {
	Permissions []string `json:"permissions"`
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	Skip        bool     `json:"skip"`
}

// Allows reports whether role may call the route. An empty role list allows any authenticated caller.
func (p Permission) Allows(role string) bool {
	return len(p.Permissions) == 0 || slices.Contains(p.Permissions, role)
}

type PermissionData struct {
	Endpoints []Permission `json:"endpoints"`
	Skip      bool         `json:"skip"`

	index map[string]int
}

func routeKey(method, path string) string {
	return method + " " + path
}

// FindPermissions returns the entry for a route pattern, or the zero Permission when none exists.
func (r *PermissionData) FindPermissions(path, method string) Permission {
	if r.index == nil {
		r.buildIndex()
	}

	idx, ok := r.index[routeKey(method, path)]
	if !ok {
		return Permission{}
	}

	return r.Endpoints[idx]
}

func (r *PermissionData) buildIndex() {
	r.index = make(map[string]int, len(r.Endpoints))

	for i, endpoint := range r.Endpoints {
		key := routeKey(endpoint.Method, endpoint.Path)
		if _, dup := r.index[key]; dup {
			log.Warn().Str("route", key).Msg("Duplicate permission entry, keeping the first")

			continue
		}

		r.index[key] = i
	}
}

// Parse decodes a permission table.
func Parse(raw []byte) (*PermissionData, error) {
	var data PermissionData

	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err //nolint:wrapcheck
	}

	data.buildIndex()

	return &data, nil
}

// Get loads the embedded table. It returns nil when the table cannot be decoded, which makes
// RBAC deny every route.
func Get() *PermissionData {
	data, err := Parse(permissionsData)
	if err != nil {
		log.Err(err).Msg("Failed to decode embedded permissions")

		return nil
	}

	log.Info().Int("endpoints", len(data.Endpoints)).Msg("Successfully loaded embedded permissions")

	return data
}
