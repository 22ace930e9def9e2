package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler exposes read-only access-control introspection. The matrix is
// compiled in; these endpoints only describe it.
type Handler struct{}

// NewHandler builds Handler instance.
func NewHandler() *Handler {
	return &Handler{}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/roles", h.listRoles)
	r.Get("/matrix", h.matrix)
	r.Get("/matrix/{role}", h.roleMatrix)
}

type moduleGrant struct {
	Module  string   `json:"module"`
	Access  string   `json:"access"`
	Actions []string `json:"actions"`
}

func (h *Handler) listRoles(w http.ResponseWriter, _ *http.Request) {
	roles := authz.Roles()
	items := make([]string, 0, len(roles))
	for _, role := range roles {
		items = append(items, string(role))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) matrix(w http.ResponseWriter, _ *http.Request) {
	result := make(map[string][]moduleGrant, len(authz.Roles()))
	for _, role := range authz.Roles() {
		result[string(role)] = grantsFor(role)
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) roleMatrix(w http.ResponseWriter, r *http.Request) {
	role := authz.Role(chi.URLParam(r, "role"))
	if !role.Valid() {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown role")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"role":  string(role),
		"items": grantsFor(role),
	})
}

func grantsFor(role authz.Role) []moduleGrant {
	grants := make([]moduleGrant, 0, len(authz.Modules()))
	for _, module := range authz.Modules() {
		var actions []string
		for _, action := range authz.Actions() {
			if authz.HasPermission(role, module, action) {
				actions = append(actions, string(action))
			}
		}
		grants = append(grants, moduleGrant{
			Module:  string(module),
			Access:  authz.ModuleAccess(role, module).String(),
			Actions: actions,
		})
	}
	return grants
}
