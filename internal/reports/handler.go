package reports

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for the reports module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/overview", h.overview)
	r.Get("/modules", h.modules)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.Error("reports overview", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not build overview")
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

// modules returns the modules the caller's role can see, for navigation.
func (h *Handler) modules(w http.ResponseWriter, r *http.Request) {
	user := shared.UserFromContext(r.Context())
	if user == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	modules := authz.AccessibleModules(user.Role)
	items := make([]map[string]string, 0, len(modules))
	for _, module := range modules {
		items = append(items, map[string]string{
			"module": string(module),
			"access": authz.ModuleAccess(user.Role, module).String(),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": string(user.Role), "items": items})
}
