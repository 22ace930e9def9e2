package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/auth"
	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/employees"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/payroll"
	"github.com/meridian-erp/meridian-erp/internal/profiles"
	"github.com/meridian-erp/meridian-erp/internal/reports"
	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/settings"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/jobs"
)

const healthTimeout = 2 * time.Second

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	Authorizer       *auth.Authorizer
	AuthHandler      *auth.Handler
	EmployeesHandler *employees.Handler
	SalesHandler     *sales.Handler
	PayrollHandler   *payroll.Handler
	ProfilesHandler  *profiles.Handler
	ReportsHandler   *reports.Handler
	SettingsHandler  *settings.Handler
	JobHandler       *jobs.Handler
	Pool             *pgxpool.Pool
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults. Every module
// route group sits behind the authorizer guard for its module key.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := `{"status":"ok"}`
		if params.Pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := params.Pool.Ping(ctx); err != nil {
				params.Logger.Warn("health check database", slog.Any("error", err))
				status = http.StatusServiceUnavailable
				body = `{"status":"degraded","database":"unreachable"}`
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	guard := params.Authorizer.Guard

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Use(guard(authz.ModuleEmployees))
			params.EmployeesHandler.MountRoutes(r)
		})
		r.Route("/sales", func(r chi.Router) {
			r.Use(guard(authz.ModuleSales))
			params.SalesHandler.MountRoutes(r)
		})
		r.Route("/payroll", func(r chi.Router) {
			r.Use(guard(authz.ModulePayroll))
			params.PayrollHandler.MountRoutes(r)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Use(guard(authz.ModuleReports))
			params.ReportsHandler.MountRoutes(r)
		})
		r.Route("/settings", func(r chi.Router) {
			r.Use(guard(authz.ModuleSettings))
			params.SettingsHandler.MountRoutes(r)
			r.Route("/profiles", params.ProfilesHandler.MountRoutes)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
