package auth

import (
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Guard returns middleware enforcing the access matrix for one module. The
// request's HTTP method selects the CRUD action; on success the
// authenticated user is placed in context for the wrapped handlers.
func (a *Authorizer) Guard(module authz.Module) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := a.Authorize(r.Context(), r, module)
			if !res.OK {
				httpx.Problem(w, res.Status, http.StatusText(res.Status), res.Message)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithUser(r.Context(), res.User)))
		})
	}
}

// RequireUser returns middleware that only authenticates, without a matrix
// check. Routes that are visible to every signed-in profile use this.
func (a *Authorizer) RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := a.Authenticate(r.Context(), r)
			if !res.OK {
				httpx.Problem(w, res.Status, http.StatusText(res.Status), res.Message)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithUser(r.Context(), res.User)))
		})
	}
}
