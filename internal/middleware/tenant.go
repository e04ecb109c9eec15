// internal/middleware/tenant.go
//
// Request tenant resolution.
//
// Context
// -------
// This is the sole place tenant isolation is enforced.  The verified
// claims carry a tenant code; the middleware looks it up in the control
// registry and obtains the connection from the cache, so a handler can
// only ever reach the database of the tenant named in its credential.
// An unknown code fails fast with 404 — there is no fallback to a
// default or shared database.
//
// Handlers read the resolution with ResolvedFromContext.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/atrium/internal/auth"
	"github.com/yanizio/atrium/internal/registry"
	"github.com/yanizio/atrium/internal/tenant"
)

// Resolved pairs the registry row with the live connection for one
// request.  Both are borrowed; handlers must not retain them past the
// request.
type Resolved struct {
	Record *registry.TenantRecord
	Tenant *tenant.Tenant
}

type resolvedKey struct{}

// ResolvedFromContext returns the resolution stored by ResolveTenant, or
// nil if the middleware has not run.
func ResolvedFromContext(ctx context.Context) *Resolved {
	v, _ := ctx.Value(resolvedKey{}).(*Resolved)
	return v
}

// ResolveTenant returns middleware that maps the caller's tenant code to
// a live database handle.  It must run after Authenticate.
func ResolveTenant(reg *registry.Store, cache *tenant.Cache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.FromContext(r.Context())
			if claims == nil {
				unauthorized(w, "missing credential")
				return
			}

			rec, err := reg.FindTenantByCode(r.Context(), claims.CompanyCode)
			if err != nil {
				if errors.Is(err, registry.ErrNotFound) {
					fail(w, http.StatusNotFound, "tenant not found")
					return
				}
				zap.S().Errorw("tenant lookup failed",
					"tenant_code", claims.CompanyCode, "err", err)
				fail(w, http.StatusInternalServerError, "tenant lookup failed")
				return
			}

			ten, err := cache.Get(r.Context(), rec.DatabaseID)
			if err != nil {
				zap.S().Errorw("tenant connection failed",
					"database_id", rec.DatabaseID, "err", err)
				if errors.Is(err, tenant.ErrLoadTimeout) {
					fail(w, http.StatusGatewayTimeout, "tenant connection timed out")
					return
				}
				fail(w, http.StatusInternalServerError, "tenant connection failed")
				return
			}

			ctx := context.WithValue(r.Context(), resolvedKey{},
				&Resolved{Record: rec, Tenant: ten})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func fail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
