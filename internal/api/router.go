// internal/api/router.go
//
// REST surface of the admin-panel backend.
//
// Route map
// ---------
//
//	GET  /healthz                    liveness + cache occupancy
//	GET  /metrics                    Prometheus collectors
//	POST /api/auth/login             issue a bearer credential
//	POST /api/tenants                provision a tenant end to end
//	GET  /api/tenants                list registered tenants
//	GET  /api/tenants/{code}         tenant lookup by public code
//	PATCH  /api/tenants/{id}         mutate display name, site URL, restricted
//	DELETE /api/tenants/{id}         deregister (registry row only)
//
// Everything under the authenticated group additionally runs through
// ResolveTenant, so those handlers receive the caller's own database
// handle and nothing else:
//
//	POST /api/auth/revoke            blacklist the presented credential
//	GET/POST        /api/users       tenant-scoped user CRUD
//	DELETE          /api/users/{id}
//	GET/POST        /api/content     tenant-scoped content CRUD
//	GET/PUT/DELETE  /api/content/{id}
//	GET/POST        /api/media       tenant-scoped media metadata
//	DELETE          /api/media/{id}
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/atrium/internal/auth"
	"github.com/yanizio/atrium/internal/middleware"
	"github.com/yanizio/atrium/internal/provision"
	"github.com/yanizio/atrium/internal/registry"
	"github.com/yanizio/atrium/internal/requestinfo"
	"github.com/yanizio/atrium/internal/tenant"
)

// request-body validator (package-level singleton, same pattern as the
// config validator)
var v = validator.New()

// API aggregates the collaborators every handler needs.
type API struct {
	reg   *registry.Store
	cache *tenant.Cache
	prov  *provision.Provisioner
	jwt   *auth.Manager
}

// New wires the handler set.
func New(reg *registry.Store, cache *tenant.Cache, prov *provision.Provisioner, jwt *auth.Manager) *API {
	return &API{reg: reg, cache: cache, prov: prov, jwt: jwt}
}

// Router assembles the chi tree with the middleware chain.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestinfo.Enrich)

	r.Get("/healthz", a.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", a.login)

		r.Route("/tenants", func(r chi.Router) {
			r.Post("/", a.provisionTenant)
			r.Get("/", a.listTenants)
			r.Get("/{code}", a.tenantByCode)
			r.Patch("/{id}", a.updateTenant)
			r.Delete("/{id}", a.deleteTenant)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(a.reg, a.jwt))
			r.Post("/auth/revoke", a.revoke)

			r.Group(func(r chi.Router) {
				r.Use(middleware.ResolveTenant(a.reg, a.cache))

				r.Route("/users", func(r chi.Router) {
					r.Get("/", a.listUsers)
					r.Post("/", a.createUser)
					r.Delete("/{id}", a.deleteUser)
				})
				r.Route("/content", func(r chi.Router) {
					r.Get("/", a.listContent)
					r.Post("/", a.createContent)
					r.Get("/{id}", a.contentByID)
					r.Put("/{id}", a.updateContent)
					r.Delete("/{id}", a.deleteContent)
				})
				r.Route("/media", func(r chi.Router) {
					r.Get("/", a.listMedia)
					r.Post("/", a.createMedia)
					r.Delete("/{id}", a.deleteMedia)
				})
			})
		})
	})

	return r
}

// health reports liveness plus how many tenant connections are cached.
func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"active_tenants": a.cache.Len(),
	})
}
