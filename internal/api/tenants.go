// internal/api/tenants.go
//
// Tenant directory endpoints: provisioning, lookup, mutation, and
// deregistration.  Provisioning is the only write path that touches a
// tenant database; everything else is control-registry bookkeeping.

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/atrium/internal/provision"
	"github.com/yanizio/atrium/internal/registry"
)

// tenantView is the wire shape of one TenantRecord.
type tenantView struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	SiteURL     string    `json:"site_url"`
	TenantCode  string    `json:"tenant_code"`
	DatabaseID  string    `json:"database_id"`
	Restricted  bool      `json:"restricted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func viewOf(rec *registry.TenantRecord) tenantView {
	return tenantView{
		ID:          rec.ID,
		DisplayName: rec.DisplayName,
		SiteURL:     rec.SiteURL,
		TenantCode:  rec.TenantCode,
		DatabaseID:  rec.DatabaseID,
		Restricted:  rec.Restricted,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

type provisionRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
	SiteURL     string `json:"site_url"`
	Restricted  bool   `json:"restricted"`
	TenantCode  string `json:"tenant_code"` // optional, normally generated
}

type provisionResponse struct {
	Tenant        tenantView `json:"tenant"`
	AdminUsername string     `json:"admin_username"`
	AdminPassword string     `json:"admin_password"` // shown exactly once
}

func (a *API) provisionTenant(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"display_name is required"})
		return
	}

	res, err := a.prov.Provision(r.Context(), provision.Input{
		DisplayName: req.DisplayName,
		SiteURL:     req.SiteURL,
		Restricted:  req.Restricted,
		TenantCode:  req.TenantCode,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, provisionResponse{
		Tenant:        viewOf(res.Record),
		AdminUsername: res.AdminUsername,
		AdminPassword: res.AdminPassword,
	})
}

// tenantByCode is the externally observable read path wrapping the
// registry lookup, consumed by provisioning UIs.
func (a *API) tenantByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	rec, err := a.reg.FindTenantByCode(r.Context(), code)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(rec))
}

func (a *API) listTenants(w http.ResponseWriter, r *http.Request) {
	recs, err := a.reg.ListTenants(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]tenantView, 0, len(recs))
	for i := range recs {
		out = append(out, viewOf(&recs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type updateTenantRequest struct {
	DisplayName *string `json:"display_name"`
	SiteURL     *string `json:"site_url"`
	Restricted  *bool   `json:"restricted"`
}

func (a *API) updateTenant(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"invalid tenant id"})
		return
	}

	var req updateTenantRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"malformed request body"})
		return
	}

	rec, err := a.reg.UpdateTenant(r.Context(), id, registry.UpdateFields{
		DisplayName: req.DisplayName,
		SiteURL:     req.SiteURL,
		Restricted:  req.Restricted,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(rec))
}

// deleteTenant removes the registry row only; the tenant's database file
// stays on disk.
func (a *API) deleteTenant(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"invalid tenant id"})
		return
	}
	if err := a.reg.DeleteTenant(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
