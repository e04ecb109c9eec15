// internal/api/content.go
//
// Tenant-scoped content-master endpoints.  Pass-through CRUD over the
// bound repository; the interesting isolation work already happened in
// the resolver middleware.

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/atrium/internal/middleware"
)

type createContentRequest struct {
	Title string `json:"title" validate:"required"`
	Slug  string `json:"slug"  validate:"required"`
	Body  string `json:"body"`
}

type updateContentRequest struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body"`
}

func (a *API) listContent(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolvedFromContext(r.Context())
	items, err := res.Tenant.Schemas.Content.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) createContent(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolvedFromContext(r.Context())

	var req createContentRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"title and slug are required"})
		return
	}

	item, err := res.Tenant.Schemas.Content.Create(r.Context(), req.Title, req.Slug, req.Body)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) contentByID(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolvedFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"invalid content id"})
		return
	}
	item, err := res.Tenant.Schemas.Content.ByID(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) updateContent(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolvedFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"invalid content id"})
		return
	}

	var req updateContentRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"title is required"})
		return
	}

	item, err := res.Tenant.Schemas.Content.Update(r.Context(), id, req.Title, req.Body)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) deleteContent(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolvedFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"invalid content id"})
		return
	}
	if err := res.Tenant.Schemas.Content.Delete(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
