// internal/api/media.go
//
// Tenant-scoped media metadata endpoints.  Rows describe files living
// under the tenant's media directory; byte storage and deletion of the
// files themselves are the upload layer's concern, not this API's.

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/atrium/internal/middleware"
)

type createMediaRequest struct {
	FileName  string `json:"file_name" validate:"required"`
	Path      string `json:"path"      validate:"required"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

func (a *API) listMedia(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolvedFromContext(r.Context())
	assets, err := res.Tenant.Schemas.Media.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (a *API) createMedia(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolvedFromContext(r.Context())

	var req createMediaRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"file_name and path are required"})
		return
	}
	if req.MimeType == "" {
		req.MimeType = "application/octet-stream"
	}

	asset, err := res.Tenant.Schemas.Media.Create(r.Context(),
		req.FileName, req.Path, req.MimeType, req.SizeBytes)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (a *API) deleteMedia(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolvedFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"invalid media id"})
		return
	}
	if err := res.Tenant.Schemas.Media.Delete(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
