// internal/api/respond.go
//
// JSON envelope helpers and the sentinel-error → status-code mapping.
// The core packages never speak HTTP; whatever they return funnels
// through writeErr so every failure class keeps one canonical shape.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/atrium/internal/registry"
	"github.com/yanizio/atrium/internal/schema"
	"github.com/yanizio/atrium/internal/tenant"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			zap.S().Errorw("response encode failed", "err", err)
		}
	}
}

type errBody struct {
	Error string `json:"error"`
}

// writeErr maps core errors to status codes.  Anything unrecognised is a
// storage-level failure: logged in full, surfaced as a bare 500.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, schema.ErrUserNotFound),
		errors.Is(err, schema.ErrContentNotFound),
		errors.Is(err, schema.ErrMediaNotFound):
		writeJSON(w, http.StatusNotFound, errBody{err.Error()})
	case errors.Is(err, registry.ErrConflict),
		errors.Is(err, schema.ErrUserExists),
		errors.Is(err, schema.ErrSlugTaken):
		writeJSON(w, http.StatusConflict, errBody{err.Error()})
	case errors.Is(err, registry.ErrInvalidInput),
		errors.Is(err, tenant.ErrInvalidDatabaseID):
		writeJSON(w, http.StatusBadRequest, errBody{err.Error()})
	case errors.Is(err, tenant.ErrLoadTimeout):
		writeJSON(w, http.StatusGatewayTimeout, errBody{err.Error()})
	default:
		zap.S().Errorw("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errBody{"internal error"})
	}
}

// decode unmarshals and validates a JSON request body.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return v.Struct(dst)
}
