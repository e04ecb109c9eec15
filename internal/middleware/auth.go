// internal/middleware/auth.go
//
// Bearer-credential verification.
//
// Context
// -------
// Every protected route runs through Authenticate before anything
// tenant-scoped happens.  The order matters: the registry's credential
// blacklist is consulted FIRST, so a revoked token fails authentication
// even while its own signature and expiry are still valid.  Only then is
// the signature verified and the claims attached to the request context.
//
// Notes
// -----
// • A blacklist storage error fails closed (401), never open.
// • Oxford commas, two spaces after periods.
package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/atrium/internal/auth"
	"github.com/yanizio/atrium/internal/registry"
)

// Authenticate returns middleware that verifies the Authorization header
// against the JWT manager and the registry blacklist.
func Authenticate(reg *registry.Store, mgr *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w, "missing credential")
				return
			}

			revoked, err := reg.IsBlacklisted(r.Context(), token)
			if err != nil {
				zap.S().Errorw("blacklist lookup failed", "err", err)
				unauthorized(w, "credential check failed")
				return
			}
			if revoked {
				unauthorized(w, "credential revoked")
				return
			}

			claims, err := mgr.Verify(token)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}

			ctx := auth.NewContext(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the raw credential from "Authorization: Bearer x".
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
