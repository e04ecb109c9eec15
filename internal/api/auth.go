// internal/api/auth.go
//
// Credential issuing and revocation.
//
// Login resolves the tenant by its public code, opens (or reuses) the
// tenant connection, and checks the password against the tenant's own
// users table.  Revocation writes the presented bearer value to the
// registry blacklist; from then on the token is dead regardless of its
// signature or expiry.

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/yanizio/atrium/internal/auth"
	"github.com/yanizio/atrium/internal/schema"
)

type loginRequest struct {
	CompanyCode string `json:"company_code" validate:"required"`
	Username    string `json:"username"     validate:"required"`
	Password    string `json:"password"     validate:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"` // seconds
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"company_code, username, and password are required"})
		return
	}

	rec, err := a.reg.FindTenantByCode(r.Context(), req.CompanyCode)
	if err != nil {
		writeErr(w, err)
		return
	}

	ten, err := a.cache.Get(r.Context(), rec.DatabaseID)
	if err != nil {
		writeErr(w, err)
		return
	}

	user, err := ten.Schemas.Users.ByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, schema.ErrUserNotFound) {
			writeJSON(w, http.StatusUnauthorized, errBody{"incorrect username or password"})
			return
		}
		writeErr(w, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeJSON(w, http.StatusUnauthorized, errBody{"incorrect username or password"})
		return
	}

	token, err := a.jwt.Generate(rec.TenantCode, user.Username, user.Role)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresIn: int64(a.jwt.TTL().Seconds()),
	})
}

// revoke blacklists the credential that authenticated this very request.
func (a *API) revoke(w http.ResponseWriter, r *http.Request) {
	h := r.Header.Get("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 {
		writeJSON(w, http.StatusBadRequest, errBody{"missing bearer credential"})
		return
	}
	token := strings.TrimSpace(parts[1])

	if err := a.reg.AddBlacklistedCredential(r.Context(), token); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
