// internal/api/users.go
//
// Tenant-scoped user endpoints.  Every handler reads the resolved tenant
// from the request context; the connection in there is the only database
// the caller's credential can reach.  User creation and deletion also
// maintain the registry-side membership list for the tenant.

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/atrium/internal/auth"
	"github.com/yanizio/atrium/internal/middleware"
	"github.com/yanizio/atrium/internal/schema"
)

// userView omits the password hash from wire output.
type userView struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Role          string    `json:"role"`
	AllowedFields string    `json:"allowed_fields"`
	CreatedAt     time.Time `json:"created_at"`
}

func userViewOf(u *schema.User) userView {
	return userView{
		ID:            u.ID,
		Username:      u.Username,
		Role:          u.Role,
		AllowedFields: u.AllowedFields,
		CreatedAt:     u.CreatedAt,
	}
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolvedFromContext(r.Context())
	users, err := res.Tenant.Schemas.Users.All(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]userView, 0, len(users))
	for i := range users {
		out = append(out, userViewOf(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type createUserRequest struct {
	Username      string `json:"username" validate:"required"`
	Password      string `json:"password" validate:"required,min=8"`
	Role          string `json:"role"     validate:"required,oneof=admin editor"`
	AllowedFields string `json:"allowed_fields"`
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolvedFromContext(r.Context())

	var req createUserRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"username, password (8+ chars), and role are required"})
		return
	}
	if req.AllowedFields == "" {
		req.AllowedFields = schema.AllFieldsAllowed
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}

	user, err := res.Tenant.Schemas.Users.Create(r.Context(),
		req.Username, hash, req.Role, req.AllowedFields)
	if err != nil {
		writeErr(w, err)
		return
	}

	// The membership list must track the users table.  If the append
	// fails the user row is removed again so neither side drifts.
	if err := a.reg.AppendMember(r.Context(), res.Record.DisplayName, user.Username); err != nil {
		zap.S().Errorw("membership append failed",
			"tenant_key", res.Record.DisplayName, "member", user.Username, "err", err)
		if derr := res.Tenant.Schemas.Users.Delete(r.Context(), user.ID); derr != nil {
			zap.S().Errorw("membership compensation failed",
				"tenant_key", res.Record.DisplayName, "member", user.Username, "err", derr)
		}
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userViewOf(user))
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolvedFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{"invalid user id"})
		return
	}

	user, err := res.Tenant.Schemas.Users.ByID(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := res.Tenant.Schemas.Users.Delete(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}

	if err := a.reg.RemoveMember(r.Context(), res.Record.DisplayName, user.Username); err != nil {
		zap.S().Errorw("membership remove failed",
			"tenant_key", res.Record.DisplayName, "member", user.Username, "err", err)
	}

	writeJSON(w, http.StatusNoContent, nil)
}
