// internal/registry/model.go
//
// Row types for the shared control database.
//
// Context
// -------
// The control registry is the one database every request touches before
// any tenant data: it maps a public tenant code to the private database
// identifier, tracks which member IDs belong to a tenant, and holds the
// process-wide credential blacklist.  Nothing tenant-scoped lives here.
//
// Notes
// -----
//   - Member ID lists are stored as JSON arrays in TEXT columns; the
//     accessors below decode them so callers never see raw JSON.
//   - `DatabaseID` is the stable key for a tenant's database file.  It is
//     derived once at creation and never rewritten, even when the display
//     name changes later.
package registry

import (
	"encoding/json"
	"time"
)

// TenantRecord mirrors one row in the `tenant` table.
type TenantRecord struct {
	ID          int64     `db:"id"`
	DisplayName string    `db:"display_name"`
	SiteURL     string    `db:"site_url"`
	TenantCode  string    `db:"tenant_code"`
	DatabaseID  string    `db:"database_id"`
	Restricted  bool      `db:"restricted"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// TenantMembership mirrors one row in the `tenant_membership` table.  One
// row exists per tenant, created during provisioning.
//
// TenantKey currently matches TenantRecord.DisplayName.  Display names
// are not unique, so two tenants can share a key; lookups return the
// older row and key-scoped updates touch every row with that key.  That
// mirrors the behavior this registry replaced; see DESIGN.md before
// "fixing" it to reference the tenant code instead.
type TenantMembership struct {
	ID                 int64     `db:"id"`
	TenantKey          string    `db:"tenant_key"`
	AllMemberIDsJSON   string    `db:"all_member_ids"`
	BlacklistedIDsJSON *string   `db:"blacklisted_member_ids"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// AllMemberIDs decodes the append-only member list.
func (m *TenantMembership) AllMemberIDs() []string {
	return decodeIDs(m.AllMemberIDsJSON)
}

// BlacklistedMemberIDs decodes the per-tenant blacklist; nil when the
// column is NULL.
func (m *TenantMembership) BlacklistedMemberIDs() []string {
	if m.BlacklistedIDsJSON == nil {
		return nil
	}
	return decodeIDs(*m.BlacklistedIDsJSON)
}

// BlacklistedCredential mirrors one row in `credential_blacklist`.  The
// raw bearer value is the key; presence alone revokes the credential.
type BlacklistedCredential struct {
	Token     string    `db:"token"`
	RevokedAt time.Time `db:"revoked_at"`
}

// UpdateFields carries the mutable tenant attributes.  Nil pointers leave
// the column untouched.
type UpdateFields struct {
	DisplayName *string
	SiteURL     *string
	Restricted  *bool
}

func decodeIDs(raw string) []string {
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

func encodeIDs(ids []string) string {
	if ids == nil {
		ids = []string{}
	}
	b, _ := json.Marshal(ids)
	return string(b)
}
