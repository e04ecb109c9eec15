// internal/registry/store.go
//
// Query helpers for the shared control database.
//
// Context
// -------
// The control registry backs onto a single SQLite file distinct from any
// tenant database.  `Store` wraps that pool and exposes the operations
// every request path needs:
//
//  1. Which tenant owns code X?                → `FindTenantByCode()`
//  2. Register / mutate / remove a tenant.     → `CreateTenant()` et al.
//  3. Is this bearer credential revoked?       → `IsBlacklisted()`
//  4. Track member IDs per tenant.             → `AppendMember()` et al.
//
// Concurrency
// -----------
// Reads ride on SQLite's own locking.  The one read-modify-write cycle,
// membership updates, is serialised through a per-tenant-key mutex so
// concurrent appends cannot lose entries.  Tenant-code generation redraws
// on collision inside a bounded loop; database-identifier conflicts are
// surfaced as ErrConflict, never retried.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
// • Max line length 100 columns.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Store wraps the control-database pool.  Safe for concurrent use.
type Store struct {
	db *sqlx.DB

	memberMu    sync.Mutex             // guards memberLocks
	memberLocks map[string]*sync.Mutex // per tenant key
}

// NewStore wraps an already-open control pool.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:          db,
		memberLocks: make(map[string]*sync.Mutex),
	}
}

// DB exposes the underlying pool for bootstrap and tests.
func (s *Store) DB() *sqlx.DB { return s.db }

/*──────────────────────────── tenant lookups ───────────────────────────────*/

// FindTenantByCode fetches a single tenant row by its public code.  This
// runs on every authenticated request, so it stays a unique-key lookup.
func (s *Store) FindTenantByCode(ctx context.Context, code string) (*TenantRecord, error) {
	const q = `
        SELECT id, display_name, site_url, tenant_code, database_id,
               restricted, created_at, updated_at
        FROM   tenant
        WHERE  tenant_code = ?
        LIMIT  1`
	var rec TenantRecord
	if err := s.db.GetContext(ctx, &rec, q, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindTenantByID fetches a single tenant row by primary key.
func (s *Store) FindTenantByID(ctx context.Context, id int64) (*TenantRecord, error) {
	const q = `
        SELECT id, display_name, site_url, tenant_code, database_id,
               restricted, created_at, updated_at
        FROM   tenant
        WHERE  id = ?
        LIMIT  1`
	var rec TenantRecord
	if err := s.db.GetContext(ctx, &rec, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ListTenants returns every registered tenant.  Used by admin dashboards,
// not by the per-request path.
func (s *Store) ListTenants(ctx context.Context) ([]TenantRecord, error) {
	const q = `
        SELECT id, display_name, site_url, tenant_code, database_id,
               restricted, created_at, updated_at
        FROM   tenant
        ORDER  BY id`
	var rows []TenantRecord
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

/*──────────────────────────── tenant mutation ──────────────────────────────*/

// CreateInput carries the attributes for a new tenant row.  TenantCode is
// normally empty and generated server-side; a caller-supplied code skips
// generation but is still validated and collision-checked.
type CreateInput struct {
	DisplayName string
	SiteURL     string
	Restricted  bool
	TenantCode  string
}

// CreateTenant allocates a tenant code, derives the database identifier,
// and inserts the row.  Code collisions redraw inside a bounded loop;
// database-identifier conflicts surface as ErrConflict.
func (s *Store) CreateTenant(ctx context.Context, in CreateInput) (*TenantRecord, error) {
	if Sanitize(in.DisplayName) == "" {
		return nil, ErrInvalidInput
	}

	code := in.TenantCode
	if code == "" {
		var err error
		if code, err = s.allocateCode(ctx); err != nil {
			return nil, err
		}
	} else {
		if !ValidCode(code) {
			return nil, ErrInvalidInput
		}
		taken, err := s.codeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrConflict
		}
	}

	dbID := DatabaseID(in.DisplayName, code)

	const q = `
        INSERT INTO tenant
               (display_name, site_url, tenant_code, database_id, restricted,
                created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	res, err := s.db.ExecContext(ctx, q, in.DisplayName, in.SiteURL, code, dbID, in.Restricted)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.FindTenantByID(ctx, id)
}

// UpdateTenant mutates display name, site URL, or the restricted flag.
// The database identifier is intentionally left alone; it must stay
// stable so the connection cache keeps finding the same file.
func (s *Store) UpdateTenant(ctx context.Context, id int64, f UpdateFields) (*TenantRecord, error) {
	rec, err := s.FindTenantByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if f.DisplayName != nil {
		rec.DisplayName = *f.DisplayName
	}
	if f.SiteURL != nil {
		rec.SiteURL = *f.SiteURL
	}
	if f.Restricted != nil {
		rec.Restricted = *f.Restricted
	}

	const q = `
        UPDATE tenant
        SET    display_name = ?, site_url = ?, restricted = ?,
               updated_at = CURRENT_TIMESTAMP
        WHERE  id = ?`
	if _, err := s.db.ExecContext(ctx, q, rec.DisplayName, rec.SiteURL, rec.Restricted, id); err != nil {
		return nil, err
	}
	return s.FindTenantByID(ctx, id)
}

// DeleteTenant removes the registry row only.  The tenant's database file
// and membership row are retained; see DESIGN.md for why this asymmetry
// is preserved.
func (s *Store) DeleteTenant(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tenant WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

/*──────────────────────────── code allocation ──────────────────────────────*/

func (s *Store) allocateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newCode()
		if err != nil {
			return "", err
		}
		taken, err := s.codeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func (s *Store) codeExists(ctx context.Context, code string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM tenant WHERE tenant_code = ?`, code)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

/*──────────────────────────── credential blacklist ─────────────────────────*/

// AddBlacklistedCredential revokes a bearer token process-wide.  Inserting
// the same token twice is a no-op.
func (s *Store) AddBlacklistedCredential(ctx context.Context, token string) error {
	const q = `
        INSERT INTO credential_blacklist (token, revoked_at)
        VALUES (?, CURRENT_TIMESTAMP)
        ON CONFLICT (token) DO NOTHING`
	_, err := s.db.ExecContext(ctx, q, token)
	return err
}

// IsBlacklisted reports whether token has been revoked.  Checked before
// signature verification, so a revoked token fails even when its own
// signature is still valid.
func (s *Store) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM credential_blacklist WHERE token = ?`, token)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

/*──────────────────────────── membership ───────────────────────────────────*/

// CreateMembership inserts the one membership row for a new tenant.
// Tenant keys are display names and display names are not unique, so
// two tenants sharing a name legitimately share a key.
func (s *Store) CreateMembership(ctx context.Context, tenantKey string, memberIDs []string) error {
	const q = `
        INSERT INTO tenant_membership
               (tenant_key, all_member_ids, blacklisted_member_ids,
                created_at, updated_at)
        VALUES (?, ?, NULL, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	_, err := s.db.ExecContext(ctx, q, tenantKey, encodeIDs(memberIDs))
	return err
}

// MembershipByKey fetches the first membership row for one tenant key.
// When two tenants share a display name this picks the older row; see
// the hazard note on TenantMembership.
func (s *Store) MembershipByKey(ctx context.Context, tenantKey string) (*TenantMembership, error) {
	const q = `
        SELECT id, tenant_key, all_member_ids, blacklisted_member_ids,
               created_at, updated_at
        FROM   tenant_membership
        WHERE  tenant_key = ?
        ORDER  BY id
        LIMIT  1`
	var m TenantMembership
	if err := s.db.GetContext(ctx, &m, q, tenantKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// AppendMember adds memberID to the tenant's member list.  The whole
// read-modify-write cycle runs under the tenant's mutex; two concurrent
// appends both land.
func (s *Store) AppendMember(ctx context.Context, tenantKey, memberID string) error {
	mu := s.lockFor(tenantKey)
	mu.Lock()
	defer mu.Unlock()

	m, err := s.MembershipByKey(ctx, tenantKey)
	if err != nil {
		return err
	}

	ids := m.AllMemberIDs()
	for _, id := range ids {
		if id == memberID {
			return nil // already present
		}
	}
	ids = append(ids, memberID)
	return s.writeMemberIDs(ctx, tenantKey, ids)
}

// RemoveMember deletes memberID from the tenant's member list.  Missing
// IDs are a no-op, matching append's idempotence.
func (s *Store) RemoveMember(ctx context.Context, tenantKey, memberID string) error {
	mu := s.lockFor(tenantKey)
	mu.Lock()
	defer mu.Unlock()

	m, err := s.MembershipByKey(ctx, tenantKey)
	if err != nil {
		return err
	}

	ids := m.AllMemberIDs()
	out := ids[:0]
	for _, id := range ids {
		if id != memberID {
			out = append(out, id)
		}
	}
	return s.writeMemberIDs(ctx, tenantKey, out)
}

func (s *Store) writeMemberIDs(ctx context.Context, tenantKey string, ids []string) error {
	const q = `
        UPDATE tenant_membership
        SET    all_member_ids = ?, updated_at = CURRENT_TIMESTAMP
        WHERE  tenant_key = ?`
	_, err := s.db.ExecContext(ctx, q, encodeIDs(ids), tenantKey)
	return err
}

// lockFor returns the mutex guarding one tenant's membership row,
// creating it on first use.
func (s *Store) lockFor(tenantKey string) *sync.Mutex {
	s.memberMu.Lock()
	defer s.memberMu.Unlock()
	mu, ok := s.memberLocks[tenantKey]
	if !ok {
		mu = &sync.Mutex{}
		s.memberLocks[tenantKey] = mu
	}
	return mu
}

/*──────────────────────────── driver error mapping ─────────────────────────*/

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint hit.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
