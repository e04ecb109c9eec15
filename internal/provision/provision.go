// internal/provision/provision.go
//
// End-to-end tenant provisioning.
//
// Context
// -------
// One orchestrated operation registers a new tenant: allocate the code
// and database identifier in the control registry, create the tenant's
// database file with the full relation-schema set, seed the default
// administrative user, and record the membership row.  Any step failing
// after the registry insert triggers compensating cleanup, so a failed
// provision never leaves an orphaned TenantRecord without a usable
// admin, a half-initialised database file, or a poisoned cache entry.
//
// The one-time admin password is returned exactly once in the Result;
// only its bcrypt hash is persisted.
package provision

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yanizio/atrium/internal/auth"
	"github.com/yanizio/atrium/internal/database"
	"github.com/yanizio/atrium/internal/metrics"
	"github.com/yanizio/atrium/internal/registry"
	"github.com/yanizio/atrium/internal/schema"
	"github.com/yanizio/atrium/internal/tenant"
)

// DefaultAdminUsername is the seeded administrative account name.
const DefaultAdminUsername = "admin"

// Input carries the caller-supplied tenant attributes.
type Input struct {
	DisplayName string
	SiteURL     string
	Restricted  bool
	TenantCode  string // optional; generated when empty
}

// Result reports one successful provision.
type Result struct {
	Record        *registry.TenantRecord
	AdminUsername string
	AdminPassword string // one-time plaintext, never persisted
}

// Provisioner orchestrates tenant creation.
type Provisioner struct {
	reg     *registry.Store
	cache   *tenant.Cache
	dataDir string
}

// New wires a Provisioner over the registry, the connection cache, and
// the tenant data directory.
func New(reg *registry.Store, cache *tenant.Cache, dataDir string) *Provisioner {
	return &Provisioner{reg: reg, cache: cache, dataDir: dataDir}
}

// Provision registers a tenant end to end.  See the package comment for
// the step list and rollback semantics.
func (p *Provisioner) Provision(ctx context.Context, in Input) (*Result, error) {
	if registry.Sanitize(in.DisplayName) == "" {
		return nil, registry.ErrInvalidInput
	}

	rec, err := p.reg.CreateTenant(ctx, registry.CreateInput{
		DisplayName: in.DisplayName,
		SiteURL:     in.SiteURL,
		Restricted:  in.Restricted,
		TenantCode:  in.TenantCode,
	})
	if err != nil {
		metrics.TenantProvisionErrorsTotal.Inc()
		return nil, err
	}

	// Guard against accidental double-provisioning: the derived path must
	// be new.  A leftover file means a previous tenant with this exact
	// identifier, so surface Conflict rather than silently adopting it.
	path := filepath.Join(p.dataDir, rec.DatabaseID+".db")
	if database.Exists(path) {
		p.rollback(ctx, rec, false)
		return nil, registry.ErrConflict
	}

	ten, err := p.cache.Get(ctx, rec.DatabaseID)
	if err != nil {
		p.rollback(ctx, rec, false)
		return nil, err
	}

	password := auth.GeneratePassword()
	hash, err := auth.HashPassword(password)
	if err != nil {
		p.rollback(ctx, rec, true)
		return nil, err
	}
	if _, err := ten.Schemas.Users.Create(ctx,
		DefaultAdminUsername, hash, schema.RoleAdmin, schema.AllFieldsAllowed); err != nil {
		p.rollback(ctx, rec, true)
		return nil, err
	}

	if err := p.reg.CreateMembership(ctx, rec.DisplayName,
		[]string{DefaultAdminUsername}); err != nil {
		p.rollback(ctx, rec, true)
		return nil, err
	}

	metrics.TenantProvisionTotal.Inc()
	zap.S().Infow("tenant provisioned",
		"tenant_code", rec.TenantCode,
		"database_id", rec.DatabaseID,
	)
	return &Result{
		Record:        rec,
		AdminUsername: DefaultAdminUsername,
		AdminPassword: password,
	}, nil
}

// rollback undoes a partial provision.  removeFile is true once the
// database file was created by this very call; pre-existing files are
// never touched.
func (p *Provisioner) rollback(ctx context.Context, rec *registry.TenantRecord, removeFile bool) {
	metrics.TenantProvisionErrorsTotal.Inc()

	if removeFile {
		p.cache.Evict(rec.DatabaseID)
		path := filepath.Join(p.dataDir, rec.DatabaseID+".db")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			zap.S().Errorw("provision rollback: remove tenant file",
				"database_id", rec.DatabaseID, "err", err)
		}
	}

	if err := p.reg.DeleteTenant(ctx, rec.ID); err != nil {
		zap.S().Errorw("provision rollback: delete tenant record",
			"tenant_code", rec.TenantCode, "err", err)
	}
}
