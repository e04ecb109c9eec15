// internal/provision/provision_test.go
//
// Provisioning tests against a real control database and tenant files in
// a temp dir.  These exercise the full path: registry insert, database
// file creation, schema application, admin seeding, and membership.

package provision

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/yanizio/atrium/internal/auth"
	"github.com/yanizio/atrium/internal/database"
	"github.com/yanizio/atrium/internal/registry"
	"github.com/yanizio/atrium/internal/schema"
	"github.com/yanizio/atrium/internal/tenant"
)

func newTestProvisioner(t *testing.T) (*Provisioner, *registry.Store, *tenant.Cache, string) {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Open(filepath.Join(dir, "control.db"))
	if err != nil {
		t.Fatalf("open control db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := registry.Bootstrap(context.Background(), db); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	reg := registry.NewStore(db)
	dataDir := filepath.Join(dir, "tenants")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cache := tenant.New(dataDir, tenant.Options{})
	t.Cleanup(cache.Close)

	return New(reg, cache, dataDir), reg, cache, dataDir
}

func TestProvisionCompleteness(t *testing.T) {
	p, reg, cache, dataDir := newTestProvisioner(t)
	ctx := context.Background()

	res, err := p.Provision(ctx, Input{
		DisplayName: "Acme Corp!",
		SiteURL:     "https://acme.test",
	})
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	rec := res.Record
	if !registry.ValidCode(rec.TenantCode) {
		t.Fatalf("tenant code %q is malformed", rec.TenantCode)
	}
	if want := "AcmeCorp_" + rec.TenantCode; rec.DatabaseID != want {
		t.Fatalf("database_id = %q, want %q", rec.DatabaseID, want)
	}

	// The database file exists and holds exactly one admin user whose
	// stored hash verifies against the one-time password.
	if !database.Exists(filepath.Join(dataDir, rec.DatabaseID+".db")) {
		t.Fatal("tenant database file missing")
	}
	ten, err := cache.Get(ctx, rec.DatabaseID)
	if err != nil {
		t.Fatalf("cache get: %v", err)
	}
	users, err := ten.Schemas.Users.All(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("user count = %d, want 1", len(users))
	}
	u := users[0]
	if u.Username != DefaultAdminUsername || u.Role != schema.RoleAdmin {
		t.Fatalf("seeded user = %s/%s, want %s/%s",
			u.Username, u.Role, DefaultAdminUsername, schema.RoleAdmin)
	}
	if u.AllowedFields != schema.AllFieldsAllowed {
		t.Fatalf("allowed_fields = %q", u.AllowedFields)
	}
	if !auth.CheckPassword(u.PasswordHash, res.AdminPassword) {
		t.Fatal("one-time password does not verify against stored hash")
	}

	// Exactly one registry row and one membership row listing the admin.
	if _, err := reg.FindTenantByCode(ctx, rec.TenantCode); err != nil {
		t.Fatalf("registry lookup: %v", err)
	}
	m, err := reg.MembershipByKey(ctx, rec.DisplayName)
	if err != nil {
		t.Fatalf("membership lookup: %v", err)
	}
	ids := m.AllMemberIDs()
	if len(ids) != 1 || ids[0] != DefaultAdminUsername {
		t.Fatalf("membership = %v, want [%s]", ids, DefaultAdminUsername)
	}
}

// Display names are not unique; only the code and the database
// identifier are.  Two tenants named alike must both provision.
func TestProvisionDuplicateDisplayName(t *testing.T) {
	p, reg, _, dataDir := newTestProvisioner(t)
	ctx := context.Background()

	first, err := p.Provision(ctx, Input{DisplayName: "Acme"})
	if err != nil {
		t.Fatalf("first provision: %v", err)
	}
	second, err := p.Provision(ctx, Input{DisplayName: "Acme"})
	if err != nil {
		t.Fatalf("second provision with shared name: %v", err)
	}

	if first.Record.TenantCode == second.Record.TenantCode {
		t.Fatal("both tenants drew the same code")
	}
	if first.Record.DatabaseID == second.Record.DatabaseID {
		t.Fatal("both tenants derived the same database identifier")
	}
	for _, rec := range []*registry.TenantRecord{first.Record, second.Record} {
		if !database.Exists(filepath.Join(dataDir, rec.DatabaseID+".db")) {
			t.Fatalf("database file missing for %s", rec.DatabaseID)
		}
	}

	var rows, members int
	if err := reg.DB().Get(&rows, `SELECT COUNT(*) FROM tenant WHERE display_name = 'Acme'`); err != nil {
		t.Fatalf("count tenants: %v", err)
	}
	if rows != 2 {
		t.Fatalf("tenant rows = %d, want 2", rows)
	}
	if err := reg.DB().Get(&members, `SELECT COUNT(*) FROM tenant_membership WHERE tenant_key = 'Acme'`); err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	if members != 2 {
		t.Fatalf("membership rows = %d, want 2", members)
	}
}

func TestProvisionInvalidDisplayName(t *testing.T) {
	p, _, _, _ := newTestProvisioner(t)

	_, err := p.Provision(context.Background(), Input{DisplayName: "!!! ***"})
	if err != registry.ErrInvalidInput {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

// Two callers racing to provision the same identity must resolve to
// exactly one committed tenant; the loser gets Conflict whichever side
// of the insert the race lands on.
func TestProvisionConcurrentSameIdentity(t *testing.T) {
	p, reg, _, dataDir := newTestProvisioner(t)
	ctx := context.Background()

	const code = "0x00ABCDEF"
	in := Input{DisplayName: "Acme", TenantCode: code}

	start := make(chan struct{})
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err := p.Provision(ctx, in)
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var ok, conflict int
	for err := range errs {
		switch err {
		case nil:
			ok++
		case registry.ErrConflict:
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflict != 1 {
		t.Fatalf("successes = %d, conflicts = %d, want 1 and 1", ok, conflict)
	}

	rows, err := reg.ListTenants(ctx)
	if err != nil {
		t.Fatalf("list tenants: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("tenant rows = %d after race, want 1", len(rows))
	}
	if !database.Exists(filepath.Join(dataDir, rows[0].DatabaseID+".db")) {
		t.Fatal("winner's database file missing")
	}
}

func TestProvisionDuplicateCodeRollsBack(t *testing.T) {
	p, reg, _, _ := newTestProvisioner(t)
	ctx := context.Background()

	const code = "0x00ABCDEF"
	if _, err := p.Provision(ctx, Input{DisplayName: "Acme", TenantCode: code}); err != nil {
		t.Fatalf("first provision: %v", err)
	}
	if _, err := p.Provision(ctx, Input{DisplayName: "Other", TenantCode: code}); err != registry.ErrConflict {
		t.Fatalf("second provision err = %v, want ErrConflict", err)
	}

	// The failed attempt must not leave a second registry row behind.
	rows, err := reg.ListTenants(ctx)
	if err != nil {
		t.Fatalf("list tenants: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("tenant rows = %d after failed provision, want 1", len(rows))
	}
}

func TestProvisionPreexistingFileConflict(t *testing.T) {
	p, reg, _, dataDir := newTestProvisioner(t)
	ctx := context.Background()

	// Plant a file where the derived identifier will land.
	const code = "0x00000042"
	stale := filepath.Join(dataDir, "Acme_"+code+".db")
	if err := os.WriteFile(stale, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := p.Provision(ctx, Input{DisplayName: "Acme", TenantCode: code})
	if err != registry.ErrConflict {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	// Rollback removed the registry row but left the pre-existing file.
	rows, err := reg.ListTenants(ctx)
	if err != nil {
		t.Fatalf("list tenants: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("tenant rows = %d after conflict, want 0", len(rows))
	}
	if !database.Exists(stale) {
		t.Fatal("pre-existing file was removed during rollback")
	}
}
