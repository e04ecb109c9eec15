// internal/middleware/tenant_test.go
//
// Tenant-resolution middleware tests.  These run against a real control
// database and real tenant files in a temp dir, the same path production
// takes.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yanizio/atrium/internal/auth"
	"github.com/yanizio/atrium/internal/registry"
	"github.com/yanizio/atrium/internal/tenant"
)

func newTestCache(t *testing.T) *tenant.Cache {
	t.Helper()
	c := tenant.New(t.TempDir(), tenant.Options{})
	t.Cleanup(c.Close)
	return c
}

func withClaims(r *http.Request, code string) *http.Request {
	claims := &auth.Claims{CompanyCode: code, Username: "admin", Role: "admin"}
	return r.WithContext(auth.NewContext(r.Context(), claims))
}

func TestResolveTenantHappyPath(t *testing.T) {
	reg := newTestRegistry(t)
	cache := newTestCache(t)

	rec, err := reg.CreateTenant(context.Background(), registry.CreateInput{
		DisplayName: "Acme",
		TenantCode:  "0x00ABCDEF",
	})
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}

	var got *Resolved
	h := ResolveTenant(reg, cache)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ResolvedFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := withClaims(httptest.NewRequest(http.MethodGet, "/", nil), "0x00ABCDEF")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if got == nil {
		t.Fatal("no resolution in context")
	}
	if got.Record.TenantCode != "0x00ABCDEF" {
		t.Fatalf("record code = %q", got.Record.TenantCode)
	}
	if got.Tenant.DatabaseID != rec.DatabaseID {
		t.Fatalf("connected to %q, want %q", got.Tenant.DatabaseID, rec.DatabaseID)
	}
}

// An unknown tenant code is a hard 404.  There is no fallback database.
func TestResolveTenantUnknownCode(t *testing.T) {
	reg := newTestRegistry(t)
	cache := newTestCache(t)

	var reached bool
	h := ResolveTenant(reg, cache)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := withClaims(httptest.NewRequest(http.MethodGet, "/", nil), "0xDEADBEEF")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "tenant not found") {
		t.Fatalf("body = %s", rr.Body.String())
	}
	if reached {
		t.Fatal("handler reached for unknown tenant")
	}
	if cache.Len() != 0 {
		t.Fatal("a connection was opened for an unknown tenant")
	}
}

func TestResolveTenantNoClaims(t *testing.T) {
	reg := newTestRegistry(t)
	cache := newTestCache(t)

	h := ResolveTenant(reg, cache)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached without claims")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

// Two requests for the same tenant share one cached connection.
func TestResolveTenantReusesConnection(t *testing.T) {
	reg := newTestRegistry(t)
	cache := newTestCache(t)

	if _, err := reg.CreateTenant(context.Background(), registry.CreateInput{
		DisplayName: "Acme",
		TenantCode:  "0x00ABCDEF",
	}); err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}

	var handles []*tenant.Tenant
	h := ResolveTenant(reg, cache)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handles = append(handles, ResolvedFromContext(r.Context()).Tenant)
	}))

	for i := 0; i < 2; i++ {
		req := withClaims(httptest.NewRequest(http.MethodGet, "/", nil), "0x00ABCDEF")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	if len(handles) != 2 || handles[0] != handles[1] {
		t.Fatal("requests did not share one connection handle")
	}
	if cache.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", cache.Len())
	}
}
