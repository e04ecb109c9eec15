// cmd/web/main.go
//
// Atrium – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load layered config; resolve any `vault:` secret references.
//
//  4. Open the control database, bootstrap the registry schema, and log
//     the registered-tenant count.
//
//  5. Build the tenant-connection cache (lazy-opens each tenant database
//     file on first hit) and the provisioner on top of it.
//
//  6. Optional GeoLite2 init for access-log enrichment.
//
//  7. Assemble the chi router (request-ID → enrich → auth → tenant
//     resolution → handlers) and serve it behind hardened timeouts.
//
//  8. On SIGINT/SIGTERM: drain the HTTP server, close the cache (which
//     closes every tenant pool), then the control pool.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yanizio/atrium/internal/api"
	"github.com/yanizio/atrium/internal/auth"
	"github.com/yanizio/atrium/internal/config"
	"github.com/yanizio/atrium/internal/database"
	"github.com/yanizio/atrium/internal/logger"
	"github.com/yanizio/atrium/internal/provision"
	"github.com/yanizio/atrium/internal/registry"
	"github.com/yanizio/atrium/internal/requestinfo"
	"github.com/yanizio/atrium/internal/server"
	"github.com/yanizio/atrium/internal/tenant"
	"github.com/yanizio/atrium/internal/vault"
)

const serverEnvPath = "/usr/local/etc/atrium/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Config + secrets ────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	jwtSecret := cfg.Auth.JWTSecret
	if vault.IsRef(jwtSecret) {
		cli, err := vault.New(ctx, logOut.Infof)
		if err != nil {
			logOut.Fatalf("vault client: %v", err)
		}
		if jwtSecret, err = cli.Resolve(ctx, jwtSecret); err != nil {
			logOut.Fatalf("resolve jwt secret: %v", err)
		}
	}

	//
	// ── 2.  Control DB connect + registry bootstrap ────────────────────
	//
	controlPath := cfg.ResolvePath(cfg.Database.ControlPath)
	dataDir := cfg.ResolvePath(cfg.Database.DataDir)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logOut.Fatalf("create data dir: %v", err)
	}

	logOut.Infow("opening control DB", "path", controlPath)
	controlDB, err := database.Open(controlPath)
	if err != nil {
		logOut.Fatalf("connect control DB: %v", err)
	}
	defer controlDB.Close()

	if err := registry.Bootstrap(ctx, controlDB); err != nil {
		logOut.Fatalf("bootstrap registry: %v", err)
	}
	reg := registry.NewStore(controlDB)

	// Log registered-tenant count as an early sanity check.
	if recs, err := reg.ListTenants(ctx); err == nil {
		logOut.Infow("control DB online", "tenants", len(recs))
	}

	//
	// ── 3.  Tenant cache + provisioner ─────────────────────────────────
	//
	cache := tenant.New(dataDir, tenant.Options{
		IdleTTL:     cfg.Cache.IdleTTL,
		MaxEntries:  cfg.Cache.MaxEntries,
		LoadTimeout: cfg.Cache.LoadTimeout,
	})
	defer cache.Close()

	prov := provision.New(reg, cache, dataDir)

	//
	// ── 4.  Optional geo enrichment ────────────────────────────────────
	//
	if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
		logOut.Fatalf("open GeoLite2 DB: %v", err)
	}

	//
	// ── 5.  Router + server ────────────────────────────────────────────
	//
	jwtMgr := auth.NewManager(jwtSecret, cfg.Auth.TokenTTL)
	handler := api.New(reg, cache, prov, jwtMgr).Router()

	srv := server.New(cfg.HTTP.ListenAddr, handler)
	go func() {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logOut.Fatalf("http server: %v", err)
		}
	}()

	//
	// ── 6.  Graceful shutdown ──────────────────────────────────────────
	//
	<-ctx.Done()
	logOut.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logOut.Errorw("server shutdown", "err", err)
	}
}
