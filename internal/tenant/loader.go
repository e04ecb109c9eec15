// internal/tenant/loader.go
//
// Turns a database identifier into a live *Tenant.

package tenant

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/atrium/internal/database"
	"github.com/yanizio/atrium/internal/schema"
)

// loadTenant opens <dataDir>/<databaseID>.db.  Steps:
//
//  1. Stat the file to learn whether this is a first open.
//  2. Open a small pool (opening creates the file when absent).
//  3. First open: apply the full relation-schema set.
//  4. Bind the repository set to the pool, once.
//
// A failed first open removes the partial file so the next attempt starts
// from a clean slate instead of finding a file with half a schema.
func loadTenant(ctx context.Context, dataDir, databaseID string) (*Tenant, error) {
	path := filepath.Join(dataDir, databaseID+".db")
	fresh := !database.Exists(path)

	db, err := database.OpenWithOptions(ctx, path, database.Options{
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		if fresh {
			os.Remove(path)
		}
		return nil, err
	}

	if fresh {
		if err := schema.Apply(ctx, db); err != nil {
			db.Close()
			os.Remove(path)
			return nil, err
		}
		zap.S().Infow("tenant database created",
			"database_id", databaseID, "path", path)
	}

	return &Tenant{
		DatabaseID: databaseID,
		Path:       path,
		DB:         db,
		Schemas:    schema.Bind(db),
		CreatedAt:  time.Now(),
	}, nil
}
