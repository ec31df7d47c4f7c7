// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"database/sql"

	"github.com/dalemusser/folioadmin/internal/app/backend"
	"github.com/dalemusser/folioadmin/internal/app/system/querycache"
	"github.com/dalemusser/folioadmin/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
// Exactly one of MongoClient and SQL is set, matching AppConfig.Backend.
type DBDeps struct {
	Backend backend.Backend

	MongoClient *mongo.Client
	SQL         *sql.DB

	// Cache is shared by every dashboard query and lives as long as the app.
	Cache  *querycache.Cache
	Pruner *workers.CachePruner
}
