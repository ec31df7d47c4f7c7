// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/folioadmin/internal/app/backend/mongobackend"
	"github.com/dalemusser/folioadmin/internal/app/backend/pgbackend"
	"github.com/dalemusser/folioadmin/internal/app/store/audit"
	"github.com/dalemusser/folioadmin/internal/app/system/querycache"
	"github.com/dalemusser/folioadmin/internal/app/system/timeouts"
	"github.com/dalemusser/folioadmin/internal/app/system/workers"
	"github.com/dalemusser/folioadmin/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB opens the configured backend and creates the query cache that
// sits in front of it.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	cctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	var deps DBDeps
	switch appCfg.Backend {
	case BackendPostgres:
		db, be, err := pgbackend.Connect(cctx, appCfg.PostgresDSN, logger)
		if err != nil {
			logger.Error("postgres connect failed", zap.Error(err))
			return DBDeps{}, err
		}
		deps.SQL = db
		deps.Backend = be
	default:
		client, be, err := mongobackend.Connect(cctx, mongobackend.Options{
			URI:         appCfg.MongoURI,
			Database:    appCfg.MongoDatabase,
			MaxPoolSize: appCfg.MongoMaxPoolSize,
			MinPoolSize: appCfg.MongoMinPoolSize,
		}, logger)
		if err != nil {
			logger.Error("mongo connect failed", zap.Error(err))
			return DBDeps{}, err
		}
		deps.MongoClient = client
		deps.Backend = be
	}

	deps.Cache = querycache.New(logger.Named("querycache"))
	deps.Pruner = workers.NewCachePruner(deps.Cache, logger, appCfg.CachePruneInterval, appCfg.CachePruneMaxAge)
	return deps, nil
}

// EnsureSchema runs Postgres migrations or creates the Mongo indexes the
// dashboard queries rely on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	switch {
	case deps.SQL != nil:
		if err := pgbackend.Migrate(deps.SQL); err != nil {
			logger.Error("postgres migration failed", zap.Error(err))
			return err
		}
		v, err := pgbackend.Version(deps.SQL)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		logger.Info("postgres schema ready", zap.Int64("version", v))
	default:
		be, ok := deps.Backend.(*mongobackend.Backend)
		if !ok {
			return nil
		}
		sctx, cancel := context.WithTimeout(ctx, timeouts.Long())
		defer cancel()
		if err := be.EnsureIndexes(sctx, schemaTables()); err != nil {
			logger.Error("mongo index setup failed", zap.Error(err))
			return err
		}
		logger.Info("mongo indexes ready")
	}
	return nil
}

// schemaTables lists every table whose created_at is queried.
func schemaTables() []string {
	tables := make([]string, 0, len(models.Kinds)+1)
	for _, k := range models.Kinds {
		tables = append(tables, k.Table())
	}
	return append(tables, audit.Table)
}
