// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work, then tears down DB connections.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Pruner != nil {
		deps.Pruner.Stop()
	}
	if deps.Cache != nil {
		deps.Cache.Close()
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	if deps.SQL != nil {
		logger.Info("closing Postgres pool")
		if err := deps.SQL.Close(); err != nil {
			logger.Error("Postgres close failed", zap.Error(err))
			return err
		}
	}
	return nil
}
