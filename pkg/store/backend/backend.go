// Package backend opens the store selected by DB_BACKEND.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"finboard/pkg/config"
	"finboard/pkg/store"
	"finboard/pkg/store/gormstore"
	"finboard/pkg/store/mongostore"
)

// Open connects to the configured backend and prepares its schema or indexes
// when cfg.AutoMigrate is set.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres, config.BackendSQLite:
		var (
			st  *gormstore.Store
			err error
		)
		if cfg.Backend == config.BackendPostgres {
			st, err = gormstore.OpenPostgres(cfg.DSN)
		} else {
			if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create sqlite dir: %w", err)
				}
			}
			st, err = gormstore.OpenSQLite(cfg.SQLitePath)
		}
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := st.Migrate(); err != nil {
				_ = st.Close()
				return nil, err
			}
			logger.Info("schema migrated", "backend", cfg.Backend)
		}
		return st, nil

	case config.BackendMongo:
		st, err := mongostore.Connect(ctx, mongostore.Options{
			URI:          cfg.MongoURI,
			Database:     cfg.MongoDatabase,
			Transactions: cfg.MongoTransactions,
		})
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := st.EnsureIndexes(ctx); err != nil {
				_ = st.Close()
				return nil, err
			}
			logger.Info("indexes ensured", "backend", cfg.Backend, "database", cfg.MongoDatabase)
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
