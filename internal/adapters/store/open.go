package store

import (
	"context"
	"fmt"

	"catalog-sync/internal/config"
	"catalog-sync/internal/infra/mysql"
	"catalog-sync/internal/logging"
)

// Open builds the store selected by STORE_DRIVER. The returned close func
// releases the database handle.
func Open(ctx context.Context, cfg *config.Config, logger logging.LoggerService) (Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.LogWarning("Using in-memory store, data is lost on exit")
		return NewMemoryStore(), func() error { return nil }, nil
	case config.StoreDriverMysql:
		db, err := mysql.New(cfg.Mysql)
		if err != nil {
			return nil, nil, err
		}
		st := NewMySQLStore(db, logger)
		if err := st.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return st, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
