package todosync

import (
	"fmt"

	"github.com/hebbarp/todo-management/internal/core/config"
	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/data/db"
	"github.com/hebbarp/todo-management/internal/data/stores"
	"github.com/hebbarp/todo-management/internal/store/jsonfile"
)

// OpenBackend opens the storage backend selected by cfg.Storage.Backend.
func OpenBackend(cfg *config.Config) (todo.Backend, error) {
	opts := db.DefaultOpenOptions()
	opts.MaxOpenConns = cfg.Storage.MaxOpenConns
	opts.MaxIdleConns = cfg.Storage.MaxOpenConns
	opts.BusyTimeout = cfg.Storage.BusyTimeout

	switch cfg.Storage.Backend {
	case config.BackendFile:
		return jsonfile.NewBackend(cfg.StoreDir()), nil
	case config.BackendSQLite:
		b, err := stores.OpenSQLite(cfg.DataDir, opts)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.BackendPostgres:
		b, err := stores.OpenPostgres(cfg.Storage.PostgresDSN, opts)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
