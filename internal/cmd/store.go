package cmd

import (
	"fmt"

	"github.com/jwulff/glucotrack/internal/config"
	"github.com/jwulff/glucotrack/internal/storage"
	"github.com/jwulff/glucotrack/internal/storage/memory"
	"github.com/jwulff/glucotrack/internal/storage/sqlite"
)

// openStore creates the session store named by the config.
func openStore(cfg config.StoreConfig) (storage.SessionStore, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil
	case config.BackendSQLite:
		store, err := sqlite.NewFileStore(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
