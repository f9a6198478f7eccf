package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/rtfti/ftscore/internal/config"
	"github.com/rtfti/ftscore/internal/store"
)

// openStore builds the configured report store and runs migrations.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	var s store.Store
	var err error

	switch cfg.Driver {
	case "sqlite", "":
		s, err = store.NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = store.NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
