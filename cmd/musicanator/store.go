package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/justestif/musicanator/internal/accounts"
	"github.com/justestif/musicanator/internal/config"
	"github.com/justestif/musicanator/internal/db"
	"github.com/justestif/musicanator/internal/db/lite"
	"github.com/justestif/musicanator/internal/history"
	"github.com/justestif/musicanator/internal/tokens"
)

// store bundles the repositories of whichever backend is configured.
type store struct {
	users       accounts.Store
	credentials tokens.Store
	playlists   history.Store

	ping  func(ctx context.Context) error
	close func()
}

// Ping reports whether the backend is reachable.
func (s *store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the backend.
func (s *store) Close() {
	s.close()
}

// openStore opens PostgreSQL when a database URL is configured, applying
// pending migrations, and the SQLite file otherwise.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *log.Logger) (*store, error) {
	if cfg.URL != "" {
		database, err := openPostgres(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		applied, err := database.Migrate(ctx)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		logger.Info("using postgres store", "migrations_applied", applied)
		return &store{
			users:       database.Users(),
			credentials: database.Credentials(),
			playlists:   database.Playlists(),
			ping:        database.Ping,
			close:       database.Close,
		}, nil
	}

	sqlite, err := lite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	logger.Info("using sqlite store", "path", cfg.SQLitePath)
	return &store{
		users:       sqlite.Users(),
		credentials: sqlite.Credentials(),
		playlists:   sqlite.Playlists(),
		ping:        sqlite.Ping,
		close: func() {
			if err := sqlite.Close(); err != nil {
				logger.Warn("closing sqlite store", "err", err)
			}
		},
	}, nil
}

func openPostgres(ctx context.Context, url string) (*db.DB, error) {
	database, err := db.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return database, nil
}
