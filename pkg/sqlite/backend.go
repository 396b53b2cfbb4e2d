// Package sqlite opens a migrated parktrack database for use from other
// modules. It wires the storage backend, the generic adapter and the
// location engine from one Config.
//
// Example:
//
//	db, err := sqlite.Open(ctx, types.DefaultConfig(), nil)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//	hits, err := db.Locations.Search(ctx, "central park", 10)
package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Ev19Coding/parktrack/internal/locations"
	"github.com/Ev19Coding/parktrack/internal/logging"
	"github.com/Ev19Coding/parktrack/internal/sqlite"
	"github.com/Ev19Coding/parktrack/pkg/types"
)

// DB is an open, fully migrated database.
type DB struct {
	backend *sqlite.Backend

	// Store runs generic operations against any managed table.
	Store types.Store
	// Locations serves cached location queries.
	Locations *locations.Engine
}

// Open attaches cfg, opens the database and applies every embedded
// migration. A nil logger discards output.
func Open(ctx context.Context, cfg types.Config, logger *slog.Logger) (*DB, error) {
	logger = logging.OrDiscard(logger)

	backend := sqlite.NewBackend(logger)
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	conn, err := backend.DB(ctx)
	if err != nil {
		_ = backend.Detach()
		return nil, err
	}
	if _, err := sqlite.NewMigrator(conn, nil, logger).Up(ctx); err != nil {
		_ = backend.Detach()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{
		backend: backend,
		Store:   sqlite.NewAdapter(conn),
		Locations: locations.New(conn,
			locations.WithLogger(logger),
			locations.WithConfig(cfg.Cache),
		),
	}, nil
}

// Path returns the database location.
func (db *DB) Path() string {
	return db.backend.Path()
}

// Close releases the database handle. Close is idempotent.
func (db *DB) Close() error {
	return db.backend.Detach()
}
