package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ev19Coding/parktrack/internal/config"
	"github.com/Ev19Coding/parktrack/internal/locations"
	"github.com/Ev19Coding/parktrack/internal/logging"
	"github.com/Ev19Coding/parktrack/internal/paths"
	"github.com/Ev19Coding/parktrack/internal/sqlite"
	"github.com/Ev19Coding/parktrack/pkg/types"
)

// app is the state a command needs once configuration is resolved. The
// caller must defer close.
type app struct {
	cfg       types.Config
	configDir string
	logger    *slog.Logger
	backend   *sqlite.Backend
	out       io.Writer
	jsonMode  bool
}

// loadApp resolves directories, loads config.yaml and attaches the
// backend. The database itself opens on first use.
func loadApp(cmd *cobra.Command, flags *rootFlags) (*app, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	cfg.DataDir, err = paths.ResolveDataDir(flags.dataDir, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	level := logging.LevelFromString(cfg.Log.Level)
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Format, level)

	backend := sqlite.NewBackend(logger)
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}

	return &app{
		cfg:       cfg,
		configDir: configDir,
		logger:    logger,
		backend:   backend,
		out:       cmd.OutOrStdout(),
		jsonMode:  flags.jsonMode,
	}, nil
}

func (a *app) close() {
	if err := a.backend.Detach(); err != nil {
		a.logger.Error("detach backend", "err", err)
	}
}

// migrationSource returns the configured migrations directory, or nil for
// the embedded set.
func (a *app) migrationSource() fs.FS {
	if a.cfg.MigrationsDir == "" {
		return nil
	}
	return os.DirFS(a.cfg.MigrationsDir)
}

func (a *app) migrator(ctx context.Context) (*sqlite.Migrator, error) {
	db, err := a.backend.DB(ctx)
	if err != nil {
		return nil, err
	}
	return sqlite.NewMigrator(db, a.migrationSource(), a.logger), nil
}

// engine opens the database, applies pending migrations and returns a
// location engine sized from the config.
func (a *app) engine(ctx context.Context) (*locations.Engine, error) {
	m, err := a.migrator(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := m.Up(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := a.backend.DB(ctx)
	if err != nil {
		return nil, err
	}
	return locations.New(db,
		locations.WithLogger(a.logger),
		locations.WithConfig(a.cfg.Cache),
	), nil
}

// printJSON writes v as indented JSON.
func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}
