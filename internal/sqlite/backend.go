// Package sqlite implements parktrack storage on the embedded SQLite engine:
// the connection provider, the generic adapter and the migration manager.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	msqlite "modernc.org/sqlite"

	"github.com/Ev19Coding/parktrack/internal/geo"
	"github.com/Ev19Coding/parktrack/internal/logging"
	"github.com/Ev19Coding/parktrack/pkg/types"
)

// MemoryPath selects a private in-memory database.
const MemoryPath = ":memory:"

// DistanceFunc is the SQL name of the great-circle distance function
// registered on every connection: distance_km(lat1, lng1, lat2, lng2).
const DistanceFunc = "distance_km"

// pragmas applied to every connection, in order.
var pragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"case_sensitive_like(1)",
}

var (
	registerOnce sync.Once
	registerErr  error
)

// Querier is the subset of *sql.DB and *sql.Tx used to run statements.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Backend provides the shared database handle. The handle is opened on the
// first call to DB and reused until Detach.
type Backend struct {
	mu       sync.Mutex
	attached bool
	path     string
	db       *sql.DB
	logger   *slog.Logger
}

// NewBackend creates a detached backend. A nil logger discards output.
func NewBackend(logger *slog.Logger) *Backend {
	return &Backend{logger: logging.OrDiscard(logger)}
}

// Attach records where the database lives. It creates DataDir when needed
// but does not open the database.
// Returns ErrAlreadyAttached if called while attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	path := config.DatabaseFile
	if path != MemoryPath {
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(dataDir, path)
		}
	}

	b.path = path
	b.attached = true
	return nil
}

// Path returns the database location, or MemoryPath.
func (b *Backend) Path() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path
}

// DB returns the shared handle, opening it on first use.
// Returns ErrDetached if the backend is not attached.
func (b *Backend) DB(ctx context.Context) (*sql.DB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	if b.db != nil {
		return b.db, nil
	}

	db, err := Open(ctx, b.path)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("database opened", "path", b.path)
	b.db = db
	return db, nil
}

// Detach closes the handle if it was opened. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		if err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	return nil
}

// Open opens and pings a database at path. An empty path or MemoryPath
// opens an in-memory database.
//
// The pool is held to a single connection: the engine serializes access
// anyway, and an in-memory database exists only on the connection that
// created it.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if err := registerFunctions(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		path = MemoryPath
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

func dsn(path string) string {
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	return path + "?" + strings.Join(params, "&")
}

// registerFunctions installs the scalar functions once per process.
func registerFunctions() error {
	registerOnce.Do(func() {
		registerErr = msqlite.RegisterDeterministicScalarFunction(DistanceFunc, 4, distanceKM)
		if registerErr != nil {
			registerErr = fmt.Errorf("register %s: %w", DistanceFunc, registerErr)
		}
	})
	return registerErr
}

// distanceKM returns NULL when any argument is NULL or not numeric.
func distanceKM(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	var c [4]float64
	for i, arg := range args {
		switch v := arg.(type) {
		case float64:
			c[i] = v
		case int64:
			c[i] = float64(v)
		default:
			return nil, nil
		}
	}
	return geo.DistanceKM(
		geo.Coordinate{Lat: c[0], Lng: c[1]},
		geo.Coordinate{Lat: c[2], Lng: c[3]},
	), nil
}
