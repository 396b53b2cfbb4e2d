package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/Ev19Coding/parktrack/internal/logging"
	"github.com/Ev19Coding/parktrack/internal/sqlgen"
	"github.com/Ev19Coding/parktrack/internal/sqlite/migrations"
	"github.com/Ev19Coding/parktrack/pkg/types"
)

var migrationFileRe = regexp.MustCompile(`^(\d+)_([A-Za-z0-9][A-Za-z0-9_-]*)\.sql$`)

var bookkeepingDDL = `CREATE TABLE IF NOT EXISTS ` + sqlgen.QuoteIdent(types.TableMigrations) + ` (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    checksum TEXT NOT NULL
)`

// Migrator applies forward-only schema migrations and verifies applied
// migrations against their source files.
type Migrator struct {
	q       Querier
	adapter *Adapter
	source  fs.FS
	logger  *slog.Logger
}

// NewMigrator returns a migrator reading migration files from the root of
// source. A nil source uses the embedded migrations; a nil logger discards
// output.
func NewMigrator(q Querier, source fs.FS, logger *slog.Logger) *Migrator {
	if source == nil {
		source = migrations.FS
	}
	return &Migrator{
		q:       q,
		adapter: NewAdapter(q),
		source:  source,
		logger:  logging.OrDiscard(logger),
	}
}

// Checksum returns the hex xxHash64 of the exact migration text.
func Checksum(sql string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(sql))
}

// Load reads every migration file, sorted by id. Files without a .sql
// suffix are ignored; a .sql file with a malformed name or a repeated id is
// an error.
func (m *Migrator) Load() ([]types.Migration, error) {
	entries, err := fs.ReadDir(m.source, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	type loaded struct {
		seq uint64
		mig types.Migration
	}
	var out []loaded
	seen := make(map[uint64]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		match := migrationFileRe.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("%w: %s", types.ErrInvalidMigrationName, entry.Name())
		}
		seq, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", types.ErrInvalidMigrationName, entry.Name())
		}
		if prev, ok := seen[seq]; ok {
			return nil, fmt.Errorf("%w: %s and %s", types.ErrDuplicateMigration, prev, entry.Name())
		}
		seen[seq] = entry.Name()

		content, err := fs.ReadFile(m.source, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		out = append(out, loaded{
			seq: seq,
			mig: types.Migration{ID: match[1], Name: match[2], SQL: string(content)},
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	migs := make([]types.Migration, len(out))
	for i, l := range out {
		migs[i] = l.mig
	}
	return migs, nil
}

func (m *Migrator) ensureBookkeeping(ctx context.Context) error {
	if _, err := m.q.ExecContext(ctx, bookkeepingDDL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}
	return nil
}

// Applied returns the bookkeeping records ordered by id, creating the
// bookkeeping table when it does not exist.
func (m *Migrator) Applied(ctx context.Context) ([]types.MigrationRecord, error) {
	if err := m.ensureBookkeeping(ctx); err != nil {
		return nil, err
	}
	recs, err := m.adapter.FindMany(ctx, types.TableMigrations, nil, types.FindOptions{
		SortBy: &types.SortBy{Field: "id", Direction: types.SortAsc},
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.MigrationRecord, 0, len(recs))
	for _, rec := range recs {
		applied, err := sqlgen.DecodeTime(rec["applied_at"])
		if err != nil {
			return nil, fmt.Errorf("migration %s: applied_at: %w", sqlgen.DecodeString(rec["id"]), err)
		}
		out = append(out, types.MigrationRecord{
			ID:        sqlgen.DecodeString(rec["id"]),
			Name:      sqlgen.DecodeString(rec["name"]),
			AppliedAt: applied,
			Checksum:  sqlgen.DecodeString(rec["checksum"]),
		})
	}
	return out, nil
}

// Pending returns the migrations whose id has no bookkeeping record, in id
// order.
func (m *Migrator) Pending(ctx context.Context) ([]types.Migration, error) {
	all, err := m.Load()
	if err != nil {
		return nil, err
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(applied))
	for _, r := range applied {
		done[r.ID] = true
	}

	var pending []types.Migration
	for _, mig := range all {
		if !done[mig.ID] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration in id order and returns the ones it
// applied. Each migration is recorded as soon as its statements succeed.
// The first failure stops the run; migrations already applied stay applied
// and the failing migration stays unrecorded.
func (m *Migrator) Up(ctx context.Context) ([]types.Migration, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	applied := make([]types.Migration, 0, len(pending))
	for _, mig := range pending {
		if err := m.apply(ctx, mig); err != nil {
			return applied, err
		}
		applied = append(applied, mig)
		m.logger.Info("migration applied", "id", mig.ID, "name", mig.Name)
	}
	return applied, nil
}

func (m *Migrator) apply(ctx context.Context, mig types.Migration) error {
	for i, stmt := range SplitStatements(mig.SQL) {
		if _, err := m.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %s statement %d: %w", mig.Filename(), i+1, err)
		}
	}
	_, err := m.adapter.Create(ctx, types.TableMigrations, types.Record{
		"id":       mig.ID,
		"name":     mig.Name,
		"checksum": Checksum(mig.SQL),
	})
	if err != nil {
		return fmt.Errorf("record migration %s: %w", mig.Filename(), err)
	}
	return nil
}

// ValidationIssue describes one applied migration that no longer matches
// its source.
type ValidationIssue struct {
	ID       string
	Name     string
	Err      error // ErrChecksumMismatch or ErrMigrationMissing.
	Expected string
	Actual   string
}

func (i ValidationIssue) String() string {
	if errors.Is(i.Err, types.ErrChecksumMismatch) {
		return fmt.Sprintf("%s_%s: %v (recorded %s, file %s)", i.ID, i.Name, i.Err, i.Expected, i.Actual)
	}
	return fmt.Sprintf("%s_%s: %v", i.ID, i.Name, i.Err)
}

// ValidationReport lists every drift found by Validate.
type ValidationReport struct {
	Checked int
	Issues  []ValidationIssue
}

// Valid reports whether no issues were found.
func (r ValidationReport) Valid() bool {
	return len(r.Issues) == 0
}

// Err returns the first issue's error, or nil when valid.
func (r ValidationReport) Err() error {
	if r.Valid() {
		return nil
	}
	return fmt.Errorf("migration %s: %w", r.Issues[0].ID, r.Issues[0].Err)
}

// Validate compares every applied migration with its source file. A
// missing file or a changed checksum is reported, never repaired.
func (m *Migrator) Validate(ctx context.Context) (ValidationReport, error) {
	all, err := m.Load()
	if err != nil {
		return ValidationReport{}, err
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return ValidationReport{}, err
	}

	byID := make(map[string]types.Migration, len(all))
	for _, mig := range all {
		byID[mig.ID] = mig
	}

	report := ValidationReport{Checked: len(applied)}
	for _, rec := range applied {
		mig, ok := byID[rec.ID]
		if !ok {
			report.Issues = append(report.Issues, ValidationIssue{
				ID: rec.ID, Name: rec.Name, Err: types.ErrMigrationMissing,
			})
			continue
		}
		if sum := Checksum(mig.SQL); sum != rec.Checksum {
			report.Issues = append(report.Issues, ValidationIssue{
				ID: rec.ID, Name: rec.Name, Err: types.ErrChecksumMismatch,
				Expected: rec.Checksum, Actual: sum,
			})
		}
	}
	return report, nil
}

// Reset drops every view and table in the database and then applies all
// migrations from empty state. It refuses to run unless force is true.
//
// Known tables are dropped in ManagedTables order and any table created by
// another migration after them, with foreign key enforcement suspended.
func (m *Migrator) Reset(ctx context.Context, force bool) ([]types.Migration, error) {
	if !force {
		return nil, types.ErrResetNotConfirmed
	}

	views, tables, err := m.schemaObjects(ctx)
	if err != nil {
		return nil, err
	}
	for _, view := range views {
		if _, err := m.q.ExecContext(ctx, "DROP VIEW IF EXISTS "+sqlgen.QuoteIdent(view)); err != nil {
			return nil, fmt.Errorf("drop view %s: %w", view, err)
		}
	}
	if err := m.dropTables(ctx, tables); err != nil {
		return nil, err
	}
	m.logger.Warn("database reset", "views", len(views), "tables", len(tables))
	return m.Up(ctx)
}

// schemaObjects lists the user views and tables in the database. Tables
// are ordered with ManagedTables first, then the rest by name.
func (m *Migrator) schemaObjects(ctx context.Context) (views, tables []string, err error) {
	recs, err := m.adapter.FindMany(ctx, "sqlite_master", []types.Where{
		{Field: "type", Value: []string{"view", "table"}, Operator: types.OpIn},
	}, types.FindOptions{
		Fields: []string{"type", "name"},
		SortBy: &types.SortBy{Field: "name", Direction: types.SortAsc},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list schema objects: %w", err)
	}

	present := make(map[string]bool, len(recs))
	var extra []string
	for _, rec := range recs {
		name := sqlgen.DecodeString(rec["name"])
		if strings.HasPrefix(name, "sqlite_") {
			continue
		}
		if sqlgen.DecodeString(rec["type"]) == "view" {
			views = append(views, name)
			continue
		}
		present[name] = true
		if !isManagedTable(name) {
			extra = append(extra, name)
		}
	}
	for _, table := range types.ManagedTables {
		if present[table] {
			tables = append(tables, table)
		}
	}
	return views, append(tables, extra...), nil
}

func isManagedTable(name string) bool {
	for _, t := range types.ManagedTables {
		if t == name {
			return true
		}
	}
	return false
}

// dropTables drops tables with foreign key enforcement off, restoring the
// previous setting afterwards.
func (m *Migrator) dropTables(ctx context.Context, tables []string) (err error) {
	recs, err := m.adapter.Query(ctx, "PRAGMA foreign_keys")
	if err != nil {
		return fmt.Errorf("read foreign_keys: %w", err)
	}
	enforced := len(recs) > 0 && sqlgen.DecodeString(recs[0]["foreign_keys"]) == "1"
	if enforced {
		if _, err := m.q.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
			return fmt.Errorf("disable foreign_keys: %w", err)
		}
		defer func() {
			if _, ferr := m.q.ExecContext(ctx, "PRAGMA foreign_keys = ON"); ferr != nil && err == nil {
				err = fmt.Errorf("enable foreign_keys: %w", ferr)
			}
		}()
	}

	for _, table := range tables {
		if _, err := m.q.ExecContext(ctx, "DROP TABLE IF EXISTS "+sqlgen.QuoteIdent(table)); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	return nil
}

// MigrationStatus is one line of the status listing.
type MigrationStatus struct {
	ID        string
	Name      string
	Applied   bool
	AppliedAt time.Time
	Modified  bool // Applied, but the file checksum changed since.
	Orphaned  bool // Recorded as applied, but no file exists.
}

// Status lists every known migration in id order followed by applied
// records that have no source file.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	all, err := m.Load()
	if err != nil {
		return nil, err
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}

	recs := make(map[string]types.MigrationRecord, len(applied))
	for _, r := range applied {
		recs[r.ID] = r
	}

	out := make([]MigrationStatus, 0, len(all))
	for _, mig := range all {
		st := MigrationStatus{ID: mig.ID, Name: mig.Name}
		if r, ok := recs[mig.ID]; ok {
			st.Applied = true
			st.AppliedAt = r.AppliedAt
			st.Modified = r.Checksum != Checksum(mig.SQL)
			delete(recs, mig.ID)
		}
		out = append(out, st)
	}
	for _, r := range applied {
		if _, ok := recs[r.ID]; ok {
			out = append(out, MigrationStatus{
				ID: r.ID, Name: r.Name, Applied: true, AppliedAt: r.AppliedAt, Orphaned: true,
			})
		}
	}
	return out, nil
}

// CheckResult combines validation with the pending list.
type CheckResult struct {
	Report  ValidationReport
	Pending []types.Migration
}

// OK reports whether the database is valid and fully migrated.
func (c CheckResult) OK() bool {
	return c.Report.Valid() && len(c.Pending) == 0
}

// Check validates applied migrations and lists pending ones without
// changing the database schema.
func (m *Migrator) Check(ctx context.Context) (CheckResult, error) {
	report, err := m.Validate(ctx)
	if err != nil {
		return CheckResult{}, err
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return CheckResult{}, err
	}
	return CheckResult{Report: report, Pending: pending}, nil
}

// CreateMigration writes an empty migration file named after the next
// free id in dir and returns its path. The name is reduced to lower-case
// letters, digits and underscores.
func CreateMigration(dir, name string) (string, error) {
	slug := slugify(name)
	if slug == "" {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidMigrationName, name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create migrations dir: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read migrations dir: %w", err)
	}
	var last uint64
	for _, entry := range entries {
		match := migrationFileRe.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		if seq, err := strconv.ParseUint(match[1], 10, 64); err == nil && seq > last {
			last = seq
		}
	}

	mig := types.Migration{ID: fmt.Sprintf("%03d", last+1), Name: slug}
	path := filepath.Join(dir, mig.Filename())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration file: %w", err)
	}
	header := "-- " + strings.ReplaceAll(slug, "_", " ") + "\n"
	if _, err := f.WriteString(header); err != nil {
		f.Close()
		return "", fmt.Errorf("write migration file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write migration file: %w", err)
	}
	return path, nil
}

func slugify(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}
