package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ev19Coding/parktrack/pkg/types"
)

func sqlFile(s string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(s)}
}

func tableExists(t *testing.T, m *Migrator, name string) bool {
	t.Helper()
	n, err := m.adapter.Count(context.Background(), "sqlite_master", []types.Where{
		{Field: "type", Value: "table"},
		{Field: "name", Value: name},
	})
	require.NoError(t, err)
	return n == 1
}

func TestMigratorUpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMigrator(openEmptyDB(t), nil, nil)

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 3)
	assert.Equal(t, "001", applied[0].ID)
	assert.Equal(t, "auth", applied[0].Name)

	again, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	records, err := m.Applied(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, Checksum(applied[i].SQL), rec.Checksum)
		assert.False(t, rec.AppliedAt.IsZero())
	}

	for _, table := range types.ManagedTables {
		assert.True(t, tableExists(t, m, table), table)
	}
}

func TestMigratorLoad(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		wantIDs []string
		wantErr error
	}{
		{
			name: "sorted by numeric id and non-sql ignored",
			files: fstest.MapFS{
				"010_later.sql":  sqlFile("SELECT 1;"),
				"002_second.sql": sqlFile("SELECT 1;"),
				"001_first.sql":  sqlFile("SELECT 1;"),
				"README.md":      sqlFile("notes"),
			},
			wantIDs: []string{"001", "002", "010"},
		},
		{
			name:    "malformed name",
			files:   fstest.MapFS{"first.sql": sqlFile("SELECT 1;")},
			wantErr: types.ErrInvalidMigrationName,
		},
		{
			name: "duplicate id",
			files: fstest.MapFS{
				"001_a.sql": sqlFile("SELECT 1;"),
				"1_b.sql":   sqlFile("SELECT 1;"),
			},
			wantErr: types.ErrDuplicateMigration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			migs, err := NewMigrator(nil, tt.files, nil).Load()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			ids := make([]string, len(migs))
			for i, m := range migs {
				ids[i] = m.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestMigratorChecksumSensitivity(t *testing.T) {
	ctx := context.Background()
	db := openEmptyDB(t)
	files := fstest.MapFS{
		"001_parks.sql": sqlFile("CREATE TABLE parks (id TEXT PRIMARY KEY);"),
	}
	_, err := NewMigrator(db, files, nil).Up(ctx)
	require.NoError(t, err)

	report, err := NewMigrator(db, files, nil).Validate(ctx)
	require.NoError(t, err)
	assert.True(t, report.Valid())
	assert.Equal(t, 1, report.Checked)

	// A single changed character is detected and nothing is repaired.
	files["001_parks.sql"] = sqlFile("CREATE TABLE parks (id TEXT PRIMARY KEY) ;")
	m := NewMigrator(db, files, nil)
	report, err = m.Validate(ctx)
	require.NoError(t, err)
	assert.False(t, report.Valid())
	require.Len(t, report.Issues, 1)
	assert.ErrorIs(t, report.Issues[0].Err, types.ErrChecksumMismatch)
	assert.ErrorIs(t, report.Err(), types.ErrChecksumMismatch)

	report, err = m.Validate(ctx)
	require.NoError(t, err)
	assert.False(t, report.Valid())

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.True(t, status[0].Modified)
}

func TestMigratorMissingSource(t *testing.T) {
	ctx := context.Background()
	db := openEmptyDB(t)
	_, err := NewMigrator(db, fstest.MapFS{
		"001_a.sql": sqlFile("CREATE TABLE a (id INTEGER);"),
		"002_b.sql": sqlFile("CREATE TABLE b (id INTEGER);"),
	}, nil).Up(ctx)
	require.NoError(t, err)

	m := NewMigrator(db, fstest.MapFS{
		"001_a.sql": sqlFile("CREATE TABLE a (id INTEGER);"),
	}, nil)
	report, err := m.Validate(ctx)
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "002", report.Issues[0].ID)
	assert.ErrorIs(t, report.Issues[0].Err, types.ErrMigrationMissing)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.False(t, status[0].Orphaned)
	assert.True(t, status[1].Orphaned)
	assert.Equal(t, "b", status[1].Name)
}

func TestMigratorUpStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	m := NewMigrator(openEmptyDB(t), fstest.MapFS{
		"001_ok.sql":     sqlFile("CREATE TABLE ok (id INTEGER);"),
		"002_broken.sql": sqlFile("CREATE TABLE half (id INTEGER);\nCREATE TABLEE nope;"),
		"003_never.sql":  sqlFile("CREATE TABLE never (id INTEGER);"),
	}, nil)

	applied, err := m.Up(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "002_broken.sql")
	require.Len(t, applied, 1)
	assert.Equal(t, "001", applied[0].ID)

	records, err := m.Applied(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Statements before the failure stay applied.
	assert.True(t, tableExists(t, m, "half"))
	assert.False(t, tableExists(t, m, "never"))

	check, err := m.Check(ctx)
	require.NoError(t, err)
	assert.False(t, check.OK())
	assert.Len(t, check.Pending, 2)
}

func TestMigratorCheck(t *testing.T) {
	ctx := context.Background()
	m := NewMigrator(openEmptyDB(t), nil, nil)

	check, err := m.Check(ctx)
	require.NoError(t, err)
	assert.False(t, check.OK())
	assert.Len(t, check.Pending, 3)

	_, err = m.Up(ctx)
	require.NoError(t, err)

	check, err = m.Check(ctx)
	require.NoError(t, err)
	assert.True(t, check.OK())
}

func TestMigratorReset(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := NewMigrator(db, nil, nil)
	seedUsers(t, NewAdapter(db), "Ada")

	_, err := m.Reset(ctx, false)
	assert.ErrorIs(t, err, types.ErrResetNotConfirmed)

	n, err := NewAdapter(db).Count(ctx, types.TableUser, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	applied, err := m.Reset(ctx, true)
	require.NoError(t, err)
	assert.Len(t, applied, 3)

	n, err = NewAdapter(db).Count(ctx, types.TableUser, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	records, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestMigratorResetDropsTablesFromOtherMigrations(t *testing.T) {
	ctx := context.Background()
	db := openEmptyDB(t)
	source := fstest.MapFS{
		"001_base.sql": sqlFile(`CREATE TABLE "user" (id TEXT PRIMARY KEY);`),
		"002_extra.sql": sqlFile(`
CREATE TABLE reviews (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES "user"(id)
);
CREATE VIEW review_count AS SELECT user_id, COUNT(*) AS n FROM reviews GROUP BY user_id;
`),
	}
	m := NewMigrator(db, source, nil)

	_, err := m.Up(ctx)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO "user" (id) VALUES ('u1')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO reviews (id, user_id) VALUES ('r1', 'u1')`)
	require.NoError(t, err)

	applied, err := m.Reset(ctx, true)
	require.NoError(t, err)
	assert.Len(t, applied, 2)
	assert.True(t, tableExists(t, m, "reviews"))

	n, err := NewAdapter(db).Count(ctx, "reviews", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	recs, err := NewAdapter(db).Query(ctx, "PRAGMA foreign_keys")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.EqualValues(t, 1, recs[0]["foreign_keys"])
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateMigration(dir, "Add Park Ratings!")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "001_add_park_ratings.sql"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "-- add park ratings\n", string(data))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "007_manual.sql"), nil, 0o644))
	path, err = CreateMigration(dir, "next")
	require.NoError(t, err)
	assert.Equal(t, "008_next.sql", filepath.Base(path))

	_, err = CreateMigration(dir, "!!!")
	assert.ErrorIs(t, err, types.ErrInvalidMigrationName)

	migs, err := NewMigrator(nil, os.DirFS(dir), nil).Load()
	require.NoError(t, err)
	assert.Len(t, migs, 3)
}

func TestChecksum(t *testing.T) {
	a := Checksum("CREATE TABLE x (id INTEGER);")
	assert.Len(t, a, 16)
	assert.Equal(t, a, Checksum("CREATE TABLE x (id INTEGER);"))
	assert.NotEqual(t, a, Checksum("CREATE TABLE x (id INTEGER) ;"))
}
