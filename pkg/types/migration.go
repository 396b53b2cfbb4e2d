package types

import "time"

// Migration is one versioned SQL source file. ID is the sortable filename
// prefix; a migration is immutable once applied.
type Migration struct {
	ID   string // Sortable prefix, e.g. "002".
	Name string // Remainder of the file name without extension.
	SQL  string // Exact file contents.
}

// Filename returns the canonical file name of the migration.
func (m Migration) Filename() string {
	return m.ID + "_" + m.Name + ".sql"
}

// MigrationRecord is a row of the bookkeeping table.
type MigrationRecord struct {
	ID        string
	Name      string
	AppliedAt time.Time
	Checksum  string
}
