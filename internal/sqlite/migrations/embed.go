// Package migrations holds the schema migrations shipped with parktrack.
package migrations

import "embed"

// FS contains the embedded SQLite migrations, one <id>_<name>.sql file each.
//
//go:embed *.sql
var FS embed.FS
