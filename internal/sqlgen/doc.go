// Package sqlgen renders SQL text from a typed statement representation.
//
// Every value that reaches SQL text passes through Encode, which turns Go
// values into SQL literals with standard quote doubling. Identifiers are
// quoted but not validated: callers supply table and column names from the
// schema, never from user input.
//
// The package targets the SQLite dialect served by modernc.org/sqlite.
package sqlgen
