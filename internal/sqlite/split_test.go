package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "simple",
			script: "CREATE TABLE a (id INTEGER);\nCREATE TABLE b (id INTEGER);\n",
			want:   []string{"CREATE TABLE a (id INTEGER)", "CREATE TABLE b (id INTEGER)"},
		},
		{
			name:   "semicolon in string literal",
			script: "INSERT INTO t VALUES ('a;b', 'it''s; fine');",
			want:   []string{"INSERT INTO t VALUES ('a;b', 'it''s; fine')"},
		},
		{
			name:   "semicolon in quoted identifier",
			script: `CREATE TABLE "odd;name" (id INTEGER);`,
			want:   []string{`CREATE TABLE "odd;name" (id INTEGER)`},
		},
		{
			name:   "comments keep their semicolons",
			script: "-- first; still a comment\nSELECT 1; /* block; comment */ SELECT 2;",
			want:   []string{"-- first; still a comment\nSELECT 1", "/* block; comment */ SELECT 2"},
		},
		{
			name:   "comment only fragments dropped",
			script: "SELECT 1;\n-- trailing note\n",
			want:   []string{"SELECT 1"},
		},
		{
			name:   "missing final semicolon",
			script: "SELECT 1; SELECT 2",
			want:   []string{"SELECT 1", "SELECT 2"},
		},
		{
			name:   "empty",
			script: "  \n",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.script))
		})
	}
}
