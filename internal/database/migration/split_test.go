package migration

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
			script: "INSERT INTO users (id, name) VALUES (1, 'a');\nINSERT INTO users (id, name) VALUES (2, 'b');\n",
			want: []string{
				"INSERT INTO users (id, name) VALUES (1, 'a')",
				"INSERT INTO users (id, name) VALUES (2, 'b')",
			},
		},
		{
			name:   "no trailing semicolon",
			script: "DELETE FROM users",
			want:   []string{"DELETE FROM users"},
		},
		{
			name:   "semicolon inside quotes",
			script: `INSERT INTO users (id, name) VALUES (1, 'a;b'); INSERT INTO "odd;table" VALUES (2); SELECT ` + "`x;y`",
			want: []string{
				"INSERT INTO users (id, name) VALUES (1, 'a;b')",
				`INSERT INTO "odd;table" VALUES (2)`,
				"SELECT `x;y`",
			},
		},
		{
			name:   "escaped quote",
			script: "INSERT INTO users (id, name) VALUES (1, 'O''Brien; Jr');",
			want:   []string{"INSERT INTO users (id, name) VALUES (1, 'O''Brien; Jr')"},
		},
		{
			name:   "comments dropped",
			script: "-- seed data; do not edit\nINSERT INTO users VALUES (1, 'a'); /* block; comment */\n-- trailing",
			want:   []string{"INSERT INTO users VALUES (1, 'a')"},
		},
		{
			name:   "comment markers inside quotes are text",
			script: "INSERT INTO users VALUES (1, '-- not a comment /* nor this */')",
			want:   []string{"INSERT INTO users VALUES (1, '-- not a comment /* nor this */')"},
		},
		{
			name:   "empty statements skipped",
			script: " ;; \n ; ",
			want:   nil,
		},
		{
			name:   "unterminated quote runs to end",
			script: "SELECT 'abc; def",
			want:   []string{"SELECT 'abc; def"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.script))
		})
	}
}
