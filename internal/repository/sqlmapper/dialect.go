package sqlmapper

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"userapi/internal/config"
)

var (
	DialectPostgres Dialect = dialect{name: "postgres", placeholder: sq.Dollar, quote: '"', returning: true}
	DialectMySQL    Dialect = dialect{name: "mysql", placeholder: sq.Question, quote: '`'}
	DialectSQLite   Dialect = dialect{name: "sqlite3", placeholder: sq.Question, quote: '"'}
)

// Dialect captures the SQL differences the mapper cares about.
type Dialect interface {
	// Name is the dialect identifier understood by goose.
	Name() string
	Placeholder() sq.PlaceholderFormat
	Quote(ident string) string
	// SupportsReturning reports whether INSERT ... RETURNING can back-fill generated keys.
	SupportsReturning() bool
}

type dialect struct {
	name        string
	placeholder sq.PlaceholderFormat
	quote       byte
	returning   bool
}

func (d dialect) Name() string { return d.name }
func (d dialect) Placeholder() sq.PlaceholderFormat { return d.placeholder }
func (d dialect) SupportsReturning() bool { return d.returning }

func (d dialect) Quote(ident string) string {
	q := string(d.quote)
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// DialectFor maps a datasource kind onto its dialect. Matching ignores case, like database.Open.
func DialectFor(kind string) (Dialect, error) {
	switch strings.ToLower(kind) {
	case config.KindPostgreSQL, "postgres", "pgx":
		return DialectPostgres, nil
	case config.KindMySQL, "mariadb":
		return DialectMySQL, nil
	case config.KindSQLite, "sqlite3":
		return DialectSQLite, nil
	default:
		return nil, fmt.Errorf("unsupported datasource kind %q", kind)
	}
}
