package querylog

import (
	"context"

	"github.com/rs/zerolog"

	"userapi/internal/repository/sqlmapper"
)

type MiddlewareBuilder struct {
	logger zerolog.Logger
	// args may carry sensitive values, so they are only logged on request.
	withArgs bool
}

func NewMiddlewareBuilder(logger zerolog.Logger) *MiddlewareBuilder {
	return &MiddlewareBuilder{logger: logger}
}

func (m *MiddlewareBuilder) WithArgs() *MiddlewareBuilder {
	m.withArgs = true
	return m
}

func (m *MiddlewareBuilder) Build() sqlmapper.Middleware {
	return func(next sqlmapper.Handler) sqlmapper.Handler {
		return func(ctx context.Context, qc *sqlmapper.QueryContext) error {
			ev := m.logger.Debug().
				Str("component", "mapper").
				Str("type", qc.Type).
				Str("table", qc.Table).
				Str("sql", qc.SQL)
			if m.withArgs {
				ev = ev.Interface("args", qc.Args)
			}
			ev.Msg("statement")
			return next(ctx, qc)
		}
	}
}
