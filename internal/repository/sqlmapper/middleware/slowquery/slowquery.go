package slowquery

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"userapi/internal/repository/sqlmapper"
)

type MiddlewareBuilder struct {
	logger    zerolog.Logger
	threshold time.Duration
}

func NewMiddlewareBuilder(threshold time.Duration, logger zerolog.Logger) *MiddlewareBuilder {
	return &MiddlewareBuilder{
		logger:    logger,
		threshold: threshold,
	}
}

func (m MiddlewareBuilder) Build() sqlmapper.Middleware {
	return func(next sqlmapper.Handler) sqlmapper.Handler {
		return func(ctx context.Context, qc *sqlmapper.QueryContext) error {
			start := time.Now()
			err := next(ctx, qc)

			if d := time.Since(start); d > m.threshold {
				m.logger.Warn().
					Str("component", "mapper").
					Str("event", "slow_query").
					Str("type", qc.Type).
					Str("table", qc.Table).
					Str("sql", qc.SQL).
					Int64("duration_ms", d.Milliseconds()).
					Msg("statement exceeded threshold")
			}
			return err
		}
	}
}
