package opentelemetry

import (
	"context"
	"database/sql"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"userapi/internal/repository/sqlmapper"
)

const instrumentationName = "userapi/internal/repository/sqlmapper/middleware/opentelemetry"

type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

func (m MiddlewareBuilder) Build() sqlmapper.Middleware {
	if m.Tracer == nil {
		m.Tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return func(next sqlmapper.Handler) sqlmapper.Handler {
		return func(ctx context.Context, qc *sqlmapper.QueryContext) error {
			// span name: SELECT users
			spanCtx, span := m.Tracer.Start(ctx, qc.Type+" "+qc.Table, trace.WithSpanKind(trace.SpanKindClient))
			defer span.End()

			// Arguments are left out: they may be large or sensitive.
			span.SetAttributes(
				attribute.String("db.statement", qc.SQL),
				attribute.String("db.sql.table", qc.Table),
				attribute.String("db.operation", qc.Type),
				attribute.String("component", "mapper"),
			)

			err := next(spanCtx, qc)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return err
		}
	}
}
