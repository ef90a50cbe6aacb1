package opentelemetry

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"userapi/internal/repository/sqlmapper"
)

func TestMiddlewareBuilder_Build(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	mdl := MiddlewareBuilder{Tracer: tp.Tracer("test")}.Build()

	for _, res := range []error{nil, sql.ErrNoRows, errors.New("boom")} {
		res := res
		h := mdl(func(ctx context.Context, qc *sqlmapper.QueryContext) error { return res })
		_ = h(context.Background(), &sqlmapper.QueryContext{
			Type:  sqlmapper.TypeSelect,
			Table: "users",
			SQL:   `SELECT "id", "name" FROM "users" WHERE "id" = $1`,
		})
	}

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "SELECT users", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
	assert.Equal(t, codes.Error, spans[2].Status().Code)
}
