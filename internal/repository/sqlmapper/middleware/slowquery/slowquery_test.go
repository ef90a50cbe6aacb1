package slowquery

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"userapi/internal/repository/sqlmapper"
)

func TestMiddlewareBuilder_Build(t *testing.T) {
	qc := &sqlmapper.QueryContext{Type: sqlmapper.TypeDelete, Table: "users", SQL: `DELETE FROM "users" WHERE "id" = $1`}

	t.Run("fast statement is not logged", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewMiddlewareBuilder(time.Hour, zerolog.New(&buf)).Build()(func(ctx context.Context, qc *sqlmapper.QueryContext) error {
			return nil
		})

		assert.NoError(t, h(context.Background(), qc))
		assert.Zero(t, buf.Len())
	})

	t.Run("slow statement is logged and error passes through", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewMiddlewareBuilder(time.Millisecond, zerolog.New(&buf)).Build()(func(ctx context.Context, qc *sqlmapper.QueryContext) error {
			time.Sleep(5 * time.Millisecond)
			return errors.New("timeout")
		})

		assert.EqualError(t, h(context.Background(), qc), "timeout")
		assert.Contains(t, buf.String(), `"event":"slow_query"`)
		assert.Contains(t, buf.String(), `"table":"users"`)
	})
}
