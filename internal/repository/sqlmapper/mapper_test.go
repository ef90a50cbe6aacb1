package sqlmapper

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userapi/internal/model"
	"userapi/internal/repository"
)

func newMockMapper(t *testing.T, opts ...Option) (*BaseMapper[model.User, int64], sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	m, err := NewUserMapper(db, opts...)
	require.NoError(t, err)
	return m, mock
}

func TestBaseMapper_SelectByID(t *testing.T) {
	m, mock := newMockMapper(t)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Test User1")
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "name" FROM "users" WHERE "id" = $1`)).
			WithArgs(1).
			WillReturnRows(rows)

		u, err := m.SelectByID(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, &model.User{ID: 1, Name: "Test User1"}, u)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE`).
			WithArgs(42).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

		u, err := m.SelectByID(ctx, 42)

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, u)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE`).
			WithArgs(7).
			WillReturnError(errors.New("conn reset"))

		u, err := m.SelectByID(ctx, 7)

		assert.EqualError(t, err, "conn reset")
		assert.Nil(t, u)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseMapper_SelectBatchIDs(t *testing.T) {
	m, mock := newMockMapper(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(1, "a").
		AddRow(2, "b")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "name" FROM "users" WHERE "id" IN ($1,$2)`)).
		WithArgs(1, 2).
		WillReturnRows(rows)

	users, err := m.SelectBatchIDs(ctx, []int64{1, 2})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	empty, err := m.SelectBatchIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseMapper_SelectList(t *testing.T) {
	m, mock := newMockMapper(t)
	ctx := context.Background()

	t.Run("filtered and ordered", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "name" FROM "users" WHERE "name" = $1 ORDER BY "id" DESC`)).
			WithArgs("bob").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "bob"))

		users, err := m.SelectList(ctx, repository.Query{
			Eq:      map[string]any{"name": "bob"},
			OrderBy: []string{"id desc"},
		})

		require.NoError(t, err)
		assert.Equal(t, []model.User{{ID: 3, Name: "bob"}}, users)
	})

	t.Run("unknown column issues no SQL", func(t *testing.T) {
		_, err := m.SelectList(ctx, repository.Query{Eq: map[string]any{"password": "x"}})
		assert.ErrorIs(t, err, repository.ErrUnknownColumn)
	})

	t.Run("bad sort direction", func(t *testing.T) {
		_, err := m.SelectList(ctx, repository.Query{OrderBy: []string{"id sideways"}})
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseMapper_SelectPage(t *testing.T) {
	m, mock := newMockMapper(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "name" FROM "users" ORDER BY "id" LIMIT 2 OFFSET 1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(2, "b").AddRow(3, "c"))

	res, err := m.SelectPage(ctx, repository.PageQuery{Limit: 2, Offset: 1}, repository.Query{OrderBy: []string{"id"}})

	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Len(t, res.Items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseMapper_Insert(t *testing.T) {
	m, mock := newMockMapper(t)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "users" ("id","name") VALUES ($1,$2)`)).
			WithArgs(1, "Test User1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := m.Insert(ctx, &model.User{ID: 1, Name: "Test User1"})

		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("duplicate key", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO "users"`).
			WithArgs(1, "again").
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

		n, err := m.Insert(ctx, &model.User{ID: 1, Name: "again"})

		assert.ErrorIs(t, err, repository.ErrDuplicateKey)
		assert.Zero(t, n)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseMapper_UpdateByID(t *testing.T) {
	m, mock := newMockMapper(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "name" = $1 WHERE "id" = $2`)).
		WithArgs("renamed", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := m.UpdateByID(context.Background(), &model.User{ID: 5, Name: "renamed"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseMapper_DeleteByID(t *testing.T) {
	m, mock := newMockMapper(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users" WHERE "id" = $1`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users" WHERE "id" = $1`)).
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := m.DeleteByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = m.DeleteByID(ctx, 99)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseMapper_DeleteBatchIDs(t *testing.T) {
	m, mock := newMockMapper(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users" WHERE "id" IN ($1,$2,$3)`)).
		WithArgs(1, 2, 3).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := m.DeleteBatchIDs(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = m.DeleteBatchIDs(ctx, []int64{})
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseMapper_InTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		m, mock := newMockMapper(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := m.InTx(ctx, func(ctx context.Context, tm repository.Mapper[model.User, int64]) error {
			if _, err := tm.Insert(ctx, &model.User{ID: 1, Name: "a"}); err != nil {
				return err
			}
			_, err := tm.Insert(ctx, &model.User{ID: 2, Name: "b"})
			return err
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		m, mock := newMockMapper(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "users"`).WillReturnError(errors.New("boom"))
		mock.ExpectRollback()

		err := m.InTx(ctx, func(ctx context.Context, tm repository.Mapper[model.User, int64]) error {
			_, err := tm.Insert(ctx, &model.User{ID: 1, Name: "a"})
			return err
		})

		assert.EqualError(t, err, "boom")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on panic", func(t *testing.T) {
		m, mock := newMockMapper(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = m.InTx(ctx, func(ctx context.Context, tm repository.Mapper[model.User, int64]) error {
				panic("bad")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBaseMapper_Middlewares(t *testing.T) {
	var seen []QueryContext
	record := func(next Handler) Handler {
		return func(ctx context.Context, qc *QueryContext) error {
			seen = append(seen, *qc)
			return next(ctx, qc)
		}
	}
	m, mock := newMockMapper(t, WithMiddlewares(record), WithDialect(DialectMySQL))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `users` WHERE `id` = ?")).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := m.DeleteByID(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, TypeDelete, seen[0].Type)
	assert.Equal(t, "users", seen[0].Table)
	assert.Equal(t, []any{int64(1)}, seen[0].Args)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_KeyTypeMismatch(t *testing.T) {
	_, err := New[model.User, string](nil)
	assert.ErrorIs(t, err, ErrKeyType)
}
