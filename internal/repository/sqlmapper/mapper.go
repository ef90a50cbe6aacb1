package sqlmapper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"userapi/internal/repository"
)

// session is satisfied by both *sql.DB and *sql.Tx.
type session interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type core struct {
	dialect Dialect
	mdls    []Middleware
}

type Option func(c *core)

func WithDialect(d Dialect) Option {
	return func(c *core) {
		c.dialect = d
	}
}

func WithMiddlewares(mdls ...Middleware) Option {
	return func(c *core) {
		c.mdls = append(c.mdls, mdls...)
	}
}

// BaseMapper implements repository.Mapper for any struct whose columns are described by db tags.
// SQL is generated with squirrel from the entity metadata; no per-entity code is needed.
// It is safe for concurrent use; a transaction-bound copy is handed out by InTx.
type BaseMapper[T any, K comparable] struct {
	core
	db   *sql.DB
	sess session
	meta *entityMeta
}

// New builds a mapper for T. The key type K must match T's pk field type.
func New[T any, K comparable](db *sql.DB, opts ...Option) (*BaseMapper[T, K], error) {
	meta, err := defaultRegistry.get(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	if kt := reflect.TypeOf((*K)(nil)).Elem(); kt != meta.pk.typ {
		return nil, fmt.Errorf("%w: %s vs %s", ErrKeyType, kt, meta.pk.typ)
	}

	m := &BaseMapper[T, K]{
		core: core{dialect: DialectPostgres},
		db:   db,
		sess: db,
		meta: meta,
	}
	for _, opt := range opts {
		opt(&m.core)
	}
	return m, nil
}

// SelectByID returns the row with the given key, or sql.ErrNoRows.
func (m *BaseMapper[T, K]) SelectByID(ctx context.Context, id K) (*T, error) {
	b := m.selectBuilder().Where(m.pkEq(id))

	var out *T
	err := m.query(ctx, TypeSelect, b, func(rows *sql.Rows) error {
		items, err := m.scanAll(rows)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return sql.ErrNoRows
		}
		out = &items[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SelectBatchIDs returns the rows whose keys are in ids.
func (m *BaseMapper[T, K]) SelectBatchIDs(ctx context.Context, ids []K) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	b := m.selectBuilder().Where(m.pkEq(ids))
	return m.list(ctx, b)
}

// SelectList returns every row matching q.
func (m *BaseMapper[T, K]) SelectList(ctx context.Context, q repository.Query) ([]T, error) {
	b, err := m.filtered(m.selectBuilder(), q)
	if err != nil {
		return nil, err
	}
	return m.list(ctx, b)
}

// SelectCount counts the rows matching q.
func (m *BaseMapper[T, K]) SelectCount(ctx context.Context, q repository.Query) (int64, error) {
	eq, err := m.where(q)
	if err != nil {
		return 0, err
	}
	b := sq.Select("COUNT(*)").From(m.table()).PlaceholderFormat(m.dialect.Placeholder())
	if eq != nil {
		b = b.Where(eq)
	}

	var total int64
	err = m.query(ctx, TypeSelect, b, func(rows *sql.Rows) error {
		if !rows.Next() {
			return sql.ErrNoRows
		}
		return rows.Scan(&total)
	})
	return total, err
}

// SelectPage returns one page of rows matching q together with the total count.
func (m *BaseMapper[T, K]) SelectPage(ctx context.Context, pq repository.PageQuery, q repository.Query) (*repository.PageResult[T], error) {
	total, err := m.SelectCount(ctx, q)
	if err != nil {
		return nil, err
	}

	b, err := m.filtered(m.selectBuilder(), q)
	if err != nil {
		return nil, err
	}
	if pq.Limit > 0 {
		b = b.Limit(uint64(pq.Limit))
	}
	if pq.Offset > 0 {
		b = b.Offset(uint64(pq.Offset))
	}
	items, err := m.list(ctx, b)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[T]{Items: items, Total: total}, nil
}

// Insert stores entity. An auto pk left at its zero value is generated by the database and written back.
func (m *BaseMapper[T, K]) Insert(ctx context.Context, entity *T) (int64, error) {
	v := reflect.ValueOf(entity).Elem()
	pk := v.FieldByIndex(m.meta.pk.index)
	generated := m.meta.pk.auto && pk.IsZero()

	cols := make([]string, 0, len(m.meta.fields))
	vals := make([]any, 0, len(m.meta.fields))
	for _, f := range m.meta.fields {
		if f.pk && generated {
			continue
		}
		cols = append(cols, m.dialect.Quote(f.column))
		vals = append(vals, v.FieldByIndex(f.index).Interface())
	}
	b := sq.Insert(m.table()).Columns(cols...).Values(vals...).PlaceholderFormat(m.dialect.Placeholder())

	if generated && m.dialect.SupportsReturning() {
		var n int64
		b = b.Suffix("RETURNING " + m.dialect.Quote(m.meta.pk.column))
		err := m.query(ctx, TypeInsert, b, func(rows *sql.Rows) error {
			for rows.Next() {
				if err := rows.Scan(pk.Addr().Interface()); err != nil {
					return err
				}
				n++
			}
			return nil
		})
		return n, err
	}

	res, err := m.exec(ctx, TypeInsert, b)
	if err != nil {
		return 0, err
	}
	if generated {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("last insert id: %w", err)
		}
		switch {
		case pk.CanInt():
			pk.SetInt(id)
		case pk.CanUint():
			pk.SetUint(uint64(id))
		}
	}
	return res.RowsAffected()
}

// UpdateByID overwrites every non-key column of the row identified by entity's key.
func (m *BaseMapper[T, K]) UpdateByID(ctx context.Context, entity *T) (int64, error) {
	v := reflect.ValueOf(entity).Elem()

	set := make(map[string]any, len(m.meta.fields))
	for _, f := range m.meta.fields {
		if f.pk {
			continue
		}
		set[m.dialect.Quote(f.column)] = v.FieldByIndex(f.index).Interface()
	}
	if len(set) == 0 {
		return 0, nil
	}

	b := sq.Update(m.table()).
		SetMap(set).
		Where(m.pkEq(v.FieldByIndex(m.meta.pk.index).Interface())).
		PlaceholderFormat(m.dialect.Placeholder())
	res, err := m.exec(ctx, TypeUpdate, b)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByID removes a row by key. A missing row is not an error; it affects zero rows.
func (m *BaseMapper[T, K]) DeleteByID(ctx context.Context, id K) (int64, error) {
	return m.delete(ctx, m.pkEq(id))
}

// DeleteBatchIDs removes the rows whose keys are in ids.
func (m *BaseMapper[T, K]) DeleteBatchIDs(ctx context.Context, ids []K) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return m.delete(ctx, m.pkEq(ids))
}

// InTx runs fn against a copy of the mapper bound to one transaction.
// Called on a mapper that is already transaction-bound, fn joins the running transaction.
func (m *BaseMapper[T, K]) InTx(ctx context.Context, fn func(ctx context.Context, tm repository.Mapper[T, K]) error) (err error) {
	if m.db == nil {
		return fn(ctx, m)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	bound := &BaseMapper[T, K]{core: m.core, sess: tx, meta: m.meta}

	panicked := true
	defer func() {
		if panicked || err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit: %w", cErr)
		}
	}()

	err = fn(ctx, bound)
	panicked = false
	return err
}

func (m *BaseMapper[T, K]) delete(ctx context.Context, cond sq.Eq) (int64, error) {
	b := sq.Delete(m.table()).Where(cond).PlaceholderFormat(m.dialect.Placeholder())
	res, err := m.exec(ctx, TypeDelete, b)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (m *BaseMapper[T, K]) list(ctx context.Context, b sq.SelectBuilder) ([]T, error) {
	var items []T
	err := m.query(ctx, TypeSelect, b, func(rows *sql.Rows) error {
		var err error
		items, err = m.scanAll(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (m *BaseMapper[T, K]) query(ctx context.Context, typ string, b sq.Sqlizer, scan func(rows *sql.Rows) error) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", typ, err)
	}
	qc := &QueryContext{Type: typ, Table: m.meta.table, SQL: query, Args: args}

	return chain(m.mdls, func(ctx context.Context, qc *QueryContext) error {
		rows, err := m.sess.QueryContext(ctx, qc.SQL, qc.Args...)
		if err != nil {
			return Classify(err)
		}
		defer rows.Close()

		if err := scan(rows); err != nil {
			return err
		}
		return Classify(rows.Err())
	})(ctx, qc)
}

func (m *BaseMapper[T, K]) exec(ctx context.Context, typ string, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", typ, err)
	}
	qc := &QueryContext{Type: typ, Table: m.meta.table, SQL: query, Args: args}

	var res sql.Result
	err = chain(m.mdls, func(ctx context.Context, qc *QueryContext) error {
		var err error
		res, err = m.sess.ExecContext(ctx, qc.SQL, qc.Args...)
		return Classify(err)
	})(ctx, qc)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (m *BaseMapper[T, K]) scanAll(rows *sql.Rows) ([]T, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	items := make([]T, 0)
	for rows.Next() {
		var e T
		v := reflect.ValueOf(&e).Elem()
		targets := make([]any, len(cols))
		for i, c := range cols {
			if f, ok := m.meta.byColumn[c]; ok {
				targets[i] = v.FieldByIndex(f.index).Addr().Interface()
			} else {
				targets[i] = new(any)
			}
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, nil
}

func (m *BaseMapper[T, K]) selectBuilder() sq.SelectBuilder {
	cols := make([]string, 0, len(m.meta.fields))
	for _, c := range m.meta.columns() {
		cols = append(cols, m.dialect.Quote(c))
	}
	return sq.Select(cols...).From(m.table()).PlaceholderFormat(m.dialect.Placeholder())
}

func (m *BaseMapper[T, K]) filtered(b sq.SelectBuilder, q repository.Query) (sq.SelectBuilder, error) {
	eq, err := m.where(q)
	if err != nil {
		return b, err
	}
	if eq != nil {
		b = b.Where(eq)
	}

	for _, o := range q.OrderBy {
		parts := strings.Fields(o)
		if len(parts) == 0 || len(parts) > 2 {
			return b, fmt.Errorf("%w: order by %q", repository.ErrUnknownColumn, o)
		}
		if _, ok := m.meta.byColumn[parts[0]]; !ok {
			return b, fmt.Errorf("%w: %s", repository.ErrUnknownColumn, parts[0])
		}
		clause := m.dialect.Quote(parts[0])
		if len(parts) == 2 {
			dir := strings.ToUpper(parts[1])
			if dir != "ASC" && dir != "DESC" {
				return b, fmt.Errorf("invalid sort direction %q", parts[1])
			}
			clause += " " + dir
		}
		b = b.OrderBy(clause)
	}
	return b, nil
}

func (m *BaseMapper[T, K]) where(q repository.Query) (sq.Eq, error) {
	if len(q.Eq) == 0 {
		return nil, nil
	}
	eq := make(sq.Eq, len(q.Eq))
	for col, val := range q.Eq {
		if _, ok := m.meta.byColumn[col]; !ok {
			return nil, fmt.Errorf("%w: %s", repository.ErrUnknownColumn, col)
		}
		eq[m.dialect.Quote(col)] = val
	}
	return eq, nil
}

func (m *BaseMapper[T, K]) pkEq(v any) sq.Eq {
	return sq.Eq{m.dialect.Quote(m.meta.pk.column): v}
}

func (m *BaseMapper[T, K]) table() string {
	return m.dialect.Quote(m.meta.table)
}
