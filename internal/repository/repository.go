package repository

import (
	"context"
	"errors"

	"userapi/internal/model"
)

var (
	// ErrDuplicateKey is returned when a write collides with a primary or unique key.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrUnknownColumn is returned when a Query references a column the entity does not map.
	ErrUnknownColumn = errors.New("unknown column")
)

// Mapper defines generated persistence operations for an entity type T keyed by K.
// Persistence only, no business rules.
type Mapper[T any, K comparable] interface {
	// SelectByID returns the row with the given key, or sql.ErrNoRows.
	SelectByID(ctx context.Context, id K) (*T, error)

	// SelectBatchIDs returns the rows whose keys are in ids. Missing keys are skipped.
	SelectBatchIDs(ctx context.Context, ids []K) ([]T, error)

	// SelectList returns every row matching q.
	SelectList(ctx context.Context, q Query) ([]T, error)

	// SelectCount counts the rows matching q.
	SelectCount(ctx context.Context, q Query) (int64, error)

	// SelectPage returns one page of rows matching q and the total count.
	SelectPage(ctx context.Context, pq PageQuery, q Query) (*PageResult[T], error)

	// Insert stores a new row and returns the affected-row count.
	Insert(ctx context.Context, entity *T) (int64, error)

	// UpdateByID overwrites every non-key column of the row identified by entity's key.
	UpdateByID(ctx context.Context, entity *T) (int64, error)

	// DeleteByID removes a row by key and returns the affected-row count (0 when absent).
	DeleteByID(ctx context.Context, id K) (int64, error)

	// DeleteBatchIDs removes the rows whose keys are in ids.
	DeleteBatchIDs(ctx context.Context, ids []K) (int64, error)

	// InTx runs fn with a mapper bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, m Mapper[T, K]) error) error
}

// UserMapper is the mapper for users; all behavior comes from the generic implementation.
type UserMapper = Mapper[model.User, int64]

// Query filters rows by column equality. A slice value becomes an IN clause.
type Query struct {
	Eq      map[string]any
	OrderBy []string
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int64
}
