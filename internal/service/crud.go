package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"userapi/internal/repository"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 1000
)

var ErrNotFound = errors.New("record not found")

// PageResult is the service-level DTO for paginated rows.
type PageResult[T any] struct {
	Items []T   `json:"data"`
	Total int64 `json:"total"`
}

// CRUD is the service-layer view of a mapper: the same operations under service names,
// plus batch mutation and pagination.
type CRUD[T any, K comparable] interface {
	// GetByID returns ErrNotFound when no row has the key.
	GetByID(ctx context.Context, id K) (*T, error)
	// Save inserts one row and returns the affected-row count.
	Save(ctx context.Context, entity *T) (int64, error)
	// SaveBatch inserts all rows in one transaction; a failure leaves none stored.
	SaveBatch(ctx context.Context, entities []T) (int64, error)
	UpdateByID(ctx context.Context, entity *T) (int64, error)
	RemoveByID(ctx context.Context, id K) (int64, error)
	RemoveByIDs(ctx context.Context, ids []K) (int64, error)
	List(ctx context.Context, q repository.Query) ([]T, error)
	// Page clamps limit to [1,1000] (default 10) and offset to >= 0.
	Page(ctx context.Context, limit, offset int) (*PageResult[T], error)
	Count(ctx context.Context) (int64, error)
}

type crudService[T any, K comparable] struct {
	mapper repository.Mapper[T, K]
	// orderBy keeps paging stable.
	orderBy []string
}

// NewCRUD wraps mapper with service semantics. Pages are ordered by orderBy.
func NewCRUD[T any, K comparable](mapper repository.Mapper[T, K], orderBy ...string) CRUD[T, K] {
	return &crudService[T, K]{mapper: mapper, orderBy: orderBy}
}

func (s *crudService[T, K]) GetByID(ctx context.Context, id K) (*T, error) {
	e, err := s.mapper.SelectByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *crudService[T, K]) Save(ctx context.Context, entity *T) (int64, error) {
	return s.mapper.Insert(ctx, entity)
}

func (s *crudService[T, K]) SaveBatch(ctx context.Context, entities []T) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}

	var total int64
	err := s.mapper.InTx(ctx, func(ctx context.Context, m repository.Mapper[T, K]) error {
		for i := range entities {
			n, err := m.Insert(ctx, &entities[i])
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *crudService[T, K]) UpdateByID(ctx context.Context, entity *T) (int64, error) {
	return s.mapper.UpdateByID(ctx, entity)
}

func (s *crudService[T, K]) RemoveByID(ctx context.Context, id K) (int64, error) {
	return s.mapper.DeleteByID(ctx, id)
}

func (s *crudService[T, K]) RemoveByIDs(ctx context.Context, ids []K) (int64, error) {
	return s.mapper.DeleteBatchIDs(ctx, ids)
}

func (s *crudService[T, K]) List(ctx context.Context, q repository.Query) ([]T, error) {
	return s.mapper.SelectList(ctx, q)
}

func (s *crudService[T, K]) Page(ctx context.Context, limit, offset int) (*PageResult[T], error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.mapper.SelectPage(ctx,
		repository.PageQuery{Limit: limit, Offset: offset},
		repository.Query{OrderBy: s.orderBy},
	)
	if err != nil {
		return nil, err
	}
	return &PageResult[T]{Items: res.Items, Total: res.Total}, nil
}

func (s *crudService[T, K]) Count(ctx context.Context) (int64, error) {
	return s.mapper.SelectCount(ctx, repository.Query{})
}
