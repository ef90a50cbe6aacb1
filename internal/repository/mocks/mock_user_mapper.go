package mocks

import (
	"context"

	"userapi/internal/model"
	"userapi/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockUserMapper struct {
	mock.Mock
}

var _ repository.UserMapper = (*MockUserMapper)(nil)

func (m *MockUserMapper) SelectByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserMapper) SelectBatchIDs(ctx context.Context, ids []int64) ([]model.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserMapper) SelectList(ctx context.Context, q repository.Query) ([]model.User, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserMapper) SelectCount(ctx context.Context, q repository.Query) (int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserMapper) SelectPage(ctx context.Context, pq repository.PageQuery, q repository.Query) (*repository.PageResult[model.User], error) {
	args := m.Called(ctx, pq, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.User]), args.Error(1)
}

func (m *MockUserMapper) Insert(ctx context.Context, entity *model.User) (int64, error) {
	args := m.Called(ctx, entity)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserMapper) UpdateByID(ctx context.Context, entity *model.User) (int64, error) {
	args := m.Called(ctx, entity)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserMapper) DeleteByID(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserMapper) DeleteBatchIDs(ctx context.Context, ids []int64) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// InTx runs fn against the mock itself, so expectations set on the mock apply inside the transaction too.
func (m *MockUserMapper) InTx(ctx context.Context, fn func(ctx context.Context, tm repository.Mapper[model.User, int64]) error) error {
	m.Called(ctx)
	return fn(ctx, m)
}
