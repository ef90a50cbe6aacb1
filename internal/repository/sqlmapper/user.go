package sqlmapper

import (
	"database/sql"

	"userapi/internal/model"
	"userapi/internal/repository"
)

var _ repository.UserMapper = (*BaseMapper[model.User, int64])(nil)

// NewUserMapper creates the users mapper.
func NewUserMapper(db *sql.DB, opts ...Option) (*BaseMapper[model.User, int64], error) {
	return New[model.User, int64](db, opts...)
}
