package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"userapi/internal/model"
	"userapi/internal/service"
)

// parseID reads a positive int64 id; anything else is reported as INVALID_ID.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func invalidID(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id must be a positive integer")
}

// GetUser returns the user with the given id, or a JSON null when there is none.
//
// @Summary Get user by id
// @Tags users
// @Produce json
// @Param id path int true "user id"
// @Success 200 {object} model.User
// @Failure 400 {object} errorPayload
// @Router /mybatis-plus/user/{id} [get]
func GetUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c.Params("id"))
		if !ok {
			return invalidID(c)
		}
		u, err := svc.GetByID(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return c.JSON(nil)
			}
			return writeServiceError(c, err)
		}
		return c.JSON(u)
	}
}

// CreateUser inserts a user from form fields id and name and returns the affected-row count.
//
// @Summary Create user
// @Tags users
// @Accept x-www-form-urlencoded
// @Produce json
// @Param id formData int true "user id"
// @Param name formData string true "user name"
// @Success 200 {integer} int
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /mybatis-plus/user [post]
func CreateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c.FormValue("id"))
		if !ok {
			return invalidID(c)
		}
		n, err := svc.Save(c.UserContext(), &model.User{ID: id, Name: c.FormValue("name")})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(n)
	}
}

// UpdateUser renames a user from form field name and returns the affected-row count.
//
// @Summary Update user
// @Tags users
// @Accept x-www-form-urlencoded
// @Produce json
// @Param id path int true "user id"
// @Param name formData string true "user name"
// @Success 200 {integer} int
// @Failure 400 {object} errorPayload
// @Router /mybatis-plus/user/{id} [put]
func UpdateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c.Params("id"))
		if !ok {
			return invalidID(c)
		}
		n, err := svc.UpdateByID(c.UserContext(), &model.User{ID: id, Name: c.FormValue("name")})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(n)
	}
}

// DeleteUser deletes by id and returns the affected-row count.
//
// @Summary Delete user
// @Tags users
// @Produce json
// @Param id path int true "user id"
// @Success 200 {integer} int
// @Failure 400 {object} errorPayload
// @Router /mybatis-plus/user/{id} [delete]
func DeleteUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c.Params("id"))
		if !ok {
			return invalidID(c)
		}
		n, err := svc.RemoveByID(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(n)
	}
}

// ListUsers pages through users ordered by id.
//
// @Summary List users
// @Tags users
// @Produce json
// @Param limit query int false "page size (default 10, max 1000)"
// @Param offset query int false "rows to skip"
// @Success 200 {object} service.PageResult[model.User]
// @Failure 400 {object} errorPayload
// @Router /mybatis-plus/user [get]
func ListUsers(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.Page(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// CreateUsersBatch inserts a JSON array of users in one transaction.
//
// @Summary Create users in batch
// @Tags users
// @Accept json
// @Produce json
// @Param users body []model.User true "users"
// @Success 200 {integer} int
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /mybatis-plus/user/batch [post]
func CreateUsersBatch(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []model.User
		if err := c.BodyParser(&users); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON array of users")
		}
		n, err := svc.SaveBatch(c.UserContext(), users)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(n)
	}
}

// DeleteUsers deletes every id in the comma-separated ids query parameter.
//
// @Summary Delete users in batch
// @Tags users
// @Produce json
// @Param ids query string true "comma-separated ids, e.g. 1,2"
// @Success 200 {integer} int
// @Failure 400 {object} errorPayload
// @Router /mybatis-plus/user [delete]
func DeleteUsers(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("ids")
		if raw == "" {
			return invalidID(c)
		}
		parts := strings.Split(raw, ",")
		ids := make([]int64, 0, len(parts))
		for _, p := range parts {
			id, ok := parseID(p)
			if !ok {
				return invalidID(c)
			}
			ids = append(ids, id)
		}
		n, err := svc.RemoveByIDs(c.UserContext(), ids)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(n)
	}
}
