package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"userapi/internal/service"
)

// UserBasePath is the REST resource prefix for users.
const UserBasePath = "/mybatis-plus/user"

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, userSvc service.UserService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	users := app.Group(UserBasePath)
	users.Get("/", ListUsers(userSvc))
	users.Post("/", CreateUser(userSvc))
	users.Delete("/", DeleteUsers(userSvc))
	users.Post("/batch", CreateUsersBatch(userSvc))
	users.Get("/:id", GetUser(userSvc))
	users.Put("/:id", UpdateUser(userSvc))
	users.Delete("/:id", DeleteUser(userSvc))
}

// HealthCheck checks DB connectivity only.
//
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
//
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
