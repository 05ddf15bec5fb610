// Package server assembles the Fiber application.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tiffin/internal/handlers"
	"tiffin/internal/metrics"
	"tiffin/internal/middleware"
)

// Deps is everything NewApp wires together.
type Deps struct {
	DB             *gorm.DB
	Gate           *middleware.Gate
	Metrics        *metrics.Metrics
	Log            logrus.FieldLogger
	RequestTimeout time.Duration

	Tiffins *handlers.TiffinHandler
	Orders  *handlers.OrderHandler
	Users   *handlers.UserHandler
}

// NewApp builds the Fiber app with middleware, operational endpoints and
// every API route.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "tiffin",
		ErrorHandler: handlers.ErrorHandler(d.Log),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(d.Metrics.Middleware())
	if d.RequestTimeout > 0 {
		app.Use(requestContext(d.RequestTimeout))
	}

	// --- Operational endpoints ---
	app.Get("/health", health(d.DB))
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}

	// --- API Routes ---
	d.Tiffins.RegisterRoutes(app, d.Gate)
	d.Orders.RegisterRoutes(app, d.Gate)
	d.Users.RegisterRoutes(app, d.Gate)

	return app
}

// requestContext bounds storage and key fetches made on behalf of a request.
func requestContext(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func health(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := fiber.StatusOK
		status, storage := "healthy", "up"

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			code = fiber.StatusServiceUnavailable
			status, storage = "unhealthy", "down"
		}

		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"time":     time.Now().Format(time.RFC3339),
			"database": storage,
		})
	}
}
