// Package main provides the flowdeck API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/flowdeck/pkg/monitor"
	"github.com/dukex/flowdeck/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger   *slog.Logger
	services web.Services
	sweeper  *monitor.Sweeper
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, services web.Services, sweeper *monitor.Sweeper) *API {
	return &API{
		logger:   logger,
		services: services,
		sweeper:  sweeper,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.services, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowdeck API")
	})

	handlers.Register(app)

	return app
}

// Start serves the API until ctx is canceled, running the stale execution sweeper alongside.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	if a.sweeper != nil {
		if err := a.sweeper.Start(); err != nil {
			return err
		}

		defer a.sweeper.Stop()
	}

	go func() {
		<-ctx.Done()

		if err := app.Shutdown(); err != nil {
			a.logger.Error("Failed to shut down API", "error", err)
		}
	}()

	return app.Listen(":" + strconv.Itoa(port))
}
