package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/billing"
	"github.com/ManuelReschke/PayFox/internal/pkg/config"
	"github.com/ManuelReschke/PayFox/internal/pkg/idempotency"
)

// Router installs a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Options carry what the routers need to serve requests.
type Options struct {
	Service     *billing.Service
	Idempotency *idempotency.Store
	Settings    config.Settings
	// AccessLog enables the request logger.
	AccessLog bool
}

// NewApplication builds the fiber app with every router installed.
func NewApplication(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "PayFox",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	// recovery and logging
	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}

	InstallRouter(app, opts)
	return app
}

func InstallRouter(app *fiber.App, opts Options) {
	// system routes stay reachable without an API key
	setup(app, NewHttpRouter(opts.Settings), NewApiRouter(opts))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}

// ErrorHandler renders every error as a Stripe error body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	apiErr := apierror.From(err)
	if apiErr.Status >= fiber.StatusInternalServerError {
		log.Errorf("[Router] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(apiErr.Status).JSON(apiErr.Body())
}
