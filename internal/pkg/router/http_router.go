package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/ManuelReschke/PayFox/internal/pkg/config"
)

// HttpRouter serves the unauthenticated system routes.
type HttpRouter struct {
	settings config.Settings
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// fiber metrics; disabled until a password is configured
	if h.settings.MetricsPassword != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{
				h.settings.MetricsUser: h.settings.MetricsPassword,
			},
		}), monitor.New(monitor.Config{Title: "PayFox Metrics"}))
	}
}

func NewHttpRouter(settings config.Settings) *HttpRouter {
	return &HttpRouter{settings: settings}
}
