package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	apiv1 "github.com/ManuelReschke/PayFox/internal/api/v1"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/idempotency"
	"github.com/ManuelReschke/PayFox/internal/pkg/middleware"
)

type ApiRouter struct {
	opts Options
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	handlers := []fiber.Handler{middleware.RequestIDMiddleware()}
	if h.opts.Settings.RateLimitMax > 0 {
		handlers = append(handlers, limiter.New(limiter.Config{
			Max:        h.opts.Settings.RateLimitMax,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return apierror.RateLimit("Too many requests hit the API too quickly. We recommend an exponential backoff of your requests.")
			},
		}))
	}
	handlers = append(handlers,
		middleware.APIKeyAuthMiddleware(),
		middleware.AccountMiddleware(h.opts.Service),
	)
	if h.opts.Idempotency != nil {
		handlers = append(handlers, idempotency.New(idempotency.Config{Store: h.opts.Idempotency}))
	}

	v1 := app.Group("/v1", handlers...)
	apiServer := apiv1.NewAPIServer(h.opts.Service)
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter(opts Options) *ApiRouter {
	return &ApiRouter{opts: opts}
}
