package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ManuelReschke/PayFox/internal/pkg/requestcontext"
)

// HeaderRequestID carries the id of every request back to the client.
const HeaderRequestID = "Request-Id"

// RequestIDMiddleware tags the request with a fresh id and starts its
// request context on the platform account.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		rc := requestcontext.Get(c)
		rc.RequestID = id
		requestcontext.Set(c, rc)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}
