package requestcontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/app/models"
)

// Key kinds a caller may authenticate with.
const (
	KeySecret      = "secret"
	KeyRestricted  = "restricted"
	KeyPublishable = "publishable"
)

// RequestContext is what the middleware chain learned about the caller.
type RequestContext struct {
	RequestID string `json:"request_id"`
	Account   string `json:"account"`
	APIKey    string `json:"-"`
	KeyKind   string `json:"key_kind"`
}

// Get retrieves the request context from fiber context.
// Returns a platform-account context if none is set
func Get(c *fiber.Ctx) RequestContext {
	if rc, ok := c.Locals(KeyRequestContext).(RequestContext); ok {
		return rc
	}
	return RequestContext{Account: models.DefaultAccountID}
}

// Set stores rc on c, together with the flat keys read by the access log.
func Set(c *fiber.Ctx, rc RequestContext) {
	c.Locals(KeyRequestContext, rc)
	c.Locals(KeyRequestID, rc.RequestID)
	c.Locals(KeyAccount, rc.Account)
}

// Account returns the partition the request acts on.
func Account(c *fiber.Ctx) string {
	return Get(c).Account
}

// RequestID returns the id sent back in the Request-Id header
func RequestID(c *fiber.Ctx) string {
	return Get(c).RequestID
}

// IsPlatform reports whether the request acts on the platform account.
func IsPlatform(c *fiber.Ctx) bool {
	return Account(c) == models.DefaultAccountID
}
