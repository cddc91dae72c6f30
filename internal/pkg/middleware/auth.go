package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/requestcontext"
)

// RequireSecretKey rejects publishable keys, which may only create tokens.
func RequireSecretKey(c *fiber.Ctx) error {
	if requestcontext.Get(c).KeyKind == requestcontext.KeyPublishable {
		return apierror.Unauthorized("This API call cannot be made with a publishable API key. Please use a secret API key.")
	}
	return c.Next()
}

// RequirePlatform restricts a route to the platform account, e.g. creating
// connected accounts.
func RequirePlatform(c *fiber.Ctx) error {
	if !requestcontext.IsPlatform(c) {
		return apierror.Forbidden("", "Only the platform account can manage connected accounts.")
	}
	return c.Next()
}
