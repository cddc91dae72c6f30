package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/requestcontext"
)

// HeaderStripeAccount selects the connected account a request acts on.
const HeaderStripeAccount = "Stripe-Account"

// AccountChecker is satisfied by the billing service.
type AccountChecker interface {
	AccountExists(id string) bool
}

// AccountMiddleware picks the partition of the request from the
// Stripe-Account header. Unknown accounts are rejected with 403.
func AccountMiddleware(accounts AccountChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account := strings.TrimSpace(c.Get(HeaderStripeAccount))
		if account == "" {
			account = models.DefaultAccountID
		}
		rc := requestcontext.Get(c)
		if account != models.DefaultAccountID && !accounts.AccountExists(account) {
			return apierror.Forbidden(apierror.CodeAccountInvalid, fmt.Sprintf(
				"The provided key '%s' does not have access to account '%s' (or that account does not exist). Application access may have been revoked.",
				redactKey(rc.APIKey), account))
		}
		rc.Account = account
		requestcontext.Set(c, rc)
		return c.Next()
	}
}
