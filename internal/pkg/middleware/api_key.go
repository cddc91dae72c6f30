package middleware

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/requestcontext"
)

var keyPrefixes = map[string]string{
	"sk_": requestcontext.KeySecret,
	"rk_": requestcontext.KeyRestricted,
	"pk_": requestcontext.KeyPublishable,
}

// APIKeyAuthMiddleware authenticates requests carrying an API key, either as
// a bearer token or as the basic auth user name. Any well-formed test or
// live key is accepted.
func APIKeyAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return apierror.Unauthorized("You did not provide an API key. You need to provide your API key in the Authorization header, using Bearer auth (e.g. 'Authorization: Bearer YOUR_SECRET_KEY').")
		}

		kind, ok := parseAPIKey(apiKey)
		if !ok {
			return apierror.Unauthorized(fmt.Sprintf("Invalid API Key provided: %s", redactKey(apiKey)))
		}

		rc := requestcontext.Get(c)
		rc.APIKey = apiKey
		rc.KeyKind = kind
		requestcontext.Set(c, rc)
		return c.Next()
	}
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	switch {
	case strings.HasPrefix(strings.ToLower(auth), "bearer "):
		return strings.TrimSpace(auth[7:])
	case strings.HasPrefix(strings.ToLower(auth), "basic "):
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(auth[6:]))
		if err != nil {
			return ""
		}
		user, _, _ := strings.Cut(string(raw), ":")
		return strings.TrimSpace(user)
	}
	return ""
}

// parseAPIKey accepts keys shaped like sk_test_xxx or pk_live_xxx.
func parseAPIKey(key string) (kind string, ok bool) {
	if len(key) < 4 {
		return "", false
	}
	kind, ok = keyPrefixes[key[:3]]
	if !ok {
		return "", false
	}
	rest := key[3:]
	for _, mode := range []string{"test_", "live_"} {
		if strings.HasPrefix(rest, mode) && len(rest) > len(mode) {
			return kind, true
		}
	}
	return "", false
}

// redactKey keeps the prefix and the last four characters of a key.
func redactKey(key string) string {
	if len(key) <= 12 {
		return key
	}
	return key[:8] + strings.Repeat("*", len(key)-12) + key[len(key)-4:]
}
