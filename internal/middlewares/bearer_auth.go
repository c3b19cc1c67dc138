package middlewares

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// BearerAuth guards an endpoint with a single shared bearer token. Missing or
// wrong tokens are authentication failures (401), never retried by callers.
func BearerAuth(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authorization := ctx.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(authorization, "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return fiber.ErrUnauthorized
		}
		return ctx.Next()
	}
}
