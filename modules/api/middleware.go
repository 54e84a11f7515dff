package api

import (
	"github.com/example/task-tracker/domain/user"
	"github.com/example/task-tracker/modules/auth"
	"github.com/gofiber/fiber/v2"
)

// IdentityKey is the Locals key holding the authenticated user.Identity.
const IdentityKey = "identity"

// AuthMiddleware rejects requests the gate does not authenticate and stores
// the caller's identity for downstream handlers. A verifier failure is a 500,
// not a 401, so clients keep their session.
func AuthMiddleware(gate *auth.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		outcome := gate.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if outcome.Err != nil {
			return writeError(c, outcome.Err)
		}
		if !outcome.Authenticated() {
			return reject(c, fiber.StatusUnauthorized, outcome.Reason.Message())
		}
		c.Locals(IdentityKey, outcome.Identity)
		return c.Next()
	}
}

func identityFrom(c *fiber.Ctx) (user.Identity, bool) {
	identity, ok := c.Locals(IdentityKey).(user.Identity)
	return identity, ok && identity.UserID != ""
}
