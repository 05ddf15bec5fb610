package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"tiffin/internal/apperr"
	"tiffin/internal/metrics"
	"tiffin/internal/services"
)

const callerKey = "caller"

// Gate turns route policies into Fiber middleware.
type Gate struct {
	auth    *services.AuthService
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// NewGate creates a Gate. m may be nil.
func NewGate(auth *services.AuthService, m *metrics.Metrics, log logrus.FieldLogger) *Gate {
	return &Gate{auth: auth, metrics: m, log: log}
}

// Require admits the request only when it satisfies policy. On failure the
// error is returned to the app's error handler and the next handler never runs.
func (g *Gate) Require(policy services.Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := g.auth.Authorize(c.UserContext(), c.Get(fiber.HeaderAuthorization), policy)
		if err != nil {
			kind := apperr.KindOf(err)
			g.metrics.GateDecision(policy.String(), kind.String())
			g.log.WithFields(logrus.Fields{
				"policy": policy.String(),
				"reason": kind.String(),
				"path":   c.Path(),
			}).Debug("request rejected by access gate")
			return err
		}
		g.metrics.GateDecision(policy.String(), "allowed")

		// Store the caller for subsequent handlers
		c.Locals(callerKey, caller)
		return c.Next()
	}
}

// CallerFrom returns the caller stored by Require. Public routes get an
// empty caller.
func CallerFrom(c *fiber.Ctx) *services.Caller {
	if caller, ok := c.Locals(callerKey).(*services.Caller); ok {
		return caller
	}
	return &services.Caller{}
}
