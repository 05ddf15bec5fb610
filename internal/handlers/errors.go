package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"tiffin/internal/apperr"
)

// ErrorHandler renders every error returned by a route as JSON. Validation
// failures carry per-field details. Server-side failures are logged and
// replaced by a generic message.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		kind := apperr.KindOf(err)
		status := apperr.Status(kind)
		if !apperr.Exposed(kind) {
			log.WithError(err).WithFields(logrus.Fields{
				"kind":       kind.String(),
				"method":     c.Method(),
				"path":       c.Path(),
				"request_id": c.Locals("requestid"),
			}).Error("request failed")
			return c.Status(status).JSON(fiber.Map{"error": genericMessage(kind)})
		}

		var appErr *apperr.Error
		errors.As(err, &appErr)
		body := fiber.Map{"error": appErr.Message}
		if len(appErr.Fields) > 0 {
			body["details"] = appErr.Fields
		}
		return c.Status(status).JSON(body)
	}
}

func genericMessage(kind apperr.Kind) string {
	switch kind {
	case apperr.KindServerMisconfigured:
		return "Server configuration error."
	case apperr.KindVerificationUnavailable:
		return "Unable to verify credentials right now."
	default:
		return "Internal server error"
	}
}
