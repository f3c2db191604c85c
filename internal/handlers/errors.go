package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/otpauth/internal/services"
)

// statusFor maps an engine failure kind onto an HTTP status.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindConflict, services.KindUnauthorized:
		return fiber.StatusBadRequest
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// toHTTPError converts classified engine errors into fiber errors and leaves
// everything else for ErrorHandler to log as an internal failure.
func toHTTPError(err error) error {
	var e *services.Error
	if errors.As(err, &e) {
		return fiber.NewError(statusFor(e.Kind), e.Msg)
	}
	return err
}

// ErrorHandler renders every error as {"detail": "..."}.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		} else {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		return c.Status(code).JSON(fiber.Map{"detail": msg})
	}
}
