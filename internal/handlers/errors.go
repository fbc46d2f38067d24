package handlers

import (
	"errors"

	"catalog/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const unexpectedError = "Unexpected error"

// ErrorHandler renders every error returned by a handler or middleware as an
// ErrorResponse. Causes of server errors are logged, never sent.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message := resolve(err)

		entry := log.WithFields(logrus.Fields{"method": c.Method(), "path": c.Path()})
		if status >= fiber.StatusInternalServerError {
			entry.WithError(err).Errorf("Request failed: %d - %s", status, message)
		} else {
			entry.Warnf("Request failed: %d - %s", status, message)
		}

		return c.Status(status).JSON(ErrorResponse{Message: message, HTTPCode: status})
	}
}

func resolve(err error) (int, string) {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Kind.Status(), appErr.Message
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		if fiberErr.Code >= fiber.StatusInternalServerError {
			return fiberErr.Code, unexpectedError
		}
		return fiberErr.Code, fiberErr.Message
	}

	return fiber.StatusInternalServerError, unexpectedError
}
