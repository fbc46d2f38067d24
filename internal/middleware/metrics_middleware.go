// Package middleware holds the Fiber middleware of the service.
package middleware

import (
	"time"

	"catalog/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics observes the duration and final status of every request. Errors
// from the chain are rendered here so the recorded status is the one sent.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		m.ObserveRequest(c.Method(), c.Route().Path, c.Response().StatusCode(), time.Since(start))
		return nil
	}
}
