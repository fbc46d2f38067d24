package handlers

import (
	"time"

	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type HealthHandler struct {
	service *services.ProductService
	log     logrus.FieldLogger
}

func NewHealthHandler(service *services.ProductService, log logrus.FieldLogger) *HealthHandler {
	return &HealthHandler{service: service, log: log}
}

func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth reports whether the product store answers.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	now := time.Now().Format(time.RFC3339)

	count, err := h.service.CountProducts(c.UserContext())
	if err != nil {
		h.log.WithError(err).Error("Health check failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{Status: "unhealthy", Time: now})
	}
	return c.JSON(HealthResponse{Status: "healthy", Time: now, Products: count})
}
