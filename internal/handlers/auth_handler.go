package handlers

import (
	"catalog/internal/middleware"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/token", h.HandleIssueToken)
}

// HandleIssueToken exchanges the credentials of the current request for a
// bearer token carrying the same identity.
func (h *AuthHandler) HandleIssueToken(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		c.Set(fiber.HeaderWWWAuthenticate, middleware.Challenge)
		return fiber.NewError(fiber.StatusUnauthorized, "Full authentication is required to access this resource")
	}

	token, err := h.authService.IssueToken(identity)
	if err != nil {
		return err
	}
	return c.JSON(TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(h.authService.TokenTTL().Seconds()),
	})
}
