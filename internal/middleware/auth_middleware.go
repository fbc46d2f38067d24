package middleware

import (
	"encoding/base64"
	"errors"
	"strings"

	"catalog/internal/access"
	"catalog/internal/models"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// Challenge is sent with every 401 response.
const Challenge = `Basic realm="catalog"`

var errMalformedAuthorization = errors.New("malformed authorization header")

// Authorize authenticates the caller from a Basic or Bearer Authorization
// header and lets the request through only if policy allows it.
func Authorize(authService *services.AuthService, policy *access.Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := authenticate(c, authService)
		if err != nil {
			if errors.Is(err, services.ErrInvalidCredentials) ||
				errors.Is(err, services.ErrInvalidToken) ||
				errors.Is(err, errMalformedAuthorization) {
				return unauthorized(c, "Bad credentials")
			}
			return err
		}

		switch policy.Evaluate(c.Method(), c.Path(), identity) {
		case access.Unauthenticated:
			return unauthorized(c, "Full authentication is required to access this resource")
		case access.Forbidden:
			return fiber.NewError(fiber.StatusForbidden, "Access denied")
		}

		if identity != nil {
			c.Locals(identityKey, identity)
		}
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by Authorize, or nil for anonymous requests.
func IdentityFrom(c *fiber.Ctx) *models.Identity {
	identity, _ := c.Locals(identityKey).(*models.Identity)
	return identity
}

// authenticate returns a nil identity when no credentials were presented.
func authenticate(c *fiber.Ctx, authService *services.AuthService) (*models.Identity, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return nil, nil
	}

	scheme, value, ok := strings.Cut(header, " ")
	if !ok {
		return nil, errMalformedAuthorization
	}
	value = strings.TrimSpace(value)

	switch strings.ToLower(scheme) {
	case "basic":
		decoded, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, errMalformedAuthorization
		}
		username, password, ok := strings.Cut(string(decoded), ":")
		if !ok {
			return nil, errMalformedAuthorization
		}
		return authService.Authenticate(c.UserContext(), username, password)
	case "bearer":
		return authService.ValidateToken(c.UserContext(), value)
	default:
		return nil, errMalformedAuthorization
	}
}

func unauthorized(c *fiber.Ctx, message string) error {
	c.Set(fiber.HeaderWWWAuthenticate, Challenge)
	return fiber.NewError(fiber.StatusUnauthorized, message)
}
