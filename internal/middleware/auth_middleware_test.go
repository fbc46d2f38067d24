package middleware_test

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog/internal/access"
	"catalog/internal/metrics"
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *services.AuthService {
	t.Helper()
	authService := services.NewAuthService(repositories.NewMemoryUserRepository(), "secret", time.Hour, 4)
	require.NoError(t, authService.RegisterUser(context.Background(), "alice", "pw", models.RoleUser))
	return authService
}

func newApp(authService *services.AuthService, m *metrics.Metrics) *fiber.App {
	app := fiber.New()
	app.Use(middleware.Metrics(m))
	app.Use(middleware.Authorize(authService, access.DefaultPolicy()))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		identity := middleware.IdentityFrom(c)
		if identity == nil {
			return c.SendString("anonymous")
		}
		return c.SendString(identity.Username + "/" + string(identity.Role))
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, authorization string) (int, string, http.Header) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header
}

func TestAuthorize_StoresIdentity(t *testing.T) {
	authService := newAuthService(t)
	app := newApp(authService, nil)

	status, body, _ := get(t, app, "/whoami", "Basic "+base64.StdEncoding.EncodeToString([]byte("alice:pw")))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice/USER", body)

	token, err := authService.IssueToken(&models.Identity{Username: "alice", Role: models.RoleUser})
	require.NoError(t, err)
	status, body, _ = get(t, app, "/whoami", "bearer "+token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice/USER", body)
}

func TestAuthorize_Rejects(t *testing.T) {
	app := newApp(newAuthService(t), nil)

	tests := []struct {
		name          string
		path          string
		authorization string
		status        int
	}{
		{"no credentials", "/whoami", "", http.StatusUnauthorized},
		{"wrong password", "/whoami", "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:nope")), http.StatusUnauthorized},
		{"not base64", "/whoami", "Basic ***", http.StatusUnauthorized},
		{"no colon", "/whoami", "Basic " + base64.StdEncoding.EncodeToString([]byte("alice")), http.StatusUnauthorized},
		{"no scheme", "/whoami", "token", http.StatusUnauthorized},
		{"forged token", "/whoami", "Bearer a.b.c", http.StatusUnauthorized},
		{"invalid credentials on public path", "/health", "Bearer a.b.c", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _, header := get(t, app, tt.path, tt.authorization)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, middleware.Challenge, header.Get("WWW-Authenticate"))
		})
	}
}

func TestAuthorize_PublicPathStaysAnonymous(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.Authorize(newAuthService(t), access.DefaultPolicy()))
	app.Get("/health", func(c *fiber.Ctx) error {
		assert.Nil(t, middleware.IdentityFrom(c))
		return c.SendStatus(fiber.StatusOK)
	})

	status, _, _ := get(t, app, "/health", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestMetrics_ObservesRenderedStatus(t *testing.T) {
	m := metrics.New()
	app := newApp(newAuthService(t), m)

	status, _, _ := get(t, app, "/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	count, err := testutil.GatherAndCount(m.Registry(), "catalog_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
