package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"catalog/internal/app"
	"catalog/internal/config"
	"catalog/internal/handlers"
	"catalog/internal/models"
	"catalog/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	asAdmin = "admin:admin"
	asUser  = "user:user"
	anon    = ""
)

// setupApp wires the whole service on a private in-memory SQLite database.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		DBDriver:       config.DriverSQLite,
		DatabaseDSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		IdentitySource: config.IdentityFromConfig,
		JWTSecret:      "test_jwt_secret",
		TokenTTL:       time.Hour,
		BcryptCost:     4,
		Users: []config.UserConfig{
			{Username: "admin", Password: "admin", Role: "ADMIN"},
			{Username: "user", Password: "user", Role: "USER"},
		},
	}

	application, err := app.New(context.Background(), cfg, logger.NewWithOutput("panic", io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })
	return application.Fiber
}

func basic(credentials string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}

// call sends a request with Basic credentials unless authorization is empty
// or already carries a scheme.
func call(t *testing.T, a *fiber.App, method, path, authorization string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case authorization == "":
	case strings.Contains(authorization, " "):
		req.Header.Set("Authorization", authorization)
	default:
		req.Header.Set("Authorization", basic(authorization))
	}

	resp, err := a.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func product(name string, price float64, quantity int) map[string]any {
	return map[string]any{"name": name, "description": name + " description", "price": price, "quantity": quantity}
}

func TestProductLifecycle(t *testing.T) {
	a := setupApp(t)

	resp, raw := call(t, a, http.MethodPost, "/products", asAdmin, product("Milk", 10.0, 5))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	created := decode[models.Product](t, raw)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Milk", created.Name)
	assert.Equal(t, "Milk description", created.Description)

	resp, raw = call(t, a, http.MethodGet, "/products/"+created.ID, asUser, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created, decode[models.Product](t, raw))

	resp, raw = call(t, a, http.MethodPatch, "/products/"+created.ID+"/price", asAdmin, map[string]any{"price": 12.5})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	updated := decode[models.Product](t, raw)
	assert.Equal(t, 12.5, updated.Price)
	assert.Equal(t, 5, updated.Quantity)
	assert.Equal(t, created.ID, updated.ID)

	resp, raw = call(t, a, http.MethodPatch, "/products/"+created.ID+"/quantity", asAdmin, map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	updated = decode[models.Product](t, raw)
	assert.Equal(t, 12.5, updated.Price)
	assert.Equal(t, 0, updated.Quantity)

	resp, _ = call(t, a, http.MethodDelete, "/products/"+created.ID, asAdmin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = call(t, a, http.MethodGet, "/products/"+created.ID, asUser, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	errResp := decode[handlers.ErrorResponse](t, raw)
	assert.Equal(t, "Product not found with id: "+created.ID, errResp.Message)
	assert.Equal(t, http.StatusNotFound, errResp.HTTPCode)
}

func TestListKeepsCreationOrder(t *testing.T) {
	a := setupApp(t)

	resp, raw := call(t, a, http.MethodGet, "/products", asUser, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(raw))

	for _, name := range []string{"Milk", "Bread", "Eggs"} {
		resp, _ := call(t, a, http.MethodPost, "/products", asAdmin, product(name, 1, 1))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	_, raw = call(t, a, http.MethodGet, "/products", asAdmin, nil)
	products := decode[[]models.Product](t, raw)
	require.Len(t, products, 3)
	assert.Equal(t, "Milk", products[0].Name)
	assert.Equal(t, "Bread", products[1].Name)
	assert.Equal(t, "Eggs", products[2].Name)
}

func TestCreateDuplicateName(t *testing.T) {
	a := setupApp(t)

	resp, _ := call(t, a, http.MethodPost, "/products", asAdmin, product("Bread", 2.5, 3))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw := call(t, a, http.MethodPost, "/products", asAdmin, product("Bread", 3.0, 1))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errResp := decode[handlers.ErrorResponse](t, raw)
	assert.Equal(t, "Product already exists with name: Bread", errResp.Message)
	assert.Equal(t, http.StatusConflict, errResp.HTTPCode)

	_, raw = call(t, a, http.MethodGet, "/products", asAdmin, nil)
	assert.Len(t, decode[[]models.Product](t, raw), 1)
}

func TestCreateValidation(t *testing.T) {
	a := setupApp(t)

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"blank name", product("   ", 1, 1), "name: must not be blank"},
		{"missing name", map[string]any{"price": 1, "quantity": 1}, "name: must not be blank"},
		{"negative price", product("Milk", -1, 1), "price: must be greater than or equal to 0"},
		{"negative quantity", product("Milk", 1, -3), "quantity: must be greater than or equal to 0"},
		{"missing quantity", map[string]any{"name": "Milk", "price": 1}, "quantity: must not be null"},
		{"long name", product(strings.Repeat("n", 201), 1, 1), "name: size must be between 0 and 200"},
		{
			"long description",
			map[string]any{"name": "Milk", "description": strings.Repeat("d", 501), "price": 1, "quantity": 1},
			"description: size must be between 0 and 500",
		},
		{
			"every field wrong",
			map[string]any{"name": "", "price": -1},
			"name: must not be blank; price: must be greater than or equal to 0; quantity: must not be null",
		},
		{"fractional quantity", `{"name":"Milk","price":1,"quantity":1.5}`, "quantity: must be of type int"},
		{"malformed body", `{"name":`, "Malformed request body"},
		{"empty body", "", "Malformed request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := call(t, a, http.MethodPost, "/products", asAdmin, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			errResp := decode[handlers.ErrorResponse](t, raw)
			assert.Equal(t, tt.message, errResp.Message)
			assert.Equal(t, http.StatusBadRequest, errResp.HTTPCode)
		})
	}

	_, raw := call(t, a, http.MethodGet, "/products", asAdmin, nil)
	assert.JSONEq(t, "[]", string(raw))
}

func TestCreateAcceptsBoundaryValues(t *testing.T) {
	a := setupApp(t)

	resp, raw := call(t, a, http.MethodPost, "/products", asAdmin,
		map[string]any{"name": strings.Repeat("n", 200), "price": 0, "quantity": 0})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	created := decode[models.Product](t, raw)
	assert.Equal(t, 0.0, created.Price)
	assert.Equal(t, 0, created.Quantity)
	assert.Empty(t, created.Description)
}

func TestGetAndDeleteByName(t *testing.T) {
	a := setupApp(t)

	resp, _ := call(t, a, http.MethodPost, "/products", asAdmin, product("Whole Milk", 3, 2))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw := call(t, a, http.MethodGet, "/products/by-name/Whole%20Milk", asUser, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "Whole Milk", decode[models.Product](t, raw).Name)

	resp, raw = call(t, a, http.MethodGet, "/products/by-name/Cheese", asUser, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found with name: Cheese", decode[handlers.ErrorResponse](t, raw).Message)

	for i := 0; i < 2; i++ {
		resp, _ = call(t, a, http.MethodDelete, "/products/by-name/Whole%20Milk", asAdmin, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	resp, _ = call(t, a, http.MethodGet, "/products/by-name/Whole%20Milk", asUser, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteIsIdempotent(t *testing.T) {
	a := setupApp(t)

	resp, _ := call(t, a, http.MethodDelete, "/products/"+uuid.NewString(), asAdmin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	for _, name := range []string{"Milk", "Bread"} {
		resp, _ := call(t, a, http.MethodPost, "/products", asAdmin, product(name, 1, 1))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	for i := 0; i < 2; i++ {
		resp, _ = call(t, a, http.MethodDelete, "/products", asAdmin, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	_, raw := call(t, a, http.MethodGet, "/products", asUser, nil)
	assert.JSONEq(t, "[]", string(raw))
}

func TestUpdateErrors(t *testing.T) {
	a := setupApp(t)

	resp, raw := call(t, a, http.MethodPost, "/products", asAdmin, product("Milk", 10, 5))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decode[models.Product](t, raw).ID

	resp, raw = call(t, a, http.MethodPatch, "/products/missing/price", asAdmin, map[string]any{"price": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found with id: missing", decode[handlers.ErrorResponse](t, raw).Message)

	resp, raw = call(t, a, http.MethodPatch, "/products/"+id+"/price", asAdmin, map[string]any{"price": -0.01})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "price: must be greater than or equal to 0", decode[handlers.ErrorResponse](t, raw).Message)

	resp, raw = call(t, a, http.MethodPatch, "/products/"+id+"/quantity", asAdmin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "quantity: must not be null", decode[handlers.ErrorResponse](t, raw).Message)

	_, raw = call(t, a, http.MethodGet, "/products/"+id, asAdmin, nil)
	unchanged := decode[models.Product](t, raw)
	assert.Equal(t, 10.0, unchanged.Price)
	assert.Equal(t, 5, unchanged.Quantity)
}

func TestAccessControl(t *testing.T) {
	a := setupApp(t)

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		body   any
		status int
	}{
		{"anonymous list", http.MethodGet, "/products", anon, nil, http.StatusUnauthorized},
		{"anonymous create", http.MethodPost, "/products", anon, product("Milk", 1, 1), http.StatusUnauthorized},
		{"wrong password", http.MethodGet, "/products", "admin:nope", nil, http.StatusUnauthorized},
		{"unknown user", http.MethodGet, "/products", "ghost:ghost", nil, http.StatusUnauthorized},
		{"unknown scheme", http.MethodGet, "/products", "Digest abc", nil, http.StatusUnauthorized},
		{"bad credentials on public path", http.MethodGet, "/health", "admin:nope", nil, http.StatusUnauthorized},
		{"user list", http.MethodGet, "/products", asUser, nil, http.StatusOK},
		{"user create", http.MethodPost, "/products", asUser, product("Milk", 1, 1), http.StatusForbidden},
		{"user patch", http.MethodPatch, "/products/x/price", asUser, map[string]any{"price": 1}, http.StatusForbidden},
		{"user delete all", http.MethodDelete, "/products", asUser, nil, http.StatusForbidden},
		{"user delete by name", http.MethodDelete, "/products/by-name/Milk", asUser, nil, http.StatusForbidden},
		{"anonymous health", http.MethodGet, "/health", anon, nil, http.StatusOK},
		{"anonymous metrics", http.MethodGet, "/metrics", anon, nil, http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/nowhere", asUser, nil, http.StatusNotFound},
		{"user create upper case", http.MethodPost, "/PRODUCTS", asUser, product("Hacked", 1, 1), http.StatusForbidden},
		{"user delete all mixed case", http.MethodDelete, "/Products", asUser, nil, http.StatusForbidden},
		{"user patch mixed case", http.MethodPatch, "/Products/x/price", asUser, map[string]any{"price": 1}, http.StatusForbidden},
		{"anonymous list upper case", http.MethodGet, "/PRODUCTS", anon, nil, http.StatusUnauthorized},
		{"admin create upper case", http.MethodPost, "/PRODUCTS", asAdmin, product("Shouted", 1, 1), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := call(t, a, tt.method, tt.path, tt.auth, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(raw))
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="catalog"`, resp.Header.Get("WWW-Authenticate"))
			}
			if tt.status >= http.StatusBadRequest {
				assert.Equal(t, tt.status, decode[handlers.ErrorResponse](t, raw).HTTPCode)
			}
		})
	}

	_, raw := call(t, a, http.MethodGet, "/products", asAdmin, nil)
	assert.JSONEq(t, "[]", string(raw))
}

func TestTokenFlow(t *testing.T) {
	a := setupApp(t)

	resp, raw := call(t, a, http.MethodPost, "/auth/token", asUser, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	token := decode[handlers.TokenResponse](t, raw)
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)

	bearer := "Bearer " + token.Token
	resp, _ = call(t, a, http.MethodGet, "/products", bearer, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = call(t, a, http.MethodPost, "/products", bearer, product("Milk", 1, 1))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, a, http.MethodGet, "/products", "Bearer not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = call(t, a, http.MethodPost, "/auth/token", anon, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	a := setupApp(t)

	resp, _ := call(t, a, http.MethodPost, "/products", asAdmin, product("Milk", 1, 1))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw := call(t, a, http.MethodGet, "/health", anon, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	health := decode[handlers.HealthResponse](t, raw)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, int64(1), health.Products)
	assert.NotEmpty(t, health.Time)

	resp, raw = call(t, a, http.MethodGet, "/metrics", asUser, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `catalog_product_operations_total{operation="create",result="success"} 1`)
	assert.Contains(t, string(raw), "catalog_http_request_duration_seconds")
}
