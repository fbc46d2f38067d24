package handlers

import "catalog/internal/models"

// CreateProductRequest is the body of POST /products. Numeric fields are
// pointers so a missing value can be told apart from zero.
type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required,notblank,max=200"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Quantity    *int     `json:"quantity" validate:"required,gte=0"`
}

// ToModel converts a validated request into a product candidate.
func (r CreateProductRequest) ToModel() models.Product {
	return models.Product{
		Name:        r.Name,
		Description: r.Description,
		Price:       *r.Price,
		Quantity:    *r.Quantity,
	}
}

type UpdateProductPriceRequest struct {
	Price *float64 `json:"price" validate:"required,gte=0"`
}

type UpdateProductQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message  string `json:"message"`
	HTTPCode int    `json:"http_code"`
}

// TokenResponse is returned by POST /auth/token.
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Time     string `json:"time"`
	Products int64  `json:"products"`
}
