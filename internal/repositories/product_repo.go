package repositories

import (
	"context"
	"errors"

	"catalog/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateName is returned when a write would break the unique product name index.
	ErrDuplicateName = errors.New("product name already exists")
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindByName(ctx context.Context, name string) (*models.Product, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	// Create inserts product and assigns its ID.
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByName(ctx context.Context, name string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}
