package repositories

import (
	"context"

	"catalog/internal/models"
)

// UserRepository defines the interface for the identity store.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
