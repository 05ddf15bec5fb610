package repositories

import (
	"context"

	"tiffin/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id string, apply func(*models.User)) (*models.User, error)
}
