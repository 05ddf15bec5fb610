package repositories

import (
	"context"

	"tiffin/internal/models"
)

// TiffinFilter narrows a catalog listing.
type TiffinFilter struct {
	AvailableOnly bool
}

// TiffinRepository defines the interface for catalog data access.
type TiffinRepository interface {
	List(ctx context.Context, filter TiffinFilter) ([]models.Tiffin, error)
	GetByID(ctx context.Context, id string) (*models.Tiffin, error)
	Create(ctx context.Context, tiffin *models.Tiffin) error
	Update(ctx context.Context, id string, apply func(*models.Tiffin)) (*models.Tiffin, error)
	Delete(ctx context.Context, id string) (*models.Tiffin, error)
	IncrementOrderCount(ctx context.Context, id string, n int) error
}
