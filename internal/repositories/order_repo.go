package repositories

import (
	"context"

	"tiffin/internal/models"
)

// OrderFilter narrows an order listing.
type OrderFilter struct {
	UserID string
}

// OrderRepository defines the interface for order data access. Orders are
// never deleted; they only move through their lifecycle.
type OrderRepository interface {
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, id string, from, to models.PaymentStatus) (*models.Order, error)
}
