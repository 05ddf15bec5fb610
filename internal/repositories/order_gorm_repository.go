package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tiffin/internal/apperr"
	"tiffin/internal/models"
)

const orderNotFound = "Order not found"

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// itemsWithTiffins loads the items of an order together with the catalog
// entry each one refers to.
const itemsWithTiffins = "Items.Tiffin"

// List returns orders newest first, optionally for a single owner.
func (r *GORMOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Preload(itemsWithTiffins).Order("created_at DESC")
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	orders := []models.Order{}
	if err := q.Find(&orders).Error; err != nil {
		return nil, storageErr(err, "failed to list orders")
	}
	return orders, nil
}

// GetByID returns an order with its items.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload(itemsWithTiffins).First(&order, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, orderNotFound)
	}
	return &order, nil
}

// Create checks that the owner and every referenced tiffin exist and then
// inserts the order with its items, all in one transaction. On success order
// is replaced by the stored record.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&models.User{}).Where("id = ?", order.UserID).Count(&users).Error; err != nil {
			return storageErr(err, "failed to check order owner")
		}
		if users == 0 {
			return apperr.Reference("userId", "user %s does not exist", order.UserID)
		}

		ids := make([]string, 0, len(order.Items))
		for _, item := range order.Items {
			ids = append(ids, item.TiffinID)
		}
		var found []string
		if err := tx.Model(&models.Tiffin{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
			return storageErr(err, "failed to check order items")
		}
		exists := make(map[string]bool, len(found))
		for _, id := range found {
			exists[id] = true
		}
		for i, item := range order.Items {
			if !exists[item.TiffinID] {
				return apperr.Reference(fmt.Sprintf("items[%d].tiffinId", i), "tiffin %s does not exist", item.TiffinID)
			}
		}

		if order.ID == "" {
			order.ID = uuid.New().String()
		}
		if err := tx.Create(order).Error; err != nil {
			return storageErr(err, "failed to create order")
		}

		var loaded models.Order
		if err := tx.Preload(itemsWithTiffins).First(&loaded, "id = ?", order.ID).Error; err != nil {
			return storageErr(err, "failed to reload order %s", order.ID)
		}
		*order = loaded
		return nil
	})
}

// UpdateStatus moves an order from one status to another. The update only
// applies while the order is still in from, so two racing transitions can
// not both succeed.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return r.afterTransition(ctx, id, res)
}

// UpdatePaymentStatus is the payment counterpart of UpdateStatus.
func (r *GORMOrderRepository) UpdatePaymentStatus(ctx context.Context, id string, from, to models.PaymentStatus) (*models.Order, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, from).
		Update("payment_status", to)
	return r.afterTransition(ctx, id, res)
}

func (r *GORMOrderRepository) afterTransition(ctx context.Context, id string, res *gorm.DB) (*models.Order, error) {
	if res.Error != nil {
		return nil, storageErr(res.Error, "failed to update order %s", id)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperr.New(apperr.KindInvalidTransition, "Order was modified concurrently; reload and retry")
	}
	return r.GetByID(ctx, id)
}
