package services

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"tiffin/internal/apperr"
	"tiffin/internal/events"
	"tiffin/internal/metrics"
	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/validation"
)

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo  repositories.OrderRepository
	tiffinRepo repositories.TiffinRepository
	publisher  events.Publisher
	metrics    *metrics.Metrics
	log        logrus.FieldLogger
}

// NewOrderService creates a new OrderService. publisher and m may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, tiffinRepo repositories.TiffinRepository, publisher events.Publisher, m *metrics.Metrics, log logrus.FieldLogger) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		tiffinRepo: tiffinRepo,
		publisher:  publisher,
		metrics:    m,
		log:        log,
	}
}

// ListOrders returns orders newest first, for one user when userID is set.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orderRepo.List(ctx, repositories.OrderFilter{UserID: userID})
}

// GetOrder retrieves a single order by its ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// CreateOrder prices every line item from the current catalog, captures that
// price on the item and stores the order as pending.
func (s *OrderService) CreateOrder(ctx context.Context, in *validation.OrderCreate) (*models.Order, error) {
	items := make([]models.OrderItem, 0, len(in.Items))
	var total float64

	for i, item := range in.Items {
		field := fmt.Sprintf("items[%d].tiffinId", i)
		tiffin, err := s.tiffinRepo.GetByID(ctx, item.TiffinID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return nil, apperr.Reference(field, "tiffin %s does not exist", item.TiffinID)
			}
			return nil, err
		}
		if !tiffin.Available {
			return nil, apperr.Reference(field, "tiffin %s is not available", item.TiffinID)
		}
		items = append(items, models.OrderItem{
			TiffinID: tiffin.ID,
			Quantity: item.Quantity,
			Price:    tiffin.Price,
		})
		total += tiffin.Price * float64(item.Quantity)
	}

	order := &models.Order{
		UserID:        in.UserID,
		Items:         items,
		TotalAmount:   math.Round(total*100) / 100,
		DeliveryDate:  in.DeliveryTime(),
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
	}
	if in.DeliveryAddress != nil {
		order.DeliveryAddress = *in.DeliveryAddress
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.metrics.OrderCreated()
	s.log.WithFields(logrus.Fields{"order_id": order.ID, "user_id": order.UserID, "total": order.TotalAmount}).Info("order created")
	s.publish(ctx, events.TypeOrderCreated, order)
	return order, nil
}

// TransitionStatus moves an order along the lifecycle.
func (s *OrderService) TransitionStatus(ctx context.Context, id string, to models.OrderStatus) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(order.Status) {
		return nil, apperr.New(apperr.KindInvalidTransition, "Order is already %s", order.Status)
	}
	if err := CheckStatusTransition(order.Status, to); err != nil {
		return nil, err
	}
	updated, err := s.orderRepo.UpdateStatus(ctx, id, order.Status, to)
	if err != nil {
		return nil, err
	}
	s.metrics.OrderTransition("status", string(to))
	s.log.WithFields(logrus.Fields{"order_id": id, "from": order.Status, "to": to}).Info("order status changed")
	s.publish(ctx, events.TypeOrderStatusChanged, updated)
	return updated, nil
}

// TransitionPayment moves an order's payment status.
func (s *OrderService) TransitionPayment(ctx context.Context, id string, to models.PaymentStatus) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckPaymentTransition(order.PaymentStatus, to); err != nil {
		return nil, err
	}
	updated, err := s.orderRepo.UpdatePaymentStatus(ctx, id, order.PaymentStatus, to)
	if err != nil {
		return nil, err
	}
	s.metrics.OrderTransition("payment", string(to))
	s.log.WithFields(logrus.Fields{"order_id": id, "from": order.PaymentStatus, "to": to}).Info("order payment status changed")
	s.publish(ctx, events.TypeOrderStatusChanged, updated)
	return updated, nil
}

// CancelOrder cancels an order that has not reached a terminal state.
func (s *OrderService) CancelOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.TransitionStatus(ctx, id, models.OrderCancelled)
}

// publish never fails the request; the order is already stored.
func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(eventType, order)); err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Warnf("failed to publish %s event", eventType)
	}
}
