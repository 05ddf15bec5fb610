// Package events carries order events from the request path to the
// consumer that maintains catalog order counts.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"tiffin/internal/apperr"
	"tiffin/internal/models"
	"tiffin/internal/repositories"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

// Item is the part of a line item consumers care about.
type Item struct {
	TiffinID string `json:"tiffinId"`
	Quantity int    `json:"quantity"`
}

// OrderEvent is published whenever an order is created or transitions.
type OrderEvent struct {
	Type          string               `json:"type"`
	OrderID       string               `json:"orderId"`
	UserID        string               `json:"userId"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	Total         float64              `json:"total"`
	Items         []Item               `json:"items,omitempty"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

// NewOrderEvent snapshots order into an event of the given type.
func NewOrderEvent(eventType string, order *models.Order) OrderEvent {
	items := make([]Item, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, Item{TiffinID: it.TiffinID, Quantity: it.Quantity})
	}
	return OrderEvent{
		Type:          eventType,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Total:         order.TotalAmount,
		Items:         items,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher sends order events somewhere.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// Broker is the subset of the RabbitMQ client the AMQP publisher needs.
type Broker interface {
	Publish(msgType string, body []byte) error
}

// AMQPPublisher publishes events as JSON messages.
type AMQPPublisher struct {
	broker Broker
}

// NewAMQPPublisher wraps a connected broker client.
func NewAMQPPublisher(broker Broker) *AMQPPublisher {
	return &AMQPPublisher{broker: broker}
}

func (p *AMQPPublisher) Publish(_ context.Context, event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return p.broker.Publish(event.Type, body)
}

// InlinePublisher hands events straight to a Handler when no broker is set up.
type InlinePublisher struct {
	handler *Handler
}

// NewInlinePublisher dispatches to handler in the caller's goroutine.
func NewInlinePublisher(handler *Handler) *InlinePublisher {
	return &InlinePublisher{handler: handler}
}

func (p *InlinePublisher) Publish(ctx context.Context, event OrderEvent) error {
	return p.handler.Handle(ctx, event)
}

// Handler reacts to order events.
type Handler struct {
	tiffins repositories.TiffinRepository
	log     logrus.FieldLogger
}

// NewHandler creates a Handler that maintains tiffin order counts.
func NewHandler(tiffins repositories.TiffinRepository, log logrus.FieldLogger) *Handler {
	return &Handler{tiffins: tiffins, log: log}
}

// Handle applies one event. Counts for tiffins deleted since the order was
// placed are skipped.
func (h *Handler) Handle(ctx context.Context, event OrderEvent) error {
	switch event.Type {
	case TypeOrderCreated:
		for _, item := range event.Items {
			err := h.tiffins.IncrementOrderCount(ctx, item.TiffinID, item.Quantity)
			if apperr.Is(err, apperr.KindNotFound) {
				h.log.WithField("tiffin_id", item.TiffinID).Warn("tiffin gone before order count update")
				continue
			}
			if err != nil {
				return err
			}
		}
	case TypeOrderStatusChanged:
		h.log.WithFields(logrus.Fields{"order_id": event.OrderID, "status": event.Status, "payment_status": event.PaymentStatus}).
			Info("order transitioned")
	default:
		h.log.WithField("type", event.Type).Debug("ignoring unknown event")
	}
	return nil
}

// Delivery adapts Handle to the RabbitMQ consumer.
func (h *Handler) Delivery(msg amqp.Delivery) error {
	var event OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("failed to decode order event: %w", err)
	}
	return h.Handle(context.Background(), event)
}
