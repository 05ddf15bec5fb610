package services

import (
	"tiffin/internal/apperr"
	"tiffin/internal/models"
)

// statusEdges lists the allowed order status transitions. Delivered and
// cancelled are terminal.
var statusEdges = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:        {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed:      {models.OrderPreparing, models.OrderCancelled},
	models.OrderPreparing:      {models.OrderOutForDelivery, models.OrderCancelled},
	models.OrderOutForDelivery: {models.OrderDelivered, models.OrderCancelled},
}

// paymentEdges lists the allowed payment status transitions.
var paymentEdges = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending: {models.PaymentPaid, models.PaymentFailed},
	models.PaymentPaid:    {models.PaymentRefunded},
}

// IsTerminal reports whether no further status transition is possible.
func IsTerminal(s models.OrderStatus) bool {
	return len(statusEdges[s]) == 0
}

// CheckStatusTransition returns an InvalidTransition error unless from→to is an edge.
func CheckStatusTransition(from, to models.OrderStatus) error {
	for _, next := range statusEdges[from] {
		if next == to {
			return nil
		}
	}
	return apperr.New(apperr.KindInvalidTransition, "Cannot move order from %s to %s", from, to)
}

// CheckPaymentTransition returns an InvalidTransition error unless from→to is an edge.
func CheckPaymentTransition(from, to models.PaymentStatus) error {
	for _, next := range paymentEdges[from] {
		if next == to {
			return nil
		}
	}
	return apperr.New(apperr.KindInvalidTransition, "Cannot move payment from %s to %s", from, to)
}
