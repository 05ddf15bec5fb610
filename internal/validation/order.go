package validation

import (
	"time"

	"tiffin/internal/models"
)

// OrderItemInput references a catalog item and how many of it.
type OrderItemInput struct {
	TiffinID string `json:"tiffinId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// OrderCreate is the shape of a new order. Prices are not accepted from the
// caller; they are read from the catalog when the order is placed.
type OrderCreate struct {
	UserID          string           `json:"userId" validate:"required"`
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress *models.Address  `json:"deliveryAddress,omitempty"`
	DeliveryDate    string           `json:"deliveryDate" validate:"required,isodate"`
}

// OrderCreate decodes and validates an order payload.
func (v *Validator) OrderCreate(body []byte) (*OrderCreate, error) {
	var in OrderCreate
	if err := v.decode(body, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// DeliveryTime returns the parsed delivery date.
func (in *OrderCreate) DeliveryTime() time.Time {
	t, _ := parseDate(in.DeliveryDate)
	return t.UTC()
}

// StatusChange requests an order status transition.
type StatusChange struct {
	Status models.OrderStatus `json:"status" validate:"required,oneof=pending confirmed preparing out-for-delivery delivered cancelled"`
}

// StatusChange decodes and validates a status transition request.
func (v *Validator) StatusChange(body []byte) (*StatusChange, error) {
	var in StatusChange
	if err := v.decode(body, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// PaymentChange requests a payment status transition.
type PaymentChange struct {
	PaymentStatus models.PaymentStatus `json:"paymentStatus" validate:"required,oneof=pending paid failed refunded"`
}

// PaymentChange decodes and validates a payment transition request.
func (v *Validator) PaymentChange(body []byte) (*PaymentChange, error) {
	var in PaymentChange
	if err := v.decode(body, &in); err != nil {
		return nil, err
	}
	return &in, nil
}
