package models

import "time"

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderOutForDelivery OrderStatus = "out-for-delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// PaymentStatus moves independently of OrderStatus.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// OrderItem represents a single item within an order. Tiffin is the current
// catalog entry and is nil once that entry has been deleted.
type OrderItem struct {
	ID       uint    `json:"-" gorm:"primaryKey"`
	OrderID  string  `json:"-" gorm:"type:varchar(36);index;not null"`
	TiffinID string  `json:"tiffinId" gorm:"type:varchar(36);index;not null"`
	Tiffin   *Tiffin `json:"tiffin" gorm:"foreignKey:TiffinID"`
	Quantity int     `json:"quantity" gorm:"not null"`
	Price    float64 `json:"price" gorm:"not null"` // Price at the time of order
}

// Order represents a customer order. Orders are never deleted.
type Order struct {
	ID              string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string        `json:"userId" gorm:"type:varchar(36);index;not null"`
	Items           []OrderItem   `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount     float64       `json:"totalAmount" gorm:"not null"`
	DeliveryAddress Address       `json:"deliveryAddress" gorm:"embedded;embeddedPrefix:delivery_"`
	DeliveryDate    time.Time     `json:"deliveryDate" gorm:"not null"`
	Status          OrderStatus   `json:"status" gorm:"type:varchar(32);not null;index"`
	PaymentStatus   PaymentStatus `json:"paymentStatus" gorm:"type:varchar(16);not null"`
	CreatedAt       time.Time     `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}
