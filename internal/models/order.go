package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// AllOrderStatuses lists statuses in lifecycle order.
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var AllPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusFailed:  {PaymentStatusPaid, PaymentStatusPending},
	PaymentStatusPaid:    {PaymentStatusRefunded},
}

// CanTransitionTo reports whether an order may move from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether a payment may move from s to next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseOrderStatus validates a status query or body value.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	value := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range AllOrderStatuses {
		if s == value {
			return s, nil
		}
	}
	return "", NewValidationError(fmt.Sprintf("invalid order status %q", raw))
}

func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	value := PaymentStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range AllPaymentStatuses {
		if s == value {
			return s, nil
		}
	}
	return "", NewValidationError(fmt.Sprintf("invalid payment status %q", raw))
}

// Order is a customer order managed from the admin dashboard.
type Order struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	OrderNumber     string         `gorm:"uniqueIndex;size:40;not null" json:"order_number"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	User            User           `gorm:"foreignKey:UserID" json:"customer"`
	Status          OrderStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus   PaymentStatus  `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	TotalCents      int64          `gorm:"not null" json:"total_cents"`
	Currency        string         `gorm:"size:3;not null;default:'USD'" json:"currency"`
	ShippingAddress string         `gorm:"type:text" json:"shipping_address"`
	AdminNote       string         `gorm:"type:text" json:"admin_note,omitempty"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TotalFormatted renders TotalCents with two decimals, e.g. "12.50".
func (o Order) TotalFormatted() string {
	sign := ""
	cents := o.TotalCents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// OrderStatusHistory records every admin change on an order.
type OrderStatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ActorID   uint      `gorm:"not null" json:"actor_id"`
	Field     string    `gorm:"size:20;not null" json:"field"`
	FromValue string    `gorm:"size:20" json:"from"`
	ToValue   string    `gorm:"size:20;not null" json:"to"`
	Note      string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_histories"
}
