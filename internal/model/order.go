package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the position of an order in its lifecycle.
type OrderStatus string

const (
	OrderStatusReceived       OrderStatus = "RECEIVED"
	OrderStatusPaymentPending OrderStatus = "PAYMENT_PENDING"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusInPreparation  OrderStatus = "IN_PREPARATION"
	OrderStatusReady          OrderStatus = "READY"
	OrderStatusCompleted      OrderStatus = "COMPLETED"
	OrderStatusPaymentFailed  OrderStatus = "PAYMENT_FAILED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// orderTransitions defines the allowed forward transitions per status.
// Terminal statuses have no entry.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusReceived:       {OrderStatusPaymentPending, OrderStatusCancelled},
	OrderStatusPaymentPending: {OrderStatusPaid, OrderStatusPaymentFailed, OrderStatusCancelled},
	OrderStatusPaid:           {OrderStatusInPreparation, OrderStatusCancelled},
	OrderStatusInPreparation:  {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:          {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransitionTo reports whether the order status may move to the target
// status. Statuses only advance along the lifecycle; they never regress.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s OrderStatus) IsTerminal() bool {
	_, ok := orderTransitions[s]
	return !ok
}

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch s := OrderStatus(raw); s {
	case OrderStatusReceived, OrderStatusPaymentPending, OrderStatusPaid,
		OrderStatusInPreparation, OrderStatusReady, OrderStatusCompleted,
		OrderStatusPaymentFailed, OrderStatusCancelled:
		return s, true
	}
	return "", false
}

// Order represents a customer order with a frozen monetary total.
type Order struct {
	ID         int64       `json:"-" db:"id"`
	Code       int64       `json:"code" db:"code"`
	CustomerID *string     `json:"customerId,omitempty" db:"customer_id"`
	Items      []OrderItem `json:"items"`
	Total      float64     `json:"total" db:"total"`
	Status     OrderStatus `json:"status" db:"status"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
}

// OrderItem is a line item carrying a snapshot of the product at order
// creation time. The snapshot price is never recomputed, so later catalog
// changes do not affect persisted orders.
type OrderItem struct {
	ID        uuid.UUID `json:"-" db:"id"`
	OrderID   int64     `json:"-" db:"order_id"`
	ProductID string    `json:"productId" db:"product_id"`
	Name      string    `json:"name" db:"product_name"`
	UnitPrice float64   `json:"unitPrice" db:"unit_price"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// Subtotal returns the frozen line total.
func (i OrderItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// CheckoutRequest represents the request payload for creating an order.
type CheckoutRequest struct {
	CustomerID *string               `json:"customerId,omitempty"`
	Items      []CheckoutItemRequest `json:"items"`
}

// CheckoutItemRequest is a single requested line item.
type CheckoutItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CheckoutResponse is the persisted order plus the payment code the
// customer scans to settle it.
type CheckoutResponse struct {
	Order     *Order  `json:"order"`
	PaymentID string  `json:"paymentId"`
	QRCode    string  `json:"qrCode"`
	Amount    float64 `json:"amount"`
}

// UpdateOrderStatusRequest is the payload for the fulfillment endpoint.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}
