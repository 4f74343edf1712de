package model

import "time"

// PaymentStatus represents the settlement state reported by the gateway.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
)

// IsTerminal reports whether the payment can no longer change state.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected
}

// ParsePaymentStatus validates a raw terminal status from a notification.
// Only terminal statuses are valid notification payloads; PENDING is the
// local initial state and is never reported by the gateway.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	switch s := PaymentStatus(raw); s {
	case PaymentStatusApproved, PaymentStatusRejected:
		return s, true
	}
	return "", false
}

// Payment tracks a gateway-issued payment attempt for one order. The
// gateway owns the payment's lifecycle; the order owns the business
// decision of what "paid" means to it.
type Payment struct {
	ID        string        `json:"id" db:"id"`
	OrderID   int64         `json:"-" db:"order_id"`
	Amount    float64       `json:"amount" db:"amount"`
	Status    PaymentStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`
}

// PaymentNotificationRequest is the inbound webhook payload from the
// payment gateway.
type PaymentNotificationRequest struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

// PaymentStatusResponse is the combined read-only view returned to
// clients polling for settlement completion.
type PaymentStatusResponse struct {
	OrderCode     int64         `json:"orderCode"`
	OrderStatus   OrderStatus   `json:"orderStatus"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}
