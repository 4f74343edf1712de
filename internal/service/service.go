package service

import (
	"context"

	"self-order/internal/model"
)

// ProductService defines operations over the product catalogue.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// Checkout creates an order from the requested items and initiates
	// its payment with the gateway, atomically: either the order, its
	// items, and a pending payment are all persisted, or nothing is.
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)

	// GetByCode retrieves an order with its items by public code.
	GetByCode(ctx context.Context, code int64) (*model.Order, error)

	// List retrieves orders newest first.
	List(ctx context.Context, limit, offset int) ([]model.Order, error)

	// UpdateStatus advances an order's fulfillment status. Only kitchen
	// transitions and cancellation are allowed here; payment transitions
	// belong to the payment reconciliation flow.
	UpdateStatus(ctx context.Context, code int64, target model.OrderStatus) (*model.Order, error)
}

// PaymentService applies gateway settlement notifications to local state
// and answers settlement status queries.
type PaymentService interface {
	// ApplyStatus applies a terminal settlement status reported by the
	// gateway to the payment and its order. Re-delivery of a terminal
	// notification is a no-op returning nil.
	ApplyStatus(ctx context.Context, paymentID string, status model.PaymentStatus) error

	// StatusByOrderCode returns the combined order and payment status for
	// clients polling for settlement completion.
	StatusByOrderCode(ctx context.Context, code int64) (*model.PaymentStatusResponse, error)
}
