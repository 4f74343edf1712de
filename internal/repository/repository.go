package repository

import (
	"context"

	"self-order/internal/model"

	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for catalog data access. The
// checkout flow resolves requested product ids through it before any
// order is created.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs. Ids absent from
	// the catalog are simply missing from the result; callers detect
	// unresolvable products by comparing lengths.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// NextCode allocates the next public order code from the database
	// sequence within the provided transaction. Codes are strictly
	// increasing and never reused; gaps from rolled-back transactions
	// are tolerated.
	NextCode(ctx context.Context, tx pgx.Tx) (int64, error)

	// Create inserts the order and its items within the provided
	// transaction, assigning the order's internal id.
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByID retrieves an order with its items by internal id.
	GetByID(ctx context.Context, id int64) (*model.Order, error)

	// GetByCode retrieves an order with its items by public code.
	GetByCode(ctx context.Context, code int64) (*model.Order, error)

	// List retrieves orders newest first, with pagination.
	List(ctx context.Context, limit, offset int) ([]model.Order, error)

	// UpdateStatus transitions an order from one status to another within
	// the provided transaction. The update only applies while the order
	// is still in the expected current status; it returns false when the
	// guard fails, leaving the row untouched.
	UpdateStatus(ctx context.Context, tx pgx.Tx, orderID int64, from, to model.OrderStatus) (bool, error)
}

// PaymentRepository defines the interface for payment data access.
type PaymentRepository interface {
	// Create inserts a new payment within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) error

	// GetByID retrieves a payment by its gateway-issued id.
	GetByID(ctx context.Context, id string) (*model.Payment, error)

	// GetByOrderID retrieves the payment settling the given order.
	GetByOrderID(ctx context.Context, orderID int64) (*model.Payment, error)

	// UpdateStatusIfPending transitions a payment to a terminal status
	// within the provided transaction, but only while it is still
	// PENDING. Returns false when the payment was already terminal, which
	// serializes concurrent notifications for the same payment without a
	// global lock.
	UpdateStatusIfPending(ctx context.Context, tx pgx.Tx, id string, status model.PaymentStatus) (bool, error)
}
