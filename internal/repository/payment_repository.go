package repository

import (
	"context"
	"fmt"
	"time"

	"self-order/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// paymentRepository implements the PaymentRepository interface using PostgreSQL.
type paymentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool *pgxpool.Pool, logger zerolog.Logger) PaymentRepository {
	return &paymentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "payment").Logger(),
	}
}

// Create inserts a new payment within the provided transaction.
func (r *paymentRepository) Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query,
		payment.ID, payment.OrderID, payment.Amount, payment.Status, payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("payment_id", payment.ID).
			Int64("order_id", payment.OrderID).
			Msg("failed to create payment")
		return fmt.Errorf("failed to create payment: %w", err)
	}

	r.logger.Debug().
		Str("payment_id", payment.ID).
		Int64("order_id", payment.OrderID).
		Msg("payment created successfully")

	return nil
}

// GetByID retrieves a payment by its gateway-issued id.
func (r *paymentRepository) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByOrderID retrieves the payment settling the given order.
func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID int64) (*model.Payment, error) {
	return r.getOne(ctx, `WHERE order_id = $1`, orderID)
}

func (r *paymentRepository) getOne(ctx context.Context, where string, arg any) (*model.Payment, error) {
	query := `
		SELECT id, order_id, amount, status, created_at, updated_at
		FROM payments
	` + where

	var payment model.Payment
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.Amount,
		&payment.Status,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Interface("key", arg).Msg("payment not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Interface("key", arg).Msg("failed to query payment")
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return &payment, nil
}

// UpdateStatusIfPending transitions a payment to a terminal status while it
// is still PENDING. The status guard in the WHERE clause makes concurrent
// notifications for the same payment race safely: exactly one wins, the
// rest see false.
func (r *paymentRepository) UpdateStatusIfPending(ctx context.Context, tx pgx.Tx, id string, status model.PaymentStatus) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	tag, err := tx.Exec(ctx, query, status, time.Now(), id, model.PaymentStatusPending)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("payment_id", id).
			Str("status", string(status)).
			Msg("failed to update payment status")
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
