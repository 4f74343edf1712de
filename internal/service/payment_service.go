package service

import (
	"context"
	"fmt"

	"self-order/internal/model"
	"self-order/internal/repository"

	"github.com/rs/zerolog"
)

// paymentService implements PaymentService. It is the single writer of
// payment terminal states and the payment-driven order transitions.
type paymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	logger      zerolog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		logger:      logger.With().Str("service", "payment").Logger(),
	}
}

// ApplyStatus applies a terminal settlement status to the payment and its
// order in one transaction. Both updates are guarded on the current
// status, which serializes concurrent notifications for the same payment:
// the first terminal notification wins, every later one is absorbed as a
// duplicate and acknowledged without side effects.
func (s *paymentService) ApplyStatus(ctx context.Context, paymentID string, status model.PaymentStatus) error {
	if !status.IsTerminal() {
		return model.ErrInvalidStatus
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		s.logger.Warn().Str("payment_id", paymentID).Msg("notification for unknown payment dropped")
		return model.ErrPaymentNotFound
	}

	if payment.Status.IsTerminal() {
		s.logger.Debug().
			Str("payment_id", paymentID).
			Str("current", string(payment.Status)).
			Str("reported", string(status)).
			Msg("payment already terminal, notification absorbed")
		return nil
	}

	orderTarget := model.OrderStatusPaid
	if status == model.PaymentStatusRejected {
		orderTarget = model.OrderStatusPaymentFailed
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply payment status: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	settled, err := s.paymentRepo.UpdateStatusIfPending(ctx, tx, paymentID, status)
	if err != nil {
		return fmt.Errorf("failed to apply payment status: %w", err)
	}
	if !settled {
		// A concurrent notification won the race since the load above;
		// its terminal result stands and this delivery is absorbed.
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		s.logger.Debug().Str("payment_id", paymentID).Msg("lost settlement race, notification absorbed")
		return nil
	}

	advanced, err := s.orderRepo.UpdateStatus(ctx, tx, payment.OrderID, model.OrderStatusPaymentPending, orderTarget)
	if err != nil {
		return fmt.Errorf("failed to apply payment status: %w", err)
	}
	if !advanced {
		// The order left PAYMENT_PENDING through some other path, e.g. it
		// was cancelled before the gateway settled. This is a business
		// anomaly for operators, not a transient fault; neither update
		// is persisted.
		err = model.ErrConflictingOrderState
		s.logger.Error().
			Str("payment_id", paymentID).
			Int64("order_id", payment.OrderID).
			Str("reported", string(status)).
			Msg("order not awaiting payment, settlement rejected")
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("payment_id", paymentID).Msg("failed to commit transaction")
		return fmt.Errorf("failed to apply payment status: %w", err)
	}

	s.logger.Info().
		Str("payment_id", paymentID).
		Int64("order_id", payment.OrderID).
		Str("payment_status", string(status)).
		Str("order_status", string(orderTarget)).
		Msg("payment settled")

	return nil
}

// StatusByOrderCode returns the combined order and payment status.
func (s *paymentService) StatusByOrderCode(ctx context.Context, code int64) (*model.PaymentStatusResponse, error) {
	order, err := s.orderRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Int64("order_code", code).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	payment, err := s.paymentRepo.GetByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		s.logger.Warn().Int64("order_code", code).Msg("order has no payment record")
		return nil, model.ErrPaymentNotFound
	}

	return &model.PaymentStatusResponse{
		OrderCode:     order.Code,
		OrderStatus:   order.Status,
		PaymentStatus: payment.Status,
	}, nil
}
