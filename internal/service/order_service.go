package service

import (
	"context"
	"fmt"
	"time"

	"self-order/internal/gateway"
	"self-order/internal/model"
	"self-order/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// fulfillmentTargets are the statuses the fulfillment endpoint may set.
// Payment statuses are owned by the reconciler and rejected here.
var fulfillmentTargets = map[model.OrderStatus]bool{
	model.OrderStatusInPreparation: true,
	model.OrderStatusReady:         true,
	model.OrderStatusCompleted:     true,
	model.OrderStatusCancelled:     true,
}

// orderService implements OrderService.
type orderService struct {
	orderRepo      repository.OrderRepository
	paymentRepo    repository.PaymentRepository
	productRepo    repository.ProductRepository
	paymentGateway gateway.PaymentGateway
	logger         zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	productRepo repository.ProductRepository,
	paymentGateway gateway.PaymentGateway,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:      orderRepo,
		paymentRepo:    paymentRepo,
		productRepo:    productRepo,
		paymentGateway: paymentGateway,
		logger:         logger.With().Str("service", "order").Logger(),
	}
}

// Checkout creates an order from the requested items and initiates its
// payment. The gateway is called before the database transaction opens so
// a slow provider never holds row locks; if the gateway call fails,
// nothing has been persisted and the caller may retry the whole checkout.
func (s *orderService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if err := s.validateCheckoutRequest(req); err != nil {
		return nil, err
	}

	items, total, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	code, err := s.paymentGateway.RequestCode(ctx, total)
	if err != nil {
		s.logger.Warn().Err(err).Float64("total", total).Msg("payment gateway call failed, checkout aborted")
		return nil, err
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	orderCode, err := s.orderRepo.NextCode(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	now := time.Now()
	order := &model.Order{
		Code:       orderCode,
		CustomerID: req.CustomerID,
		Items:      items,
		Total:      total,
		Status:     model.OrderStatusReceived,
		CreatedAt:  now,
	}

	// A payment attempt exists before the order is first persisted, so
	// the durable status is already PAYMENT_PENDING.
	order.Status = model.OrderStatusPaymentPending

	if err = s.orderRepo.Create(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	payment := &model.Payment{
		ID:        code.PaymentID,
		OrderID:   order.ID,
		Amount:    total,
		Status:    model.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.paymentRepo.Create(ctx, tx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_code", order.Code).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Int64("order_code", order.Code).
		Str("payment_id", payment.ID).
		Float64("total", total).
		Int("item_count", len(items)).
		Msg("checkout completed")

	return &model.CheckoutResponse{
		Order:     order,
		PaymentID: code.PaymentID,
		QRCode:    code.QRCode,
		Amount:    total,
	}, nil
}

// resolveItems looks up every requested product and builds the order's
// item snapshots. The checkout fails atomically when any id is
// unresolvable.
func (s *orderService) resolveItems(ctx context.Context, requested []model.CheckoutItemRequest) ([]model.OrderItem, float64, error) {
	ids := make([]string, len(requested))
	for i, item := range requested {
		ids[i] = item.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("product_count", len(ids)).Msg("failed to resolve products")
		return nil, 0, fmt.Errorf("failed to resolve products: %w", err)
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]model.OrderItem, len(requested))
	var total float64
	for i, req := range requested {
		product, ok := byID[req.ProductID]
		if !ok {
			s.logger.Warn().Str("product_id", req.ProductID).Msg("requested product not in catalogue")
			return nil, 0, model.ErrProductNotFound
		}
		items[i] = model.OrderItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  req.Quantity,
		}
		total += items[i].Subtotal()
	}

	return items, total, nil
}

// GetByCode retrieves an order with its items by public code.
func (s *orderService) GetByCode(ctx context.Context, code int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByCode(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_code", code).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Int64("order_code", code).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// List retrieves orders newest first.
func (s *orderService) List(ctx context.Context, limit, offset int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orderRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus advances an order's fulfillment status. The repository
// update is guarded on the current status, so a concurrent transition
// loses cleanly instead of overwriting.
func (s *orderService) UpdateStatus(ctx context.Context, code int64, target model.OrderStatus) (*model.Order, error) {
	if !fulfillmentTargets[target] {
		s.logger.Warn().Str("status", string(target)).Msg("status not settable via fulfillment")
		return nil, model.ErrInvalidStatus
	}

	order, err := s.orderRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !order.Status.CanTransitionTo(target) {
		s.logger.Warn().
			Int64("order_code", code).
			Str("from", string(order.Status)).
			Str("to", string(target)).
			Msg("fulfillment transition rejected")
		return nil, model.ErrInvalidTransition
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	updated, err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, order.Status, target)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !updated {
		// Lost a race with another transition since the load above.
		err = model.ErrInvalidTransition
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_code", code).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order.Status = target

	s.logger.Info().
		Int64("order_code", code).
		Str("status", string(target)).
		Msg("order status updated")

	return order, nil
}

// validateCheckoutRequest validates the checkout request.
func (s *orderService) validateCheckoutRequest(req *model.CheckoutRequest) error {
	if req == nil || len(req.Items) == 0 {
		return model.ErrEmptyOrder
	}

	for i, item := range req.Items {
		if item.ProductID == "" {
			return fmt.Errorf("item %d: product ID is required", i)
		}

		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	return nil
}
