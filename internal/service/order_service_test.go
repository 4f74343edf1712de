package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"self-order/internal/gateway"
	"self-order/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) NextCode(ctx context.Context, tx pgx.Tx) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByCode(ctx context.Context, code int64) (*model.Order, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, orderID int64, from, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, tx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	args := m.Called(ctx, tx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByOrderID(ctx context.Context, orderID int64) (*model.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) UpdateStatusIfPending(ctx context.Context, tx pgx.Tx, id string, status model.PaymentStatus) (bool, error) {
	args := m.Called(ctx, tx, id, status)
	return args.Bool(0), args.Error(1)
}

// MockPaymentGateway is a mock implementation of gateway.PaymentGateway.
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) RequestCode(ctx context.Context, amount float64) (*gateway.PaymentCode, error) {
	args := m.Called(ctx, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentCode), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

func testCatalog() []model.Product {
	return []model.Product{
		{ID: "P007", Name: "Double Burger", Price: 15.00, Category: model.CategoryBurger, CreatedAt: time.Now()},
		{ID: "P002", Name: "Fries", Price: 5.50, Category: model.CategorySide, CreatedAt: time.Now()},
	}
}

func TestOrderService_Checkout_Success(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	req := &model.CheckoutRequest{
		Items: []model.CheckoutItemRequest{
			{ProductID: "P007", Quantity: 2},
		},
	}

	mockOrderRepo := new(MockOrderRepository)
	mockPaymentRepo := new(MockPaymentRepository)
	mockProductRepo := new(MockProductRepository)
	mockGateway := new(MockPaymentGateway)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockPaymentRepo, mockProductRepo, mockGateway, logger)

	mockProductRepo.On("GetByIDs", ctx, []string{"P007"}).Return(testCatalog()[:1], nil)
	mockGateway.On("RequestCode", ctx, 30.00).
		Return(&gateway.PaymentCode{PaymentID: "P1", QRCode: "qr-payload", Amount: 30.00}, nil)
	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockOrderRepo.On("NextCode", ctx, mockTx).Return(int64(42), nil)
	mockOrderRepo.On("Create", ctx, mockTx, mock.AnythingOfType("*model.Order")).Return(nil)
	mockPaymentRepo.On("Create", ctx, mockTx, mock.AnythingOfType("*model.Payment")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	resp, err := svc.Checkout(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, int64(42), resp.Order.Code)
	assert.Equal(t, 30.00, resp.Order.Total)
	assert.Equal(t, model.OrderStatusPaymentPending, resp.Order.Status)
	assert.Equal(t, "P1", resp.PaymentID)
	assert.Equal(t, "qr-payload", resp.QRCode)
	assert.Equal(t, 30.00, resp.Amount)
	require.Len(t, resp.Order.Items, 1)
	assert.Equal(t, "Double Burger", resp.Order.Items[0].Name)
	assert.Equal(t, 15.00, resp.Order.Items[0].UnitPrice)
	assert.True(t, mockTx.committed)

	// The pending payment references the gateway-issued id and the frozen total.
	payment := mockPaymentRepo.Calls[0].Arguments.Get(2).(*model.Payment)
	assert.Equal(t, "P1", payment.ID)
	assert.Equal(t, 30.00, payment.Amount)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)

	mockProductRepo.AssertExpectations(t)
	mockGateway.AssertExpectations(t)
	mockOrderRepo.AssertExpectations(t)
	mockPaymentRepo.AssertExpectations(t)
}

func TestOrderService_Checkout_TotalFrozenAtCreation(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	req := &model.CheckoutRequest{
		Items: []model.CheckoutItemRequest{
			{ProductID: "P007", Quantity: 2},
			{ProductID: "P002", Quantity: 3},
		},
	}

	mockOrderRepo := new(MockOrderRepository)
	mockPaymentRepo := new(MockPaymentRepository)
	mockProductRepo := new(MockProductRepository)
	mockGateway := new(MockPaymentGateway)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockPaymentRepo, mockProductRepo, mockGateway, logger)

	wantTotal := 2*15.00 + 3*5.50

	mockProductRepo.On("GetByIDs", ctx, []string{"P007", "P002"}).Return(testCatalog(), nil)
	mockGateway.On("RequestCode", ctx, wantTotal).
		Return(&gateway.PaymentCode{PaymentID: "P2", QRCode: "qr", Amount: wantTotal}, nil)
	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockOrderRepo.On("NextCode", ctx, mockTx).Return(int64(43), nil)
	mockOrderRepo.On("Create", ctx, mockTx, mock.AnythingOfType("*model.Order")).Return(nil)
	mockPaymentRepo.On("Create", ctx, mockTx, mock.AnythingOfType("*model.Payment")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	resp, err := svc.Checkout(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, wantTotal, resp.Order.Total)

	// The persisted order carries price snapshots, not catalog references,
	// so a later catalog price change cannot alter the total.
	var recomputed float64
	for _, item := range resp.Order.Items {
		recomputed += item.Subtotal()
	}
	assert.Equal(t, resp.Order.Total, recomputed)
}

func TestOrderService_Checkout_ValidationErrors(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *model.CheckoutRequest
		wantErr error
	}{
		{
			name:    "nil request",
			req:     nil,
			wantErr: model.ErrEmptyOrder,
		},
		{
			name:    "empty items",
			req:     &model.CheckoutRequest{Items: []model.CheckoutItemRequest{}},
			wantErr: model.ErrEmptyOrder,
		},
		{
			name: "zero quantity",
			req: &model.CheckoutRequest{
				Items: []model.CheckoutItemRequest{{ProductID: "P007", Quantity: 0}},
			},
			wantErr: model.ErrInvalidQuantity,
		},
		{
			name: "negative quantity",
			req: &model.CheckoutRequest{
				Items: []model.CheckoutItemRequest{{ProductID: "P007", Quantity: -1}},
			},
			wantErr: model.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockOrderRepo := new(MockOrderRepository)
			mockPaymentRepo := new(MockPaymentRepository)
			mockProductRepo := new(MockProductRepository)
			mockGateway := new(MockPaymentGateway)

			svc := NewOrderService(mockOrderRepo, mockPaymentRepo, mockProductRepo, mockGateway, logger)

			resp, err := svc.Checkout(ctx, tt.req)

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantErr)

			// Nothing downstream is touched on validation failure.
			mockProductRepo.AssertNotCalled(t, "GetByIDs")
			mockGateway.AssertNotCalled(t, "RequestCode")
			mockOrderRepo.AssertNotCalled(t, "BeginTx")
		})
	}
}

func TestOrderService_Checkout_ProductNotFound(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	req := &model.CheckoutRequest{
		Items: []model.CheckoutItemRequest{
			{ProductID: "P007", Quantity: 1},
			{ProductID: "MISSING", Quantity: 1},
		},
	}

	mockOrderRepo := new(MockOrderRepository)
	mockPaymentRepo := new(MockPaymentRepository)
	mockProductRepo := new(MockProductRepository)
	mockGateway := new(MockPaymentGateway)

	svc := NewOrderService(mockOrderRepo, mockPaymentRepo, mockProductRepo, mockGateway, logger)

	// Only one of the two ids resolves; the whole checkout fails.
	mockProductRepo.On("GetByIDs", ctx, []string{"P007", "MISSING"}).Return(testCatalog()[:1], nil)

	resp, err := svc.Checkout(ctx, req)

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, model.ErrProductNotFound)
	mockGateway.AssertNotCalled(t, "RequestCode")
	mockOrderRepo.AssertNotCalled(t, "BeginTx")
}

func TestOrderService_Checkout_GatewayFailureLeavesNothingBehind(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	req := &model.CheckoutRequest{
		Items: []model.CheckoutItemRequest{{ProductID: "P007", Quantity: 2}},
	}

	mockOrderRepo := new(MockOrderRepository)
	mockPaymentRepo := new(MockPaymentRepository)
	mockProductRepo := new(MockProductRepository)
	mockGateway := new(MockPaymentGateway)

	svc := NewOrderService(mockOrderRepo, mockPaymentRepo, mockProductRepo, mockGateway, logger)

	mockProductRepo.On("GetByIDs", ctx, []string{"P007"}).Return(testCatalog()[:1], nil)
	mockGateway.On("RequestCode", ctx, 30.00).Return(nil, model.ErrGatewayUnavailable)

	resp, err := svc.Checkout(ctx, req)

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, model.ErrGatewayUnavailable)

	// The gateway is called before any transaction opens, so a gateway
	// failure cannot leave a partial order or payment behind.
	mockOrderRepo.AssertNotCalled(t, "BeginTx")
	mockOrderRepo.AssertNotCalled(t, "Create")
	mockPaymentRepo.AssertNotCalled(t, "Create")
}

func TestOrderService_Checkout_RollbackOnPersistError(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	req := &model.CheckoutRequest{
		Items: []model.CheckoutItemRequest{{ProductID: "P007", Quantity: 1}},
	}

	mockOrderRepo := new(MockOrderRepository)
	mockPaymentRepo := new(MockPaymentRepository)
	mockProductRepo := new(MockProductRepository)
	mockGateway := new(MockPaymentGateway)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockPaymentRepo, mockProductRepo, mockGateway, logger)

	mockProductRepo.On("GetByIDs", ctx, []string{"P007"}).Return(testCatalog()[:1], nil)
	mockGateway.On("RequestCode", ctx, 15.00).
		Return(&gateway.PaymentCode{PaymentID: "P3", QRCode: "qr", Amount: 15.00}, nil)
	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockOrderRepo.On("NextCode", ctx, mockTx).Return(int64(44), nil)
	mockOrderRepo.On("Create", ctx, mockTx, mock.AnythingOfType("*model.Order")).Return(errors.New("db down"))
	mockTx.On("Rollback", ctx).Return(nil)

	resp, err := svc.Checkout(ctx, req)

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, mockTx.rolledBack)
	assert.False(t, mockTx.committed)
	mockPaymentRepo.AssertNotCalled(t, "Create")
}

func TestOrderService_GetByCode(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mockOrderRepo := new(MockOrderRepository)
		svc := NewOrderService(mockOrderRepo, new(MockPaymentRepository), new(MockProductRepository), new(MockPaymentGateway), logger)

		want := &model.Order{ID: 1, Code: 42, Total: 30.00, Status: model.OrderStatusPaid}
		mockOrderRepo.On("GetByCode", ctx, int64(42)).Return(want, nil)

		order, err := svc.GetByCode(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, want, order)
	})

	t.Run("not found", func(t *testing.T) {
		mockOrderRepo := new(MockOrderRepository)
		svc := NewOrderService(mockOrderRepo, new(MockPaymentRepository), new(MockProductRepository), new(MockPaymentGateway), logger)

		mockOrderRepo.On("GetByCode", ctx, int64(99)).Return(nil, nil)

		order, err := svc.GetByCode(ctx, 99)
		assert.Nil(t, order)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestOrderService_UpdateStatus(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	t.Run("advances fulfillment", func(t *testing.T) {
		mockOrderRepo := new(MockOrderRepository)
		mockTx := new(MockTx)
		svc := NewOrderService(mockOrderRepo, new(MockPaymentRepository), new(MockProductRepository), new(MockPaymentGateway), logger)

		order := &model.Order{ID: 1, Code: 42, Status: model.OrderStatusPaid}
		mockOrderRepo.On("GetByCode", ctx, int64(42)).Return(order, nil)
		mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
		mockOrderRepo.On("UpdateStatus", ctx, mockTx, int64(1), model.OrderStatusPaid, model.OrderStatusInPreparation).Return(true, nil)
		mockTx.On("Commit", ctx).Return(nil)

		updated, err := svc.UpdateStatus(ctx, 42, model.OrderStatusInPreparation)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusInPreparation, updated.Status)
	})

	t.Run("rejects regression", func(t *testing.T) {
		mockOrderRepo := new(MockOrderRepository)
		svc := NewOrderService(mockOrderRepo, new(MockPaymentRepository), new(MockProductRepository), new(MockPaymentGateway), logger)

		order := &model.Order{ID: 1, Code: 42, Status: model.OrderStatusReady}
		mockOrderRepo.On("GetByCode", ctx, int64(42)).Return(order, nil)

		updated, err := svc.UpdateStatus(ctx, 42, model.OrderStatusInPreparation)
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
		mockOrderRepo.AssertNotCalled(t, "BeginTx")
	})

	t.Run("rejects payment statuses", func(t *testing.T) {
		mockOrderRepo := new(MockOrderRepository)
		svc := NewOrderService(mockOrderRepo, new(MockPaymentRepository), new(MockProductRepository), new(MockPaymentGateway), logger)

		updated, err := svc.UpdateStatus(ctx, 42, model.OrderStatusPaid)
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, model.ErrInvalidStatus)
		mockOrderRepo.AssertNotCalled(t, "GetByCode")
	})

	t.Run("lost race surfaces conflict", func(t *testing.T) {
		mockOrderRepo := new(MockOrderRepository)
		mockTx := new(MockTx)
		svc := NewOrderService(mockOrderRepo, new(MockPaymentRepository), new(MockProductRepository), new(MockPaymentGateway), logger)

		order := &model.Order{ID: 1, Code: 42, Status: model.OrderStatusPaid}
		mockOrderRepo.On("GetByCode", ctx, int64(42)).Return(order, nil)
		mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
		mockOrderRepo.On("UpdateStatus", ctx, mockTx, int64(1), model.OrderStatusPaid, model.OrderStatusInPreparation).Return(false, nil)
		mockTx.On("Rollback", ctx).Return(nil)

		updated, err := svc.UpdateStatus(ctx, 42, model.OrderStatusInPreparation)
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
		assert.True(t, mockTx.rolledBack)
	})
}
