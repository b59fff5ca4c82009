package order_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/NGxID18/CureCart/internal/cart"
	"github.com/NGxID18/CureCart/internal/order"
	"github.com/NGxID18/CureCart/internal/payment"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreatePending(ctx context.Context, o *order.Order) (uuid.UUID, error) {
	args := m.Called(ctx, o)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockOrderRepository) AttachPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	return m.Called(ctx, orderID, sessionID).Error(0)
}

func productIDs(args mock.Arguments) []int64 {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]int64)
}

func (m *MockOrderRepository) ConfirmPayment(ctx context.Context, eventID string, orderID, userID uuid.UUID) ([]int64, bool, error) {
	args := m.Called(ctx, eventID, orderID, userID)
	return productIDs(args), args.Bool(1), args.Error(2)
}

func (m *MockOrderRepository) DeletePending(ctx context.Context, orderID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) CancelPaid(ctx context.Context, orderID, userID uuid.UUID) ([]int64, bool, error) {
	args := m.Called(ctx, orderID, userID)
	return productIDs(args), args.Bool(1), args.Error(2)
}

func (m *MockOrderRepository) MarkShipped(ctx context.Context, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, orderID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetInvoice(ctx context.Context, orderID, userID uuid.UUID) (*order.Invoice, error) {
	args := m.Called(ctx, orderID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Invoice), args.Error(1)
}

type MockAdminReader struct {
	mock.Mock
}

func (m *MockAdminReader) ListOrders(ctx context.Context) ([]order.AdminOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.AdminOrder), args.Error(1)
}

func (m *MockAdminReader) RevenueSummary(ctx context.Context) (*order.RevenueSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.RevenueSummary), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockGateway) ParseEvent(payload []byte, signature string) (*payment.Event, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Event), args.Error(1)
}

func (m *MockGateway) PublishableKey() string {
	return m.Called().String(0)
}

type MockStockInvalidator struct {
	mock.Mock
}

func (m *MockStockInvalidator) InvalidateProducts(ctx context.Context, ids ...int64) {
	m.Called(ctx, ids)
}

const testBaseURL = "https://shop.example.com"

func newTestService(t *testing.T) (order.Service, *MockOrderRepository, *MockAdminReader, *MockGateway) {
	t.Helper()
	repo := new(MockOrderRepository)
	admin := new(MockAdminReader)
	gw := new(MockGateway)
	t.Cleanup(func() {
		repo.AssertExpectations(t)
		admin.AssertExpectations(t)
		gw.AssertExpectations(t)
	})
	return order.NewService(repo, admin, gw, nil, testBaseURL), repo, admin, gw
}

func newTestServiceWithStock(t *testing.T) (order.Service, *MockOrderRepository, *MockStockInvalidator) {
	t.Helper()
	repo := new(MockOrderRepository)
	stock := new(MockStockInvalidator)
	t.Cleanup(func() {
		repo.AssertExpectations(t)
		stock.AssertExpectations(t)
	})
	return order.NewService(repo, new(MockAdminReader), new(MockGateway), stock, testBaseURL), repo, stock
}

func testCart(t *testing.T) cart.Cart {
	t.Helper()
	var c cart.Cart
	require.NoError(t, c.Add(cart.Item{ProductID: 1, Name: "Masker", Price: decimal.NewFromInt(10000), Quantity: 2}))
	require.NoError(t, c.Add(cart.Item{ProductID: 2, Name: "Vitamin C", Price: decimal.NewFromInt(5000), Quantity: 1}))
	return c
}

func TestService_Checkout(t *testing.T) {
	svc, repo, _, gw := newTestService(t)
	ctx := context.Background()
	customer := order.Customer{ID: uuid.Must(uuid.NewV4()), Name: "Siti", Email: "siti@example.com"}
	orderID := uuid.Must(uuid.NewV4())

	repo.On("CreatePending", ctx, mock.MatchedBy(func(o *order.Order) bool {
		return o.UserID == customer.ID &&
			o.TotalAmount.Equal(decimal.NewFromInt(25000)) &&
			len(o.OrderItems) == 2 &&
			o.OrderItems[0].ProductID == 1 && o.OrderItems[0].Quantity == 2 &&
			o.OrderItems[0].PriceAtPurchase.Equal(decimal.NewFromInt(10000))
	})).Return(orderID, nil).Once()

	gw.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(req payment.CheckoutRequest) bool {
		return req.OrderID == orderID.String() &&
			req.UserID == customer.ID.String() &&
			req.CustomerEmail == "siti@example.com" &&
			len(req.Items) == 2 &&
			req.SuccessURL == testBaseURL+"/invoice/"+orderID.String()+"?from_checkout=true" &&
			req.CancelURL == testBaseURL+"/order/cancel?order_id="+orderID.String()
	})).Return(&payment.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/cs_test_1"}, nil).Once()

	repo.On("AttachPaymentSession", ctx, orderID, "cs_test_1").Return(nil).Once()

	res, err := svc.Checkout(ctx, customer, testCart(t))
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", res.Session.ID)
	assert.Equal(t, "cs_test_1", res.Order.PaymentSessionID)
	assert.True(t, res.Order.TotalAmount.Equal(decimal.NewFromInt(25000)))
}

func TestService_Checkout_EmptyCart(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Checkout(context.Background(), order.Customer{ID: uuid.Must(uuid.NewV4())}, cart.Cart{})
	require.ErrorIs(t, err, order.ErrEmptyCart)
}

func TestService_Checkout_GatewayFailureDiscardsOrder(t *testing.T) {
	svc, repo, _, gw := newTestService(t)
	ctx := context.Background()
	customer := order.Customer{ID: uuid.Must(uuid.NewV4()), Email: "siti@example.com"}
	orderID := uuid.Must(uuid.NewV4())

	repo.On("CreatePending", ctx, mock.Anything).Return(orderID, nil).Once()
	gw.On("CreateCheckoutSession", ctx, mock.Anything).Return(nil, errors.New("stripe down")).Once()
	repo.On("DeletePending", ctx, orderID, customer.ID).Return(true, nil).Once()

	_, err := svc.Checkout(ctx, customer, testCart(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stripe down")
}

func TestService_Checkout_RepositoryError(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	repo.On("CreatePending", ctx, mock.Anything).Return(uuid.Nil, errors.New("db down")).Once()

	_, err := svc.Checkout(ctx, order.Customer{ID: uuid.Must(uuid.NewV4())}, testCart(t))
	require.Error(t, err)
}

func TestService_HandlePaymentEvent(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())
	userID := uuid.Must(uuid.NewV4())
	completed := payment.Event{ID: "evt_1", Type: payment.EventCheckoutCompleted, OrderID: orderID.String(), UserID: userID.String()}

	tests := []struct {
		name      string
		evt       payment.Event
		setup     func(repo *MockOrderRepository)
		wantErrIs error
		wantErr   bool
	}{
		{
			name: "confirms_pending_order",
			evt:  completed,
			setup: func(repo *MockOrderRepository) {
				repo.On("ConfirmPayment", mock.Anything, "evt_1", orderID, userID).Return([]int64{1, 2}, true, nil).Once()
			},
		},
		{
			name: "redelivery_is_noop",
			evt:  completed,
			setup: func(repo *MockOrderRepository) {
				repo.On("ConfirmPayment", mock.Anything, "evt_1", orderID, userID).Return(nil, false, order.ErrEventAlreadyProcessed).Once()
			},
		},
		{
			name: "order_not_pending",
			evt:  completed,
			setup: func(repo *MockOrderRepository) {
				repo.On("ConfirmPayment", mock.Anything, "evt_1", orderID, userID).Return(nil, false, nil).Once()
			},
		},
		{
			name:  "other_event_type_ignored",
			evt:   payment.Event{ID: "evt_2", Type: "payment_intent.created"},
			setup: func(repo *MockOrderRepository) {},
		},
		{
			name:      "malformed_order_id",
			evt:       payment.Event{ID: "evt_3", Type: payment.EventCheckoutCompleted, OrderID: "42", UserID: userID.String()},
			setup:     func(repo *MockOrderRepository) {},
			wantErr:   true,
			wantErrIs: order.ErrInvalidPaymentEvent,
		},
		{
			name: "database_error",
			evt:  completed,
			setup: func(repo *MockOrderRepository) {
				repo.On("ConfirmPayment", mock.Anything, "evt_1", orderID, userID).Return(nil, false, errors.New("connection reset")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, _ := newTestService(t)
			tt.setup(repo)

			err := svc.HandlePaymentEvent(context.Background(), tt.evt)
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantErrIs != nil {
					assert.ErrorIs(t, err, tt.wantErrIs)
				}
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestService_CancelByUser(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())
	paid := uuid.Must(uuid.NewV4())
	shipped := uuid.Must(uuid.NewV4())

	repo.On("CancelPaid", ctx, paid, userID).Return([]int64{1}, true, nil).Once()
	repo.On("CancelPaid", ctx, shipped, userID).Return(nil, false, nil).Once()

	ok, err := svc.CancelByUser(ctx, userID, paid)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CancelByUser(ctx, userID, shipped)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_AbandonAndShip(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())

	repo.On("DeletePending", ctx, orderID, userID).Return(false, nil).Once()
	repo.On("MarkShipped", ctx, orderID).Return(false, errors.New("db down")).Once()

	deleted, err := svc.Abandon(ctx, userID, orderID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = svc.Ship(ctx, orderID)
	require.Error(t, err)
}

func TestService_Invoice_NotOwned(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())

	repo.On("GetInvoice", ctx, orderID, userID).Return(nil, order.ErrOrderNotFound).Once()

	_, err := svc.Invoice(ctx, userID, orderID)
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestService_AdminViews(t *testing.T) {
	svc, _, admin, _ := newTestService(t)
	ctx := context.Background()

	rows := []order.AdminOrder{{ID: uuid.Must(uuid.NewV4()), CustomerName: "Siti", Status: order.StatusPaid, TotalAmount: decimal.NewFromInt(25000)}}
	admin.On("ListOrders", ctx).Return(rows, nil).Once()
	admin.On("RevenueSummary", ctx).Return(nil, errors.New("timeout")).Once()

	got, err := svc.AdminOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.AdminSummary(ctx)
	require.Error(t, err)
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, order.StatusPending.CanTransitionTo(order.StatusPaid))
	assert.True(t, order.StatusPaid.CanTransitionTo(order.StatusShipped))
	assert.True(t, order.StatusPaid.CanTransitionTo(order.StatusCancelledByUser))
	assert.False(t, order.StatusPending.CanTransitionTo(order.StatusShipped))
	assert.False(t, order.StatusShipped.CanTransitionTo(order.StatusCancelledByUser))
	assert.False(t, order.StatusCancelledByUser.CanTransitionTo(order.StatusShipped))
}

func TestService_HandlePaymentEvent_InvalidatesProducts(t *testing.T) {
	svc, repo, stock := newTestServiceWithStock(t)
	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV4())
	userID := uuid.Must(uuid.NewV4())
	evt := payment.Event{ID: "evt_1", Type: payment.EventCheckoutCompleted, OrderID: orderID.String(), UserID: userID.String()}

	repo.On("ConfirmPayment", ctx, "evt_1", orderID, userID).Return([]int64{4, 7}, true, nil).Once()
	stock.On("InvalidateProducts", ctx, []int64{4, 7}).Once()

	require.NoError(t, svc.HandlePaymentEvent(ctx, evt))

	repo.On("ConfirmPayment", ctx, "evt_1", orderID, userID).Return(nil, false, order.ErrEventAlreadyProcessed).Once()
	require.NoError(t, svc.HandlePaymentEvent(ctx, evt))
	stock.AssertNumberOfCalls(t, "InvalidateProducts", 1)
}

func TestService_CancelByUser_InvalidatesProducts(t *testing.T) {
	svc, repo, stock := newTestServiceWithStock(t)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())
	paid := uuid.Must(uuid.NewV4())
	pending := uuid.Must(uuid.NewV4())

	repo.On("CancelPaid", ctx, paid, userID).Return([]int64{4}, true, nil).Once()
	repo.On("CancelPaid", ctx, pending, userID).Return(nil, false, nil).Once()
	stock.On("InvalidateProducts", ctx, []int64{4}).Once()

	ok, err := svc.CancelByUser(ctx, userID, paid)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CancelByUser(ctx, userID, pending)
	require.NoError(t, err)
	assert.False(t, ok)
	stock.AssertNumberOfCalls(t, "InvalidateProducts", 1)
}
