package order

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/NGxID18/CureCart/internal/cart"
	"github.com/NGxID18/CureCart/internal/payment"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidPaymentEvent = errors.New("payment event carries malformed identifiers")
)

// CheckoutResult is what the browser needs after a checkout starts.
type CheckoutResult struct {
	Order   *Order
	Session *payment.CheckoutSession
}

type Service interface {
	Checkout(ctx context.Context, customer Customer, c cart.Cart) (*CheckoutResult, error)
	HandlePaymentEvent(ctx context.Context, evt payment.Event) error
	Abandon(ctx context.Context, userID, orderID uuid.UUID) (bool, error)
	CancelByUser(ctx context.Context, userID, orderID uuid.UUID) (bool, error)
	Ship(ctx context.Context, orderID uuid.UUID) (bool, error)
	MyOrders(ctx context.Context, userID uuid.UUID) ([]Order, error)
	Order(ctx context.Context, userID, orderID uuid.UUID) (*Order, error)
	Invoice(ctx context.Context, userID, orderID uuid.UUID) (*Invoice, error)
	AdminOrders(ctx context.Context) ([]AdminOrder, error)
	AdminSummary(ctx context.Context) (*RevenueSummary, error)
}

// StockInvalidator is told which products changed stock once a payment
// confirmation or cancellation has committed.
type StockInvalidator interface {
	InvalidateProducts(ctx context.Context, productIDs ...int64)
}

type service struct {
	orderRepo Repository
	admin     AdminReader
	gateway   payment.Gateway
	stock     StockInvalidator
	baseURL   string
}

// NewService wires the order workflow. stock may be nil when no product
// cache is in use.
func NewService(orderRepo Repository, admin AdminReader, gateway payment.Gateway, stock StockInvalidator, baseURL string) Service {
	return &service{
		orderRepo: orderRepo,
		admin:     admin,
		gateway:   gateway,
		stock:     stock,
		baseURL:   baseURL,
	}
}

func (s *service) stockChanged(ctx context.Context, productIDs []int64) {
	if s.stock == nil || len(productIDs) == 0 {
		return
	}
	s.stock.InvalidateProducts(ctx, productIDs...)
}

// Checkout persists a Pending order built from the cart and opens a
// hosted payment session for it. The order is stored before the provider
// is contacted.
func (s *service) Checkout(ctx context.Context, customer Customer, c cart.Cart) (*CheckoutResult, error) {
	if c.IsEmpty() {
		log.Warn().Stringer("user_id", customer.ID).Msg("service: checkout attempted with empty cart")
		return nil, ErrEmptyCart
	}

	order := &Order{
		UserID:      customer.ID,
		TotalAmount: c.Total(),
		OrderItems:  make([]OrderItem, 0, len(c.Items)),
	}
	lineItems := make([]payment.LineItem, 0, len(c.Items))
	for _, item := range c.Items {
		order.OrderItems = append(order.OrderItems, OrderItem{
			ProductID:       item.ProductID,
			ProductName:     item.Name,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.Price,
		})
		lineItems = append(lineItems, payment.LineItem{
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		})
	}

	orderID, err := s.orderRepo.CreatePending(ctx, order)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", customer.ID).Msg("service: failed to create pending order")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		OrderID:       orderID.String(),
		UserID:        customer.ID.String(),
		CustomerEmail: customer.Email,
		Items:         lineItems,
		SuccessURL:    fmt.Sprintf("%s/invoice/%s?from_checkout=true", s.baseURL, orderID),
		CancelURL:     fmt.Sprintf("%s/order/cancel?order_id=%s", s.baseURL, url.QueryEscape(orderID.String())),
	})
	if err != nil {
		if _, delErr := s.orderRepo.DeletePending(ctx, orderID, customer.ID); delErr != nil {
			log.Error().Err(delErr).Stringer("order_id", orderID).Msg("service: failed to discard order after payment session error")
		}
		return nil, fmt.Errorf("service: failed to open payment session: %w", err)
	}

	if err := s.orderRepo.AttachPaymentSession(ctx, orderID, session.ID); err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Str("session_id", session.ID).Msg("service: failed to store payment session id")
	}
	order.PaymentSessionID = session.ID

	log.Info().Stringer("order_id", orderID).Stringer("user_id", customer.ID).Str("total", order.TotalAmount.String()).Msg("service: checkout started")

	return &CheckoutResult{Order: order, Session: session}, nil
}

// HandlePaymentEvent applies a verified provider event. Only checkout
// completion is acted on; a redelivered event is accepted and ignored.
func (s *service) HandlePaymentEvent(ctx context.Context, evt payment.Event) error {
	if evt.Type != payment.EventCheckoutCompleted {
		log.Debug().Str("event_id", evt.ID).Str("event_type", string(evt.Type)).Msg("service: ignoring payment event")
		return nil
	}

	orderID, err := uuid.FromString(evt.OrderID)
	if err != nil {
		return fmt.Errorf("%w: order_id %q", ErrInvalidPaymentEvent, evt.OrderID)
	}
	userID, err := uuid.FromString(evt.UserID)
	if err != nil {
		return fmt.Errorf("%w: user_id %q", ErrInvalidPaymentEvent, evt.UserID)
	}

	productIDs, confirmed, err := s.orderRepo.ConfirmPayment(ctx, evt.ID, orderID, userID)
	if err != nil {
		if errors.Is(err, ErrEventAlreadyProcessed) {
			log.Info().Str("event_id", evt.ID).Stringer("order_id", orderID).Msg("service: payment event already processed")
			return nil
		}
		log.Error().Err(err).Str("event_id", evt.ID).Stringer("order_id", orderID).Msg("service: failed to confirm payment")
		return fmt.Errorf("service: failed to confirm payment: %w", err)
	}

	if !confirmed {
		log.Warn().Str("event_id", evt.ID).Stringer("order_id", orderID).Stringer("user_id", userID).Msg("service: paid event for order that is not pending")
		return nil
	}

	s.stockChanged(ctx, productIDs)

	log.Info().Str("event_id", evt.ID).Stringer("order_id", orderID).Msg("service: order paid")
	return nil
}

func (s *service) Abandon(ctx context.Context, userID, orderID uuid.UUID) (bool, error) {
	deleted, err := s.orderRepo.DeletePending(ctx, orderID, userID)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to delete abandoned order")
		return false, fmt.Errorf("service: failed to delete abandoned order: %w", err)
	}
	if deleted {
		log.Info().Stringer("order_id", orderID).Stringer("user_id", userID).Msg("service: abandoned order deleted")
	}
	return deleted, nil
}

func (s *service) CancelByUser(ctx context.Context, userID, orderID uuid.UUID) (bool, error) {
	productIDs, cancelled, err := s.orderRepo.CancelPaid(ctx, orderID, userID)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to cancel order")
		return false, fmt.Errorf("service: failed to cancel order: %w", err)
	}
	if !cancelled {
		log.Warn().Stringer("order_id", orderID).Stringer("user_id", userID).Msg("service: cancel requested for order that is not paid")
		return false, nil
	}

	s.stockChanged(ctx, productIDs)

	log.Info().Stringer("order_id", orderID).Stringer("user_id", userID).Msg("service: order cancelled by user")
	return true, nil
}

func (s *service) Ship(ctx context.Context, orderID uuid.UUID) (bool, error) {
	shipped, err := s.orderRepo.MarkShipped(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("service: failed to ship order: %w", err)
	}
	if shipped {
		log.Info().Stringer("order_id", orderID).Msg("service: order shipped")
	}
	return shipped, nil
}

func (s *service) MyOrders(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders in repository")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}
	return orders, nil
}

func (s *service) Order(ctx context.Context, userID, orderID uuid.UUID) (*Order, error) {
	order, err := s.orderRepo.GetForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}
	return order, nil
}

// Invoice returns the order only when userID owns it; anything else is
// reported as not found.
func (s *service) Invoice(ctx context.Context, userID, orderID uuid.UUID) (*Invoice, error) {
	inv, err := s.orderRepo.GetInvoice(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", orderID).Stringer("user_id", userID).Msg("service: invoice not found for user")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to fetch invoice")
		return nil, fmt.Errorf("service: failed to fetch invoice: %w", err)
	}
	return inv, nil
}

func (s *service) AdminOrders(ctx context.Context) ([]AdminOrder, error) {
	orders, err := s.admin.ListOrders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders for admin")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *service) AdminSummary(ctx context.Context) (*RevenueSummary, error) {
	summary, err := s.admin.RevenueSummary(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to compute revenue summary")
		return nil, fmt.Errorf("service: failed to compute revenue summary: %w", err)
	}
	return summary, nil
}
