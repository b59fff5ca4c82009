package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending         OrderStatus = "Pending"
	StatusPaid            OrderStatus = "Paid"
	StatusShipped         OrderStatus = "Shipped"
	StatusCancelledByUser OrderStatus = "Cancelled_By_User"
)

func (os OrderStatus) String() string {
	return string(os)
}

// allowedTransitions lists the moves a shopper or admin may trigger.
// Pending -> Paid happens only through a verified payment event.
var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPending: {
		StatusPaid: true,
	},
	StatusPaid: {
		StatusShipped:         true,
		StatusCancelledByUser: true,
	},
	StatusShipped:         {},
	StatusCancelledByUser: {},
}

func (os OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return allowedTransitions[os][next]
}

// OrderItem snapshots the price at checkout time; later catalog price
// changes do not touch it.
type OrderItem struct {
	ID              int64           `json:"id" db:"id"`
	OrderID         uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID       int64           `json:"product_id" db:"product_id"`
	ProductName     string          `json:"product_name" db:"product_name"`
	Quantity        int             `json:"quantity" db:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase" db:"price_at_purchase"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	UserID           uuid.UUID       `json:"user_id" db:"user_id"`
	Status           OrderStatus     `json:"status" db:"status"`
	TotalAmount      decimal.Decimal `json:"total_amount" db:"total_amount"`
	PaymentSessionID string          `json:"payment_session_id,omitempty" db:"payment_session_id"`
	OrderItems       []OrderItem     `json:"order_items" db:"-"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// Customer is the buyer as known to the checkout flow.
type Customer struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Invoice is an order with its customer and named line items.
type Invoice struct {
	Order
	CustomerName  string
	CustomerEmail string
}

// AdminOrder is one row of the back-office order list.
type AdminOrder struct {
	ID           uuid.UUID       `db:"id"`
	UserID       uuid.UUID       `db:"user_id"`
	CustomerName string          `db:"customer_name"`
	TotalAmount  decimal.Decimal `db:"total_amount"`
	Status       OrderStatus     `db:"status"`
	CreatedAt    time.Time       `db:"created_at"`
}

type RevenueSummary struct {
	PaidOrders    int             `db:"paid_orders"`
	PendingOrders int             `db:"pending_orders"`
	Revenue       decimal.Decimal `db:"revenue"`
}
