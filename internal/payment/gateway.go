package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrWebhookSecretMissing = errors.New("webhook secret is not configured")
	ErrMissingMetadata      = errors.New("payment event is missing order metadata")
)

type EventType string

const EventCheckoutCompleted EventType = "checkout.session.completed"

type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

type CheckoutRequest struct {
	OrderID       string
	UserID        string
	CustomerEmail string
	Items         []LineItem
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the handle the browser needs to redirect to the
// hosted payment page.
type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified provider callback. OrderID and UserID are only set
// for checkout completion events.
type Event struct {
	ID      string
	Type    EventType
	OrderID string
	UserID  string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseEvent(payload []byte, signature string) (*Event, error)
	PublishableKey() string
}
