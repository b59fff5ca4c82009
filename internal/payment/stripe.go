package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
)

const currencyIDR = "idr"

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
}

type stripeGateway struct {
	api            *client.API
	publishableKey string
	webhookSecret  string
}

func NewStripeGateway(cfg StripeConfig, backends *stripe.Backends) Gateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)
	return &stripeGateway{
		api:            api,
		publishableKey: cfg.PublishableKey,
		webhookSecret:  cfg.WebhookSecret,
	}
}

// minorUnits converts a rupiah amount to the integer amount Stripe expects.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func buildSessionParams(req CheckoutRequest) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currencyIDR),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(minorUnits(item.UnitPrice)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ClientReferenceID:  stripe.String(req.OrderID),
		Metadata: map[string]string{
			"order_id": req.OrderID,
			"user_id":  req.UserID,
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	return params
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := buildSessionParams(req)
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		log.Error().Err(err).Str("order_id", req.OrderID).Msg("payment: failed to create checkout session")
		return nil, fmt.Errorf("payment: failed to create checkout session: %w", err)
	}

	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *stripeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, ErrWebhookSecretMissing
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	event := &Event{ID: evt.ID, Type: EventType(evt.Type)}
	if event.Type != EventCheckoutCompleted {
		return event, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("payment: failed to decode checkout session: %w", err)
	}

	event.OrderID = cs.Metadata["order_id"]
	event.UserID = cs.Metadata["user_id"]
	if event.OrderID == "" || event.UserID == "" {
		return nil, ErrMissingMetadata
	}

	return event, nil
}

func (g *stripeGateway) PublishableKey() string {
	return g.publishableKey
}
