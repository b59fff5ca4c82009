package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/NGxID18/CureCart/internal/order"
	"github.com/NGxID18/CureCart/internal/payment"
)

type CheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

func (h *Handler) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	id, _ := h.sessions.Identity(r.Context())

	res, err := h.orders.Checkout(r.Context(), order.Customer{ID: id.ID, Name: id.Name, Email: id.Email}, h.sessions.Cart(r.Context()))
	if err != nil {
		if errors.Is(err, order.ErrEmptyCart) {
			respondWithError(w, http.StatusBadRequest, "Keranjang Anda kosong.")
			return
		}
		log.Error().Err(err).Stringer("user_id", id.ID).Msg("Failed to create checkout session")
		respondWithError(w, http.StatusInternalServerError, "Error membuat sesi checkout.")
		return
	}

	respondWithJSON(w, http.StatusOK, CheckoutResponse{ID: res.Session.ID, URL: res.Session.URL})
}

func (h *Handler) handleOrderSuccess(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCart(r.Context())
	h.render(w, r, http.StatusOK, "order_success.page.tmpl", nil)
}

// handleOrderCancel drops the Pending order the shopper walked away from.
// Cleanup failures are logged and the page is rendered anyway.
func (h *Handler) handleOrderCancel(w http.ResponseWriter, r *http.Request) {
	id, _ := h.sessions.Identity(r.Context())

	if raw := r.URL.Query().Get("order_id"); raw != "" {
		orderID, err := uuid.FromString(raw)
		if err != nil {
			log.Warn().Str("order_id", raw).Msg("Ignoring malformed order id on cancel")
		} else if _, err := h.orders.Abandon(r.Context(), id.ID, orderID); err != nil {
			log.Error().Err(err).Stringer("order_id", orderID).Msg("Failed to clean up abandoned order")
		}
	}

	h.render(w, r, http.StatusOK, "order_cancel.page.tmpl", nil)
}

// handleStripeWebhook verifies and applies a provider callback. It answers
// 500 when the secret is missing or the database fails and 400 for
// payloads that do not verify.
func (h *Handler) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read webhook body")
		http.Error(w, "Webhook Error: unreadable body", http.StatusBadRequest)
		return
	}

	evt, err := h.gateway.ParseEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrWebhookSecretMissing) {
			log.Error().Msg("Webhook secret is not configured")
			http.Error(w, "Webhook secret is not configured", http.StatusInternalServerError)
			return
		}
		log.Warn().Err(err).Msg("Rejected webhook")
		http.Error(w, fmt.Sprintf("Webhook Error: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.orders.HandlePaymentEvent(r.Context(), *evt); err != nil {
		if errors.Is(err, order.ErrInvalidPaymentEvent) {
			log.Warn().Err(err).Str("event_id", evt.ID).Msg("Rejected webhook with malformed metadata")
			http.Error(w, fmt.Sprintf("Webhook Error: %v", err), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("event_id", evt.ID).Msg("Failed to process payment event")
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
