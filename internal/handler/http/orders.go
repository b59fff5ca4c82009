package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/NGxID18/CureCart/internal/invoice"
	"github.com/NGxID18/CureCart/internal/order"
)

func (h *Handler) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := h.sessions.Identity(r.Context())

	orders, err := h.orders.MyOrders(r.Context(), id.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "my_orders.page.tmpl", &TemplateData{Orders: orders})
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := h.sessions.Identity(r.Context())

	orderID, err := parseUUIDParam(r, "id")
	if err != nil {
		h.clientError(w, r, http.StatusBadRequest, "Pesanan tidak valid")
		return
	}

	cancelled, err := h.orders.CancelByUser(r.Context(), id.ID, orderID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if cancelled {
		h.sessions.Flash(r.Context(), "Pesanan dibatalkan dan stok dikembalikan.")
	} else {
		h.sessions.Flash(r.Context(), "Pesanan ini tidak dapat dibatalkan.")
	}

	http.Redirect(w, r, "/my-orders", http.StatusSeeOther)
}

func (h *Handler) loadInvoice(w http.ResponseWriter, r *http.Request) (*order.Invoice, bool) {
	id, _ := h.sessions.Identity(r.Context())

	orderID, err := parseUUIDParam(r, "id")
	if err != nil {
		h.clientError(w, r, http.StatusNotFound, "Invoice tidak ditemukan atau bukan milik Anda.")
		return nil, false
	}

	inv, err := h.orders.Invoice(r.Context(), id.ID, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			h.clientError(w, r, http.StatusNotFound, "Invoice tidak ditemukan atau bukan milik Anda.")
			return nil, false
		}
		h.serverError(w, r, err)
		return nil, false
	}
	return inv, true
}

func (h *Handler) handleInvoice(w http.ResponseWriter, r *http.Request) {
	fromCheckout := r.URL.Query().Get("from_checkout") == "true"
	if fromCheckout {
		h.sessions.ClearCart(r.Context())
	}

	inv, ok := h.loadInvoice(w, r)
	if !ok {
		return
	}

	h.render(w, r, http.StatusOK, "invoice.page.tmpl", &TemplateData{Invoice: inv, FromCheckout: fromCheckout})
}

func (h *Handler) handleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvoice(w, r)
	if !ok {
		return
	}

	doc := invoice.NewDocument(inv)
	buf := new(bytes.Buffer)
	if err := invoice.RenderPDF(buf, doc); err != nil {
		h.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename()))
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Stringer("order_id", inv.ID).Msg("Failed to write invoice pdf")
	}
}
