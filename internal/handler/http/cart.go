package http

import (
	"errors"
	"net/http"

	"github.com/NGxID18/CureCart/internal/cart"
	"github.com/NGxID18/CureCart/internal/catalog"
)

func (h *Handler) handleCart(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "cart.page.tmpl", &TemplateData{Cart: h.sessions.Cart(r.Context())})
}

func (h *Handler) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		h.clientError(w, r, http.StatusNotFound, "Produk tidak ditemukan")
		return
	}

	var form CartAddForm
	if _, err := h.decodeForm(r, &form); err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if fieldErrors, err := h.validateForm(form); err != nil || fieldErrors != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	product, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			h.clientError(w, r, http.StatusNotFound, "Produk tidak ditemukan")
			return
		}
		h.serverError(w, r, err)
		return
	}

	c := h.sessions.Cart(r.Context())
	if err := c.Add(cart.Item{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  form.Quantity,
	}); err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.sessions.SaveCart(r.Context(), c)
	h.sessions.Flash(r.Context(), product.Name+" ditambahkan ke keranjang")

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	if id, err := parseInt64Param(r, "id"); err == nil {
		c := h.sessions.Cart(r.Context())
		c.Remove(id)
		h.sessions.SaveCart(r.Context(), c)
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}
