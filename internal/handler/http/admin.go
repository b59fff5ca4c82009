package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/NGxID18/CureCart/internal/catalog"
)

func (h *Handler) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.orders.AdminSummary(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "admin_dashboard.page.tmpl", &TemplateData{Summary: summary})
}

func (h *Handler) handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.AdminProducts(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "admin_products.page.tmpl", &TemplateData{Products: products})
}

func productFormValues(p *catalog.Product) map[string]string {
	values := map[string]string{
		"name":           p.Name,
		"description":    p.Description,
		"price":          p.Price.String(),
		"stock_quantity": strconv.Itoa(p.StockQuantity),
		"image_url":      p.ImageURL,
	}
	if p.CategoryID != nil {
		values["category_id"] = strconv.FormatInt(*p.CategoryID, 10)
	}
	return values
}

func (h *Handler) renderProductForm(w http.ResponseWriter, r *http.Request, status int, title, action string, values, fieldErrors map[string]string) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, status, "admin_product_form.page.tmpl", &TemplateData{
		Title:      title,
		FormAction: action,
		Categories: categories,
		Form:       values,
		FormErrors: fieldErrors,
	})
}

// parseProductForm validates the submitted form and converts it into a
// product. A non-nil map means the form must be shown again.
func (h *Handler) parseProductForm(r *http.Request) (*catalog.Product, map[string]string, map[string]string, error) {
	var form ProductForm
	values, err := h.decodeForm(r, &form)
	if err != nil {
		return nil, nil, map[string]string{"form": "Form tidak valid"}, nil
	}

	fieldErrors, err := h.validateForm(form)
	if err != nil || fieldErrors != nil {
		return nil, values, fieldErrors, err
	}

	price, err := decimal.NewFromString(form.Price)
	if err != nil {
		return nil, values, map[string]string{"price": "Harus berupa angka"}, nil
	}
	stock, err := strconv.Atoi(form.StockQuantity)
	if err != nil {
		return nil, values, map[string]string{"stock_quantity": "Harus berupa angka"}, nil
	}

	p := &catalog.Product{
		Name:          form.Name,
		Description:   form.Description,
		Price:         price,
		StockQuantity: stock,
		ImageURL:      form.ImageURL,
	}
	if form.CategoryID != "" {
		categoryID, err := strconv.ParseInt(form.CategoryID, 10, 64)
		if err != nil {
			return nil, values, map[string]string{"category_id": "Kategori tidak valid"}, nil
		}
		p.CategoryID = &categoryID
	}
	return p, values, nil, nil
}

func catalogErrorMessage(err error) (map[string]string, bool) {
	switch {
	case errors.Is(err, catalog.ErrCategoryNotFound):
		return map[string]string{"category_id": "Kategori tidak ditemukan"}, true
	case errors.Is(err, catalog.ErrInvalidInput):
		return map[string]string{"form": err.Error()}, true
	default:
		return nil, false
	}
}

func (h *Handler) handleAdminNewProductForm(w http.ResponseWriter, r *http.Request) {
	h.renderProductForm(w, r, http.StatusOK, "Tambah Produk Baru", "/admin/products/new", nil, nil)
}

func (h *Handler) handleAdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	const title, action = "Tambah Produk Baru", "/admin/products/new"

	p, values, fieldErrors, err := h.parseProductForm(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if fieldErrors != nil {
		h.renderProductForm(w, r, http.StatusUnprocessableEntity, title, action, values, fieldErrors)
		return
	}

	if _, err := h.catalog.CreateProduct(r.Context(), p); err != nil {
		if msg, ok := catalogErrorMessage(err); ok {
			h.renderProductForm(w, r, http.StatusUnprocessableEntity, title, action, values, msg)
			return
		}
		h.serverError(w, r, err)
		return
	}

	h.sessions.Flash(r.Context(), "Produk ditambahkan.")
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

func (h *Handler) handleAdminEditProductForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		h.clientError(w, r, http.StatusNotFound, "Produk tidak ditemukan")
		return
	}

	p, err := h.catalog.AdminProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			h.clientError(w, r, http.StatusNotFound, "Produk tidak ditemukan")
			return
		}
		h.serverError(w, r, err)
		return
	}

	h.renderProductForm(w, r, http.StatusOK, "Edit Produk", "/admin/products/edit/"+strconv.FormatInt(id, 10), productFormValues(p), nil)
}

func (h *Handler) handleAdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		h.clientError(w, r, http.StatusNotFound, "Produk tidak ditemukan")
		return
	}
	title, action := "Edit Produk", "/admin/products/edit/"+strconv.FormatInt(id, 10)

	p, values, fieldErrors, err := h.parseProductForm(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if fieldErrors != nil {
		h.renderProductForm(w, r, http.StatusUnprocessableEntity, title, action, values, fieldErrors)
		return
	}

	p.ID = id
	if err := h.catalog.UpdateProduct(r.Context(), p); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			h.clientError(w, r, http.StatusNotFound, "Produk tidak ditemukan")
			return
		}
		if msg, ok := catalogErrorMessage(err); ok {
			h.renderProductForm(w, r, http.StatusUnprocessableEntity, title, action, values, msg)
			return
		}
		h.serverError(w, r, err)
		return
	}

	h.sessions.Flash(r.Context(), "Produk diperbarui.")
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

func (h *Handler) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		h.clientError(w, r, http.StatusNotFound, "Produk tidak ditemukan")
		return
	}

	if archived {
		err = h.catalog.Archive(r.Context(), id)
	} else {
		err = h.catalog.Restore(r.Context(), id)
	}
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			h.clientError(w, r, http.StatusNotFound, "Produk tidak ditemukan")
			return
		}
		h.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

func (h *Handler) handleAdminArchiveProduct(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

func (h *Handler) handleAdminRestoreProduct(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false)
}

func (h *Handler) renderCategories(w http.ResponseWriter, r *http.Request, status int, values, fieldErrors map[string]string) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, status, "admin_categories.page.tmpl", &TemplateData{Categories: categories, Form: values, FormErrors: fieldErrors})
}

func (h *Handler) handleAdminCategories(w http.ResponseWriter, r *http.Request) {
	h.renderCategories(w, r, http.StatusOK, nil, nil)
}

func (h *Handler) handleAdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var form CategoryForm
	values, err := h.decodeForm(r, &form)
	if err != nil {
		h.clientError(w, r, http.StatusBadRequest, "Form tidak valid")
		return
	}

	fieldErrors, err := h.validateForm(form)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if fieldErrors != nil {
		h.renderCategories(w, r, http.StatusUnprocessableEntity, values, fieldErrors)
		return
	}

	if _, err := h.catalog.CreateCategory(r.Context(), &catalog.Category{Name: form.Name, Description: form.Description}); err != nil {
		switch {
		case errors.Is(err, catalog.ErrCategoryExists):
			h.renderCategories(w, r, http.StatusConflict, values, map[string]string{"name": "Kategori sudah ada"})
		case errors.Is(err, catalog.ErrInvalidInput):
			h.renderCategories(w, r, http.StatusUnprocessableEntity, values, map[string]string{"name": "Wajib diisi"})
		default:
			h.serverError(w, r, err)
		}
		return
	}

	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

func (h *Handler) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.AdminOrders(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "admin_orders.page.tmpl", &TemplateData{AdminOrders: orders})
}

func (h *Handler) handleAdminShipOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseUUIDParam(r, "id")
	if err != nil {
		h.clientError(w, r, http.StatusBadRequest, "Pesanan tidak valid")
		return
	}

	shipped, err := h.orders.Ship(r.Context(), orderID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if !shipped {
		h.sessions.Flash(r.Context(), "Hanya pesanan berstatus Paid yang dapat dikirim.")
	}

	http.Redirect(w, r, "/admin/orders", http.StatusSeeOther)
}
