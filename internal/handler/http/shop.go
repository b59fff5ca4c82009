package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/NGxID18/CureCart/internal/catalog"
)

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("search"))

	products, err := h.catalog.Browse(r.Context(), term)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "home.page.tmpl", &TemplateData{
		SearchTerm: term,
		Products:   products,
	})
}

func parsePrice(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}

// parseFilter reads the search form. Unparseable values are dropped
// rather than rejected.
func parseFilter(r *http.Request) (catalog.Filter, map[int64]bool) {
	q := r.URL.Query()
	f := catalog.Filter{
		Query:    strings.TrimSpace(q.Get("q")),
		MinPrice: parsePrice(q.Get("min_price")),
		MaxPrice: parsePrice(q.Get("max_price")),
		Sort:     catalog.ParseSortKey(q.Get("sort")),
	}

	selected := make(map[int64]bool)
	for _, raw := range q["category"] {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 || selected[id] {
			continue
		}
		selected[id] = true
		f.CategoryIDs = append(f.CategoryIDs, id)
	}
	return f, selected
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	filter, selected := parseFilter(r)

	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	products, err := h.catalog.Search(r.Context(), filter)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "search.page.tmpl", &TemplateData{
		Filter:             filter,
		MinPrice:           r.URL.Query().Get("min_price"),
		MaxPrice:           r.URL.Query().Get("max_price"),
		SelectedCategories: selected,
		Categories:         categories,
		Products:           products,
	})
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "categories.page.tmpl", &TemplateData{Categories: categories})
}

func (h *Handler) handleProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		h.clientError(w, r, http.StatusNotFound, "Produk tidak ditemukan")
		return
	}

	product, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			log.Warn().Int64("product_id", id).Msg("Product not found")
			h.clientError(w, r, http.StatusNotFound, "Produk tidak ditemukan")
			return
		}
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "product.page.tmpl", &TemplateData{Product: product})
}
