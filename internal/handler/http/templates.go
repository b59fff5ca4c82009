package http

import (
	"embed"
	"html/template"
	"io/fs"
	"path"
	"time"

	"github.com/NGxID18/CureCart/internal/cart"
	"github.com/NGxID18/CureCart/internal/catalog"
	"github.com/NGxID18/CureCart/internal/invoice"
	"github.com/NGxID18/CureCart/internal/order"
	"github.com/NGxID18/CureCart/internal/session"
	"github.com/NGxID18/CureCart/internal/user"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type TemplateData struct {
	CurrentYear          int
	User                 *session.Identity
	Flash                string
	StripePublishableKey string
	IsProduction         bool
	Title                string

	SearchTerm         string
	Filter             catalog.Filter
	MinPrice           string
	MaxPrice           string
	SelectedCategories map[int64]bool
	Products           []catalog.Product
	Product            *catalog.Product
	Categories         []catalog.Category

	Cart cart.Cart

	Orders       []order.Order
	Invoice      *order.Invoice
	FromCheckout bool

	Profile *user.User
	Success bool

	AdminOrders []order.AdminOrder
	Summary     *order.RevenueSummary
	FormAction  string

	Form       map[string]string
	FormErrors map[string]string
}

func (td *TemplateData) IsAuthenticated() bool {
	return td.User != nil
}

func (td *TemplateData) IsAdmin() bool {
	return td.User != nil && td.User.IsAdmin
}

var templateFuncs = template.FuncMap{
	"rupiah": invoice.FormatRupiah,
	"date":   invoice.FormatDate,
	"datetime": func(t time.Time) string {
		return t.Format("02/01/2006 15:04")
	},
	"isoDate": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"canCancel": func(s order.OrderStatus) bool {
		return s.CanTransitionTo(order.StatusCancelledByUser)
	},
	"canShip": func(s order.OrderStatus) bool {
		return s.CanTransitionTo(order.StatusShipped)
	},
}

// newTemplateCache parses every page together with the base layout and
// the shared partials, keyed by page file name.
func newTemplateCache() (map[string]*template.Template, error) {
	cache := make(map[string]*template.Template)

	pages, err := fs.Glob(templateFS, "templates/*.page.tmpl")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := path.Base(page)

		ts, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/base.layout.tmpl")
		if err != nil {
			return nil, err
		}

		partials, err := fs.Glob(templateFS, "templates/*.partial.tmpl")
		if err != nil {
			return nil, err
		}

		if len(partials) > 0 {
			ts, err = ts.ParseFS(templateFS, "templates/*.partial.tmpl")
			if err != nil {
				return nil, err
			}
		}

		ts, err = ts.ParseFS(templateFS, page)
		if err != nil {
			return nil, err
		}

		cache[name] = ts
	}

	return cache, nil
}
