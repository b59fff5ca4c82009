package http

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"

	"github.com/NGxID18/CureCart/internal/catalog"
	"github.com/NGxID18/CureCart/internal/order"
	"github.com/NGxID18/CureCart/internal/payment"
	"github.com/NGxID18/CureCart/internal/session"
	"github.com/NGxID18/CureCart/internal/user"
)

const maxWebhookBody = 64 << 10

type Deps struct {
	Catalog     catalog.Service
	Users       user.Service
	Orders      order.Service
	Gateway     payment.Gateway
	Sessions    *session.Manager
	RateLimiter *RateLimiter
	Production  bool
	// TrustProxy enables client address rewriting from proxy headers.
	TrustProxy  bool
}

type Handler struct {
	catalog        catalog.Service
	users          user.Service
	orders         order.Service
	gateway        payment.Gateway
	sessions       *session.Manager
	limiter        *RateLimiter
	validate       *validator.Validate
	forms          *form.Decoder
	templates      map[string]*template.Template
	publishableKey string
	production     bool
	trustProxy     bool
}

func NewHandler(deps Deps) (*Handler, error) {
	templates, err := newTemplateCache()
	if err != nil {
		return nil, err
	}

	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = NewRateLimiter(5, 10)
	}

	return &Handler{
		catalog:        deps.Catalog,
		users:          deps.Users,
		orders:         deps.Orders,
		gateway:        deps.Gateway,
		sessions:       deps.Sessions,
		limiter:        limiter,
		validate:       newValidator(),
		forms:          form.NewDecoder(),
		templates:      templates,
		publishableKey: deps.Gateway.PublishableKey(),
		production:     deps.Production,
		trustProxy:     deps.TrustProxy,
	}, nil
}

// RegisterRoutes mounts every storefront route on router. The payment
// webhook sits outside the session middleware and reads the raw body.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.handleHealth)
	router.Post("/stripe-webhook", h.handleStripeWebhook)

	router.Group(func(r chi.Router) {
		r.Use(h.sessions.LoadAndSave)

		r.Get("/", h.handleHome)
		r.Get("/search", h.handleSearch)
		r.Get("/categories", h.handleCategories)
		r.Get("/products/{id}", h.handleProduct)

		r.Get("/register", h.handleRegisterForm)
		r.Get("/login", h.handleLoginForm)
		r.With(h.limiter.Middleware).Post("/register", h.handleRegister)
		r.With(h.limiter.Middleware).Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.requireUser)

			r.Get("/cart", h.handleCart)
			r.Post("/cart/add/{id}", h.handleCartAdd)
			r.Get("/cart/remove/{id}", h.handleCartRemove)

			r.Post("/create-checkout-session", h.handleCreateCheckoutSession)
			r.Get("/order/success", h.handleOrderSuccess)
			r.Get("/order/cancel", h.handleOrderCancel)

			r.Get("/my-orders", h.handleMyOrders)
			r.Post("/my-orders/cancel/{id}", h.handleCancelOrder)
			r.Get("/invoice/{id}", h.handleInvoice)
			r.Get("/invoice/{id}/pdf", h.handleInvoicePDF)

			r.Get("/profile", h.handleProfile)
			r.Post("/profile", h.handleUpdateProfile)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireAdmin)

			r.Get("/", h.handleAdminDashboard)
			r.Get("/products", h.handleAdminProducts)
			r.Get("/products/new", h.handleAdminNewProductForm)
			r.Post("/products/new", h.handleAdminCreateProduct)
			r.Get("/products/edit/{id}", h.handleAdminEditProductForm)
			r.Post("/products/edit/{id}", h.handleAdminUpdateProduct)
			r.Post("/products/delete/{id}", h.handleAdminArchiveProduct)
			r.Post("/products/restore/{id}", h.handleAdminRestoreProduct)
			r.Get("/categories", h.handleAdminCategories)
			r.Post("/categories", h.handleAdminCreateCategory)
			r.Get("/orders", h.handleAdminOrders)
			r.Post("/orders/ship/{id}", h.handleAdminShipOrder)
		})
	})
}

// NewRouter wires the shared middleware stack in front of the routes.
// Proxy headers are honoured only when the handler trusts its proxy;
// otherwise the rate limiter keys on the socket peer.
func NewRouter(h *Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	if h.trustProxy {
		router.Use(middleware.RealIP)
	}
	router.Use(accessLog)
	router.Use(middleware.Recoverer)

	h.RegisterRoutes(router)
	return router
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
