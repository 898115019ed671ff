package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Auth               *Authenticator
	RequestTimeout     time.Duration
	MaxRequestBodySize int64

	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Products *ProductHandler
	Profile  *ProfileHandler
	Search   *SearchHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.Auth.Middleware)

		// Profile edits carry an image and set their own limit.
		r.Put("/profile", cfg.Profile.Update)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))

			r.Get("/products", cfg.Products.Get)
			r.With(AdminOnly).Delete("/admin/products/{product_id}", cfg.Products.Delete)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cfg.Cart.GetCart)
				r.Delete("/", cfg.Cart.ClearCart)
				r.Get("/summary", cfg.Cart.Summary)
				r.Post("/items", cfg.Cart.AddItem)
				r.Put("/items/{product_id}", cfg.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", cfg.Cart.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", cfg.Checkout.Begin)
				r.Get("/", cfg.Checkout.Get)
				r.Put("/address", cfg.Checkout.SetAddress)
				r.Put("/payment", cfg.Checkout.SelectPayment)
				r.Post("/promotion", cfg.Checkout.ApplyPromotion)
				r.Delete("/promotion", cfg.Checkout.ClearPromotion)
				r.Post("/submit", cfg.Checkout.Submit)
				r.Post("/confirm", cfg.Checkout.Confirm)
				r.Post("/cancel", cfg.Checkout.Cancel)
			})

			r.Get("/orders", cfg.Orders.History)

			r.Get("/profile", cfg.Profile.Get)
			r.Put("/profile/password", cfg.Profile.ChangePassword)

			r.Route("/search", func(r chi.Router) {
				r.Put("/query", cfg.Search.Query)
				r.Get("/results", cfg.Search.Results)
				r.Get("/recent", cfg.Search.ListRecent)
				r.Post("/recent", cfg.Search.AddRecent)
				r.Delete("/recent", cfg.Search.ClearRecent)
			})
		})
	})

	return r
}
