package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Cheertaboi/delivery-order-service/internal/api/handlers"
	"github.com/Cheertaboi/delivery-order-service/internal/api/middleware"
)

type RouterConfig struct {
	// AdminToken protects /admin; empty leaves it open.
	AdminToken string
}

// NewRouter builds the HTTP router for the order service
func NewRouter(svc handlers.OrderService, log *zap.Logger, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recoverer(log))

	h := handlers.NewOrderHandler(svc, log)

	r.Post("/orders", h.SubmitOrder)

	r.Route("/coupons", func(r chi.Router) {
		r.Get("/applicable", h.GetApplicableCoupons)
		r.Post("/validate", h.ValidateCoupon)
	})

	r.Post("/delivery/quote", h.QuoteDelivery)

	// Admin endpoints
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminToken(cfg.AdminToken))
		r.Post("/restaurants/{slug}/coupons", h.CreateCoupon)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
