package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
	"github.com/Cheertaboi/delivery-order-service/internal/service"
)

// OrderService is the part of service.OrderService the HTTP layer uses.
type OrderService interface {
	Submit(ctx context.Context, req *models.SubmitOrderRequest) (*service.SubmitResult, error)
	Quote(ctx context.Context, slug, address string) (*service.DeliveryQuote, error)
	PreviewCoupon(ctx context.Context, slug, whatsapp, code string, subtotal float64) (models.ValidationResponse, error)
	ApplicableCoupons(ctx context.Context, slug, whatsapp string, subtotal float64) ([]string, error)
	AddCoupon(ctx context.Context, slug string, c models.Coupon) (*models.Coupon, error)
}

type OrderHandler struct {
	svc OrderService
	log *zap.Logger
}

func NewOrderHandler(svc OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

type submitOrderResponse struct {
	Success     bool          `json:"success"`
	Order       *models.Order `json:"order"`
	DispatchURL string        `json:"dispatchUrl"`
}

// SubmitOrder handles POST /orders
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitOrderRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, "invalid body: %v", err)
		return
	}

	res, err := h.svc.Submit(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitOrderResponse{
		Success:     true,
		Order:       res.Order,
		DispatchURL: res.DispatchURL,
	})
}
