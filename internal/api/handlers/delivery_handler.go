package handlers

import (
	"net/http"

	"github.com/Cheertaboi/delivery-order-service/internal/service"
)

type QuoteRequest struct {
	RestaurantSlug  string `json:"restaurantSlug"`
	CustomerAddress string `json:"customerAddress"`
}

type quoteResponse struct {
	Success bool                   `json:"success"`
	Quote   *service.DeliveryQuote `json:"quote"`
}

// QuoteDelivery handles POST /delivery/quote
func (h *OrderHandler) QuoteDelivery(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, "invalid body: %v", err)
		return
	}

	q, err := h.svc.Quote(r.Context(), req.RestaurantSlug, req.CustomerAddress)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{Success: true, Quote: q})
}
