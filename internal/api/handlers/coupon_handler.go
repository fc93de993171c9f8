package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
)

type ValidateCouponRequest struct {
	RestaurantSlug   string  `json:"restaurantSlug"`
	CouponCode       string  `json:"couponCode"`
	Subtotal         float64 `json:"subtotal"`
	CustomerWhatsapp string  `json:"customerWhatsapp,omitempty"`
}

type ApplicableResponse struct {
	ApplicableCoupons []string `json:"applicableCoupons"`
}

type createCouponResponse struct {
	Success bool           `json:"success"`
	Coupon  *models.Coupon `json:"coupon"`
}

// ValidateCoupon handles POST /coupons/validate. Nothing is consumed.
func (h *OrderHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req ValidateCouponRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, "invalid body: %v", err)
		return
	}

	resp, err := h.svc.PreviewCoupon(r.Context(), req.RestaurantSlug, req.CustomerWhatsapp, req.CouponCode, req.Subtotal)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetApplicableCoupons handles GET /coupons/applicable?restaurant=&subtotal=&whatsapp=
func (h *OrderHandler) GetApplicableCoupons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slug := strings.TrimSpace(q.Get("restaurant"))
	if slug == "" {
		writeBadRequest(w, "restaurant required")
		return
	}
	subtotal, err := strconv.ParseFloat(q.Get("subtotal"), 64)
	if err != nil {
		writeBadRequest(w, "subtotal must be a number")
		return
	}

	codes, err := h.svc.ApplicableCoupons(r.Context(), slug, q.Get("whatsapp"), subtotal)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ApplicableResponse{ApplicableCoupons: codes})
}

// CreateCoupon handles POST /admin/restaurants/{slug}/coupons
func (h *OrderHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var c models.Coupon
	if err := decodeBody(w, r, &c); err != nil {
		writeBadRequest(w, "invalid body: %v", err)
		return
	}

	created, err := h.svc.AddCoupon(r.Context(), chi.URLParam(r, "slug"), c)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, createCouponResponse{Success: true, Coupon: created})
}
