package models

import (
	"fmt"
	"time"
)

// FeeSource records which rule produced an order's delivery fee.
type FeeSource string

const (
	FeeSourceFlat              FeeSource = "flat"
	FeeSourceDistanceBand      FeeSource = "distance_band"
	FeeSourceNeighborhoodFixed FeeSource = "neighborhood_fixed"
	FeeSourceHybrid            FeeSource = "hybrid"
	FeeSourceFallback          FeeSource = "fallback"
)

const OrderStatusReceived = "Recebido"

// Order is written once at submission and never changed by the pricing engine.
type Order struct {
	ID                 string        `json:"id"`
	Number             string        `json:"number"`
	RestaurantSlug     string        `json:"restaurantSlug"`
	CustomerName       string        `json:"customerName"`
	CustomerWhatsapp   string        `json:"customerWhatsapp"`
	CustomerAddress    string        `json:"customerAddress"`
	CustomerEmail      string        `json:"customerEmail,omitempty"`
	Items              []CartItem    `json:"items"`
	Subtotal           float64       `json:"subtotal"`
	CouponCode         string        `json:"couponCode,omitempty"`
	DiscountValue      float64       `json:"discountValue"`
	DeliveryFee        float64       `json:"deliveryFee"`
	DeliveryFeeSource  FeeSource     `json:"deliveryFeeSource"`
	DeliveryDistanceKm *float64      `json:"deliveryDistanceKm"`
	DeliveryZoneName   *string       `json:"deliveryZoneName"`
	Total              float64       `json:"total"`
	PaymentMethod      PaymentMethod `json:"paymentMethod"`
	GeneralNotes       string        `json:"generalNotes,omitempty"`
	Status             string        `json:"status"`
	CreatedAt          time.Time     `json:"createdAt"`
	Attribution
}

// OrderNumberPrefix is the part of an order number shared by one day's orders.
func OrderNumberPrefix(date time.Time) string {
	return "ORD_" + date.Format("20060102") + "_"
}

// GenerateOrderNumber builds ORD_YYYYMMDD_NNN.
func GenerateOrderNumber(date time.Time, sequence int) string {
	return fmt.Sprintf("%s%03d", OrderNumberPrefix(date), sequence)
}

// OrderCreatedEvent is published after an order is persisted.
type OrderCreatedEvent struct {
	OrderID         string    `json:"orderId"`
	Number          string    `json:"number"`
	RestaurantSlug  string    `json:"restaurantSlug"`
	Total           float64   `json:"total"`
	DispatchMessage string    `json:"dispatchMessage"`
	DispatchURL     string    `json:"dispatchUrl"`
	CreatedAt       time.Time `json:"createdAt"`
}
