package models

type PaymentMethod string

const (
	PaymentMoney PaymentMethod = "money"
	PaymentCard  PaymentMethod = "card"
	PaymentPix   PaymentMethod = "pix"
)

// CartItem is a line of a submitted order. Prices come from the client.
type CartItem struct {
	ProductID string  `json:"productId" validate:"required,max=100"`
	Name      string  `json:"name" validate:"required,max=120"`
	Price     float64 `json:"price" validate:"gte=0,lte=100000"`
	Quantity  int     `json:"quantity" validate:"gte=1,lte=999"`
	Notes     string  `json:"notes,omitempty" validate:"omitempty,max=300"`
}

// Attribution carries the marketing source of an order.
type Attribution struct {
	TrafficSource         string `json:"trafficSource,omitempty" validate:"omitempty,max=200"`
	UtmSource             string `json:"utmSource,omitempty" validate:"omitempty,max=200"`
	UtmMedium             string `json:"utmMedium,omitempty" validate:"omitempty,max=200"`
	UtmCampaign           string `json:"utmCampaign,omitempty" validate:"omitempty,max=200"`
	UtmContent            string `json:"utmContent,omitempty" validate:"omitempty,max=200"`
	UtmTerm               string `json:"utmTerm,omitempty" validate:"omitempty,max=200"`
	AttributionBannerID   string `json:"attributionBannerId,omitempty" validate:"omitempty,max=100"`
	AttributionCampaignID string `json:"attributionCampaignId,omitempty" validate:"omitempty,max=100"`
}

// SubmitOrderRequest is the body of POST /orders.
type SubmitOrderRequest struct {
	RestaurantSlug   string        `json:"restaurantSlug" validate:"required,max=100"`
	CustomerName     string        `json:"customerName" validate:"required,max=120"`
	CustomerWhatsapp string        `json:"customerWhatsapp" validate:"required,whatsapp"`
	CustomerAddress  string        `json:"customerAddress" validate:"required,min=5,max=300"`
	CustomerEmail    string        `json:"customerEmail,omitempty" validate:"omitempty,email"`
	CouponCode       string        `json:"couponCode,omitempty" validate:"omitempty,max=40"`
	PaymentMethod    PaymentMethod `json:"paymentMethod" validate:"required,oneof=money card pix"`
	Items            []CartItem    `json:"items" validate:"required,min=1,max=100,dive"`
	GeneralNotes     string        `json:"generalNotes,omitempty" validate:"omitempty,max=500"`
	Attribution
}
