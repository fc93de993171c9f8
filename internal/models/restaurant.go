package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownFeeMode is returned when a delivery config names a mode outside FeeMode.
var ErrUnknownFeeMode = errors.New("unknown fee mode")

// FeeMode is the strategy a restaurant uses to price delivery.
type FeeMode string

const (
	FeeModeFlat              FeeMode = "flat"
	FeeModeDistanceBands     FeeMode = "distance_bands"
	FeeModeNeighborhoodFixed FeeMode = "neighborhood_fixed"
	FeeModeHybrid            FeeMode = "hybrid"
)

func (m FeeMode) Valid() bool {
	switch m {
	case FeeModeFlat, FeeModeDistanceBands, FeeModeNeighborhoodFixed, FeeModeHybrid:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown modes at decode time. An empty mode means flat.
func (m *FeeMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*m = FeeModeFlat
		return nil
	}
	mode := FeeMode(s)
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFeeMode, s)
	}
	*m = mode
	return nil
}

type DistanceBand struct {
	UpToKm float64 `json:"upToKm"`
	Fee    float64 `json:"fee"`
}

type NeighborhoodRate struct {
	Name   string  `json:"name"`
	Fee    float64 `json:"fee"`
	Active bool    `json:"active"`
}

// DeliveryConfig is a restaurant's fee policy. RadiusKm of zero means no ceiling.
// Bands and rates are stored in whatever order the admin entered them.
type DeliveryConfig struct {
	FeeMode           FeeMode            `json:"feeMode"`
	RadiusKm          float64            `json:"radiusKm"`
	DistanceBands     []DistanceBand     `json:"distanceBands,omitempty"`
	NeighborhoodRates []NeighborhoodRate `json:"neighborhoodRates,omitempty"`
}

type Banner struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Active           bool   `json:"active"`
	AttributedOrders int    `json:"attributedOrders"`
}

type MarketingCampaign struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Active           bool   `json:"active"`
	AttributedOrders int    `json:"attributedOrders"`
}

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionBlocked  SubscriptionStatus = "blocked"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Restaurant is a tenant.
type Restaurant struct {
	Slug               string              `json:"slug"`
	Name               string              `json:"name"`
	WhatsApp           string              `json:"whatsapp"`
	DeliveryFee        float64             `json:"deliveryFee"`
	DeliveryConfig     *DeliveryConfig     `json:"deliveryConfig,omitempty"`
	Coupons            []Coupon            `json:"coupons"`
	Banners            []Banner            `json:"banners"`
	MarketingCampaigns []MarketingCampaign `json:"marketingCampaigns"`
	OpenForOrders      bool                `json:"openForOrders"`
	SubscriptionStatus SubscriptionStatus  `json:"subscriptionStatus,omitempty"`
	TrialEndsAt        *time.Time          `json:"trialEndsAt,omitempty"`
	Latitude           *float64            `json:"latitude,omitempty"`
	Longitude          *float64            `json:"longitude,omitempty"`
	Timezone           string              `json:"timezone,omitempty"`
}

// Coordinates reports the restaurant location, if both parts are set.
func (r *Restaurant) Coordinates() (Coordinates, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *r.Latitude, Lng: *r.Longitude}, true
}

// SubscriptionBlocked reports whether billing state forbids new orders.
// past_due is a grace state and still accepts orders.
func (r *Restaurant) SubscriptionBlocked(now time.Time) bool {
	switch r.SubscriptionStatus {
	case SubscriptionBlocked, SubscriptionCanceled:
		return true
	case SubscriptionTrialing:
		return r.TrialEndsAt != nil && now.After(*r.TrialEndsAt)
	}
	return false
}

// Mode returns the effective fee mode; restaurants without a config charge the flat fee.
func (r *Restaurant) Mode() FeeMode {
	if r.DeliveryConfig == nil || r.DeliveryConfig.FeeMode == "" {
		return FeeModeFlat
	}
	return r.DeliveryConfig.FeeMode
}

// RadiusKm returns the delivery ceiling, zero when unlimited.
func (r *Restaurant) RadiusKm() float64 {
	if r.DeliveryConfig == nil {
		return 0
	}
	return r.DeliveryConfig.RadiusKm
}

// CouponByCode finds a coupon by normalized code. The pointer aliases the slice element.
func (r *Restaurant) CouponByCode(code string) *Coupon {
	code = NormalizeCouponCode(code)
	if code == "" {
		return nil
	}
	for i := range r.Coupons {
		if NormalizeCouponCode(r.Coupons[i].Code) == code {
			return &r.Coupons[i]
		}
	}
	return nil
}

func (r *Restaurant) BannerByID(id string) *Banner {
	if id == "" {
		return nil
	}
	for i := range r.Banners {
		if r.Banners[i].ID == id {
			return &r.Banners[i]
		}
	}
	return nil
}

func (r *Restaurant) CampaignByID(id string) *MarketingCampaign {
	if id == "" {
		return nil
	}
	for i := range r.MarketingCampaigns {
		if r.MarketingCampaigns[i].ID == id {
			return &r.MarketingCampaigns[i]
		}
	}
	return nil
}
