package models

import (
	"strings"
	"time"
	"unicode"
)

// Customer is keyed per tenant by their normalized WhatsApp number.
type Customer struct {
	WhatsApp        string    `json:"whatsapp"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Address         string    `json:"address,omitempty"`
	TotalOrders     int       `json:"totalOrders"`
	TotalSpent      float64   `json:"totalSpent"`
	UsedCouponCodes []string  `json:"usedCouponCodes"`
	LastOrderAt     time.Time `json:"lastOrderAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

// DefaultCountryCode is prefixed to national numbers (DDD + subscriber).
const DefaultCountryCode = "55"

// NormalizeWhatsApp returns the canonical digits of a phone number. National
// numbers of 10 or 11 digits get DefaultCountryCode, so "(11) 98765-4321" and
// "+55 11 98765-4321" share one key.
func NormalizeWhatsApp(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if n := len(digits); n == 10 || n == 11 {
		return DefaultCountryCode + digits
	}
	return digits
}

func (c *Customer) HasUsedCoupon(code string) bool {
	code = NormalizeCouponCode(code)
	for _, used := range c.UsedCouponCodes {
		if NormalizeCouponCode(used) == code {
			return true
		}
	}
	return false
}
