package models

import "strings"

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Coupon is a tenant-owned discount code. Dates use YYYY-MM-DD and times HH:MM,
// both evaluated in the restaurant's timezone.
type Coupon struct {
	Code          string       `json:"code" validate:"required,max=40"`
	Active        bool         `json:"active"`
	DiscountType  DiscountType `json:"discountType" validate:"required,oneof=percent fixed"`
	DiscountValue float64      `json:"discountValue" validate:"gt=0"`
	MinOrderValue float64      `json:"minOrderValue" validate:"gte=0"`
	StartDate     string       `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate       string       `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartTime     string       `json:"startTime,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime       string       `json:"endTime,omitempty" validate:"omitempty,datetime=15:04"`
	Uses          int          `json:"uses" validate:"gte=0"`
	MaxUses       int          `json:"maxUses,omitempty" validate:"gte=0"`
}

// NormalizeCouponCode trims and uppercases a code so lookups ignore case and padding.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
