package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
)

// CouponResult is an accepted coupon. Code is empty when no coupon was given.
type CouponResult struct {
	Code     string
	Discount decimal.Decimal
}

// CouponValidator checks coupons against a restaurant's rules. Windows are
// evaluated in the restaurant timezone, or DefaultLocation when it has none.
type CouponValidator struct {
	DefaultLocation *time.Location
}

// ValidateCoupon validates with the restaurant timezone, falling back to
// the location of now.
func ValidateCoupon(r *models.Restaurant, customer *models.Customer, code string, subtotal decimal.Decimal, now time.Time) (CouponResult, error) {
	return CouponValidator{DefaultLocation: now.Location()}.Validate(r, customer, code, subtotal, now)
}

// Validate runs the checks in order and stops at the first failure. It has no
// side effects; usage is recorded by the caller once the order is accepted.
func (v CouponValidator) Validate(r *models.Restaurant, customer *models.Customer, code string, subtotal decimal.Decimal, now time.Time) (CouponResult, error) {
	code = models.NormalizeCouponCode(code)
	if code == "" {
		return CouponResult{Discount: decimal.Zero}, nil
	}

	c := r.CouponByCode(code)
	if c == nil {
		return CouponResult{}, couponRejected(models.CouponNotFound)
	}
	if !c.Active || !withinWindow(c, now.In(v.location(r))) {
		return CouponResult{}, couponRejected(models.CouponInactiveOrOutside)
	}
	if subtotal.LessThan(money(c.MinOrderValue)) {
		return CouponResult{}, couponRejected(models.CouponBelowMinimum)
	}
	if customer != nil && customer.HasUsedCoupon(code) {
		return CouponResult{}, couponRejected(models.CouponAlreadyUsed)
	}
	if c.MaxUses > 0 && c.Uses >= c.MaxUses {
		return CouponResult{}, couponRejected(models.CouponUsageLimitReached)
	}

	return CouponResult{Code: code, Discount: discountFor(c, subtotal)}, nil
}

// Applicable lists the codes that would validate right now, in stored order.
func (v CouponValidator) Applicable(r *models.Restaurant, customer *models.Customer, subtotal decimal.Decimal, now time.Time) []string {
	codes := make([]string, 0, len(r.Coupons))
	for _, c := range r.Coupons {
		res, err := v.Validate(r, customer, c.Code, subtotal, now)
		if err != nil || res.Code == "" {
			continue
		}
		codes = append(codes, res.Code)
	}
	return codes
}

func (v CouponValidator) location(r *models.Restaurant) *time.Location {
	if r.Timezone != "" {
		if loc, err := time.LoadLocation(r.Timezone); err == nil {
			return loc
		}
	}
	if v.DefaultLocation != nil {
		return v.DefaultLocation
	}
	return time.UTC
}

// discountFor computes the raw discount and clamps it to [0, subtotal].
// Unknown discount types grant nothing.
func discountFor(c *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.DiscountType {
	case models.DiscountPercent:
		d = subtotal.Mul(money(c.DiscountValue)).Div(hundred)
	case models.DiscountFixed:
		d = money(c.DiscountValue)
	default:
		d = decimal.Zero
	}
	return round2(clamp(d, decimal.Zero, subtotal))
}

// withinWindow checks the optional date range and minute-of-day range, both
// inclusive. A malformed bound makes the coupon unusable.
func withinWindow(c *models.Coupon, local time.Time) bool {
	today := local.Format(dateLayout)
	if c.StartDate != "" {
		if !validDate(c.StartDate) || today < c.StartDate {
			return false
		}
	}
	if c.EndDate != "" {
		if !validDate(c.EndDate) || today > c.EndDate {
			return false
		}
	}

	if c.StartTime == "" && c.EndTime == "" {
		return true
	}
	minute := local.Hour()*60 + local.Minute()
	start, end := 0, 24*60-1
	var ok bool
	if c.StartTime != "" {
		if start, ok = parseClock(c.StartTime); !ok {
			return false
		}
	}
	if c.EndTime != "" {
		if end, ok = parseClock(c.EndTime); !ok {
			return false
		}
	}
	if start <= end {
		return minute >= start && minute <= end
	}
	// wraps midnight, e.g. 22:00-02:00
	return minute >= start || minute <= end
}

const dateLayout = "2006-01-02"

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// parseClock turns HH:MM into minutes after midnight.
func parseClock(s string) (int, bool) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
