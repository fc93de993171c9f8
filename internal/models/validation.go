package models

// CouponRejection is the machine-readable reason a coupon was refused.
type CouponRejection string

const (
	CouponNotFound          CouponRejection = "coupon_not_found"
	CouponInactiveOrOutside CouponRejection = "inactive_or_out_of_window"
	CouponBelowMinimum      CouponRejection = "below_minimum"
	CouponAlreadyUsed       CouponRejection = "already_used"
	CouponUsageLimitReached CouponRejection = "usage_limit_reached"
)

// ValidationResponse is returned by the coupon preview endpoint.
type ValidationResponse struct {
	IsValid  bool            `json:"isValid"`
	Code     string          `json:"code,omitempty"`
	Discount float64         `json:"discount,omitempty"`
	Reason   CouponRejection `json:"reason,omitempty"`
	Message  string          `json:"message"`
}
