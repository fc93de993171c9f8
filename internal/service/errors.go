package service

import (
	"fmt"
	"net/http"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
)

type ErrorKind string

const (
	KindValidation          ErrorKind = "validation_error"
	KindNotFound            ErrorKind = "not_found"
	KindClosedForOrders     ErrorKind = "closed_for_orders"
	KindSubscriptionBlocked ErrorKind = "subscription_blocked"
	KindOutOfRadius         ErrorKind = "out_of_radius"
	KindCouponRejected      ErrorKind = "coupon_rejected"
	KindConflict            ErrorKind = "conflict"
)

// OrderError is a rejection the caller can act on. Anything else returned by
// the service is an internal failure.
type OrderError struct {
	Kind    ErrorKind
	Reason  models.CouponRejection
	Message string
}

func (e *OrderError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Code is the machine-readable code sent to clients: the coupon reason when
// there is one, otherwise the kind.
func (e *OrderError) Code() string {
	if e.Reason != "" {
		return string(e.Reason)
	}
	return string(e.Kind)
}

func (e *OrderError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindCouponRejected:
		return http.StatusBadRequest
	case KindSubscriptionBlocked:
		return http.StatusPaymentRequired
	case KindClosedForOrders:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindOutOfRadius, KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newOrderError(kind ErrorKind, format string, args ...any) *OrderError {
	return &OrderError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var couponMessages = map[models.CouponRejection]string{
	models.CouponNotFound:          "coupon not found",
	models.CouponInactiveOrOutside: "coupon is inactive or outside its validity window",
	models.CouponBelowMinimum:      "order subtotal is below the coupon minimum",
	models.CouponAlreadyUsed:       "coupon already used by this customer",
	models.CouponUsageLimitReached: "coupon usage limit reached",
}

func couponRejected(reason models.CouponRejection) *OrderError {
	return &OrderError{Kind: KindCouponRejected, Reason: reason, Message: couponMessages[reason]}
}
