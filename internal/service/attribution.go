package service

import "github.com/Cheertaboi/delivery-order-service/internal/models"

// AttributionResult reports which counters an order moved.
type AttributionResult struct {
	CouponCounted   bool
	BannerCounted   bool
	CampaignCounted bool
}

// RecordAttribution bumps the coupon, banner and campaign counters that an
// accepted order refers to. Unknown codes and ids are ignored.
func RecordAttribution(r *models.Restaurant, couponCode string, attr models.Attribution) AttributionResult {
	var res AttributionResult
	if c := r.CouponByCode(couponCode); c != nil {
		c.Uses++
		res.CouponCounted = true
	}
	if b := r.BannerByID(attr.AttributionBannerID); b != nil {
		b.AttributedOrders++
		res.BannerCounted = true
	}
	if mc := r.CampaignByID(attr.AttributionCampaignID); mc != nil {
		mc.AttributedOrders++
		res.CampaignCounted = true
	}
	return res
}
