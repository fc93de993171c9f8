package service

import (
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// subtotalOf sums price × quantity with exact decimal arithmetic.
func subtotalOf(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(money(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return round2(total)
}

// clamp bounds d to [lo, hi].
func clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}
