package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
)

const dispatchBaseURL = "https://wa.me/"

var paymentLabels = map[models.PaymentMethod]string{
	models.PaymentMoney: "Dinheiro",
	models.PaymentCard:  "Cartão",
	models.PaymentPix:   "Pix",
}

// BuildOrderMessage renders the order summary the customer sends to the restaurant.
func BuildOrderMessage(r *models.Restaurant, o *models.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*Novo pedido %s*\n", o.Number)
	fmt.Fprintf(&b, "Restaurante: %s\n", r.Name)
	fmt.Fprintf(&b, "Cliente: %s\n", o.CustomerName)
	fmt.Fprintf(&b, "WhatsApp: %s\n", o.CustomerWhatsapp)
	fmt.Fprintf(&b, "Endereço: %s\n", o.CustomerAddress)

	b.WriteString("\n*Itens*\n")
	for _, it := range o.Items {
		line := money(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		fmt.Fprintf(&b, "%dx %s - %s\n", it.Quantity, it.Name, formatBRL(line))
		if notes := strings.TrimSpace(it.Notes); notes != "" {
			fmt.Fprintf(&b, "   Obs: %s\n", notes)
		}
	}

	fmt.Fprintf(&b, "\nSubtotal: %s\n", formatBRL(money(o.Subtotal)))
	if o.CouponCode != "" {
		fmt.Fprintf(&b, "Cupom %s: -%s\n", o.CouponCode, formatBRL(money(o.DiscountValue)))
	}
	if o.DeliveryZoneName != nil {
		fmt.Fprintf(&b, "Entrega: %s (%s)\n", formatBRL(money(o.DeliveryFee)), *o.DeliveryZoneName)
	} else {
		fmt.Fprintf(&b, "Entrega: %s\n", formatBRL(money(o.DeliveryFee)))
	}
	if o.DeliveryDistanceKm != nil {
		fmt.Fprintf(&b, "Distância: %s km\n", formatKm(*o.DeliveryDistanceKm))
	}
	fmt.Fprintf(&b, "*Total: %s*\n", formatBRL(money(o.Total)))

	label, ok := paymentLabels[o.PaymentMethod]
	if !ok {
		label = string(o.PaymentMethod)
	}
	fmt.Fprintf(&b, "Pagamento: %s", label)

	if notes := strings.TrimSpace(o.GeneralNotes); notes != "" {
		fmt.Fprintf(&b, "\nObservações: %s", notes)
	}
	return b.String()
}

// DispatchURL builds the wa.me link that opens a chat with the restaurant
// pre-filled with message.
func DispatchURL(restaurantWhatsApp, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return dispatchBaseURL + models.NormalizeWhatsApp(restaurantWhatsApp) + "?text=" + text
}

// formatBRL renders 1234.5 as "R$ 1.234,50".
func formatBRL(d decimal.Decimal) string {
	s := round2(d).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return sign + "R$ " + grouped.String() + "," + frac
}

// formatKm renders 5.24 as "5,2".
func formatKm(km float64) string {
	return strings.Replace(decimal.NewFromFloat(km).StringFixed(1), ".", ",", 1)
}
