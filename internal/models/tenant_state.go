package models

import "strings"

// TenantState is the snapshot a request loads, mutates and saves whole.
// Version is the optimistic-concurrency token; it is owned by the repository.
type TenantState struct {
	Restaurant Restaurant `json:"restaurant"`
	Customers  []Customer `json:"customers"`
	Orders     []Order    `json:"orders"`
	Version    int64      `json:"-"`
}

// Customer returns the customer with the given WhatsApp number, or nil.
func (s *TenantState) Customer(whatsapp string) *Customer {
	key := NormalizeWhatsApp(whatsapp)
	if key == "" {
		return nil
	}
	for i := range s.Customers {
		if NormalizeWhatsApp(s.Customers[i].WhatsApp) == key {
			return &s.Customers[i]
		}
	}
	return nil
}

// OrdersWithPrefix counts orders whose number starts with prefix.
func (s *TenantState) OrdersWithPrefix(prefix string) int {
	n := 0
	for _, o := range s.Orders {
		if strings.HasPrefix(o.Number, prefix) {
			n++
		}
	}
	return n
}
