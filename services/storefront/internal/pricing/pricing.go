// Package pricing computes cart and order totals.
package pricing

import (
	"github.com/appetiteclub/apt"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/catering/pkg/money"
)

const (
	PromoPercentage = "percentage"
	PromoFixed      = "fixed"

	DeliveryTypeDelivery = "delivery"
	DeliveryTypePickup   = "pickup"
)

// Rules holds the configurable pricing constants.
type Rules struct {
	TaxRate               decimal.Decimal
	DeliveryFee           int64
	FreeDeliveryThreshold int64
}

// DefaultRules are the Quebec GST+QST rate and the 5.00 fee under 50.00.
func DefaultRules() Rules {
	return Rules{
		TaxRate:               decimal.RequireFromString("0.14975"),
		DeliveryFee:           500,
		FreeDeliveryThreshold: 5000,
	}
}

// RulesFromConfig reads pricing.tax_rate, pricing.delivery_fee and
// pricing.free_delivery_threshold, keeping defaults for missing or invalid values.
func RulesFromConfig(config *apt.Config) Rules {
	rules := DefaultRules()
	if config == nil {
		return rules
	}
	if v, ok := config.GetString("pricing.tax_rate"); ok && v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			rules.TaxRate = d
		}
	}
	if v, ok := config.GetString("pricing.delivery_fee"); ok && v != "" {
		if c, err := money.FromString(v); err == nil && c >= 0 {
			rules.DeliveryFee = c
		}
	}
	if v, ok := config.GetString("pricing.free_delivery_threshold"); ok && v != "" {
		if c, err := money.FromString(v); err == nil && c >= 0 {
			rules.FreeDeliveryThreshold = c
		}
	}
	return rules
}

type Line struct {
	UnitPrice int64
	Quantity  int
}

// Promo is a promo code as seen by the calculator. Valid carries the outcome of the
// window, activity and usage checks done by the caller.
type Promo struct {
	Code         string
	Type         string
	Value        decimal.Decimal
	MinimumOrder int64
	Combinable   bool
	Valid        bool
}

type AppliedPromo struct {
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
}

type Totals struct {
	Subtotal    int64          `json:"subtotal"`
	Discount    int64          `json:"discount"`
	Tax         int64          `json:"tax"`
	DeliveryFee int64          `json:"delivery_fee"`
	Total       int64          `json:"total"`
	Applied     []AppliedPromo `json:"applied_promos,omitempty"`
	ItemCount   int            `json:"item_count"`
}

func Subtotal(lines []Line) int64 {
	var sum int64
	for _, l := range lines {
		sum += money.Multiply(l.UnitPrice, l.Quantity)
	}
	return sum
}

// Applies reports whether the promo is valid and subtotal reaches its minimum.
func (p Promo) Applies(subtotal int64) bool {
	return p.Valid && subtotal >= p.MinimumOrder
}

// Discount returns the discount a single promo gives on subtotal, zero when it does
// not apply.
func (p Promo) Discount(subtotal int64) int64 {
	if !p.Applies(subtotal) {
		return 0
	}
	switch p.Type {
	case PromoPercentage:
		return money.Percent(subtotal, p.Value)
	case PromoFixed:
		return min(money.Cents(p.Value), subtotal)
	default:
		return 0
	}
}

// Calculate walks promos in application order, stopping after the first
// non-combinable code that applies, even when its discount rounds to zero.
func (r Rules) Calculate(lines []Line, promos []Promo, deliveryType string) Totals {
	t := Totals{Subtotal: Subtotal(lines)}
	for _, l := range lines {
		t.ItemCount += l.Quantity
	}

	for _, p := range promos {
		if !p.Applies(t.Subtotal) {
			continue
		}
		if d := p.Discount(t.Subtotal); d > 0 {
			t.Discount += d
			t.Applied = append(t.Applied, AppliedPromo{Code: p.Code, Discount: d})
		}
		if !p.Combinable {
			break
		}
	}
	t.Discount = min(t.Discount, t.Subtotal)

	taxable := t.Subtotal - t.Discount
	t.Tax = money.Cents(money.Decimal(taxable).Mul(r.TaxRate))

	if deliveryType != DeliveryTypePickup && t.Subtotal > 0 && t.Subtotal < r.FreeDeliveryThreshold {
		t.DeliveryFee = r.DeliveryFee
	}

	t.Total = taxable + t.Tax + t.DeliveryFee
	return t
}
