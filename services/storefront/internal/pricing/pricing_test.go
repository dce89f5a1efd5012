package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func pct(v int64, combinable bool) Promo {
	return Promo{Code: "PCT", Type: PromoPercentage, Value: decimal.NewFromInt(v), Combinable: combinable, Valid: true}
}

func fixed(code string, amount string, combinable bool) Promo {
	return Promo{Code: code, Type: PromoFixed, Value: decimal.RequireFromString(amount), Combinable: combinable, Valid: true}
}

func TestCalculate(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name         string
		lines        []Line
		promos       []Promo
		deliveryType string
		want         Totals
	}{
		{
			name:         "noPromoAboveThreshold",
			lines:        []Line{{UnitPrice: 2500, Quantity: 4}},
			deliveryType: DeliveryTypeDelivery,
			want:         Totals{Subtotal: 10000, Tax: 1498, Total: 11498, ItemCount: 4},
		},
		{
			name:         "deliveryFeeUnderThreshold",
			lines:        []Line{{UnitPrice: 1500, Quantity: 2}},
			deliveryType: DeliveryTypeDelivery,
			want:         Totals{Subtotal: 3000, Tax: 449, DeliveryFee: 500, Total: 3949, ItemCount: 2},
		},
		{
			name:         "pickupPaysNoFee",
			lines:        []Line{{UnitPrice: 1500, Quantity: 2}},
			deliveryType: DeliveryTypePickup,
			want:         Totals{Subtotal: 3000, Tax: 449, Total: 3449, ItemCount: 2},
		},
		{
			name:         "percentagePromoTaxedAfterDiscount",
			lines:        []Line{{UnitPrice: 10000, Quantity: 1}},
			promos:       []Promo{pct(10, true)},
			deliveryType: DeliveryTypeDelivery,
			want: Totals{
				Subtotal: 10000, Discount: 1000, Tax: 1348, Total: 10348, ItemCount: 1,
				Applied: []AppliedPromo{{Code: "PCT", Discount: 1000}},
			},
		},
		{
			name:         "fixedPromoCappedAtSubtotal",
			lines:        []Line{{UnitPrice: 800, Quantity: 1}},
			promos:       []Promo{fixed("BIG", "20.00", true)},
			deliveryType: DeliveryTypePickup,
			want: Totals{
				Subtotal: 800, Discount: 800, Tax: 0, Total: 0, ItemCount: 1,
				Applied: []AppliedPromo{{Code: "BIG", Discount: 800}},
			},
		},
		{
			name:         "nonCombinableStopsTheWalk",
			lines:        []Line{{UnitPrice: 10000, Quantity: 1}},
			promos:       []Promo{fixed("SOLO", "5.00", false), fixed("NEXT", "5.00", true)},
			deliveryType: DeliveryTypePickup,
			want: Totals{
				Subtotal: 10000, Discount: 500, Tax: 1423, Total: 10923, ItemCount: 1,
				Applied: []AppliedPromo{{Code: "SOLO", Discount: 500}},
			},
		},
		{
			name:         "nonCombinableWithZeroDiscountStillStops",
			lines:        []Line{{UnitPrice: 3, Quantity: 1}},
			promos:       []Promo{pct(10, false), fixed("NEXT", "5.00", true)},
			deliveryType: DeliveryTypePickup,
			want:         Totals{Subtotal: 3, Tax: 0, Total: 3, ItemCount: 1},
		},
		{
			name:         "minimumOrderNotReached",
			lines:        []Line{{UnitPrice: 2000, Quantity: 1}},
			promos:       []Promo{{Code: "MIN", Type: PromoFixed, Value: decimal.NewFromInt(5), MinimumOrder: 3000, Combinable: true, Valid: true}},
			deliveryType: DeliveryTypePickup,
			want:         Totals{Subtotal: 2000, Tax: 300, Total: 2300, ItemCount: 1},
		},
		{
			name:         "invalidPromoIgnored",
			lines:        []Line{{UnitPrice: 6000, Quantity: 1}},
			promos:       []Promo{{Code: "OLD", Type: PromoPercentage, Value: decimal.NewFromInt(50), Combinable: true}},
			deliveryType: DeliveryTypeDelivery,
			want:         Totals{Subtotal: 6000, Tax: 899, Total: 6899, ItemCount: 1},
		},
		{
			name:         "emptyCart",
			deliveryType: DeliveryTypeDelivery,
			want:         Totals{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules.Calculate(tt.lines, tt.promos, tt.deliveryType)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateTotalIdentity(t *testing.T) {
	rules := DefaultRules()
	lines := []Line{{UnitPrice: 1299, Quantity: 3}, {UnitPrice: 450, Quantity: 2}}
	got := rules.Calculate(lines, []Promo{pct(15, true), fixed("FIVE", "5.00", true)}, DeliveryTypeDelivery)

	assert.Equal(t, got.Subtotal-got.Discount+got.Tax+got.DeliveryFee, got.Total)
	assert.LessOrEqual(t, got.Discount, got.Subtotal)
}
