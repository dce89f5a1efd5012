package promo

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/catering/services/storefront/internal/pricing"
)

// PromoCode is a discount code. Value is a decimal string: a percentage for
// percentage codes, an amount in dollars for fixed codes. UsageLimit 0 is unlimited.
type PromoCode struct {
	ID           uuid.UUID `json:"id" bson:"_id"`
	Code         string    `json:"code" bson:"code"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	DiscountType string    `json:"discount_type" bson:"discount_type"`
	Value        string    `json:"discount_value" bson:"discount_value"`
	MinimumOrder int64     `json:"minimum_order" bson:"minimum_order"`
	UsageLimit   int       `json:"usage_limit" bson:"usage_limit"`
	UsageCount   int       `json:"usage_count" bson:"usage_count"`
	UserLimit    int       `json:"user_limit" bson:"user_limit"`
	Combinable   bool      `json:"combinable" bson:"combinable"`
	ValidFrom    time.Time `json:"valid_from" bson:"valid_from"`
	ValidUntil   time.Time `json:"valid_until" bson:"valid_until"`
	Active       bool      `json:"active" bson:"active"`
	RestrictedTo string    `json:"restricted_to,omitempty" bson:"restricted_to,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

func (p *PromoCode) GetID() uuid.UUID    { return p.ID }
func (p *PromoCode) ResourceType() string { return "promo-code" }

// IsValid reports whether the code is active, inside its window and under its usage limit.
func (p *PromoCode) IsValid(now time.Time) bool {
	if !p.Active {
		return false
	}
	if now.Before(p.ValidFrom) || now.After(p.ValidUntil) {
		return false
	}
	return p.UsageLimit == 0 || p.UsageCount < p.UsageLimit
}

func (p *PromoCode) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(p.Value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (p *PromoCode) ForPricing(now time.Time) pricing.Promo {
	return pricing.Promo{
		Code:         p.Code,
		Type:         p.DiscountType,
		Value:        p.Decimal(),
		MinimumOrder: p.MinimumOrder,
		Combinable:   p.Combinable,
		Valid:        p.IsValid(now),
	}
}

type Usage struct {
	ID       uuid.UUID `json:"id" bson:"_id"`
	PromoID  uuid.UUID `json:"promo_id" bson:"promo_id"`
	Code     string    `json:"code" bson:"code"`
	UserID   string    `json:"user_id" bson:"user_id"`
	OrderID  string    `json:"order_id" bson:"order_id"`
	Discount int64     `json:"discount" bson:"discount"`
	UsedAt   time.Time `json:"used_at" bson:"used_at"`
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
