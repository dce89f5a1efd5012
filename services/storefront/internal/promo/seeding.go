package promo

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/appetiteclub/apt/seed"
	"gopkg.in/yaml.v3"
)

const seedApplication = "storefront-promo"

type promoSeedDocument struct {
	PromoCodes []promoSeed `yaml:"promo_codes"`
}

type promoSeed struct {
	Code         string `yaml:"code"`
	Description  string `yaml:"description"`
	DiscountType string `yaml:"discount_type"`
	Value        string `yaml:"discount_value"`
	MinimumOrder string `yaml:"minimum_order"`
	UsageLimit   int    `yaml:"usage_limit"`
	UserLimit    int    `yaml:"user_limit"`
	Combinable   bool   `yaml:"combinable"`
	ValidDays    int    `yaml:"valid_days"`
}

// SeedPromoCodes inserts the demo promo codes once.
func SeedPromoCodes(ctx context.Context, tracker seed.Tracker, service *Service, fsys fs.FS) error {
	data, err := fs.ReadFile(fsys, "seed.yaml")
	if err != nil {
		return fmt.Errorf("read seed.yaml: %w", err)
	}
	var doc promoSeedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode seed.yaml: %w", err)
	}

	defs := []seed.Seed{{
		ID:          "2025-01-10_storefront_promo_codes",
		Description: "Demo promo codes",
		Run: func(ctx context.Context) error {
			now := time.Now()
			for _, ps := range doc.PromoCodes {
				_, err := service.Create(ctx, Input{
					Code:         ps.Code,
					Description:  ps.Description,
					DiscountType: ps.DiscountType,
					Value:        ps.Value,
					MinimumOrder: ps.MinimumOrder,
					UsageLimit:   ps.UsageLimit,
					UserLimit:    ps.UserLimit,
					Combinable:   ps.Combinable,
					ValidFrom:    now,
					ValidUntil:   now.AddDate(0, 0, ps.ValidDays),
				})
				if err != nil {
					return fmt.Errorf("seed promo %s: %w", ps.Code, err)
				}
			}
			return nil
		},
	}}
	return seed.Apply(ctx, tracker, defs, seedApplication)
}
