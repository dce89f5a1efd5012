package promo

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/catering/pkg/money"
	"github.com/appetiteclub/catering/services/storefront/internal/pricing"
)

var (
	ErrNotFound       = errors.New("promo code not found")
	ErrInvalidCode    = errors.New("promo code is not valid")
	ErrUserLimit      = errors.New("promo code already used the maximum number of times")
	ErrRestricted     = errors.New("promo code is reserved for another customer")
	ErrAlreadyApplied = errors.New("promo code already applied")
	ErrNotCombinable  = errors.New("promo code cannot be combined with other codes")
	ErrMinimumOrder   = errors.New("minimum order amount not reached")
	ErrInvalidInput   = errors.New("invalid input")
	ErrCodeExists     = errors.New("promo code already exists")
)

const (
	welcomePercent  = 10
	welcomeMinimum  = 3000
	welcomeValidity = 30 * 24 * time.Hour
)

type Service struct {
	repo   Repo
	usages UsageRepo
	now    func() time.Time
}

func NewService(repo Repo, usages UsageRepo) *Service {
	return &Service{repo: repo, usages: usages, now: time.Now}
}

// Check validates code against the cart about to receive it. applied lists the codes
// already on the cart in application order.
func (s *Service) Check(ctx context.Context, code, userID string, subtotal int64, applied []string) (*PromoCode, error) {
	code = NormalizeCode(code)
	if slices.Contains(applied, code) {
		return nil, ErrAlreadyApplied
	}

	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}

	now := s.now()
	if !p.IsValid(now) {
		return nil, ErrInvalidCode
	}
	if p.RestrictedTo != "" && p.RestrictedTo != userID {
		return nil, ErrRestricted
	}
	ok, err := s.usableBy(ctx, p, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserLimit
	}

	if len(applied) > 0 {
		if !p.Combinable {
			return nil, ErrNotCombinable
		}
		others, err := s.lookup(ctx, applied)
		if err != nil {
			return nil, err
		}
		for _, o := range others {
			if !o.Combinable {
				return nil, ErrNotCombinable
			}
		}
	}

	if subtotal < p.MinimumOrder {
		return nil, fmt.Errorf("%w: %s required", ErrMinimumOrder, money.Format(p.MinimumOrder))
	}
	return p, nil
}

// Resolve maps the codes applied to userID's cart to calculator promos. It applies the
// same rules as Check against the current usage: unknown, restricted, exhausted for the
// user or wrongly combined codes become invalid promos.
func (s *Service) Resolve(ctx context.Context, codes []string, userID string) ([]pricing.Promo, error) {
	now := s.now()
	out := make([]pricing.Promo, 0, len(codes))
	var accepted []pricing.Promo
	for _, code := range codes {
		p, err := s.repo.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("get promo code: %w", err)
		}
		if p == nil {
			out = append(out, pricing.Promo{Code: code})
			continue
		}

		pr := p.ForPricing(now)
		if pr.Valid {
			ok, err := s.usableBy(ctx, p, userID)
			if err != nil {
				return nil, err
			}
			pr.Valid = ok && combines(pr, accepted)
		}
		if pr.Valid {
			accepted = append(accepted, pr)
		}
		out = append(out, pr)
	}
	return out, nil
}

// usableBy reports whether the restriction and the per-user limit of p allow userID.
func (s *Service) usableBy(ctx context.Context, p *PromoCode, userID string) (bool, error) {
	if p.RestrictedTo != "" && p.RestrictedTo != userID {
		return false, nil
	}
	if userID == "" || p.UserLimit <= 0 {
		return true, nil
	}
	used, err := s.usages.CountByUser(ctx, p.ID, userID)
	if err != nil {
		return false, fmt.Errorf("count usage: %w", err)
	}
	return used < p.UserLimit, nil
}

func combines(p pricing.Promo, accepted []pricing.Promo) bool {
	if len(accepted) == 0 {
		return true
	}
	if !p.Combinable {
		return false
	}
	for _, a := range accepted {
		if !a.Combinable {
			return false
		}
	}
	return true
}

// IsRejection reports whether err is a promo rule rejection rather than a lookup failure.
func IsRejection(err error) bool {
	for _, target := range []error{ErrNotFound, ErrInvalidCode, ErrUserLimit, ErrRestricted, ErrAlreadyApplied, ErrNotCombinable, ErrMinimumOrder} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Service) lookup(ctx context.Context, codes []string) ([]*PromoCode, error) {
	var out []*PromoCode
	for _, c := range codes {
		p, err := s.repo.GetByCode(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("get promo code: %w", err)
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// RecordUsage counts every applied promo globally and for the user.
func (s *Service) RecordUsage(ctx context.Context, applied []pricing.AppliedPromo, userID, orderID string) error {
	for _, a := range applied {
		p, err := s.repo.GetByCode(ctx, a.Code)
		if err != nil {
			return fmt.Errorf("get promo code: %w", err)
		}
		if p == nil {
			continue
		}
		if err := s.repo.IncrementUsage(ctx, p.ID); err != nil {
			return fmt.Errorf("increment usage: %w", err)
		}
		usage := &Usage{
			ID:       apt.GenerateNewID(),
			PromoID:  p.ID,
			Code:     p.Code,
			UserID:   userID,
			OrderID:  orderID,
			Discount: a.Discount,
			UsedAt:   s.now(),
		}
		if err := s.usages.Create(ctx, usage); err != nil {
			return fmt.Errorf("record usage: %w", err)
		}
	}
	return nil
}

// Available lists the valid codes reserved for a user.
func (s *Service) Available(ctx context.Context, userID string) ([]*PromoCode, error) {
	codes, err := s.repo.ListRestrictedTo(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list personal codes: %w", err)
	}
	now := s.now()
	out := make([]*PromoCode, 0, len(codes))
	for _, c := range codes {
		if c.IsValid(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

// CreateWelcome issues a single use WELCOME#### code reserved for a new customer.
func (s *Service) CreateWelcome(ctx context.Context, userID string) (*PromoCode, error) {
	now := s.now()
	for attempt := 0; attempt < 5; attempt++ {
		code := fmt.Sprintf("WELCOME%04d", rand.IntN(10000))
		existing, err := s.repo.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("get promo code: %w", err)
		}
		if existing != nil {
			continue
		}

		p := &PromoCode{
			ID:           apt.GenerateNewID(),
			Code:         code,
			Description:  "Welcome discount",
			DiscountType: pricing.PromoPercentage,
			Value:        fmt.Sprint(welcomePercent),
			MinimumOrder: welcomeMinimum,
			UsageLimit:   1,
			UserLimit:    1,
			ValidFrom:    now,
			ValidUntil:   now.Add(welcomeValidity),
			Active:       true,
			RestrictedTo: userID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("create welcome code: %w", err)
		}
		return p, nil
	}
	return nil, errors.New("cannot allocate a unique welcome code")
}

func (s *Service) DeactivateExpired(ctx context.Context) (int64, error) {
	return s.repo.DeactivateExpired(ctx, s.now())
}

type Input struct {
	Code         string    `json:"code"`
	Description  string    `json:"description,omitempty"`
	DiscountType string    `json:"discount_type"`
	Value        string    `json:"discount_value"`
	MinimumOrder string    `json:"minimum_order,omitempty"`
	UsageLimit   int       `json:"usage_limit"`
	UserLimit    int       `json:"user_limit"`
	Combinable   bool      `json:"combinable"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidUntil   time.Time `json:"valid_until"`
	Active       *bool     `json:"active,omitempty"`
}

func (in Input) apply(p *PromoCode) error {
	code := NormalizeCode(in.Code)
	if code == "" || strings.ContainsAny(code, " \t") {
		return fmt.Errorf("%w: code is required and cannot contain spaces", ErrInvalidInput)
	}
	if in.DiscountType != pricing.PromoPercentage && in.DiscountType != pricing.PromoFixed {
		return fmt.Errorf("%w: discount_type must be percentage or fixed", ErrInvalidInput)
	}
	v, err := decimal.NewFromString(in.Value)
	if err != nil || !v.IsPositive() {
		return fmt.Errorf("%w: discount_value must be positive", ErrInvalidInput)
	}
	if in.DiscountType == pricing.PromoPercentage && v.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percentage cannot exceed 100", ErrInvalidInput)
	}
	var minimum int64
	if in.MinimumOrder != "" {
		if minimum, err = money.FromString(in.MinimumOrder); err != nil || minimum < 0 {
			return fmt.Errorf("%w: minimum_order is invalid", ErrInvalidInput)
		}
	}
	if in.ValidUntil.IsZero() || !in.ValidUntil.After(in.ValidFrom) {
		return fmt.Errorf("%w: valid_until must be after valid_from", ErrInvalidInput)
	}
	if in.UsageLimit < 0 || in.UserLimit < 0 {
		return fmt.Errorf("%w: limits cannot be negative", ErrInvalidInput)
	}

	p.Code = code
	p.Description = in.Description
	p.DiscountType = in.DiscountType
	p.Value = v.String()
	p.MinimumOrder = minimum
	p.UsageLimit = in.UsageLimit
	p.UserLimit = in.UserLimit
	p.Combinable = in.Combinable
	p.ValidFrom = in.ValidFrom
	p.ValidUntil = in.ValidUntil
	if in.Active != nil {
		p.Active = *in.Active
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*PromoCode, error) {
	now := s.now()
	p := &PromoCode{ID: apt.GenerateNewID(), Active: true, UserLimit: 1, CreatedAt: now, UpdatedAt: now}
	if err := in.apply(p); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByCode(ctx, p.Code)
	if err != nil {
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	if existing != nil {
		return nil, ErrCodeExists
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create promo code: %w", err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*PromoCode, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := p.Code
	if err := in.apply(p); err != nil {
		return nil, err
	}
	if p.Code != previous {
		existing, err := s.repo.GetByCode(ctx, p.Code)
		if err != nil {
			return nil, fmt.Errorf("get promo code: %w", err)
		}
		if existing != nil {
			return nil, ErrCodeExists
		}
	}
	p.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save promo code: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*PromoCode, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*PromoCode, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
