package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/services/storefront/internal/catalog"
	"github.com/appetiteclub/catering/services/storefront/internal/pricing"
	"github.com/appetiteclub/catering/services/storefront/internal/promo"
)

var (
	ErrNoOwner         = errors.New("cart session is required")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotInCart   = errors.New("product is not in the cart")
	ErrUnavailable     = errors.New("product is not available")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrPromoNotApplied = errors.New("promo code is not applied")
)

const staleCartAge = 7 * 24 * time.Hour

// Products is the catalog view the cart needs.
type Products interface {
	Product(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

// Promos is the promo code view the cart needs.
type Promos interface {
	Check(ctx context.Context, code, userID string, subtotal int64, applied []string) (*promo.PromoCode, error)
	Resolve(ctx context.Context, codes []string, userID string) ([]pricing.Promo, error)
}

type Service struct {
	repo     Repo
	products Products
	promos   Promos
	rules    pricing.Rules
	now      func() time.Time
}

func NewService(repo Repo, products Products, promos Promos, rules pricing.Rules) *Service {
	return &Service{repo: repo, products: products, promos: promos, rules: rules, now: time.Now}
}

// View is a cart with its computed totals.
type View struct {
	Cart   *Cart          `json:"cart"`
	Totals pricing.Totals `json:"totals"`
}

func (s *Service) find(ctx context.Context, owner Owner) (*Cart, error) {
	var (
		c   *Cart
		err error
	)
	switch {
	case !owner.Anonymous():
		c, err = s.repo.GetByUser(ctx, owner.UserID)
	case owner.SessionKey != "":
		c, err = s.repo.GetBySession(ctx, owner.SessionKey)
	default:
		return nil, ErrNoOwner
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return c, nil
}

func (s *Service) findOrCreate(ctx context.Context, owner Owner) (*Cart, error) {
	c, err := s.find(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	c = NewCart(owner)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return c, nil
}

// Get returns the cart of owner, an empty unsaved cart when there is none.
func (s *Service) Get(ctx context.Context, owner Owner) (*Cart, error) {
	if owner.Empty() {
		return NewCart(owner), nil
	}
	c, err := s.find(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return NewCart(owner), nil
	}
	return c, nil
}

func (s *Service) View(ctx context.Context, owner Owner, deliveryType string) (*View, error) {
	c, err := s.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	totals, err := s.Totals(ctx, c, deliveryType)
	if err != nil {
		return nil, err
	}
	return &View{Cart: c, Totals: totals}, nil
}

// Totals prices c for its owner. Codes the owner may no longer use give no discount.
func (s *Service) Totals(ctx context.Context, c *Cart, deliveryType string) (pricing.Totals, error) {
	promos, err := s.promos.Resolve(ctx, c.PromoCodes, c.UserID)
	if err != nil {
		return pricing.Totals{}, err
	}
	return s.rules.Calculate(lines(c), promos, deliveryType), nil
}

// AddItem adds quantity units of an available product. A new line starts at the
// product's minimum order quantity.
func (s *Service) AddItem(ctx context.Context, owner Owner, productID uuid.UUID, quantity int, notes string) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	p, err := s.orderable(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.findOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	if i := c.find(productID); i >= 0 {
		c.Items[i].Quantity += quantity
		c.Items[i].UnitPrice = p.Price
		if notes != "" {
			c.Items[i].Notes = notes
		}
	} else {
		c.Items = append(c.Items, Item{
			ProductID:  p.ID,
			Name:       p.Name,
			Slug:       p.Slug,
			Department: p.Department,
			UnitPrice:  p.Price,
			Quantity:   max(quantity, p.MinOrderQuantity),
			Notes:      notes,
			AddedAt:    s.now(),
		})
	}

	return c, s.save(ctx, c)
}

// SetQuantity replaces the quantity of a line, zero removes it.
func (s *Service) SetQuantity(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	c, err := s.existing(ctx, owner)
	if err != nil {
		return nil, err
	}
	i := c.find(productID)
	if i < 0 {
		return nil, ErrItemNotInCart
	}
	if quantity == 0 {
		c.remove(productID)
	} else {
		c.Items[i].Quantity = quantity
	}
	return c, s.save(ctx, c)
}

func (s *Service) RemoveItem(ctx context.Context, owner Owner, productID uuid.UUID) (*Cart, error) {
	c, err := s.existing(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !c.remove(productID) {
		return nil, ErrItemNotInCart
	}
	return c, s.save(ctx, c)
}

// Clear drops every line and promo code.
func (s *Service) Clear(ctx context.Context, owner Owner) error {
	c, err := s.find(ctx, owner)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	c.Items = []Item{}
	c.PromoCodes = []string{}
	return s.save(ctx, c)
}

// Merge folds the anonymous session cart into the user cart and deletes it.
func (s *Service) Merge(ctx context.Context, userID, sessionKey string) (*Cart, error) {
	user := Owner{UserID: userID}
	if sessionKey == "" {
		return s.findOrCreate(ctx, user)
	}

	anon, err := s.repo.GetBySession(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("get session cart: %w", err)
	}
	c, err := s.findOrCreate(ctx, user)
	if err != nil {
		return nil, err
	}
	if anon == nil || anon.ID == c.ID {
		return c, nil
	}

	for _, item := range anon.Items {
		if i := c.find(item.ProductID); i >= 0 {
			c.Items[i].Quantity += item.Quantity
			continue
		}
		c.Items = append(c.Items, item)
	}
	// Codes applied anonymously are checked again for the user; rejected ones are dropped.
	for _, code := range anon.PromoCodes {
		if slices.Contains(c.PromoCodes, code) {
			continue
		}
		p, err := s.promos.Check(ctx, code, userID, pricing.Subtotal(lines(c)), c.PromoCodes)
		if err != nil {
			if promo.IsRejection(err) {
				continue
			}
			return nil, err
		}
		c.PromoCodes = append(c.PromoCodes, p.Code)
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, anon.ID); err != nil {
		return nil, fmt.Errorf("delete session cart: %w", err)
	}
	return c, nil
}

func (s *Service) ApplyPromo(ctx context.Context, owner Owner, code string) (*Cart, error) {
	c, err := s.existing(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	p, err := s.promos.Check(ctx, code, owner.UserID, pricing.Subtotal(lines(c)), c.PromoCodes)
	if err != nil {
		return nil, err
	}
	c.PromoCodes = append(c.PromoCodes, p.Code)
	return c, s.save(ctx, c)
}

func (s *Service) RemovePromo(ctx context.Context, owner Owner, code string) (*Cart, error) {
	c, err := s.existing(ctx, owner)
	if err != nil {
		return nil, err
	}
	code = promo.NormalizeCode(code)
	i := slices.Index(c.PromoCodes, code)
	if i < 0 {
		return nil, ErrPromoNotApplied
	}
	c.PromoCodes = slices.Delete(c.PromoCodes, i, i+1)
	return c, s.save(ctx, c)
}

// PurgeStale deletes anonymous carts untouched for a week.
func (s *Service) PurgeStale(ctx context.Context) (int64, error) {
	return s.repo.DeleteAnonymousBefore(ctx, s.now().Add(-staleCartAge))
}

func (s *Service) existing(ctx context.Context, owner Owner) (*Cart, error) {
	c, err := s.find(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrEmptyCart
	}
	return c, nil
}

func (s *Service) orderable(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, err := s.products.Product(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	if !p.Available {
		return nil, ErrUnavailable
	}
	return p, nil
}

func (s *Service) save(ctx context.Context, c *Cart) error {
	c.touch()
	if err := s.repo.Save(ctx, c); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func lines(c *Cart) []pricing.Line {
	out := make([]pricing.Line, 0, len(c.Items))
	for _, i := range c.Items {
		out = append(out, pricing.Line{UnitPrice: i.UnitPrice, Quantity: i.Quantity})
	}
	return out
}
