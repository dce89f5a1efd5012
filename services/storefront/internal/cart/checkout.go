package cart

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/orderclient"
	"github.com/appetiteclub/catering/services/storefront/internal/pricing"
)

var ErrCheckoutInvalid = errors.New("invalid checkout")

// Orders creates orders in the order service.
type Orders interface {
	Create(ctx context.Context, req orderclient.CreateRequest) (*orderclient.Order, error)
}

type UsageRecorder interface {
	RecordUsage(ctx context.Context, applied []pricing.AppliedPromo, userID, orderID string) error
}

type SalesRecorder interface {
	RecordSale(ctx context.Context, id uuid.UUID, qty int) error
}

type CheckoutInput struct {
	DeliveryType        string `json:"delivery_type"`
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	Company             string `json:"company,omitempty"`
	Address             string `json:"address,omitempty"`
	PostalCode          string `json:"postal_code,omitempty"`
	City                string `json:"city,omitempty"`
	DeliveryDate        string `json:"delivery_date"`
	DeliveryTime        string `json:"delivery_time"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
	PaymentMethod       string `json:"payment_method"`
}

func (in CheckoutInput) Validate(now time.Time) error {
	var problems []string
	if in.DeliveryType != pricing.DeliveryTypeDelivery && in.DeliveryType != pricing.DeliveryTypePickup {
		problems = append(problems, "delivery_type must be delivery or pickup")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		problems = append(problems, "first_name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		problems = append(problems, "email is invalid")
	}
	if strings.TrimSpace(in.Phone) == "" {
		problems = append(problems, "phone is required")
	}
	if in.DeliveryType == pricing.DeliveryTypeDelivery {
		if strings.TrimSpace(in.Address) == "" {
			problems = append(problems, "address is required for delivery")
		}
		if strings.TrimSpace(in.PostalCode) == "" {
			problems = append(problems, "postal_code is required for delivery")
		}
	}
	if d, err := day.Parse(in.DeliveryDate); err != nil {
		problems = append(problems, err.Error())
	} else if day.Format(d) < day.Today(now) {
		problems = append(problems, "delivery_date cannot be in the past")
	}
	if _, err := day.ParseClock(in.DeliveryTime); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrCheckoutInvalid, strings.Join(problems, "; "))
	}
	return nil
}

type Checkout struct {
	carts  *Service
	orders Orders
	usage  UsageRecorder
	sales  SalesRecorder
	logger apt.Logger
}

func NewCheckout(carts *Service, orders Orders, usage UsageRecorder, sales SalesRecorder, logger apt.Logger) *Checkout {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Checkout{carts: carts, orders: orders, usage: usage, sales: sales, logger: logger}
}

// PlaceOrder prices the user's cart, creates the order and then records promo usage
// and product sales before clearing the cart. Once the order exists it is returned even
// when those follow-up steps fail; the failures are logged.
func (c *Checkout) PlaceOrder(ctx context.Context, userID string, in CheckoutInput) (*orderclient.Order, error) {
	if err := in.Validate(c.carts.now()); err != nil {
		return nil, err
	}

	owner := Owner{UserID: userID}
	cart, err := c.carts.existing(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	for i := range cart.Items {
		p, err := c.carts.orderable(ctx, cart.Items[i].ProductID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cart.Items[i].Name, err)
		}
		cart.Items[i].UnitPrice = p.Price
		cart.Items[i].Department = p.Department
	}

	totals, err := c.carts.Totals(ctx, cart, in.DeliveryType)
	if err != nil {
		return nil, err
	}

	req := orderclient.CreateRequest{
		UserID:              userID,
		DeliveryType:        in.DeliveryType,
		FirstName:           strings.TrimSpace(in.FirstName),
		LastName:            strings.TrimSpace(in.LastName),
		Email:               strings.TrimSpace(in.Email),
		Phone:               strings.TrimSpace(in.Phone),
		Company:             in.Company,
		Address:             in.Address,
		PostalCode:          in.PostalCode,
		City:                in.City,
		DeliveryDate:        in.DeliveryDate,
		DeliveryTime:        in.DeliveryTime,
		SpecialInstructions: in.SpecialInstructions,
		PaymentMethod:       in.PaymentMethod,
		Subtotal:            totals.Subtotal,
		Discount:            totals.Discount,
		Tax:                 totals.Tax,
		DeliveryFee:         totals.DeliveryFee,
		Total:               totals.Total,
	}
	if in.DeliveryType == pricing.DeliveryTypePickup {
		req.Address, req.PostalCode = "", ""
	}
	for _, a := range totals.Applied {
		req.PromoCodes = append(req.PromoCodes, a.Code)
	}
	for _, item := range cart.Items {
		req.Items = append(req.Items, orderclient.ItemRequest{
			ProductID:  item.ProductID.String(),
			Name:       item.Name,
			Department: item.Department,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Notes:      item.Notes,
		})
	}

	order, err := c.orders.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	c.settle(ctx, order, cart, totals.Applied, owner)
	return order, nil
}

func (c *Checkout) settle(ctx context.Context, order *orderclient.Order, cart *Cart, applied []pricing.AppliedPromo, owner Owner) {
	log := c.logger.With("order_id", order.ID, "order_number", order.Number)

	if err := c.carts.Clear(ctx, owner); err != nil {
		log.Error("cannot clear cart after checkout", "error", err)
	}
	if err := c.usage.RecordUsage(ctx, applied, owner.UserID, order.ID); err != nil {
		log.Error("cannot record promo usage", "error", err)
	}
	for _, item := range cart.Items {
		if err := c.sales.RecordSale(ctx, item.ProductID, item.Quantity); err != nil {
			log.Error("cannot record product sale", "product_id", item.ProductID.String(), "error", err)
		}
	}
}
