// Package orderclient is the data access for the order service internal API.
package orderclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/web"
)

// Order is the order resource as served by the order service.
type Order struct {
	event.OrderSnapshot
	PaymentMethod string     `json:"payment_method,omitempty"`
	PaymentID     string     `json:"payment_id,omitempty"`
	IsPaid        bool       `json:"is_paid"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

type ItemRequest struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	Notes      string `json:"notes,omitempty"`
}

// CreateRequest carries a priced checkout. The order service trusts the totals.
type CreateRequest struct {
	UserID              string        `json:"user_id"`
	DeliveryType        string        `json:"delivery_type"`
	FirstName           string        `json:"first_name"`
	LastName            string        `json:"last_name"`
	Email               string        `json:"email"`
	Phone               string        `json:"phone"`
	Company             string        `json:"company,omitempty"`
	Address             string        `json:"address,omitempty"`
	PostalCode          string        `json:"postal_code,omitempty"`
	City                string        `json:"city,omitempty"`
	DeliveryDate        string        `json:"delivery_date"`
	DeliveryTime        string        `json:"delivery_time"`
	SpecialInstructions string        `json:"special_instructions,omitempty"`
	PaymentMethod       string        `json:"payment_method,omitempty"`
	Items               []ItemRequest `json:"items"`
	Subtotal            int64         `json:"subtotal"`
	Discount            int64         `json:"discount"`
	Tax                 int64         `json:"tax"`
	DeliveryFee         int64         `json:"delivery_fee"`
	Total               int64         `json:"total"`
	PromoCodes          []string      `json:"promo_codes,omitempty"`
}

type Filter struct {
	DeliveryDate string
	Statuses     []string
	UserID       string
	Limit        int
}

func (f Filter) query() string {
	v := url.Values{}
	if f.DeliveryDate != "" {
		v.Set("delivery_date", f.DeliveryDate)
	}
	if len(f.Statuses) > 0 {
		v.Set("status", strings.Join(f.Statuses, ","))
	}
	if f.UserID != "" {
		v.Set("user_id", f.UserID)
	}
	if f.Limit > 0 {
		v.Set("limit", fmt.Sprint(f.Limit))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

type Client struct {
	client *apt.ServiceClient
}

func New(baseURL string) *Client {
	return &Client{client: apt.NewServiceClient(baseURL)}
}

func FromConfig(config *apt.Config) (*Client, error) {
	base, ok := config.GetString("services.order.url")
	if !ok || base == "" {
		return nil, fmt.Errorf("services.order.url is required")
	}
	return New(base), nil
}

func (c *Client) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	return c.one(ctx, "POST", "/internal/orders", req)
}

func (c *Client) Get(ctx context.Context, id string) (*Order, error) {
	return c.one(ctx, "GET", "/internal/orders/"+url.PathEscape(id), nil)
}

func (c *Client) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return c.one(ctx, "GET", "/internal/orders/by-number/"+url.PathEscape(number), nil)
}

func (c *Client) List(ctx context.Context, f Filter) ([]Order, error) {
	resp, err := c.client.Request(ctx, "GET", "/internal/orders"+f.query(), nil)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var orders []Order
	if err := web.DecodeData(resp, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

func (c *Client) MarkPaid(ctx context.Context, id, paymentID, method string) (*Order, error) {
	body := map[string]string{"payment_id": paymentID, "method": method}
	return c.one(ctx, "PUT", "/internal/orders/"+url.PathEscape(id)+"/payment", body)
}

func (c *Client) UpdateStatus(ctx context.Context, id, status, changedBy string) (*Order, error) {
	body := map[string]string{"status": status, "changed_by": changedBy}
	return c.one(ctx, "PATCH", "/internal/orders/"+url.PathEscape(id)+"/status", body)
}

// MarkDelivered closes the order in a single transition, whatever kitchen step it is at.
func (c *Client) MarkDelivered(ctx context.Context, id, changedBy string) (*Order, error) {
	body := map[string]string{"changed_by": changedBy}
	return c.one(ctx, "POST", "/internal/orders/"+url.PathEscape(id)+"/delivered", body)
}

func (c *Client) one(ctx context.Context, method, path string, payload interface{}) (*Order, error) {
	resp, err := c.client.Request(ctx, method, path, payload)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	var o Order
	if err := web.DecodeData(resp, &o); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return &o, nil
}
