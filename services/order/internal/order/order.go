package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/enums/orderstatus"
	"github.com/appetiteclub/catering/pkg/event"
)

const (
	DeliveryTypeDelivery = "delivery"
	DeliveryTypePickup   = "pickup"

	numberPrefix = "CMD"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidInput      = errors.New("invalid order")
	ErrForbidden         = errors.New("order belongs to another customer")
	ErrAlreadyPaid       = errors.New("order is already paid")
	ErrStatusChanged     = fmt.Errorf("%w: order status changed meanwhile", ErrInvalidTransition)
)

// Item is an order line with its price snapshotted at checkout.
type Item struct {
	ID         uuid.UUID `json:"order_item_id" bson:"id"`
	ProductID  string    `json:"product_id" bson:"product_id"`
	Name       string    `json:"name" bson:"name"`
	Department string    `json:"department" bson:"department"`
	Quantity   int       `json:"quantity" bson:"quantity"`
	UnitPrice  int64     `json:"unit_price" bson:"unit_price"`
	Total      int64     `json:"total" bson:"total"`
	Notes      string    `json:"notes,omitempty" bson:"notes,omitempty"`
}

type StatusChange struct {
	From      string    `json:"from" bson:"from"`
	To        string    `json:"to" bson:"to"`
	ChangedBy string    `json:"changed_by,omitempty" bson:"changed_by,omitempty"`
	ChangedAt time.Time `json:"changed_at" bson:"changed_at"`
}

type Order struct {
	ID                  uuid.UUID      `json:"id" bson:"_id"`
	Number              string         `json:"number" bson:"number"`
	UserID              string         `json:"user_id" bson:"user_id"`
	Status              string         `json:"status" bson:"status"`
	DeliveryType        string         `json:"delivery_type" bson:"delivery_type"`
	FirstName           string         `json:"first_name" bson:"first_name"`
	LastName            string         `json:"last_name" bson:"last_name"`
	Email               string         `json:"email" bson:"email"`
	Phone               string         `json:"phone" bson:"phone"`
	Company             string         `json:"company,omitempty" bson:"company,omitempty"`
	Address             string         `json:"address,omitempty" bson:"address,omitempty"`
	PostalCode          string         `json:"postal_code,omitempty" bson:"postal_code,omitempty"`
	City                string         `json:"city,omitempty" bson:"city,omitempty"`
	DeliveryDate        string         `json:"delivery_date" bson:"delivery_date"`
	DeliveryTime        string         `json:"delivery_time" bson:"delivery_time"`
	SpecialInstructions string         `json:"special_instructions,omitempty" bson:"special_instructions,omitempty"`
	Items               []Item         `json:"items" bson:"items"`
	Subtotal            int64          `json:"subtotal" bson:"subtotal"`
	Discount            int64          `json:"discount" bson:"discount"`
	Tax                 int64          `json:"tax" bson:"tax"`
	DeliveryFee         int64          `json:"delivery_fee" bson:"delivery_fee"`
	Total               int64          `json:"total" bson:"total"`
	PromoCodes          []string       `json:"promo_codes,omitempty" bson:"promo_codes,omitempty"`
	PaymentMethod       string         `json:"payment_method,omitempty" bson:"payment_method,omitempty"`
	PaymentID           string         `json:"payment_id,omitempty" bson:"payment_id,omitempty"`
	IsPaid              bool           `json:"is_paid" bson:"is_paid"`
	PaidAt              *time.Time     `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	History             []StatusChange `json:"history" bson:"history"`
	CreatedAt           time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" bson:"updated_at"`
}

func (o *Order) GetID() uuid.UUID    { return o.ID }
func (o *Order) ResourceType() string { return "order" }

// FormatNumber renders CMD-YYYYMMDD-NNNNNN.
func FormatNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%06d", numberPrefix, day.Format("20060102"), seq%1000000)
}

func (o *Order) CustomerName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

func (o *Order) ItemCount() int {
	n := 0
	for _, i := range o.Items {
		n += i.Quantity
	}
	return n
}

// Transition moves the order to status `to` and records the change.
func (o *Order) Transition(to, changedBy string, now time.Time) error {
	if !orderstatus.CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, to)
	}
	o.History = append(o.History, StatusChange{From: o.Status, To: to, ChangedBy: changedBy, ChangedAt: now})
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// Deliver closes the order in one step from any status a driver may hand over.
func (o *Order) Deliver(changedBy string, now time.Time) error {
	to := orderstatus.Statuses.Delivered.Name
	if !orderstatus.CanDeliver(o.Status) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, to)
	}
	o.History = append(o.History, StatusChange{From: o.Status, To: to, ChangedBy: changedBy, ChangedAt: now})
	o.Status = to
	o.UpdatedAt = now
	return nil
}

func (o *Order) MarkPaid(paymentID, method string, now time.Time) error {
	if o.IsPaid {
		return ErrAlreadyPaid
	}
	o.IsPaid = true
	o.PaymentID = paymentID
	if method != "" {
		o.PaymentMethod = method
	}
	o.PaidAt = &now
	o.UpdatedAt = now
	return nil
}

func (o *Order) Snapshot() event.OrderSnapshot {
	items := make([]event.OrderItemSnapshot, 0, len(o.Items))
	for _, i := range o.Items {
		items = append(items, event.OrderItemSnapshot{
			OrderItemID: i.ID.String(),
			ProductID:   i.ProductID,
			Name:        i.Name,
			Department:  i.Department,
			Quantity:    i.Quantity,
			UnitPrice:   i.UnitPrice,
			Total:       i.Total,
		})
	}
	return event.OrderSnapshot{
		ID:                  o.ID.String(),
		Number:              o.Number,
		UserID:              o.UserID,
		Status:              o.Status,
		DeliveryType:        o.DeliveryType,
		FirstName:           o.FirstName,
		LastName:            o.LastName,
		Email:               o.Email,
		Phone:               o.Phone,
		Company:             o.Company,
		Address:             o.Address,
		PostalCode:          o.PostalCode,
		City:                o.City,
		DeliveryDate:        o.DeliveryDate,
		DeliveryTime:        o.DeliveryTime,
		SpecialInstructions: o.SpecialInstructions,
		Items:               items,
		Subtotal:            o.Subtotal,
		Discount:            o.Discount,
		Tax:                 o.Tax,
		DeliveryFee:         o.DeliveryFee,
		Total:               o.Total,
		PromoCodes:          o.PromoCodes,
		CreatedAt:           o.CreatedAt,
	}
}

// Tracking is the public view served by order number.
type Tracking struct {
	Number       string    `json:"number"`
	Status       string    `json:"status"`
	StatusLabel  string    `json:"status_label"`
	DeliveryType string    `json:"delivery_type"`
	DeliveryDate string    `json:"delivery_date"`
	DeliveryTime string    `json:"delivery_time"`
	ItemCount    int       `json:"item_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (o *Order) Tracking() Tracking {
	label := o.Status
	if s := orderstatus.ByName(o.Status); s != nil {
		label = s.Label()
	}
	return Tracking{
		Number:       o.Number,
		Status:       o.Status,
		StatusLabel:  label,
		DeliveryType: o.DeliveryType,
		DeliveryDate: o.DeliveryDate,
		DeliveryTime: o.DeliveryTime,
		ItemCount:    o.ItemCount(),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func newOrder(now time.Time) *Order {
	return &Order{
		ID:        apt.GenerateNewID(),
		Status:    orderstatus.Statuses.Pending.Name,
		Items:     []Item{},
		History:   []StatusChange{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
