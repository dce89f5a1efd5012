package delivery

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/enums/priority"
	"github.com/appetiteclub/catering/pkg/event"
)

const (
	StatusPending   = "pending"
	StatusAssigned  = "assigned"
	StatusInTransit = "in_transit"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"

	TypeDelivery = "delivery"
	TypePickup   = "pickup"

	PhotoDelivery = "delivery"
	PhotoPickup   = "pickup"
	PhotoIssue    = "issue"

	// Minutes on site when a delivery has no estimate.
	DefaultDuration = 15
	slotMinutes     = 30

	highValueTotal int64 = 50000
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
	ErrExists            = errors.New("delivery already exists")
	ErrConflict          = errors.New("changed meanwhile")
)

var statuses = []string{StatusPending, StatusAssigned, StatusInTransit, StatusDelivered, StatusFailed, StatusCancelled}

// Open lists the statuses a delivery can still leave.
var Open = []string{StatusPending, StatusAssigned, StatusInTransit, StatusFailed}

type Photo struct {
	MediaID   string    `json:"media_id" bson:"media_id"`
	Kind      string    `json:"kind" bson:"kind"`
	URL       string    `json:"url" bson:"url"`
	Caption   string    `json:"caption,omitempty" bson:"caption,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty" bson:"longitude,omitempty"`
	TakenAt   time.Time `json:"taken_at" bson:"taken_at"`
}

type StatusChange struct {
	From      string    `json:"from" bson:"from"`
	To        string    `json:"to" bson:"to"`
	ChangedBy string    `json:"changed_by" bson:"changed_by"`
	ChangedAt time.Time `json:"changed_at" bson:"changed_at"`
}

type Delivery struct {
	ID                  uuid.UUID      `json:"id" bson:"_id"`
	Number              string         `json:"number" bson:"number"`
	Type                string         `json:"type" bson:"type"`
	OrderID             string         `json:"order_id" bson:"order_id"`
	OrderNumber         string         `json:"order_number" bson:"order_number"`
	ParentID            *uuid.UUID     `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	CustomerName        string         `json:"customer_name" bson:"customer_name"`
	Company             string         `json:"company,omitempty" bson:"company,omitempty"`
	Phone               string         `json:"phone" bson:"phone"`
	Email               string         `json:"email" bson:"email"`
	Address             string         `json:"address" bson:"address"`
	PostalCode          string         `json:"postal_code" bson:"postal_code"`
	City                string         `json:"city" bson:"city"`
	Latitude            *float64       `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude           *float64       `json:"longitude,omitempty" bson:"longitude,omitempty"`
	ScheduledDate       string         `json:"scheduled_date" bson:"scheduled_date"`
	ScheduledStart      string         `json:"scheduled_start" bson:"scheduled_start"`
	ScheduledEnd        string         `json:"scheduled_end" bson:"scheduled_end"`
	ItemsDescription    string         `json:"items_description" bson:"items_description"`
	SpecialInstructions string         `json:"special_instructions,omitempty" bson:"special_instructions,omitempty"`
	OrderTotal          int64          `json:"order_total" bson:"order_total"`
	Priority            string         `json:"priority" bson:"priority"`
	Status              string         `json:"status" bson:"status"`
	EstimatedDuration   int            `json:"estimated_duration" bson:"estimated_duration"`
	DriverID            string         `json:"driver_id,omitempty" bson:"driver_id,omitempty"`
	RouteID             *uuid.UUID     `json:"route_id,omitempty" bson:"route_id,omitempty"`
	ChecklistCompleted  bool           `json:"checklist_completed" bson:"checklist_completed"`
	Photos              []Photo        `json:"photos" bson:"photos"`
	SignatureURL        string         `json:"signature_url,omitempty" bson:"signature_url,omitempty"`
	SignedBy            string         `json:"signed_by,omitempty" bson:"signed_by,omitempty"`
	DeliveryNotes       string         `json:"delivery_notes,omitempty" bson:"delivery_notes,omitempty"`
	IssueType           string         `json:"issue_type,omitempty" bson:"issue_type,omitempty"`
	IssueDescription    string         `json:"issue_description,omitempty" bson:"issue_description,omitempty"`
	DeliveredAt         *time.Time     `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	History             []StatusChange `json:"history" bson:"history"`
	CreatedBy           string         `json:"created_by" bson:"created_by"`
	CreatedAt           time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" bson:"updated_at"`
	Version             int64          `json:"version" bson:"version"`
}

// FormatNumber renders the daily delivery number.
func FormatNumber(date time.Time, seq int64) string {
	return fmt.Sprintf("DLV-%s-%04d", date.Format("20060102"), seq)
}

// PriorityFor derives a delivery priority from how close the delivery date is and
// from the order total. Past dates are urgent.
func PriorityFor(today, deliveryDate string, total int64) string {
	days, err := day.Between(today, deliveryDate)
	if err != nil {
		return priority.Priorities.Normal.Name
	}
	switch {
	case days <= 1:
		return priority.Priorities.Urgent.Name
	case days <= 3 || total >= highValueTotal:
		return priority.Priorities.High.Name
	default:
		return priority.Priorities.Normal.Name
	}
}

// ItemsDescription renders order lines as "2x Name, 1x Other".
func ItemsDescription(items []event.OrderItemSnapshot) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
	}
	return strings.Join(parts, ", ")
}

// ScheduledEnd closes the delivery slot opened at start.
func ScheduledEnd(start string) string {
	end, err := day.AddMinutes(start, slotMinutes)
	if err != nil {
		return start
	}
	return end
}

// FromOrder builds the delivery of an order. The number is assigned by the caller.
func FromOrder(o event.OrderSnapshot, today string, by string, now time.Time) *Delivery {
	return &Delivery{
		Type:                TypeDelivery,
		OrderID:             o.ID,
		OrderNumber:         o.Number,
		CustomerName:        o.CustomerName(),
		Company:             o.Company,
		Phone:               o.Phone,
		Email:               o.Email,
		Address:             o.Address,
		PostalCode:          o.PostalCode,
		City:                o.City,
		ScheduledDate:       o.DeliveryDate,
		ScheduledStart:      o.DeliveryTime,
		ScheduledEnd:        ScheduledEnd(o.DeliveryTime),
		ItemsDescription:    ItemsDescription(o.Items),
		SpecialInstructions: o.SpecialInstructions,
		OrderTotal:          o.Total,
		Priority:            PriorityFor(today, o.DeliveryDate, o.Total),
		Status:              StatusPending,
		EstimatedDuration:   DefaultDuration,
		Photos:              []Photo{},
		History:             []StatusChange{},
		CreatedBy:           by,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// PickupOf builds the pickup that collects equipment left by parent.
func PickupOf(parent *Delivery, date, start, by string, now time.Time) *Delivery {
	id := parent.ID
	p := &Delivery{
		Type:              TypePickup,
		OrderID:           parent.OrderID,
		OrderNumber:       parent.OrderNumber,
		ParentID:          &id,
		CustomerName:      parent.CustomerName,
		Company:           parent.Company,
		Phone:             parent.Phone,
		Email:             parent.Email,
		Address:           parent.Address,
		PostalCode:        parent.PostalCode,
		City:              parent.City,
		Latitude:          parent.Latitude,
		Longitude:         parent.Longitude,
		ScheduledDate:     date,
		ScheduledStart:    start,
		ScheduledEnd:      ScheduledEnd(start),
		ItemsDescription:  "Pickup: " + parent.ItemsDescription,
		Priority:          priority.Priorities.Normal.Name,
		Status:            StatusPending,
		EstimatedDuration: DefaultDuration,
		Photos:            []Photo{},
		History:           []StatusChange{},
		CreatedBy:         by,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, ph := range parent.Photos {
		if ph.Kind != PhotoDelivery {
			continue
		}
		ref := ph
		ref.Kind = PhotoPickup
		ref.Caption = strings.TrimSpace("Delivery reference " + ph.Caption)
		p.Photos = append(p.Photos, ref)
	}
	return p
}

func validStatus(s string) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsOpen reports whether the delivery still has work ahead.
func (d *Delivery) IsOpen() bool {
	for _, s := range Open {
		if d.Status == s {
			return true
		}
	}
	return false
}

// SetStatus moves the delivery to a new status. Delivered and cancelled are final.
func (d *Delivery) SetStatus(to, by string, now time.Time) error {
	if !validStatus(to) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if d.Status == StatusDelivered || d.Status == StatusCancelled || d.Status == to {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, d.Status, to)
	}
	d.History = append(d.History, StatusChange{From: d.Status, To: to, ChangedBy: by, ChangedAt: now})
	d.Status = to
	if to == StatusDelivered {
		d.DeliveredAt = &now
	}
	d.UpdatedAt = now
	return nil
}

// PreviousStatus is the status before the last change.
func (d *Delivery) PreviousStatus() string {
	if len(d.History) == 0 {
		return ""
	}
	return d.History[len(d.History)-1].From
}

// Duration returns the time on site in minutes.
func (d *Delivery) Duration() int {
	if d.EstimatedDuration <= 0 {
		return DefaultDuration
	}
	return d.EstimatedDuration
}
