package kitchen

import (
	"errors"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/day"
)

const (
	ProductionPending    = "pending"
	ProductionInProgress = "in_progress"
	ProductionCompleted  = "completed"

	ItemPending    = "pending"
	ItemInProgress = "in_progress"
	ItemCompleted  = "completed"
	ItemIssue      = "issue"
	ItemCancelled  = "cancelled"

	// Items due before noon are produced first.
	priorityCutoffHour = 12
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("not allowed for this department")
)

// Production is the work of one department for one delivery date.
type Production struct {
	ID             uuid.UUID  `json:"id" bson:"_id"`
	Date           string     `json:"date" bson:"date"`
	Department     string     `json:"department" bson:"department"`
	Status         string     `json:"status" bson:"status"`
	TotalItems     int        `json:"total_items" bson:"total_items"`
	CompletedItems int        `json:"completed_items" bson:"completed_items"`
	Progress       int        `json:"progress" bson:"progress"`
	StartedAt      *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at"`
}

func NewProduction(date, department string, now time.Time) *Production {
	return &Production{
		ID:         apt.GenerateNewID(),
		Date:       date,
		Department: department,
		Status:     ProductionPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Recompute derives counters and status from the production's items.
// Cancelled items do not count.
func (p *Production) Recompute(items []*Item, now time.Time) {
	total, done, started := 0, 0, false
	for _, it := range items {
		if it.Status == ItemCancelled {
			continue
		}
		total++
		switch it.Status {
		case ItemCompleted:
			done++
			started = true
		case ItemInProgress, ItemIssue:
			started = true
		}
	}

	p.TotalItems = total
	p.CompletedItems = done
	p.Progress = 0
	if total > 0 {
		p.Progress = done * 100 / total
	}

	switch {
	case total > 0 && done == total:
		if p.Status != ProductionCompleted {
			p.CompletedAt = &now
		}
		p.Status = ProductionCompleted
	case started:
		if p.StartedAt == nil {
			p.StartedAt = &now
		}
		p.Status = ProductionInProgress
		p.CompletedAt = nil
	default:
		p.Status = ProductionPending
		p.CompletedAt = nil
	}
	p.UpdatedAt = now
}

// Item is one order line to produce.
type Item struct {
	ID               uuid.UUID  `json:"id" bson:"_id"`
	ProductionID     uuid.UUID  `json:"production_id" bson:"production_id"`
	Date             string     `json:"date" bson:"date"`
	Department       string     `json:"department" bson:"department"`
	OrderID          string     `json:"order_id" bson:"order_id"`
	OrderNumber      string     `json:"order_number" bson:"order_number"`
	OrderItemID      string     `json:"order_item_id" bson:"order_item_id"`
	ProductID        string     `json:"product_id" bson:"product_id"`
	ProductName      string     `json:"product_name" bson:"product_name"`
	Quantity         int        `json:"quantity" bson:"quantity"`
	QuantityProduced int        `json:"quantity_produced" bson:"quantity_produced"`
	DeliveryTime     string     `json:"delivery_time" bson:"delivery_time"`
	Priority         bool       `json:"priority" bson:"priority"`
	Status           string     `json:"status" bson:"status"`
	Notes            string     `json:"notes,omitempty" bson:"notes,omitempty"`
	IssueDescription string     `json:"issue_description,omitempty" bson:"issue_description,omitempty"`
	StartedBy        string     `json:"started_by,omitempty" bson:"started_by,omitempty"`
	CompletedBy      string     `json:"completed_by,omitempty" bson:"completed_by,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" bson:"updated_at"`
}

// IsPriorityTime reports whether a delivery time falls before the noon cutoff.
func IsPriorityTime(clock string) bool {
	h := day.Hour(clock)
	return h >= 0 && h < priorityCutoffHour
}

func (i *Item) Open() bool {
	return i.Status == ItemPending || i.Status == ItemInProgress || i.Status == ItemIssue
}

func (i *Item) Start(by string, now time.Time) error {
	if i.Status != ItemPending && i.Status != ItemIssue {
		return ErrInvalidTransition
	}
	i.Status = ItemInProgress
	i.StartedBy = by
	if i.StartedAt == nil {
		i.StartedAt = &now
	}
	i.UpdatedAt = now
	return nil
}

// Complete records the produced quantity, defaulting to the ordered one.
func (i *Item) Complete(by string, quantity int, notes string, now time.Time) error {
	if !i.Open() {
		return ErrInvalidTransition
	}
	if quantity < 0 {
		return ErrInvalidInput
	}
	if quantity == 0 {
		quantity = i.Quantity
	}
	i.QuantityProduced = quantity
	if notes != "" {
		i.Notes = notes
	}
	if i.StartedAt == nil {
		i.StartedAt = &now
	}
	i.Status = ItemCompleted
	i.CompletedBy = by
	i.CompletedAt = &now
	i.UpdatedAt = now
	return nil
}

func (i *Item) Flag(description string, now time.Time) error {
	if !i.Open() {
		return ErrInvalidTransition
	}
	if description == "" {
		return ErrInvalidInput
	}
	i.Status = ItemIssue
	i.IssueDescription = description
	i.UpdatedAt = now
	return nil
}
