package checklist

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"

	PriorityNormal = 0
	PriorityHigh   = 1
	PriorityUrgent = 2

	NotifyAssigned  = "assigned"
	NotifyIssue     = "issue"
	NotifyCompleted = "completed"

	ActionCheck   = "check"
	ActionUncheck = "uncheck"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
	ErrExists            = errors.New("checklist already exists")
	ErrIncomplete        = errors.New("checklist incomplete")
	ErrConflict          = errors.New("checklist changed meanwhile")
)

// Item is one line of equipment to prepare. Inventory details are copied in so a
// checklist keeps reading the same after the inventory changes.
type Item struct {
	ID               uuid.UUID  `json:"id" bson:"_id"`
	InventoryItemID  uuid.UUID  `json:"inventory_item_id" bson:"inventory_item_id"`
	Name             string     `json:"name" bson:"name"`
	Category         string     `json:"category" bson:"category"`
	Unit             string     `json:"unit" bson:"unit"`
	QuantityNeeded   int        `json:"quantity_needed" bson:"quantity_needed"`
	QuantityPrepared int        `json:"quantity_prepared" bson:"quantity_prepared"`
	Notes            string     `json:"notes,omitempty" bson:"notes,omitempty"`
	Position         int        `json:"order" bson:"position"`
	Checked          bool       `json:"is_checked" bson:"is_checked"`
	CheckedBy        string     `json:"checked_by,omitempty" bson:"checked_by,omitempty"`
	CheckedAt        *time.Time `json:"checked_at,omitempty" bson:"checked_at,omitempty"`
	HasIssue         bool       `json:"has_issue" bson:"has_issue"`
	IssueDescription string     `json:"issue_description,omitempty" bson:"issue_description,omitempty"`
	IssueReportedBy  string     `json:"issue_reported_by,omitempty" bson:"issue_reported_by,omitempty"`
	IssueReportedAt  *time.Time `json:"issue_reported_at,omitempty" bson:"issue_reported_at,omitempty"`
}

// Checklist is the equipment list prepared before an order leaves.
type Checklist struct {
	ID             uuid.UUID  `json:"id" bson:"_id"`
	OrderID        string     `json:"order_id" bson:"order_id"`
	OrderNumber    string     `json:"order_number" bson:"order_number"`
	CustomerName   string     `json:"customer_name" bson:"customer_name"`
	DeliveryDate   string     `json:"delivery_date" bson:"delivery_date"`
	DeliveryTime   string     `json:"delivery_time" bson:"delivery_time"`
	Title          string     `json:"title" bson:"title"`
	AssignedTo     string     `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	AssigneeName   string     `json:"assignee_name,omitempty" bson:"assignee_name,omitempty"`
	Priority       int        `json:"priority" bson:"priority"`
	Status         string     `json:"status" bson:"status"`
	Notes          string     `json:"notes,omitempty" bson:"notes,omitempty"`
	Items          []Item     `json:"items" bson:"items"`
	TotalItems     int        `json:"total_items" bson:"total_items"`
	CompletedItems int        `json:"completed_items" bson:"completed_items"`
	Progress       int        `json:"progress_percentage" bson:"progress_percentage"`
	CreatedBy      string     `json:"created_by" bson:"created_by"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at"`
	Version        int64      `json:"version" bson:"version"`
}

// UpdateProgress recounts the checked items. Progress is a whole percentage.
func (c *Checklist) UpdateProgress() {
	c.TotalItems = len(c.Items)
	c.CompletedItems = 0
	for _, it := range c.Items {
		if it.Checked {
			c.CompletedItems++
		}
	}
	c.Progress = 0
	if c.TotalItems > 0 {
		c.Progress = c.CompletedItems * 100 / c.TotalItems
	}
}

func (c *Checklist) Unchecked() int {
	return c.TotalItems - c.CompletedItems
}

// Item returns the item with id, or nil.
func (c *Checklist) Item(id uuid.UUID) *Item {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Checklist) Start(now time.Time) error {
	if c.Status != StatusPending {
		return fmt.Errorf("%w: checklist is %s", ErrInvalidTransition, c.Status)
	}
	c.Status = StatusInProgress
	c.StartedAt = &now
	c.UpdatedAt = now
	return nil
}

// Check marks an item prepared. A zero quantity means the needed quantity.
// Checking the first item starts a pending checklist.
func (c *Checklist) Check(id uuid.UUID, quantity int, by string, now time.Time) (*Item, error) {
	if c.Status == StatusCompleted {
		return nil, fmt.Errorf("%w: checklist is completed", ErrInvalidTransition)
	}
	it := c.Item(id)
	if it == nil {
		return nil, fmt.Errorf("item: %w", ErrNotFound)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidInput)
	}
	if quantity == 0 {
		quantity = it.QuantityNeeded
	}
	it.Checked = true
	it.QuantityPrepared = quantity
	it.CheckedBy = by
	it.CheckedAt = &now
	if c.Status == StatusPending {
		c.Status = StatusInProgress
		c.StartedAt = &now
	}
	c.UpdateProgress()
	c.UpdatedAt = now
	return it, nil
}

func (c *Checklist) Uncheck(id uuid.UUID, now time.Time) (*Item, error) {
	if c.Status == StatusCompleted {
		return nil, fmt.Errorf("%w: checklist is completed", ErrInvalidTransition)
	}
	it := c.Item(id)
	if it == nil {
		return nil, fmt.Errorf("item: %w", ErrNotFound)
	}
	it.Checked = false
	it.QuantityPrepared = 0
	it.CheckedBy = ""
	it.CheckedAt = nil
	c.UpdateProgress()
	c.UpdatedAt = now
	return it, nil
}

func (c *Checklist) ReportIssue(id uuid.UUID, description, by string, now time.Time) (*Item, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	it := c.Item(id)
	if it == nil {
		return nil, fmt.Errorf("item: %w", ErrNotFound)
	}
	it.HasIssue = true
	it.IssueDescription = description
	it.IssueReportedBy = by
	it.IssueReportedAt = &now
	c.UpdatedAt = now
	return it, nil
}

// Complete closes a checklist whose items are all checked.
func (c *Checklist) Complete(now time.Time) error {
	if c.Status == StatusCompleted {
		return fmt.Errorf("%w: checklist is already completed", ErrInvalidTransition)
	}
	c.UpdateProgress()
	if n := c.Unchecked(); n > 0 {
		return fmt.Errorf("%w: %d item(s) not checked", ErrIncomplete, n)
	}
	c.Status = StatusCompleted
	c.CompletedAt = &now
	if c.StartedAt == nil {
		c.StartedAt = &now
	}
	c.UpdatedAt = now
	return nil
}

// CategoryGroup holds the items of one inventory category, in list order.
type CategoryGroup struct {
	Category string `json:"category"`
	Items    []Item `json:"items"`
}

// ByCategory groups the items by category, keeping first-seen category order.
func (c *Checklist) ByCategory() []CategoryGroup {
	var out []CategoryGroup
	index := map[string]int{}
	for _, it := range c.Items {
		i, ok := index[it.Category]
		if !ok {
			i = len(out)
			index[it.Category] = i
			out = append(out, CategoryGroup{Category: it.Category})
		}
		out[i].Items = append(out[i].Items, it)
	}
	return out
}

// Notification records assignment, issues and completion for the checklist staff.
type Notification struct {
	ID          uuid.UUID  `json:"id" bson:"_id"`
	ChecklistID uuid.UUID  `json:"checklist_id" bson:"checklist_id"`
	OrderNumber string     `json:"order_number" bson:"order_number"`
	AssignedTo  string     `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	Type        string     `json:"type" bson:"type"`
	Message     string     `json:"message" bson:"message"`
	CreatedBy   string     `json:"created_by" bson:"created_by"`
	Read        bool       `json:"is_read" bson:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty" bson:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
}
