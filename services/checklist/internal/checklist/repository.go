package checklist

import (
	"context"

	"github.com/google/uuid"
)

type InventoryRepo interface {
	Create(ctx context.Context, item *InventoryItem) error
	Get(ctx context.Context, id uuid.UUID) (*InventoryItem, error)
	// GetMany returns the items found among ids, keyed by id.
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*InventoryItem, error)
	List(ctx context.Context, activeOnly bool) ([]*InventoryItem, error)
	Save(ctx context.Context, item *InventoryItem) error
}

type TemplateRepo interface {
	Create(ctx context.Context, t *Template) error
	Get(ctx context.Context, id uuid.UUID) (*Template, error)
	List(ctx context.Context, activeOnly bool) ([]*Template, error)
	Save(ctx context.Context, t *Template) error
}

type Filter struct {
	AssignedTo   string
	Status       string
	DeliveryDate string
	To           string
}

type ChecklistRepo interface {
	Create(ctx context.Context, c *Checklist) error
	Get(ctx context.Context, id uuid.UUID) (*Checklist, error)
	GetByOrder(ctx context.Context, orderID string) (*Checklist, error)
	GetByItem(ctx context.Context, itemID uuid.UUID) (*Checklist, error)
	List(ctx context.Context, f Filter) ([]*Checklist, error)
	// Save writes c while the stored version still equals c.Version, then bumps
	// it. A moved version gives ErrConflict.
	Save(ctx context.Context, c *Checklist) error
}

type NotificationRepo interface {
	Create(ctx context.Context, n *Notification) error
	// List returns the newest first. An empty assignedTo lists every notification.
	List(ctx context.Context, assignedTo string, unreadOnly bool, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, assignedTo string) error
}

type Repos struct {
	Inventory     InventoryRepo
	Templates     TemplateRepo
	Checklists    ChecklistRepo
	Notifications NotificationRepo
}
