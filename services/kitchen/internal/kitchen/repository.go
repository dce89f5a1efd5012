package kitchen

import (
	"context"

	"github.com/google/uuid"
)

type ItemFilter struct {
	Date       string
	Department string
	Statuses   []string
	Priority   *bool
	OrderID    string
}

type ProductionRepo interface {
	GetOrCreate(ctx context.Context, p *Production) (*Production, error)
	Get(ctx context.Context, id uuid.UUID) (*Production, error)
	ListByDate(ctx context.Context, date string) ([]*Production, error)
	Save(ctx context.Context, p *Production) error
}

type ItemRepo interface {
	// CreateIfAbsent inserts the item unless one exists for the same production and order item.
	CreateIfAbsent(ctx context.Context, i *Item) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	List(ctx context.Context, f ItemFilter) ([]*Item, error)
	ListByProduction(ctx context.Context, productionID uuid.UUID) ([]*Item, error)
	Save(ctx context.Context, i *Item) error
}

type NotificationRepo interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, role, department string, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, role, department string) (int64, error)
}

type SupplyRepo interface {
	Create(ctx context.Context, s *SupplyOrder) error
	Get(ctx context.Context, id uuid.UUID) (*SupplyOrder, error)
	List(ctx context.Context, department string, statuses []string) ([]*SupplyOrder, error)
	Save(ctx context.Context, s *SupplyOrder) error
}

type Repos struct {
	Productions   ProductionRepo
	Items         ItemRepo
	Notifications NotificationRepo
	Supplies      SupplyRepo
}
