package delivery

import (
	"context"

	"github.com/google/uuid"
)

type Filter struct {
	Date     string
	Statuses []string
	Types    []string
	DriverID string
	OrderID  string
	IDs      []uuid.UUID
	From     string
	To       string
	Limit    int
}

type DeliveryRepo interface {
	// CreateForOrder inserts d unless the order already has a delivery of the same type.
	CreateForOrder(ctx context.Context, d *Delivery) (bool, error)
	Create(ctx context.Context, d *Delivery) error
	Get(ctx context.Context, id uuid.UUID) (*Delivery, error)
	List(ctx context.Context, f Filter) ([]*Delivery, error)
	Save(ctx context.Context, d *Delivery) error
	NextSequence(ctx context.Context, day string) (int64, error)
}

type RouteFilter struct {
	Date     string
	DriverID string
	Statuses []string
}

type RouteRepo interface {
	Create(ctx context.Context, r *Route) error
	Get(ctx context.Context, id uuid.UUID) (*Route, error)
	List(ctx context.Context, f RouteFilter) ([]*Route, error)
	Save(ctx context.Context, r *Route) error
}

type PlanningRepo interface {
	// Upsert keeps one planning per driver and date.
	Upsert(ctx context.Context, p *Planning) (*Planning, error)
	List(ctx context.Context, date string) ([]*Planning, error)
}

type NotificationRepo interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, role, userID string, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, role, userID string) error
}

type Repos struct {
	Deliveries    DeliveryRepo
	Routes        RouteRepo
	Plannings     PlanningRepo
	Notifications NotificationRepo
}
