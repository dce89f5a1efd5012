package banquet

import (
	"context"

	"github.com/google/uuid"
)

type ContractFilter struct {
	MaitreHotelID string
	Date          string
	From          string
	To            string
	Statuses      []string
	Limit         int
}

type ContractRepo interface {
	Create(ctx context.Context, c *Contract) error
	Get(ctx context.Context, id uuid.UUID) (*Contract, error)
	List(ctx context.Context, f ContractFilter) ([]*Contract, error)
	Save(ctx context.Context, c *Contract) error
	NextSequence(ctx context.Context, name string) (int64, error)
}

type TimelineRepo interface {
	Create(ctx context.Context, e *TimelineEntry) error
	// List returns the newest entries first.
	List(ctx context.Context, contractID uuid.UUID, limit int) ([]*TimelineEntry, error)
}

type PhotoRepo interface {
	Create(ctx context.Context, p *Photo) error
	List(ctx context.Context, contractID uuid.UUID, limit int) ([]*Photo, error)
}

type ReportFilter struct {
	MaitreHotelID string
	Status        string
	From          string
	To            string
	Search        string
}

type ReportRepo interface {
	Create(ctx context.Context, r *Report) error
	Get(ctx context.Context, id uuid.UUID) (*Report, error)
	GetByContract(ctx context.Context, contractID uuid.UUID) (*Report, error)
	List(ctx context.Context, f ReportFilter) ([]*Report, error)
	Save(ctx context.Context, r *Report) error
}

type NotificationRepo interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, recipientID string, limit int) ([]*Notification, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

type Repos struct {
	Contracts     ContractRepo
	Timeline      TimelineRepo
	Photos        PhotoRepo
	Reports       ReportRepo
	Notifications NotificationRepo
}
