package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows order listings. Zero values are ignored.
type Filter struct {
	Statuses     []string
	DeliveryDate string
	CreatedFrom  time.Time
	CreatedTo    time.Time
	UserID       string
	Query        string
	Limit        int
}

type Repo interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, f Filter) ([]*Order, error)
	// Save writes o only while the stored status is still expected, and
	// returns ErrStatusChanged otherwise.
	Save(ctx context.Context, o *Order, expected string) error
	// MarkPaid writes only the payment fields of o, and returns ErrAlreadyPaid
	// when the stored order is already paid.
	MarkPaid(ctx context.Context, o *Order) error
	// NextSequence returns the next order counter for a day, starting at 1.
	NextSequence(ctx context.Context, day string) (int64, error)
	// CustomersBefore reports which of the given users ordered before t.
	CustomersBefore(ctx context.Context, userIDs []string, t time.Time) (map[string]bool, error)
}
