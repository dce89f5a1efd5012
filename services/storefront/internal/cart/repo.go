package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repo interface {
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	GetBySession(ctx context.Context, sessionKey string) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAnonymousBefore(ctx context.Context, before time.Time) (int64, error)
}
