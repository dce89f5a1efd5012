package media

import (
	"context"

	"github.com/google/uuid"
)

type Repo interface {
	Create(ctx context.Context, o *Object) error
	Get(ctx context.Context, id uuid.UUID) (*Object, error)
	ListByOwner(ctx context.Context, ownerType, ownerID string) ([]*Object, error)
}
