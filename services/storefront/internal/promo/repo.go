package promo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repo interface {
	Create(ctx context.Context, p *PromoCode) error
	Get(ctx context.Context, id uuid.UUID) (*PromoCode, error)
	GetByCode(ctx context.Context, code string) (*PromoCode, error)
	List(ctx context.Context) ([]*PromoCode, error)
	ListRestrictedTo(ctx context.Context, userID string) ([]*PromoCode, error)
	Save(ctx context.Context, p *PromoCode) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementUsage(ctx context.Context, id uuid.UUID) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type UsageRepo interface {
	Create(ctx context.Context, u *Usage) error
	CountByUser(ctx context.Context, promoID uuid.UUID, userID string) (int, error)
}
