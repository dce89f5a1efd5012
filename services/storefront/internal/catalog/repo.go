package catalog

import (
	"context"

	"github.com/google/uuid"
)

const (
	SortPrice     = "price"
	SortPriceDesc = "-price"
	SortPopular   = "popular"
	SortNewest    = "newest"

	DefaultPageSize = 12
)

type ProductQuery struct {
	CategoryID    *uuid.UUID
	Vegetarian    bool
	Vegan         bool
	GlutenFree    bool
	Text          string
	Sort          string
	Page          int
	PageSize      int
	AvailableOnly bool
}

type CategoryRepo interface {
	Create(ctx context.Context, c *Category) error
	Get(ctx context.Context, id uuid.UUID) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	List(ctx context.Context, activeOnly bool) ([]*Category, error)
	Save(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductRepo interface {
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	List(ctx context.Context, q ProductQuery) ([]*Product, int64, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, exclude uuid.UUID, limit int) ([]*Product, error)
	Save(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	IncrementSales(ctx context.Context, id uuid.UUID, qty int) error
	SetRating(ctx context.Context, id uuid.UUID, average float64, count int) error
}

type ReviewRepo interface {
	Create(ctx context.Context, r *Review) error
	Get(ctx context.Context, id uuid.UUID) (*Review, error)
	Exists(ctx context.Context, productID uuid.UUID, userID, orderID string) (bool, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]*Review, error)
	ListPending(ctx context.Context) ([]*Review, error)
	Save(ctx context.Context, r *Review) error
}

type Repos struct {
	Categories CategoryRepo
	Products   ProductRepo
	Reviews    ReviewRepo
}
