package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/catering/pkg/enums/department"
	"github.com/appetiteclub/catering/pkg/money"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrDuplicateReview = errors.New("review already exists for this product and order")
	ErrUnavailable     = errors.New("product is not available")
)

const relatedLimit = 4

type Service struct {
	repos Repos
}

func NewService(repos Repos) *Service {
	return &Service{repos: repos}
}

type ProductPage struct {
	Items    []*Product `json:"items"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Total    int64      `json:"total"`
}

type ProductDetail struct {
	Product *Product   `json:"product"`
	Reviews []*Review  `json:"reviews"`
	Related []*Product `json:"related"`
}

func (s *Service) Categories(ctx context.Context) ([]*Category, error) {
	return s.repos.Categories.List(ctx, true)
}

// ListProducts resolves the category slug and pages through available products.
func (s *Service) ListProducts(ctx context.Context, categorySlug string, q ProductQuery) (*ProductPage, error) {
	if categorySlug != "" {
		cat, err := s.repos.Categories.GetBySlug(ctx, categorySlug)
		if err != nil {
			return nil, fmt.Errorf("get category: %w", err)
		}
		if cat == nil {
			return &ProductPage{Items: []*Product{}, Page: 1, PageSize: pageSize(q.PageSize)}, nil
		}
		q.CategoryID = &cat.ID
	}
	if q.Page < 1 {
		q.Page = 1
	}
	q.PageSize = pageSize(q.PageSize)
	q.AvailableOnly = true

	items, total, err := s.repos.Products.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if items == nil {
		items = []*Product{}
	}
	return &ProductPage{Items: items, Page: q.Page, PageSize: q.PageSize, Total: total}, nil
}

// ProductDetail counts a view and gathers approved reviews and related products.
func (s *Service) ProductDetail(ctx context.Context, slug string) (*ProductDetail, error) {
	p, err := s.repos.Products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil || !p.Available {
		return nil, ErrNotFound
	}

	if err := s.repos.Products.IncrementViews(ctx, p.ID); err != nil {
		return nil, fmt.Errorf("count view: %w", err)
	}
	p.ViewsCount++

	reviews, err := s.repos.Reviews.ListByProduct(ctx, p.ID, true)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	related, err := s.repos.Products.ListByCategory(ctx, p.CategoryID, p.ID, relatedLimit)
	if err != nil {
		return nil, fmt.Errorf("list related: %w", err)
	}

	return &ProductDetail{Product: p, Reviews: orEmpty(reviews), Related: orEmpty(related)}, nil
}

// Product returns an orderable product by id.
func (s *Service) Product(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repos.Products.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) RecordSale(ctx context.Context, id uuid.UUID, qty int) error {
	return s.repos.Products.IncrementSales(ctx, id, qty)
}

type ProductInput struct {
	Name             string `json:"name"`
	Slug             string `json:"slug,omitempty"`
	CategoryID       string `json:"category_id"`
	Description      string `json:"description"`
	Ingredients      string `json:"ingredients"`
	Price            string `json:"price"`
	Calories         int    `json:"calories,omitempty"`
	Vegetarian       bool   `json:"vegetarian"`
	Vegan            bool   `json:"vegan"`
	GlutenFree       bool   `json:"gluten_free"`
	Available        *bool  `json:"available,omitempty"`
	PreparationTime  int    `json:"preparation_time,omitempty"`
	MinOrderQuantity int    `json:"min_order_quantity,omitempty"`
	Department       string `json:"department,omitempty"`
	ImageURL         string `json:"image_url,omitempty"`
}

func (in ProductInput) apply(p *Product) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	price, err := money.FromString(in.Price)
	if err != nil || price < 0 {
		return fmt.Errorf("%w: price must be a positive amount", ErrInvalidInput)
	}
	catID, err := uuid.Parse(in.CategoryID)
	if err != nil {
		return fmt.Errorf("%w: category_id is invalid", ErrInvalidInput)
	}
	if in.Department != "" && department.ByName(in.Department) == nil {
		return fmt.Errorf("%w: unknown department %q", ErrInvalidInput, in.Department)
	}

	p.Name = strings.TrimSpace(in.Name)
	if in.Slug != "" {
		p.Slug = Slugify(in.Slug)
	}
	p.CategoryID = catID
	p.Description = in.Description
	p.Ingredients = in.Ingredients
	p.Price = price
	p.Calories = in.Calories
	p.Vegetarian = in.Vegetarian
	p.Vegan = in.Vegan
	p.GlutenFree = in.GlutenFree
	if in.Available != nil {
		p.Available = *in.Available
	}
	if in.PreparationTime > 0 {
		p.PreparationTime = in.PreparationTime
	}
	if in.MinOrderQuantity > 0 {
		p.MinOrderQuantity = in.MinOrderQuantity
	}
	if in.Department != "" {
		p.Department = in.Department
	}
	p.ImageURL = in.ImageURL
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	p := NewProduct()
	if err := in.apply(p); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, p.CategoryID); err != nil {
		return nil, err
	}
	p.BeforeCreate()
	if err := s.repos.Products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*Product, error) {
	p, err := s.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(p); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, p.CategoryID); err != nil {
		return nil, err
	}
	p.BeforeUpdate()
	if err := s.repos.Products.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Product(ctx, id); err != nil {
		return err
	}
	return s.repos.Products.Delete(ctx, id)
}

func (s *Service) ensureCategory(ctx context.Context, id uuid.UUID) error {
	c, err := s.repos.Categories.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if c == nil {
		return fmt.Errorf("%w: category does not exist", ErrInvalidInput)
	}
	return nil
}

type CategoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
	Active      *bool  `json:"active,omitempty"`
}

func (s *Service) AllCategories(ctx context.Context) ([]*Category, error) {
	return s.repos.Categories.List(ctx, false)
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	now := time.Now()
	c := &Category{
		ID:          apt.GenerateNewID(),
		Name:        strings.TrimSpace(in.Name),
		Slug:        Slugify(firstNonEmpty(in.Slug, in.Name)),
		Description: in.Description,
		Order:       in.Order,
		Active:      in.Active == nil || *in.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.Categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*Category, error) {
	c, err := s.repos.Categories.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(in.Name) != "" {
		c.Name = strings.TrimSpace(in.Name)
	}
	if in.Slug != "" {
		c.Slug = Slugify(in.Slug)
	}
	c.Description = in.Description
	c.Order = in.Order
	if in.Active != nil {
		c.Active = *in.Active
	}
	c.UpdatedAt = time.Now()
	if err := s.repos.Categories.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save category: %w", err)
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	c, err := s.repos.Categories.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if c == nil {
		return ErrNotFound
	}
	return s.repos.Categories.Delete(ctx, id)
}

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	OrderID string `json:"order_id,omitempty"`
}

// AddReview stores an unapproved review, one per product, user and order.
func (s *Service) AddReview(ctx context.Context, slug, userID, userName string, in ReviewInput) (*Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Comment) == "" {
		return nil, fmt.Errorf("%w: comment is required", ErrInvalidInput)
	}

	p, err := s.repos.Products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}

	exists, err := s.repos.Reviews.Exists(ctx, p.ID, userID, in.OrderID)
	if err != nil {
		return nil, fmt.Errorf("check review: %w", err)
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	r := &Review{
		ID:        apt.GenerateNewID(),
		ProductID: p.ID,
		UserID:    userID,
		UserName:  userName,
		OrderID:   in.OrderID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: time.Now(),
	}
	if err := s.repos.Reviews.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return r, nil
}

func (s *Service) PendingReviews(ctx context.Context) ([]*Review, error) {
	return s.repos.Reviews.ListPending(ctx)
}

// ApproveReview publishes a review and recomputes the product rating from every
// approved review.
func (s *Service) ApproveReview(ctx context.Context, id uuid.UUID) (*Review, error) {
	r, err := s.repos.Reviews.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if r == nil {
		return nil, ErrNotFound
	}

	r.Approved = true
	if err := s.repos.Reviews.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}

	approved, err := s.repos.Reviews.ListByProduct(ctx, r.ProductID, true)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	avg, count := AverageRating(approved)
	if err := s.repos.Products.SetRating(ctx, r.ProductID, avg, count); err != nil {
		return nil, fmt.Errorf("set rating: %w", err)
	}
	return r, nil
}

// AverageRating rounds to one decimal.
func AverageRating(reviews []*Review) (float64, int) {
	if len(reviews) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(reviews)))).Round(1)
	f, _ := avg.Float64()
	return f, len(reviews)
}

func pageSize(n int) int {
	if n < 1 || n > 100 {
		return DefaultPageSize
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func orEmpty[T any](items []*T) []*T {
	if items == nil {
		return []*T{}
	}
	return items
}
