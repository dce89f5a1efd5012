package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/services/storefront/internal/catalog"
)

const (
	categoriesCollection = "categories"
	productsCollection   = "products"
	reviewsCollection    = "reviews"
)

type CategoryRepo struct {
	collection *mongo.Collection
}

func NewCategoryRepo(db *mongo.Database) *CategoryRepo {
	return &CategoryRepo{collection: db.Collection(categoriesCollection)}
}

func (r *CategoryRepo) Create(ctx context.Context, c *catalog.Category) error {
	if _, err := r.collection.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("cannot create category: %w", err)
	}
	return nil
}

func (r *CategoryRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	return mongodb.FindOne[catalog.Category](ctx, r.collection, bson.M{"_id": id}, "category")
}

func (r *CategoryRepo) GetBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	return mongodb.FindOne[catalog.Category](ctx, r.collection, bson.M{"slug": slug}, "category")
}

func (r *CategoryRepo) List(ctx context.Context, activeOnly bool) ([]*catalog.Category, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "name", Value: 1}})
	return mongodb.FindMany[catalog.Category](ctx, r.collection, filter, opts, "categories")
}

func (r *CategoryRepo) Save(ctx context.Context, c *catalog.Category) error {
	return mongodb.Replace(ctx, r.collection, c.ID, c, "category")
}

func (r *CategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.collection, id, "category")
}

type ProductRepo struct {
	collection *mongo.Collection
}

func NewProductRepo(db *mongo.Database) *ProductRepo {
	return &ProductRepo{collection: db.Collection(productsCollection)}
}

func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	if _, err := r.collection.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("cannot create product: %w", err)
	}
	return nil
}

func (r *ProductRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return mongodb.FindOne[catalog.Product](ctx, r.collection, bson.M{"_id": id}, "product")
}

func (r *ProductRepo) GetBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	return mongodb.FindOne[catalog.Product](ctx, r.collection, bson.M{"slug": slug}, "product")
}

// ProductFilter translates a catalog query into a Mongo filter.
func ProductFilter(q catalog.ProductQuery) bson.M {
	filter := bson.M{}
	if q.AvailableOnly {
		filter["available"] = true
	}
	if q.CategoryID != nil {
		filter["category_id"] = *q.CategoryID
	}
	if q.Vegetarian {
		filter["vegetarian"] = true
	}
	if q.Vegan {
		filter["vegan"] = true
	}
	if q.GlutenFree {
		filter["gluten_free"] = true
	}
	if q.Text != "" {
		pattern := mongodb.Contains(q.Text)
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"ingredients": pattern},
		}
	}
	return filter
}

// ProductSort maps a sort key to a Mongo sort document, name order by default.
func ProductSort(sort string) bson.D {
	switch sort {
	case catalog.SortPrice:
		return bson.D{{Key: "price", Value: 1}, {Key: "name", Value: 1}}
	case catalog.SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "name", Value: 1}}
	case catalog.SortPopular:
		return bson.D{{Key: "sales_count", Value: -1}, {Key: "views_count", Value: -1}}
	case catalog.SortNewest:
		return bson.D{{Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "name", Value: 1}}
	}
}

func (r *ProductRepo) List(ctx context.Context, q catalog.ProductQuery) ([]*catalog.Product, int64, error) {
	filter := ProductFilter(q)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot count products: %w", err)
	}

	opts := mongodb.Paging(q.Page, q.PageSize).SetSort(ProductSort(q.Sort))
	items, err := mongodb.FindMany[catalog.Product](ctx, r.collection, filter, opts, "products")
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ProductRepo) ListByCategory(ctx context.Context, categoryID uuid.UUID, exclude uuid.UUID, limit int) ([]*catalog.Product, error) {
	filter := bson.M{
		"category_id": categoryID,
		"available":   true,
		"_id":         bson.M{"$ne": exclude},
	}
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "sales_count", Value: -1}})
	return mongodb.FindMany[catalog.Product](ctx, r.collection, filter, opts, "related products")
}

func (r *ProductRepo) Save(ctx context.Context, p *catalog.Product) error {
	return mongodb.Replace(ctx, r.collection, p.ID, p, "product")
}

func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.collection, id, "product")
}

func (r *ProductRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.inc(ctx, id, bson.M{"views_count": 1})
}

func (r *ProductRepo) IncrementSales(ctx context.Context, id uuid.UUID, qty int) error {
	return r.inc(ctx, id, bson.M{"sales_count": qty})
}

func (r *ProductRepo) inc(ctx context.Context, id uuid.UUID, fields bson.M) error {
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": fields}); err != nil {
		return fmt.Errorf("cannot update product counters: %w", err)
	}
	return nil
}

func (r *ProductRepo) SetRating(ctx context.Context, id uuid.UUID, average float64, count int) error {
	update := bson.M{"$set": bson.M{
		"average_rating": average,
		"review_count":   count,
		"updated_at":     time.Now(),
	}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("cannot update product rating: %w", err)
	}
	return nil
}

type ReviewRepo struct {
	collection *mongo.Collection
}

func NewReviewRepo(db *mongo.Database) *ReviewRepo {
	return &ReviewRepo{collection: db.Collection(reviewsCollection)}
}

func (r *ReviewRepo) Create(ctx context.Context, rv *catalog.Review) error {
	if _, err := r.collection.InsertOne(ctx, rv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return catalog.ErrDuplicateReview
		}
		return fmt.Errorf("cannot create review: %w", err)
	}
	return nil
}

func (r *ReviewRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Review, error) {
	return mongodb.FindOne[catalog.Review](ctx, r.collection, bson.M{"_id": id}, "review")
}

func (r *ReviewRepo) Exists(ctx context.Context, productID uuid.UUID, userID, orderID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"product_id": productID, "user_id": userID, "order_id": orderID})
	if err != nil {
		return false, fmt.Errorf("cannot count reviews: %w", err)
	}
	return n > 0, nil
}

func (r *ReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]*catalog.Review, error) {
	filter := bson.M{"product_id": productID}
	if approvedOnly {
		filter["approved"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return mongodb.FindMany[catalog.Review](ctx, r.collection, filter, opts, "reviews")
}

func (r *ReviewRepo) ListPending(ctx context.Context) ([]*catalog.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return mongodb.FindMany[catalog.Review](ctx, r.collection, bson.M{"approved": false}, opts, "reviews")
}

func (r *ReviewRepo) Save(ctx context.Context, rv *catalog.Review) error {
	return mongodb.Replace(ctx, r.collection, rv.ID, rv, "review")
}

// NewCatalogRepos wires the three catalog collections.
func NewCatalogRepos(db *mongo.Database) catalog.Repos {
	return catalog.Repos{
		Categories: NewCategoryRepo(db),
		Products:   NewProductRepo(db),
		Reviews:    NewReviewRepo(db),
	}
}

func deleteByID(ctx context.Context, c *mongo.Collection, id uuid.UUID, what string) error {
	result, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete %s: %w", what, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s not found", what)
	}
	return nil
}
