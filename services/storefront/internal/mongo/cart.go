package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/services/storefront/internal/cart"
)

const cartsCollection = "carts"

type CartRepo struct {
	collection *mongo.Collection
}

func NewCartRepo(db *mongo.Database) *CartRepo {
	return &CartRepo{collection: db.Collection(cartsCollection)}
}

func (r *CartRepo) GetByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	return mongodb.FindOne[cart.Cart](ctx, r.collection, bson.M{"user_id": userID}, "cart")
}

func (r *CartRepo) GetBySession(ctx context.Context, sessionKey string) (*cart.Cart, error) {
	filter := bson.M{"session_key": sessionKey, "user_id": bson.M{"$exists": false}}
	return mongodb.FindOne[cart.Cart](ctx, r.collection, filter, "cart")
}

func (r *CartRepo) Create(ctx context.Context, c *cart.Cart) error {
	if _, err := r.collection.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("cannot create cart: %w", err)
	}
	return nil
}

func (r *CartRepo) Save(ctx context.Context, c *cart.Cart) error {
	return mongodb.Replace(ctx, r.collection, c.ID, c, "cart")
}

func (r *CartRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.collection, id, "cart")
}

func (r *CartRepo) DeleteAnonymousBefore(ctx context.Context, before time.Time) (int64, error) {
	filter := bson.M{"user_id": bson.M{"$exists": false}, "updated_at": bson.M{"$lt": before}}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("cannot purge stale carts: %w", err)
	}
	return result.DeletedCount, nil
}
