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
	"github.com/appetiteclub/catering/services/storefront/internal/promo"
)

const (
	promoCodesCollection = "promo_codes"
	promoUsageCollection = "promo_usages"
)

type PromoRepo struct {
	collection *mongo.Collection
}

func NewPromoRepo(db *mongo.Database) *PromoRepo {
	return &PromoRepo{collection: db.Collection(promoCodesCollection)}
}

func (r *PromoRepo) Create(ctx context.Context, p *promo.PromoCode) error {
	if _, err := r.collection.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return promo.ErrCodeExists
		}
		return fmt.Errorf("cannot create promo code: %w", err)
	}
	return nil
}

func (r *PromoRepo) Get(ctx context.Context, id uuid.UUID) (*promo.PromoCode, error) {
	return mongodb.FindOne[promo.PromoCode](ctx, r.collection, bson.M{"_id": id}, "promo code")
}

func (r *PromoRepo) GetByCode(ctx context.Context, code string) (*promo.PromoCode, error) {
	return mongodb.FindOne[promo.PromoCode](ctx, r.collection, bson.M{"code": promo.NormalizeCode(code)}, "promo code")
}

func (r *PromoRepo) List(ctx context.Context) ([]*promo.PromoCode, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return mongodb.FindMany[promo.PromoCode](ctx, r.collection, bson.M{}, opts, "promo codes")
}

func (r *PromoRepo) ListRestrictedTo(ctx context.Context, userID string) ([]*promo.PromoCode, error) {
	opts := options.Find().SetSort(bson.D{{Key: "valid_until", Value: 1}})
	return mongodb.FindMany[promo.PromoCode](ctx, r.collection, bson.M{"restricted_to": userID}, opts, "promo codes")
}

func (r *PromoRepo) Save(ctx context.Context, p *promo.PromoCode) error {
	return mongodb.Replace(ctx, r.collection, p.ID, p, "promo code")
}

func (r *PromoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.collection, id, "promo code")
}

func (r *PromoRepo) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"usage_count": 1}}); err != nil {
		return fmt.Errorf("cannot increment promo usage: %w", err)
	}
	return nil
}

func (r *PromoRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{"active": true, "valid_until": bson.M{"$lt": now}}
	update := bson.M{"$set": bson.M{"active": false, "updated_at": now}}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("cannot deactivate expired promo codes: %w", err)
	}
	return result.ModifiedCount, nil
}

type UsageRepo struct {
	collection *mongo.Collection
}

func NewUsageRepo(db *mongo.Database) *UsageRepo {
	return &UsageRepo{collection: db.Collection(promoUsageCollection)}
}

func (r *UsageRepo) Create(ctx context.Context, u *promo.Usage) error {
	if _, err := r.collection.InsertOne(ctx, u); err != nil {
		return fmt.Errorf("cannot record promo usage: %w", err)
	}
	return nil
}

func (r *UsageRepo) CountByUser(ctx context.Context, promoID uuid.UUID, userID string) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"promo_id": promoID, "user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("cannot count promo usage: %w", err)
	}
	return int(n), nil
}
