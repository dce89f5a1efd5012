package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/services/order/internal/order"
)

const (
	ordersCollection   = "orders"
	countersCollection = "order_counters"
)

type OrderRepo struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{
		collection: db.Collection(ordersCollection),
		counters:   db.Collection(countersCollection),
	}
}

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("cannot create order: %w", err)
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	return r.findOne(ctx, bson.M{"number": number})
}

func (r *OrderRepo) findOne(ctx context.Context, filter bson.M) (*order.Order, error) {
	var o order.Order
	err := r.collection.FindOne(ctx, filter).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return &o, nil
}

// OrderFilter translates an order filter into a Mongo query.
func OrderFilter(f order.Filter) bson.M {
	filter := bson.M{}
	if len(f.Statuses) == 1 {
		filter["status"] = f.Statuses[0]
	} else if len(f.Statuses) > 1 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.DeliveryDate != "" {
		filter["delivery_date"] = f.DeliveryDate
	}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	created := bson.M{}
	if !f.CreatedFrom.IsZero() {
		created["$gte"] = f.CreatedFrom
	}
	if !f.CreatedTo.IsZero() {
		created["$lt"] = f.CreatedTo
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	if f.Query != "" {
		filter["$or"] = bson.A{
			bson.M{"number": mongodb.Contains(f.Query)},
			bson.M{"last_name": mongodb.Contains(f.Query)},
			bson.M{"first_name": mongodb.Contains(f.Query)},
			bson.M{"email": mongodb.Contains(f.Query)},
			bson.M{"company": mongodb.Contains(f.Query)},
		}
	}
	return filter
}

func (r *OrderRepo) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cursor, err := r.collection.Find(ctx, OrderFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*order.Order
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}
	return result, nil
}

// SaveFilter matches the order only while it still has the expected status.
func SaveFilter(id uuid.UUID, expected string) bson.M {
	return bson.M{"_id": id, "status": expected}
}

// PaymentUpdate sets the payment fields of an unpaid order and nothing else.
func PaymentUpdate(o *order.Order) (bson.M, bson.M) {
	set := bson.M{
		"is_paid":    true,
		"payment_id": o.PaymentID,
		"paid_at":    o.PaidAt,
		"updated_at": o.UpdatedAt,
	}
	if o.PaymentMethod != "" {
		set["payment_method"] = o.PaymentMethod
	}
	return bson.M{"_id": o.ID, "is_paid": bson.M{"$ne": true}}, bson.M{"$set": set}
}

func (r *OrderRepo) Save(ctx context.Context, o *order.Order, expected string) error {
	result, err := r.collection.UpdateOne(ctx, SaveFilter(o.ID, expected), bson.M{"$set": o})
	if err != nil {
		return fmt.Errorf("cannot update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missing(ctx, o.ID, order.ErrStatusChanged)
	}
	return nil
}

func (r *OrderRepo) MarkPaid(ctx context.Context, o *order.Order) error {
	filter, update := PaymentUpdate(o)
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot mark order paid: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missing(ctx, o.ID, order.ErrAlreadyPaid)
	}
	return nil
}

// missing tells a vanished order apart from one whose guard no longer holds.
func (r *OrderRepo) missing(ctx context.Context, id uuid.UUID, guardErr error) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot count orders: %w", err)
	}
	if n == 0 {
		return order.ErrNotFound
	}
	return guardErr
}

type counter struct {
	Seq int64 `bson:"seq"`
}

// NextSequence increments the per-day order counter atomically.
func (r *OrderRepo) NextSequence(ctx context.Context, day string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c counter
	err := r.counters.FindOneAndUpdate(ctx, bson.M{"_id": day}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("cannot increment order counter: %w", err)
	}
	return c.Seq, nil
}

func (r *OrderRepo) CustomersBefore(ctx context.Context, userIDs []string, t time.Time) (map[string]bool, error) {
	result := make(map[string]bool, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	values, err := r.collection.Distinct(ctx, "user_id", bson.M{
		"user_id":    bson.M{"$in": userIDs},
		"created_at": bson.M{"$lt": t},
	})
	if err != nil {
		return nil, fmt.Errorf("cannot find returning customers: %w", err)
	}
	for _, v := range values {
		if id, ok := v.(string); ok {
			result[id] = true
		}
	}
	return result, nil
}

// Indexes lists the indexes the order collections rely on.
func Indexes() []mongodb.Index {
	return []mongodb.Index{
		{Collection: ordersCollection, Keys: bson.D{{Key: "number", Value: 1}}, Unique: true},
		{Collection: ordersCollection, Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Collection: ordersCollection, Keys: bson.D{{Key: "delivery_date", Value: 1}, {Key: "status", Value: 1}}},
		{Collection: ordersCollection, Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
}
