package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/services/kitchen/internal/kitchen"
)

const (
	productionsCollection   = "productions"
	itemsCollection         = "production_items"
	notificationsCollection = "kitchen_notifications"
	suppliesCollection      = "supply_orders"
)

func NewRepos(db *mongo.Database) kitchen.Repos {
	return kitchen.Repos{
		Productions:   &ProductionRepo{collection: db.Collection(productionsCollection)},
		Items:         &ItemRepo{collection: db.Collection(itemsCollection)},
		Notifications: &NotificationRepo{collection: db.Collection(notificationsCollection)},
		Supplies:      &SupplyRepo{collection: db.Collection(suppliesCollection)},
	}
}

type ProductionRepo struct {
	collection *mongo.Collection
}

// GetOrCreate inserts p unless a production exists for its date and department.
func (r *ProductionRepo) GetOrCreate(ctx context.Context, p *kitchen.Production) (*kitchen.Production, error) {
	filter := bson.M{"date": p.Date, "department": p.Department}
	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$setOnInsert": p}, options.Update().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("cannot upsert production: %w", err)
	}
	return mongodb.FindOne[kitchen.Production](ctx, r.collection, filter, "production")
}

func (r *ProductionRepo) Get(ctx context.Context, id uuid.UUID) (*kitchen.Production, error) {
	return mongodb.FindOne[kitchen.Production](ctx, r.collection, bson.M{"_id": id}, "production")
}

func (r *ProductionRepo) ListByDate(ctx context.Context, date string) ([]*kitchen.Production, error) {
	return mongodb.FindMany[kitchen.Production](ctx, r.collection, bson.M{"date": date}, nil, "productions")
}

func (r *ProductionRepo) Save(ctx context.Context, p *kitchen.Production) error {
	return mongodb.Replace(ctx, r.collection, p.ID, p, "production")
}

type ItemRepo struct {
	collection *mongo.Collection
}

func (r *ItemRepo) CreateIfAbsent(ctx context.Context, i *kitchen.Item) (bool, error) {
	filter := bson.M{"production_id": i.ProductionID, "order_item_id": i.OrderItemID}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$setOnInsert": i}, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("cannot create production item: %w", err)
	}
	return result.UpsertedCount > 0, nil
}

func (r *ItemRepo) Get(ctx context.Context, id uuid.UUID) (*kitchen.Item, error) {
	return mongodb.FindOne[kitchen.Item](ctx, r.collection, bson.M{"_id": id}, "production item")
}

// ItemFilter translates an item filter into a Mongo query.
func ItemFilter(f kitchen.ItemFilter) bson.M {
	filter := bson.M{}
	if f.Date != "" {
		filter["date"] = f.Date
	}
	if f.Department != "" {
		filter["department"] = f.Department
	}
	if f.OrderID != "" {
		filter["order_id"] = f.OrderID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.Priority != nil {
		filter["priority"] = *f.Priority
	}
	return filter
}

func (r *ItemRepo) List(ctx context.Context, f kitchen.ItemFilter) ([]*kitchen.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "delivery_time", Value: 1}})
	return mongodb.FindMany[kitchen.Item](ctx, r.collection, ItemFilter(f), opts, "production items")
}

func (r *ItemRepo) ListByProduction(ctx context.Context, productionID uuid.UUID) ([]*kitchen.Item, error) {
	return mongodb.FindMany[kitchen.Item](ctx, r.collection, bson.M{"production_id": productionID}, nil, "production items")
}

func (r *ItemRepo) Save(ctx context.Context, i *kitchen.Item) error {
	return mongodb.Replace(ctx, r.collection, i.ID, i, "production item")
}

type NotificationRepo struct {
	collection *mongo.Collection
}

func (r *NotificationRepo) Create(ctx context.Context, n *kitchen.Notification) error {
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("cannot create notification: %w", err)
	}
	return nil
}

func scope(role, department string) bson.M {
	filter := bson.M{"recipient_role": role}
	if department != "" {
		filter["department"] = bson.M{"$in": bson.A{department, nil}}
	}
	return filter
}

func (r *NotificationRepo) List(ctx context.Context, role, department string, unreadOnly bool) ([]*kitchen.Notification, error) {
	filter := scope(role, department)
	if unreadOnly {
		filter["is_read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(100)
	return mongodb.FindMany[kitchen.Notification](ctx, r.collection, filter, opts, "notifications")
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_read": true, "read_at": now()}})
	if err != nil {
		return fmt.Errorf("cannot update notification: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("notification: %w", kitchen.ErrNotFound)
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, role, department string) (int64, error) {
	filter := scope(role, department)
	filter["is_read"] = false
	result, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true, "read_at": now()}})
	if err != nil {
		return 0, fmt.Errorf("cannot update notifications: %w", err)
	}
	return result.ModifiedCount, nil
}

type SupplyRepo struct {
	collection *mongo.Collection
}

func (r *SupplyRepo) Create(ctx context.Context, s *kitchen.SupplyOrder) error {
	if _, err := r.collection.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("cannot create supply order: %w", err)
	}
	return nil
}

func (r *SupplyRepo) Get(ctx context.Context, id uuid.UUID) (*kitchen.SupplyOrder, error) {
	return mongodb.FindOne[kitchen.SupplyOrder](ctx, r.collection, bson.M{"_id": id}, "supply order")
}

func (r *SupplyRepo) List(ctx context.Context, department string, statuses []string) ([]*kitchen.SupplyOrder, error) {
	filter := bson.M{}
	if department != "" {
		filter["department"] = department
	}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return mongodb.FindMany[kitchen.SupplyOrder](ctx, r.collection, filter, opts, "supply orders")
}

func (r *SupplyRepo) Save(ctx context.Context, s *kitchen.SupplyOrder) error {
	return mongodb.Replace(ctx, r.collection, s.ID, s, "supply order")
}

// Indexes lists the indexes the kitchen collections rely on.
func Indexes() []mongodb.Index {
	return []mongodb.Index{
		{Collection: productionsCollection, Keys: bson.D{{Key: "date", Value: 1}, {Key: "department", Value: 1}}, Unique: true},
		{Collection: itemsCollection, Keys: bson.D{{Key: "production_id", Value: 1}, {Key: "order_item_id", Value: 1}}, Unique: true},
		{Collection: itemsCollection, Keys: bson.D{{Key: "date", Value: 1}, {Key: "department", Value: 1}, {Key: "status", Value: 1}}},
		{Collection: itemsCollection, Keys: bson.D{{Key: "order_id", Value: 1}}},
		{Collection: notificationsCollection, Keys: bson.D{{Key: "recipient_role", Value: 1}, {Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}}},
		{Collection: suppliesCollection, Keys: bson.D{{Key: "department", Value: 1}, {Key: "status", Value: 1}}},
	}
}
