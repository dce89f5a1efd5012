package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/services/delivery/internal/delivery"
)

const (
	deliveriesCollection    = "deliveries"
	routesCollection        = "routes"
	planningsCollection     = "driver_plannings"
	notificationsCollection = "delivery_notifications"
	countersCollection      = "delivery_counters"
)

func NewRepos(db *mongo.Database) delivery.Repos {
	return delivery.Repos{
		Deliveries: &DeliveryRepo{
			collection: db.Collection(deliveriesCollection),
			counters:   db.Collection(countersCollection),
		},
		Routes:        &RouteRepo{collection: db.Collection(routesCollection)},
		Plannings:     &PlanningRepo{collection: db.Collection(planningsCollection)},
		Notifications: &NotificationRepo{collection: db.Collection(notificationsCollection)},
	}
}

type DeliveryRepo struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// CreateForOrder upserts on (order_id, type) so a redelivered event cannot duplicate it.
func (r *DeliveryRepo) CreateForOrder(ctx context.Context, d *delivery.Delivery) (bool, error) {
	filter := bson.M{"order_id": d.OrderID, "type": d.Type}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$setOnInsert": d}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("cannot create delivery: %w", err)
	}
	return result.UpsertedCount > 0, nil
}

func (r *DeliveryRepo) Create(ctx context.Context, d *delivery.Delivery) error {
	if _, err := r.collection.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("cannot create delivery: %w", err)
	}
	return nil
}

func (r *DeliveryRepo) Get(ctx context.Context, id uuid.UUID) (*delivery.Delivery, error) {
	return mongodb.FindOne[delivery.Delivery](ctx, r.collection, bson.M{"_id": id}, "delivery")
}

// DeliveryFilter translates a delivery filter into a Mongo query.
func DeliveryFilter(f delivery.Filter) bson.M {
	filter := bson.M{}
	if f.Date != "" {
		filter["scheduled_date"] = f.Date
	} else if f.From != "" || f.To != "" {
		between := bson.M{}
		if f.From != "" {
			between["$gte"] = f.From
		}
		if f.To != "" {
			between["$lte"] = f.To
		}
		filter["scheduled_date"] = between
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if len(f.Types) > 0 {
		filter["type"] = bson.M{"$in": f.Types}
	}
	if f.DriverID != "" {
		filter["driver_id"] = f.DriverID
	}
	if f.OrderID != "" {
		filter["order_id"] = f.OrderID
	}
	if len(f.IDs) > 0 {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	return filter
}

func (r *DeliveryRepo) List(ctx context.Context, f delivery.Filter) ([]*delivery.Delivery, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "scheduled_date", Value: 1},
		{Key: "scheduled_start", Value: 1},
		{Key: "number", Value: 1},
	})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return mongodb.FindMany[delivery.Delivery](ctx, r.collection, DeliveryFilter(f), opts, "deliveries")
}

func (r *DeliveryRepo) Save(ctx context.Context, d *delivery.Delivery) error {
	version := d.Version
	d.Version++
	if err := mongodb.ReplaceVersioned(ctx, r.collection, d.ID, version, d, "delivery"); err != nil {
		d.Version = version
		return versioned(err)
	}
	return nil
}

// versioned maps the shared store errors onto the delivery ones.
func versioned(err error) error {
	switch {
	case errors.Is(err, mongodb.ErrMissing):
		return fmt.Errorf("%w: %w", delivery.ErrNotFound, err)
	case errors.Is(err, mongodb.ErrConflict):
		return fmt.Errorf("%w: %w", delivery.ErrConflict, err)
	}
	return err
}

func (r *DeliveryRepo) NextSequence(ctx context.Context, day string) (int64, error) {
	return mongodb.NextSequence(ctx, r.counters, "delivery-"+day)
}

type RouteRepo struct {
	collection *mongo.Collection
}

func (r *RouteRepo) Create(ctx context.Context, route *delivery.Route) error {
	if _, err := r.collection.InsertOne(ctx, route); err != nil {
		return fmt.Errorf("cannot create route: %w", err)
	}
	return nil
}

func (r *RouteRepo) Get(ctx context.Context, id uuid.UUID) (*delivery.Route, error) {
	return mongodb.FindOne[delivery.Route](ctx, r.collection, bson.M{"_id": id}, "route")
}

func (r *RouteRepo) List(ctx context.Context, f delivery.RouteFilter) ([]*delivery.Route, error) {
	filter := bson.M{}
	if f.Date != "" {
		filter["date"] = f.Date
	}
	if f.DriverID != "" {
		filter["driver_id"] = f.DriverID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start_time", Value: 1}})
	return mongodb.FindMany[delivery.Route](ctx, r.collection, filter, opts, "routes")
}

func (r *RouteRepo) Save(ctx context.Context, route *delivery.Route) error {
	version := route.Version
	route.Version++
	if err := mongodb.ReplaceVersioned(ctx, r.collection, route.ID, version, route, "route"); err != nil {
		route.Version = version
		return versioned(err)
	}
	return nil
}

type PlanningRepo struct {
	collection *mongo.Collection
}

// Upsert keeps the id of an existing planning for the same driver and date.
func (r *PlanningRepo) Upsert(ctx context.Context, p *delivery.Planning) (*delivery.Planning, error) {
	filter := bson.M{"driver_id": p.DriverID, "date": p.Date}
	update := bson.M{
		"$set": bson.M{
			"is_available":   p.Available,
			"start_time":     p.StartTime,
			"end_time":       p.EndTime,
			"max_deliveries": p.MaxDeliveries,
			"zones":          p.Zones,
			"notes":          p.Notes,
			"updated_by":     p.UpdatedBy,
			"updated_at":     p.UpdatedAt,
		},
		"$setOnInsert": bson.M{"_id": p.ID},
	}
	if _, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return nil, fmt.Errorf("cannot upsert planning: %w", err)
	}
	return mongodb.FindOne[delivery.Planning](ctx, r.collection, filter, "planning")
}

func (r *PlanningRepo) List(ctx context.Context, date string) ([]*delivery.Planning, error) {
	return mongodb.FindMany[delivery.Planning](ctx, r.collection, bson.M{"date": date}, nil, "plannings")
}

type NotificationRepo struct {
	collection *mongo.Collection
}

func (r *NotificationRepo) Create(ctx context.Context, n *delivery.Notification) error {
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("cannot create notification: %w", err)
	}
	return nil
}

// recipient matches notifications sent to the role at large or to the user.
func recipient(role, userID string) bson.M {
	return bson.M{
		"recipient_role": role,
		"recipient_id":   bson.M{"$in": bson.A{userID, nil}},
	}
}

func (r *NotificationRepo) List(ctx context.Context, role, userID string, unreadOnly bool) ([]*delivery.Notification, error) {
	filter := recipient(role, userID)
	if unreadOnly {
		filter["is_read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(100)
	return mongodb.FindMany[delivery.Notification](ctx, r.collection, filter, opts, "notifications")
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, role, userID string) error {
	filter := recipient(role, userID)
	filter["_id"] = id
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"is_read": true, "read_at": now()}})
	if err != nil {
		return fmt.Errorf("cannot update notification: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("notification: %w", delivery.ErrNotFound)
	}
	return nil
}

// Indexes lists the indexes the delivery collections rely on.
func Indexes() []mongodb.Index {
	return []mongodb.Index{
		{
			Collection: deliveriesCollection,
			Keys:       bson.D{{Key: "order_id", Value: 1}, {Key: "type", Value: 1}},
			Unique:     true,
			Partial:    bson.M{"type": delivery.TypeDelivery},
		},
		{Collection: deliveriesCollection, Keys: bson.D{{Key: "number", Value: 1}}, Unique: true},
		{Collection: deliveriesCollection, Keys: bson.D{{Key: "scheduled_date", Value: 1}, {Key: "status", Value: 1}}},
		{Collection: deliveriesCollection, Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "scheduled_date", Value: 1}}},
		{Collection: routesCollection, Keys: bson.D{{Key: "date", Value: 1}, {Key: "driver_id", Value: 1}}},
		{Collection: planningsCollection, Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "date", Value: 1}}, Unique: true},
		{Collection: notificationsCollection, Keys: bson.D{{Key: "recipient_role", Value: 1}, {Key: "recipient_id", Value: 1}, {Key: "is_read", Value: 1}}},
	}
}
