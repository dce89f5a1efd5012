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
	"github.com/appetiteclub/catering/services/checklist/internal/checklist"
)

const (
	inventoryCollection     = "inventory_items"
	templatesCollection     = "checklist_templates"
	checklistsCollection    = "order_checklists"
	notificationsCollection = "checklist_notifications"
)

func NewRepos(db *mongo.Database) checklist.Repos {
	return checklist.Repos{
		Inventory:     &InventoryRepo{collection: db.Collection(inventoryCollection)},
		Templates:     &TemplateRepo{collection: db.Collection(templatesCollection)},
		Checklists:    &ChecklistRepo{collection: db.Collection(checklistsCollection)},
		Notifications: &NotificationRepo{collection: db.Collection(notificationsCollection)},
	}
}

func replace(ctx context.Context, c *mongo.Collection, id uuid.UUID, v interface{}, what string) error {
	err := mongodb.Replace(ctx, c, id, v, what)
	if errors.Is(err, mongodb.ErrMissing) {
		return fmt.Errorf("%s: %w", what, checklist.ErrNotFound)
	}
	return err
}

func activeFilter(activeOnly bool) bson.M {
	if activeOnly {
		return bson.M{"is_active": true}
	}
	return bson.M{}
}

type InventoryRepo struct {
	collection *mongo.Collection
}

func (r *InventoryRepo) Create(ctx context.Context, item *checklist.InventoryItem) error {
	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("cannot create inventory item: %w", err)
	}
	return nil
}

func (r *InventoryRepo) Get(ctx context.Context, id uuid.UUID) (*checklist.InventoryItem, error) {
	return mongodb.FindOne[checklist.InventoryItem](ctx, r.collection, bson.M{"_id": id}, "inventory item")
}

func (r *InventoryRepo) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*checklist.InventoryItem, error) {
	out := map[uuid.UUID]*checklist.InventoryItem{}
	if len(ids) == 0 {
		return out, nil
	}
	list, err := mongodb.FindMany[checklist.InventoryItem](ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}}, nil, "inventory items")
	if err != nil {
		return nil, err
	}
	for _, item := range list {
		out[item.ID] = item
	}
	return out, nil
}

func (r *InventoryRepo) List(ctx context.Context, activeOnly bool) ([]*checklist.InventoryItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})
	return mongodb.FindMany[checklist.InventoryItem](ctx, r.collection, activeFilter(activeOnly), opts, "inventory items")
}

func (r *InventoryRepo) Save(ctx context.Context, item *checklist.InventoryItem) error {
	return replace(ctx, r.collection, item.ID, item, "inventory item")
}

type TemplateRepo struct {
	collection *mongo.Collection
}

func (r *TemplateRepo) Create(ctx context.Context, t *checklist.Template) error {
	if _, err := r.collection.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("cannot create template: %w", err)
	}
	return nil
}

func (r *TemplateRepo) Get(ctx context.Context, id uuid.UUID) (*checklist.Template, error) {
	return mongodb.FindOne[checklist.Template](ctx, r.collection, bson.M{"_id": id}, "template")
}

func (r *TemplateRepo) List(ctx context.Context, activeOnly bool) ([]*checklist.Template, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return mongodb.FindMany[checklist.Template](ctx, r.collection, activeFilter(activeOnly), opts, "templates")
}

func (r *TemplateRepo) Save(ctx context.Context, t *checklist.Template) error {
	return replace(ctx, r.collection, t.ID, t, "template")
}

type ChecklistRepo struct {
	collection *mongo.Collection
}

func (r *ChecklistRepo) Create(ctx context.Context, c *checklist.Checklist) error {
	if _, err := r.collection.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("order %s: %w", c.OrderNumber, checklist.ErrExists)
		}
		return fmt.Errorf("cannot create checklist: %w", err)
	}
	return nil
}

func (r *ChecklistRepo) Get(ctx context.Context, id uuid.UUID) (*checklist.Checklist, error) {
	return mongodb.FindOne[checklist.Checklist](ctx, r.collection, bson.M{"_id": id}, "checklist")
}

func (r *ChecklistRepo) GetByOrder(ctx context.Context, orderID string) (*checklist.Checklist, error) {
	return mongodb.FindOne[checklist.Checklist](ctx, r.collection, bson.M{"order_id": orderID}, "checklist")
}

func (r *ChecklistRepo) GetByItem(ctx context.Context, itemID uuid.UUID) (*checklist.Checklist, error) {
	return mongodb.FindOne[checklist.Checklist](ctx, r.collection, bson.M{"items._id": itemID}, "checklist")
}

// ChecklistFilter translates a dashboard filter into a Mongo query.
func ChecklistFilter(f checklist.Filter) bson.M {
	filter := bson.M{}
	if f.AssignedTo != "" {
		filter["assigned_to"] = f.AssignedTo
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.DeliveryDate != "" {
		filter["delivery_date"] = f.DeliveryDate
	} else if f.To != "" {
		filter["delivery_date"] = bson.M{"$lte": f.To}
	}
	return filter
}

func (r *ChecklistRepo) List(ctx context.Context, f checklist.Filter) ([]*checklist.Checklist, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "priority", Value: -1},
		{Key: "delivery_date", Value: 1},
		{Key: "delivery_time", Value: 1},
	})
	return mongodb.FindMany[checklist.Checklist](ctx, r.collection, ChecklistFilter(f), opts, "checklists")
}

func (r *ChecklistRepo) Save(ctx context.Context, c *checklist.Checklist) error {
	version := c.Version
	c.Version++
	err := mongodb.ReplaceVersioned(ctx, r.collection, c.ID, version, c, "checklist")
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongodb.ErrMissing):
		err = fmt.Errorf("checklist: %w", checklist.ErrNotFound)
	case errors.Is(err, mongodb.ErrConflict):
		err = fmt.Errorf("checklist %s: %w", c.OrderNumber, checklist.ErrConflict)
	}
	c.Version = version
	return err
}

type NotificationRepo struct {
	collection *mongo.Collection
}

func (r *NotificationRepo) Create(ctx context.Context, n *checklist.Notification) error {
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("cannot create notification: %w", err)
	}
	return nil
}

func audienceFilter(assignedTo string) bson.M {
	if assignedTo == "" {
		return bson.M{}
	}
	return bson.M{"assigned_to": assignedTo}
}

func (r *NotificationRepo) List(ctx context.Context, assignedTo string, unreadOnly bool, limit int) ([]*checklist.Notification, error) {
	filter := audienceFilter(assignedTo)
	if unreadOnly {
		filter["is_read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return mongodb.FindMany[checklist.Notification](ctx, r.collection, filter, opts, "notifications")
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, assignedTo string) error {
	filter := audienceFilter(assignedTo)
	filter["_id"] = id
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"is_read": true, "read_at": now()}})
	if err != nil {
		return fmt.Errorf("cannot update notification: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("notification: %w", checklist.ErrNotFound)
	}
	return nil
}

// Indexes lists the indexes the checklist collections rely on.
func Indexes() []mongodb.Index {
	return []mongodb.Index{
		{Collection: checklistsCollection, Keys: bson.D{{Key: "order_id", Value: 1}}, Unique: true},
		{Collection: checklistsCollection, Keys: bson.D{{Key: "items._id", Value: 1}}},
		{Collection: checklistsCollection, Keys: bson.D{{Key: "assigned_to", Value: 1}, {Key: "delivery_date", Value: 1}}},
		{Collection: inventoryCollection, Keys: bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}},
		{Collection: notificationsCollection, Keys: bson.D{{Key: "assigned_to", Value: 1}, {Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}}},
	}
}
