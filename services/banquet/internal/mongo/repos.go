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
	"github.com/appetiteclub/catering/services/banquet/internal/banquet"
)

const (
	contractsCollection     = "event_contracts"
	timelineCollection      = "event_timeline"
	photosCollection        = "event_photos"
	reportsCollection       = "event_reports"
	notificationsCollection = "event_notifications"
	countersCollection      = "banquet_counters"
)

func NewRepos(db *mongo.Database) banquet.Repos {
	return banquet.Repos{
		Contracts: &ContractRepo{
			collection: db.Collection(contractsCollection),
			counters:   db.Collection(countersCollection),
		},
		Timeline:      &TimelineRepo{collection: db.Collection(timelineCollection)},
		Photos:        &PhotoRepo{collection: db.Collection(photosCollection)},
		Reports:       &ReportRepo{collection: db.Collection(reportsCollection)},
		Notifications: &NotificationRepo{collection: db.Collection(notificationsCollection)},
	}
}

func replace(ctx context.Context, c *mongo.Collection, id uuid.UUID, v interface{}, what string) error {
	err := mongodb.Replace(ctx, c, id, v, what)
	if errors.Is(err, mongodb.ErrMissing) {
		return fmt.Errorf("%s: %w", what, banquet.ErrNotFound)
	}
	return err
}

func dateRange(filter bson.M, field, exact, from, to string) {
	if exact != "" {
		filter[field] = exact
		return
	}
	if from == "" && to == "" {
		return
	}
	between := bson.M{}
	if from != "" {
		between["$gte"] = from
	}
	if to != "" {
		between["$lte"] = to
	}
	filter[field] = between
}

type ContractRepo struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

func (r *ContractRepo) Create(ctx context.Context, c *banquet.Contract) error {
	if _, err := r.collection.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("event %s: %w", c.Number, banquet.ErrExists)
		}
		return fmt.Errorf("cannot create event: %w", err)
	}
	return nil
}

func (r *ContractRepo) Get(ctx context.Context, id uuid.UUID) (*banquet.Contract, error) {
	return mongodb.FindOne[banquet.Contract](ctx, r.collection, bson.M{"_id": id}, "event")
}

// ContractFilter translates an event filter into a Mongo query.
func ContractFilter(f banquet.ContractFilter) bson.M {
	filter := bson.M{}
	dateRange(filter, "date", f.Date, f.From, f.To)
	if f.MaitreHotelID != "" {
		filter["maitre_hotel_id"] = f.MaitreHotelID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	return filter
}

func (r *ContractRepo) List(ctx context.Context, f banquet.ContractFilter) ([]*banquet.Contract, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start_time", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return mongodb.FindMany[banquet.Contract](ctx, r.collection, ContractFilter(f), opts, "events")
}

func (r *ContractRepo) Save(ctx context.Context, c *banquet.Contract) error {
	return replace(ctx, r.collection, c.ID, c, "event")
}

func (r *ContractRepo) NextSequence(ctx context.Context, name string) (int64, error) {
	return mongodb.NextSequence(ctx, r.counters, name)
}

type TimelineRepo struct {
	collection *mongo.Collection
}

func (r *TimelineRepo) Create(ctx context.Context, e *banquet.TimelineEntry) error {
	if _, err := r.collection.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("cannot create timeline entry: %w", err)
	}
	return nil
}

func (r *TimelineRepo) List(ctx context.Context, contractID uuid.UUID, limit int) ([]*banquet.TimelineEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return mongodb.FindMany[banquet.TimelineEntry](ctx, r.collection, bson.M{"contract_id": contractID}, opts, "timeline")
}

type PhotoRepo struct {
	collection *mongo.Collection
}

func (r *PhotoRepo) Create(ctx context.Context, p *banquet.Photo) error {
	if _, err := r.collection.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("cannot create photo: %w", err)
	}
	return nil
}

func (r *PhotoRepo) List(ctx context.Context, contractID uuid.UUID, limit int) ([]*banquet.Photo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "taken_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return mongodb.FindMany[banquet.Photo](ctx, r.collection, bson.M{"contract_id": contractID}, opts, "photos")
}

type ReportRepo struct {
	collection *mongo.Collection
}

func (r *ReportRepo) Create(ctx context.Context, rep *banquet.Report) error {
	if _, err := r.collection.InsertOne(ctx, rep); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("report for %s: %w", rep.ContractNumber, banquet.ErrExists)
		}
		return fmt.Errorf("cannot create report: %w", err)
	}
	return nil
}

func (r *ReportRepo) Get(ctx context.Context, id uuid.UUID) (*banquet.Report, error) {
	return mongodb.FindOne[banquet.Report](ctx, r.collection, bson.M{"_id": id}, "report")
}

func (r *ReportRepo) GetByContract(ctx context.Context, contractID uuid.UUID) (*banquet.Report, error) {
	return mongodb.FindOne[banquet.Report](ctx, r.collection, bson.M{"contract_id": contractID}, "report")
}

// ReportFilter translates a report filter into a Mongo query. Search matches
// the event name and both numbers, case-insensitively.
func ReportFilter(f banquet.ReportFilter) bson.M {
	filter := bson.M{}
	dateRange(filter, "event_date", "", f.From, f.To)
	if f.MaitreHotelID != "" {
		filter["maitre_hotel_id"] = f.MaitreHotelID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"event_name": mongodb.Contains(f.Search)},
			bson.M{"report_number": mongodb.Contains(f.Search)},
			bson.M{"contract_number": mongodb.Contains(f.Search)},
		}
	}
	return filter
}

func (r *ReportRepo) List(ctx context.Context, f banquet.ReportFilter) ([]*banquet.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return mongodb.FindMany[banquet.Report](ctx, r.collection, ReportFilter(f), opts, "reports")
}

func (r *ReportRepo) Save(ctx context.Context, rep *banquet.Report) error {
	return replace(ctx, r.collection, rep.ID, rep, "report")
}

type NotificationRepo struct {
	collection *mongo.Collection
}

func (r *NotificationRepo) Create(ctx context.Context, n *banquet.Notification) error {
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("cannot create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) List(ctx context.Context, recipientID string, limit int) ([]*banquet.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return mongodb.FindMany[banquet.Notification](ctx, r.collection, bson.M{"recipient_id": recipientID}, opts, "notifications")
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	filter := bson.M{"recipient_id": recipientID, "is_read": false}
	result, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true, "read_at": now()}})
	if err != nil {
		return 0, fmt.Errorf("cannot mark notifications read: %w", err)
	}
	return result.ModifiedCount, nil
}

// Indexes lists the indexes the banquet collections rely on.
func Indexes() []mongodb.Index {
	return []mongodb.Index{
		{Collection: contractsCollection, Keys: bson.D{{Key: "number", Value: 1}}, Unique: true},
		{Collection: contractsCollection, Keys: bson.D{{Key: "maitre_hotel_id", Value: 1}, {Key: "date", Value: 1}}},
		{Collection: timelineCollection, Keys: bson.D{{Key: "contract_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Collection: photosCollection, Keys: bson.D{{Key: "contract_id", Value: 1}}},
		{Collection: reportsCollection, Keys: bson.D{{Key: "contract_id", Value: 1}}, Unique: true},
		{Collection: reportsCollection, Keys: bson.D{{Key: "report_number", Value: 1}}, Unique: true},
		{Collection: notificationsCollection, Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
}
