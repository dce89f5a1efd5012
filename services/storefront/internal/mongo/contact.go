package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/services/storefront/internal/contact"
)

const contactCollection = "contact_submissions"

type ContactRepo struct {
	collection *mongo.Collection
}

func NewContactRepo(db *mongo.Database) *ContactRepo {
	return &ContactRepo{collection: db.Collection(contactCollection)}
}

func (r *ContactRepo) Create(ctx context.Context, s *contact.Submission) error {
	if _, err := r.collection.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("cannot store contact submission: %w", err)
	}
	return nil
}

func (r *ContactRepo) Get(ctx context.Context, id uuid.UUID) (*contact.Submission, error) {
	return mongodb.FindOne[contact.Submission](ctx, r.collection, bson.M{"_id": id}, "contact submission")
}

func (r *ContactRepo) List(ctx context.Context, unreadOnly bool) ([]*contact.Submission, error) {
	filter := bson.M{}
	if unreadOnly {
		filter["is_read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return mongodb.FindMany[contact.Submission](ctx, r.collection, filter, opts, "contact submissions")
}

func (r *ContactRepo) Save(ctx context.Context, s *contact.Submission) error {
	return mongodb.Replace(ctx, r.collection, s.ID, s, "contact submission")
}
