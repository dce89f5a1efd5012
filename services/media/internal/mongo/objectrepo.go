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
	"github.com/appetiteclub/catering/services/media/internal/media"
)

const objectsCollection = "objects"

type ObjectRepo struct {
	collection *mongo.Collection
}

func NewObjectRepo(db *mongo.Database) *ObjectRepo {
	return &ObjectRepo{collection: db.Collection(objectsCollection)}
}

func (r *ObjectRepo) Create(ctx context.Context, o *media.Object) error {
	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("cannot create media object: %w", err)
	}
	return nil
}

func (r *ObjectRepo) Get(ctx context.Context, id uuid.UUID) (*media.Object, error) {
	var o media.Object
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get media object: %w", err)
	}
	return &o, nil
}

func (r *ObjectRepo) ListByOwner(ctx context.Context, ownerType, ownerID string) ([]*media.Object, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_type": ownerType, "owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list media objects: %w", err)
	}
	defer cursor.Close(ctx)

	var list []*media.Object
	if err := cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("cannot decode media objects: %w", err)
	}
	return list, nil
}

func Indexes() []mongodb.Index {
	return []mongodb.Index{
		{Collection: objectsCollection, Keys: bson.D{{Key: "owner_type", Value: 1}, {Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
}
