package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrMissing is returned by Replace when no document has the id.
	ErrMissing = errors.New("document not found")
	// ErrConflict is returned by ReplaceVersioned when the stored version moved on.
	ErrConflict = errors.New("document changed concurrently")
)

// FindOne decodes the first match, nil when nothing matches.
func FindOne[T any](ctx context.Context, c *mongo.Collection, filter bson.M, what string) (*T, error) {
	var v T
	if err := c.FindOne(ctx, filter).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get %s: %w", what, err)
	}
	return &v, nil
}

func FindMany[T any](ctx context.Context, c *mongo.Collection, filter bson.M, opts *options.FindOptions, what string) ([]*T, error) {
	if opts == nil {
		opts = options.Find()
	}
	cursor, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list %s: %w", what, err)
	}
	defer cursor.Close(ctx)

	out := []*T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", what, err)
	}
	return out, nil
}

// Replace overwrites the fields of the document with id.
func Replace(ctx context.Context, c *mongo.Collection, id uuid.UUID, v interface{}, what string) error {
	result, err := c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": v})
	if err != nil {
		return fmt.Errorf("cannot update %s: %w", what, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", what, ErrMissing)
	}
	return nil
}

// VersionFilter matches id at version. Version 0 also matches documents written
// before they carried a version.
func VersionFilter(id uuid.UUID, version int64) bson.M {
	if version == 0 {
		return bson.M{"_id": id, "version": bson.M{"$in": bson.A{int64(0), nil}}}
	}
	return bson.M{"_id": id, "version": version}
}

// ReplaceVersioned writes v over the document only while it is still at version.
// v must already carry the next version.
func ReplaceVersioned(ctx context.Context, c *mongo.Collection, id uuid.UUID, version int64, v interface{}, what string) error {
	result, err := c.UpdateOne(ctx, VersionFilter(id, version), bson.M{"$set": v})
	if err != nil {
		return fmt.Errorf("cannot update %s: %w", what, err)
	}
	if result.MatchedCount > 0 {
		return nil
	}
	n, err := c.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot count %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrMissing)
	}
	return fmt.Errorf("%s: %w", what, ErrConflict)
}

// NextSequence increments and returns the named counter, starting at 1.
func NextSequence(ctx context.Context, c *mongo.Collection, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := c.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("cannot increment counter %s: %w", name, err)
	}
	return doc.Seq, nil
}
