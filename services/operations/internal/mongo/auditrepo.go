package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/services/operations/internal/operations"
)

const auditCollection = "console_audit"

type AuditRepo struct {
	collection *mongo.Collection
}

func NewAuditRepo(db *mongo.Database) *AuditRepo {
	return &AuditRepo{collection: db.Collection(auditCollection)}
}

func (r *AuditRepo) Save(ctx context.Context, entry *operations.AuditEntry) error {
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("cannot save audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepo) Recent(ctx context.Context, limit int) ([]*operations.AuditEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	return mongodb.FindMany[operations.AuditEntry](ctx, r.collection, bson.M{}, opts, "audit entries")
}

func Indexes() []mongodb.Index {
	return []mongodb.Index{
		{Collection: auditCollection, Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Collection: auditCollection, Keys: bson.D{{Key: "email", Value: 1}, {Key: "created_at", Value: -1}}},
	}
}
