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
	"github.com/appetiteclub/catering/services/authn/internal/authn"
)

type UserRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{collection: db.Collection("users")}
}

// Indexes lists the indexes the users collection relies on.
func Indexes() []mongodb.Index {
	return []mongodb.Index{
		{Collection: "users", Keys: bson.D{{Key: "email", Value: 1}}, Unique: true},
		{Collection: "users", Keys: bson.D{{Key: "role", Value: 1}}},
	}
}

func (r *UserRepo) Create(ctx context.Context, user *authn.User) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("cannot create user: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id uuid.UUID) (*authn.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*authn.User, error) {
	return r.findOne(ctx, bson.M{"email": authn.NormalizeEmail(email)})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*authn.User, error) {
	var u authn.User
	err := r.collection.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, f authn.UserFilter) ([]*authn.User, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Query != "" {
		pattern := mongodb.Contains(f.Query)
		filter["$or"] = bson.A{
			bson.M{"email": pattern},
			bson.M{"first_name": pattern},
			bson.M{"last_name": pattern},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list users: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*authn.User
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode users: %w", err)
	}
	return result, nil
}

func (r *UserRepo) Save(ctx context.Context, user *authn.User) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": user})
	if err != nil {
		return fmt.Errorf("cannot update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}
