// Package mongodb holds the Mongo connection lifecycle shared by the services.
package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultURL = "mongodb://localhost:27017"

type Store struct {
	client        *mongo.Client
	db            *mongo.Database
	defaultDBName string
	logger        apt.Logger
	config        *apt.Config
}

func NewStore(config *apt.Config, defaultDBName string, logger apt.Logger) *Store {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Store{
		defaultDBName: defaultDBName,
		logger:        logger,
		config:        config,
	}
}

func (s *Store) Start(ctx context.Context) error {
	connString := s.config.GetStringOrDef("db.mongo.url", DefaultURL)
	dbName := s.config.GetStringOrDef("db.mongo.name", s.defaultDBName)

	clientOptions := options.Client().ApplyURI(connString).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	s.client = client
	s.db = client.Database(dbName)

	s.logger.Infof("Connected to MongoDB database %s", dbName)
	return nil
}

// Stop disconnects the client. Stopping a stopped store is a no-op.
func (s *Store) Stop(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	client := s.client
	s.client, s.db = nil, nil
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
	}
	s.logger.Info("Disconnected from MongoDB")
	return nil
}

func (s *Store) Database() *mongo.Database {
	return s.db
}

// Index describes an index to ensure on startup.
type Index struct {
	Collection string
	Keys       bson.D
	Unique     bool
	Partial    bson.M
}

// EnsureIndexes creates the given indexes, existing ones are left untouched.
func EnsureIndexes(ctx context.Context, db *mongo.Database, indexes ...Index) error {
	for _, idx := range indexes {
		opts := options.Index()
		if idx.Unique {
			opts.SetUnique(true)
		}
		if idx.Partial != nil {
			opts.SetPartialFilterExpression(idx.Partial)
		}
		model := mongo.IndexModel{Keys: idx.Keys, Options: opts}
		if _, err := db.Collection(idx.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("cannot create index on %s: %w", idx.Collection, err)
		}
	}
	return nil
}

// Paging converts page/size into find options, page is 1-based.
func Paging(page, size int) *options.FindOptions {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	return options.Find().SetSkip(int64((page - 1) * size)).SetLimit(int64(size))
}

// Contains matches documents whose field contains q, case-insensitive.
func Contains(q string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
}
