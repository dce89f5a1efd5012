package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/appetiteclub/catering/cmd/utils/internal/seeding"
	"github.com/appetiteclub/catering/pkg/mongodb"
)

// derived names the documents other services create from an order, keyed by order_id.
type derived struct {
	database   string
	collection string
}

var derivedCollections = []derived{
	{database: DBKitchen, collection: "production_items"},
	{database: DBDelivery, collection: "deliveries"},
	{database: DBChecklist, collection: "order_checklists"},
}

type demoOrder struct {
	ID     uuid.UUID `bson:"_id"`
	Number string    `bson:"number"`
}

// DemoOrderFilter selects the orders placed with a demo address.
func DemoOrderFilter() bson.M {
	return bson.M{"email": primitive.Regex{Pattern: seeding.DemoEmailPattern(), Options: "i"}}
}

// ClearDemo removes the demo orders and everything derived from them, then drops the
// seed marker so seed-demo can run again.
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	client, stop, err := connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer stop()

	orderDB := client.Database(DBOrder)
	orders, err := mongodb.FindMany[demoOrder](ctx, orderDB.Collection("orders"), DemoOrderFilter(), nil, "demo orders")
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		logger.Info("No demo orders found")
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID.String())
		logger.Debug("Demo order found", "number", o.Number)
	}

	if len(ids) > 0 {
		for _, d := range derivedCollections {
			if err := deleteByOrder(ctx, client, d, ids, logger); err != nil {
				return err
			}
		}

		res, err := orderDB.Collection("orders").DeleteMany(ctx, DemoOrderFilter())
		if err != nil {
			return fmt.Errorf("delete demo orders: %w", err)
		}
		logger.Info("Demo orders deleted", "count", res.DeletedCount)
	}

	if _, err := orderDB.Collection("_seeds").DeleteOne(ctx, bson.M{"_id": seeding.SeedID}); err != nil {
		return fmt.Errorf("delete seed marker: %w", err)
	}
	return nil
}

func deleteByOrder(ctx context.Context, client *mongo.Client, d derived, ids []string, logger apt.Logger) error {
	res, err := client.Database(d.database).Collection(d.collection).DeleteMany(ctx, bson.M{"order_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("delete demo %s.%s: %w", d.database, d.collection, err)
	}
	logger.Info("Derived demo documents deleted", "database", d.database, "collection", d.collection, "count", res.DeletedCount)
	return nil
}
