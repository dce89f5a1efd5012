package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/appetiteclub/catering/cmd/utils/internal/seeding"
	"github.com/appetiteclub/catering/pkg/orderclient"
)

// OrderWriter is the part of the order service client used to seed.
type OrderWriter interface {
	Create(ctx context.Context, req orderclient.CreateRequest) (*orderclient.Order, error)
	UpdateStatus(ctx context.Context, id, status, changedBy string) (*orderclient.Order, error)
}

// SeedDemo creates the demo orders through the order service so kitchen, delivery and
// checklist receive the usual order events. A marker in catering_order keeps it idempotent.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	orders, err := orderclient.FromConfig(config)
	if err != nil {
		return err
	}

	client, stop, err := connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer stop()

	seeds := client.Database(DBOrder).Collection("_seeds")
	count, err := seeds.CountDocuments(ctx, bson.M{"_id": seeding.SeedID})
	if err != nil {
		return fmt.Errorf("check seed status: %w", err)
	}
	if count > 0 {
		logger.Info("Demo orders already seeded, skipping", "seed", seeding.SeedID)
		return nil
	}

	plans, err := seeding.DemoOrders(time.Now())
	if err != nil {
		return err
	}

	created, err := ApplyPlans(ctx, orders, plans, logger)
	if err != nil {
		return fmt.Errorf("seed demo orders (%d created): %w", created, err)
	}

	_, err = seeds.InsertOne(ctx, bson.M{
		"_id":         seeding.SeedID,
		"description": "Demo catering orders spread over three delivery days",
		"orders":      created,
		"applied_at":  time.Now().UTC(),
	})
	if err != nil {
		logger.Error("cannot mark demo seed as applied", "error", err)
	}

	logger.Info("Demo orders seeded", "count", created)
	return nil
}

// ApplyPlans creates each planned order and walks it through its status path.
// It returns the number of orders created before the first failure.
func ApplyPlans(ctx context.Context, orders OrderWriter, plans []seeding.Plan, logger apt.Logger) (int, error) {
	created := 0
	for _, p := range plans {
		o, err := orders.Create(ctx, p.Request)
		if err != nil {
			return created, fmt.Errorf("create order for %s: %w", p.Request.Email, err)
		}
		created++

		for _, status := range p.Path {
			if _, err := orders.UpdateStatus(ctx, o.ID, status, seeding.ChangedBy); err != nil {
				return created, fmt.Errorf("move %s to %s: %w", o.Number, status, err)
			}
		}
		logger.Info("Demo order created", "number", o.Number, "status", p.FinalStatus(), "delivery_date", p.Request.DeliveryDate)
	}
	return created, nil
}
