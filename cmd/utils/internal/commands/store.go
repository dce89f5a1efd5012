// Package commands implements the catering-utils subcommands.
package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/appetiteclub/catering/pkg/mongodb"
)

const (
	DBAuthn      = "catering_authn"
	DBStorefront = "catering_storefront"
	DBOrder      = "catering_order"
	DBKitchen    = "catering_kitchen"
	DBDelivery   = "catering_delivery"
	DBBanquet    = "catering_banquet"
	DBChecklist  = "catering_checklist"
	DBMedia      = "catering_media"
	DBOperations = "catering_operations"
)

var allDatabases = []string{
	DBAuthn,
	DBStorefront,
	DBOrder,
	DBKitchen,
	DBDelivery,
	DBBanquet,
	DBChecklist,
	DBMedia,
	DBOperations,
}

// Databases lists every database owned by the catering services.
func Databases() []string {
	out := make([]string, len(allDatabases))
	copy(out, allDatabases)
	return out
}

// connect opens the shared Mongo deployment through the service store so db.mongo.url
// resolves the same way it does for the services.
func connect(ctx context.Context, config *apt.Config, logger apt.Logger) (*mongo.Client, func(), error) {
	store := mongodb.NewStore(config, DBOrder, logger)
	if err := store.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	stop := func() {
		if err := store.Stop(context.Background()); err != nil {
			logger.Error("cannot close mongodb connection", "error", err)
		}
	}
	return store.Database().Client(), stop, nil
}
