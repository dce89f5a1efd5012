package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/bson"
)

// analyticsTables are the order reporting tables kept in Postgres.
var analyticsTables = []string{"daily_analytics", "trending_products"}

// ResetDB drops every catering database. When db.postgres.dsn is set the order
// analytics tables are truncated as well.
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Dropping all catering databases, this cannot be undone")

	client, stop, err := connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer stop()

	failed := 0
	for _, name := range allDatabases {
		if err := client.Database(name).RunCommand(ctx, bson.D{{Key: "dropDatabase", Value: 1}}).Err(); err != nil {
			logger.Error("cannot drop database", "database", name, "error", err)
			failed++
			continue
		}
		logger.Info("Database dropped", "database", name)
	}

	if dsn, ok := config.GetString("db.postgres.dsn"); ok && dsn != "" {
		if err := truncateAnalytics(ctx, dsn, logger); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d databases could not be dropped", failed, len(allDatabases))
	}
	return nil
}

func truncateAnalytics(ctx context.Context, dsn string, logger apt.Logger) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer conn.Close(context.Background())

	for _, table := range analyticsTables {
		var exists bool
		if err := conn.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists); err != nil {
			return fmt.Errorf("look up %s: %w", table, err)
		}
		if !exists {
			logger.Info("Analytics table missing, skipped", "table", table)
			continue
		}
		if _, err := conn.Exec(ctx, "TRUNCATE TABLE "+pgx.Identifier{table}.Sanitize()); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
		logger.Info("Analytics table truncated", "table", table)
	}
	return nil
}
