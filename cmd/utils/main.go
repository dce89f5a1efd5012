package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/apt"
	"github.com/joho/godotenv"

	"github.com/appetiteclub/catering/cmd/utils/internal/commands"
)

const (
	appName    = "catering-utils"
	appVersion = "0.1.0"
)

type command struct {
	run  func(context.Context, *apt.Config, apt.Logger) error
	done string
}

var commandSet = map[string]command{
	"seed-demo":  {run: commands.SeedDemo, done: "Demo seeding completed"},
	"clear-demo": {run: commands.ClearDemo, done: "Demo data cleared"},
	"reset-db":   {run: commands.ResetDB, done: "Database reset completed"},
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name := os.Args[1]
	switch name {
	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cmd, ok := commandSet[name]
	if !ok {
		fmt.Printf("Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	config, err := apt.LoadConfig("UTILS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logger := apt.NewLogger(config.GetStringOrDef("log.level", "info"))

	if err := cmd.run(context.Background(), config, logger); err != nil {
		logger.Error("command failed", "command", name, "error", err)
		os.Exit(1)
	}
	logger.Info(cmd.done, "command", name)
}

func printUsage() {
	fmt.Printf(`%s - catering maintenance commands

Usage:
  %s <command> [options]

Commands:
  seed-demo    Create demo orders through the order service
  clear-demo   Remove demo orders with their kitchen, delivery and checklist documents
  reset-db     Drop every catering database and truncate the analytics tables (USE WITH CAUTION)
  version      Print version information
  help         Show this help message

Environment Variables:
  UTILS_DB_MONGO_URL          MongoDB connection URL (default: mongodb://localhost:27017)
  UTILS_DB_POSTGRES_DSN       Postgres DSN for the order analytics tables (optional)
  UTILS_SERVICES_ORDER_URL    Order service base URL, required by seed-demo
  UTILS_LOG_LEVEL             Log level: debug, info, error (default: info)

Examples:
  UTILS_SERVICES_ORDER_URL=http://localhost:8083 %s seed-demo
  %s clear-demo
  UTILS_DB_MONGO_URL=mongodb://localhost:27017 %s reset-db

`, appName, appName, appName, appName, appName)
}
