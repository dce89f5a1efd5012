package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/joho/godotenv"

	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/services/media/internal/media"
	"github.com/appetiteclub/catering/services/media/internal/mongo"
	"github.com/appetiteclub/catering/services/media/internal/storage"
)

const (
	appNamespace = "MEDIA"
	appName      = "media"
	appVersion   = "0.1.0"
)

func main() {
	_ = godotenv.Load()

	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	backend, err := storage.SettingsFromConfig(config).Open()
	if err != nil {
		log.Fatalf("%s(%s) cannot configure storage backend: %v", appName, appVersion, err)
	}

	store := mongodb.NewStore(config, "catering_media", logger)
	if err := store.Start(ctx); err != nil {
		log.Fatalf("%s(%s) cannot start store: %v", appName, appVersion, err)
	}
	if err := mongodb.EnsureIndexes(ctx, store.Database(), mongo.Indexes()...); err != nil {
		log.Fatalf("%s(%s) cannot ensure indexes: %v", appName, appVersion, err)
	}

	publicURL := config.GetStringOrDef("media.public_url", "http://localhost:8088")
	service := media.NewService(mongo.NewObjectRepo(store.Database()), backend, publicURL, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	ms := apt.NewMicro(
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", media.NewHandler(service, logger)),
		apt.WithLifecycle(apt.LifecycleHooks{OnStop: store.Stop}),
		apt.WithHealthChecks(appName),
	)

	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
