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

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/mediaclient"
	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/pkg/orderclient"
	"github.com/appetiteclub/catering/pkg/userclient"
	"github.com/appetiteclub/catering/services/banquet/internal/banquet"
	"github.com/appetiteclub/catering/services/banquet/internal/mongo"
)

const (
	appNamespace = "BANQUET"
	appName      = "banquet"
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

	store := mongodb.NewStore(config, "catering_banquet", logger)
	if err := store.Start(ctx); err != nil {
		log.Fatalf("%s(%s) cannot start store: %v", appName, appVersion, err)
	}
	db := store.Database()

	if err := mongodb.EnsureIndexes(ctx, db, mongo.Indexes()...); err != nil {
		log.Fatalf("%s(%s) cannot ensure indexes: %v", appName, appVersion, err)
	}

	issuer, err := auth.TokenIssuerFromConfig(config)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup tokens: %v", appName, appVersion, err)
	}

	orders, err := orderclient.FromConfig(config)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup order client: %v", appName, appVersion, err)
	}
	media, err := mediaclient.FromConfig(config)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup media client: %v", appName, appVersion, err)
	}
	users, err := userclient.FromConfig(config)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup user client: %v", appName, appVersion, err)
	}

	service := banquet.NewService(mongo.NewRepos(db), banquet.Deps{
		Orders: orders,
		Media:  media,
		Users:  users,
		Logger: logger,
	})

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", banquet.NewHandler(service, issuer, logger)),
		apt.WithLifecycle(apt.LifecycleHooks{OnStop: store.Stop}),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
