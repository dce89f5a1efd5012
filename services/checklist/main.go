package main

import (
	"context"
	"embed"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/apt/seed"
	"github.com/joho/godotenv"

	"github.com/appetiteclub/catering/pkg"
	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/pkg/mq"
	"github.com/appetiteclub/catering/pkg/orderclient"
	"github.com/appetiteclub/catering/pkg/userclient"
	"github.com/appetiteclub/catering/services/checklist/internal/checklist"
	"github.com/appetiteclub/catering/services/checklist/internal/mongo"
)

//go:embed seed.yaml
var seedFS embed.FS

const (
	appNamespace = "CHECKLIST"
	appName      = "checklist"
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

	seedCtx, cancelSeeds := context.WithCancel(ctx)
	defer cancelSeeds()

	store := mongodb.NewStore(config, "catering_checklist", logger)
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
	users, err := userclient.FromConfig(config)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup user client: %v", appName, appVersion, err)
	}

	publisher, err := pkg.NewNATSPublisher(pkg.NATSURL(config), appName)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	mailQueue, mailPublisher, err := mq.MailQueueFromConfig(config, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to mail broker: %v", appName, appVersion, err)
	}

	service := checklist.NewService(mongo.NewRepos(db), checklist.Deps{
		Orders:    orders,
		Users:     users,
		Publisher: publisher,
		Mail:      mailQueue,
		SiteURL:   config.GetStringOrDef("site.url", "http://localhost:8080"),
		Logger:    logger,
	})

	seedHooks := apt.LifecycleHooks{
		OnStart: func(context.Context) error {
			return checklist.SeedInventory(seedCtx, seed.NewMongoTracker(db), service, seedFS, logger)
		},
		OnStop: func(context.Context) error {
			cancelSeeds()
			return nil
		},
	}

	lifecycle := []interface{}{apt.LifecycleHooks{OnStop: store.Stop}, publisher, seedHooks}
	if mailPublisher != nil {
		lifecycle = append(lifecycle, mailPublisher)
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", checklist.NewHandler(service, issuer, logger)),
		apt.WithLifecycle(lifecycle...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
