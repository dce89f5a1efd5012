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

	"github.com/appetiteclub/catering/pkg"
	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/mediaclient"
	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/pkg/mq"
	"github.com/appetiteclub/catering/pkg/orderclient"
	"github.com/appetiteclub/catering/pkg/userclient"
	"github.com/appetiteclub/catering/services/delivery/internal/delivery"
	"github.com/appetiteclub/catering/services/delivery/internal/events"
	"github.com/appetiteclub/catering/services/delivery/internal/mongo"
)

const (
	appNamespace = "DELIVERY"
	appName      = "delivery"
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

	store := mongodb.NewStore(config, "catering_delivery", logger)
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

	natsURL := pkg.NATSURL(config)

	streamCfg := pkg.OrderStreamConfig(natsURL, appName)
	streamCfg.FilterTopic = event.OrdersStatusChangedTopic
	stream, err := pkg.NewNATSStream(ctx, streamCfg, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup order stream: %v", appName, appVersion, err)
	}

	publisher, err := pkg.NewNATSPublisher(natsURL, appName)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}
	sub, err := pkg.NewNATSSubscriber(natsURL, appName, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	mailQueue, mailPublisher, err := mq.MailQueueFromConfig(config, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to mail broker: %v", appName, appVersion, err)
	}

	eventStream := delivery.NewEventStreamServer(logger)
	service := delivery.NewService(mongo.NewRepos(db), delivery.Deps{
		Orders:    orders,
		Media:     media,
		Users:     users,
		Publisher: publisher,
		Mail:      mailQueue,
		Stream:    eventStream,
		Logger:    logger,
	})
	orderSub := events.NewOrderSubscriber(stream, service, logger)
	checklistSub := events.NewChecklistSubscriber(sub, service, logger)

	lifecycle := []interface{}{
		apt.LifecycleHooks{OnStop: store.Stop},
		stream,
		publisher,
		sub,
		orderSub,
		checklistSub,
	}
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
		apt.WithHTTPServerModules("web.port", delivery.NewHandler(service, issuer, logger)),
		apt.WithGRPCServerModules("grpc.port", eventStream),
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
