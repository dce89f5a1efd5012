package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/joho/godotenv"

	"github.com/appetiteclub/catering/pkg"
	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/pkg/mq"
	"github.com/appetiteclub/catering/pkg/schedule"
	"github.com/appetiteclub/catering/services/order/internal/analytics"
	"github.com/appetiteclub/catering/services/order/internal/mongo"
	"github.com/appetiteclub/catering/services/order/internal/order"
	"github.com/appetiteclub/catering/services/order/internal/postgres"
)

const (
	appNamespace = "ORDER"
	appName      = "order"
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

	store := mongodb.NewStore(config, "catering_order", logger)
	if err := store.Start(ctx); err != nil {
		log.Fatalf("%s(%s) cannot start store: %v", appName, appVersion, err)
	}
	db := store.Database()

	if err := mongodb.EnsureIndexes(ctx, db, mongo.Indexes()...); err != nil {
		log.Fatalf("%s(%s) cannot ensure indexes: %v", appName, appVersion, err)
	}

	analyticsStore := postgres.StoreFromConfig(config, logger)
	if err := analyticsStore.Start(ctx); err != nil {
		log.Fatalf("%s(%s) cannot start analytics store: %v", appName, appVersion, err)
	}

	issuer, err := auth.TokenIssuerFromConfig(config)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup tokens: %v", appName, appVersion, err)
	}

	natsURL := pkg.NATSURL(config)

	// Order events go through the durable stream so kitchen and delivery never miss a confirmation.
	stream, err := pkg.NewNATSStream(ctx, pkg.OrderStreamConfig(natsURL, ""), logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup order stream: %v", appName, appVersion, err)
	}

	sub, err := pkg.NewNATSSubscriber(natsURL, appName, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	mailQueue, mailPublisher, err := mq.MailQueueFromConfig(config, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to mail broker: %v", appName, appVersion, err)
	}

	orderRepo := mongo.NewOrderRepo(db)
	orderService := order.NewService(orderRepo, stream, mailQueue, config.GetStringOrDef("site.url", "http://localhost:8080"), logger)
	analyticsService := analytics.NewService(analyticsStore, orderRepo, logger)
	kitchenSub := order.NewKitchenSubscriber(sub, orderService, logger)

	adminEmail := config.GetStringOrDef("mail.admin", "admin@catering.local")
	jobs := schedule.New(logger,
		schedule.Job{Name: "daily-analytics", Hour: 0, Minute: 5, Run: analyticsService.ComputeYesterday},
		schedule.Job{Name: "trending-products", Hour: 3, Run: func(ctx context.Context) error {
			_, err := analyticsService.ComputeTrending(ctx)
			return err
		}},
		schedule.Job{Name: "order-reminders", Hour: 18, Run: orderService.SendReminders},
		schedule.Job{Name: "weekly-report", Hour: 9, Weekday: schedule.Weekly(time.Monday), Run: func(ctx context.Context) error {
			return orderService.SendWeeklyReport(ctx, adminEmail)
		}},
	)

	lifecycle := []interface{}{
		apt.LifecycleHooks{OnStop: store.Stop},
		apt.LifecycleHooks{OnStop: analyticsStore.Stop},
		stream,
		sub,
		kitchenSub,
		jobs,
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
		apt.WithHTTPServerModules("web.port",
			order.NewHandler(orderService, issuer, logger),
			analytics.NewHandler(analyticsService, issuer, logger),
		),
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
