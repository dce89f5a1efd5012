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
	"github.com/appetiteclub/catering/pkg/schedule"
	"github.com/appetiteclub/catering/services/storefront/internal/cart"
	"github.com/appetiteclub/catering/services/storefront/internal/catalog"
	"github.com/appetiteclub/catering/services/storefront/internal/contact"
	"github.com/appetiteclub/catering/services/storefront/internal/dashboard"
	"github.com/appetiteclub/catering/services/storefront/internal/mongo"
	"github.com/appetiteclub/catering/services/storefront/internal/payments"
	"github.com/appetiteclub/catering/services/storefront/internal/pricing"
	"github.com/appetiteclub/catering/services/storefront/internal/promo"
)

//go:embed seed.yaml
var seedFS embed.FS

const (
	appNamespace = "STOREFRONT"
	appName      = "storefront"
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

	store := mongodb.NewStore(config, "catering_storefront", logger)
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

	mailQueue, mailPublisher, err := mq.MailQueueFromConfig(config, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to mail broker: %v", appName, appVersion, err)
	}

	sub, err := pkg.NewNATSSubscriber(pkg.NATSURL(config), appName, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	catalogService := catalog.NewService(mongo.NewCatalogRepos(db))
	promoService := promo.NewService(mongo.NewPromoRepo(db), mongo.NewUsageRepo(db))
	cartService := cart.NewService(mongo.NewCartRepo(db), catalogService, promoService, pricing.RulesFromConfig(config))
	checkout := cart.NewCheckout(cartService, orders, promoService, catalogService, logger)
	contactService := contact.NewService(mongo.NewContactRepo(db), mailQueue,
		config.GetStringOrDef("contact.admin_email", "admin@catering.local"))
	dashboardService := dashboard.NewService(orders, promoService, cartService)

	welcome := promo.NewWelcomeSubscriber(sub, promoService, mailQueue, logger)

	var gateway payments.Gateway
	if omise, err := payments.OmiseGatewayFromConfig(config); err != nil {
		logger.Info("card payments disabled", "reason", err.Error())
	} else {
		gateway = omise
	}
	paymentService := payments.NewService(gateway, orders, config.GetStringOrDef("payments.currency", payments.DefaultCurrency), logger)

	jobs := schedule.New(logger,
		schedule.Job{Name: "deactivate-expired-promos", Hour: 1, Run: func(ctx context.Context) error {
			n, err := promoService.DeactivateExpired(ctx)
			if err == nil && n > 0 {
				logger.Info("expired promo codes deactivated", "count", n)
			}
			return err
		}},
		schedule.Job{Name: "purge-stale-carts", Hour: 2, Run: func(ctx context.Context) error {
			n, err := cartService.PurgeStale(ctx)
			if err == nil && n > 0 {
				logger.Info("stale carts deleted", "count", n)
			}
			return err
		}},
	)

	seedHooks := apt.LifecycleHooks{
		OnStart: func(context.Context) error {
			tracker := seed.NewMongoTracker(db)
			if err := catalog.SeedCatalog(seedCtx, tracker, catalogService, seedFS, logger); err != nil {
				return err
			}
			return promo.SeedPromoCodes(seedCtx, tracker, promoService, seedFS)
		},
		OnStop: func(context.Context) error {
			cancelSeeds()
			return nil
		},
	}

	lifecycle := []interface{}{apt.LifecycleHooks{OnStop: store.Stop}, sub, welcome, jobs, seedHooks}
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
			catalog.NewHandler(catalogService, issuer, logger),
			promo.NewHandler(promoService, issuer, logger),
			cart.NewHandler(cartService, checkout, issuer, logger),
			contact.NewHandler(contactService, issuer, logger),
			dashboard.NewHandler(dashboardService, issuer, logger),
			payments.NewHandler(paymentService, issuer, logger),
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
