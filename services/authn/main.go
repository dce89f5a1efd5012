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
	"github.com/joho/godotenv"

	"github.com/appetiteclub/catering/pkg"
	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/services/authn/internal/authn"
	"github.com/appetiteclub/catering/services/authn/internal/mongo"
)

//go:embed seed.yaml
var seedFS embed.FS

const (
	appNamespace = "AUTHN"
	appName      = "authn"
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

	store := mongodb.NewStore(config, "catering_authn", logger)
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

	pub, err := pkg.NewNATSPublisher(pkg.NATSURL(config), appName)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	userRepo := mongo.NewUserRepo(db)
	service := authn.NewService(userRepo, issuer, pub)

	authHandler := authn.NewAuthHandler(service, issuer, logger)
	userHandler := authn.NewUserHandler(service, issuer, logger)

	demoEnabled, _ := config.GetString("seeding.demo")
	seedHooks := apt.LifecycleHooks{
		OnStart: authn.SeedingFunc(seedCtx, service, db, seedFS, demoEnabled == "true", config, logger),
		OnStop: func(context.Context) error {
			cancelSeeds()
			return nil
		},
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", authHandler, userHandler),
		apt.WithLifecycle(apt.LifecycleHooks{OnStop: store.Stop}, pub, seedHooks),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
