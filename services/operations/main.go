package main

import (
	"context"
	"embed"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/joho/godotenv"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/deliverystream"
	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/services/operations/internal/deliveryfeed"
	"github.com/appetiteclub/catering/services/operations/internal/mongo"
	"github.com/appetiteclub/catering/services/operations/internal/operations"
)

//go:embed assets
var assetsFS embed.FS

const (
	appNamespace = "OPERATIONS"
	appName      = "operations"
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

	store := mongodb.NewStore(config, "catering_operations", logger)
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

	backend, err := operations.HTTPBackendFromConfig(config)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup service clients: %v", appName, appVersion, err)
	}

	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		log.Fatalf("%s(%s) cannot open assets: %v", appName, appVersion, err)
	}
	renderer, err := operations.NewRenderer(assets)
	if err != nil {
		log.Fatalf("%s(%s) cannot load templates: %v", appName, appVersion, err)
	}

	sessionTTL, err := time.ParseDuration(config.GetStringOrDef("auth.session.ttl", "8h"))
	if err != nil {
		log.Fatalf("%s(%s) invalid auth.session.ttl: %v", appName, appVersion, err)
	}
	sessions := operations.NewSessionStore(sessionTTL)

	grpcAddr := config.GetStringOrDef("services.delivery.grpc_addr", "localhost:9090")
	conn, err := deliverystream.Dial(grpcAddr)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup delivery stream: %v", appName, appVersion, err)
	}
	feed := deliveryfeed.NewFeed(deliveryfeed.GRPCSubscriber(conn), logger)

	handler := operations.NewHandler(operations.Deps{
		Backend:      backend,
		Issuer:       issuer,
		Sessions:     sessions,
		Audit:        operations.NewAuditLogger(mongo.NewAuditRepo(db), logger),
		Renderer:     renderer,
		Stream:       deliveryfeed.NewSSE(feed),
		Logger:       logger,
		CookieName:   config.GetStringOrDef("auth.session.name", operations.DefaultCookieName),
		SecureCookie: config.GetStringOrDef("auth.session.secure", "false") == "true",
	})

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	lifecycle := []interface{}{
		apt.LifecycleHooks{OnStop: store.Stop},
		sessions,
		feed,
		apt.LifecycleHooks{OnStop: func(context.Context) error { return conn.Close() }},
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
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
