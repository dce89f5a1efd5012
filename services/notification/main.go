package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/joho/godotenv"

	"github.com/appetiteclub/catering/pkg/mq"
	"github.com/appetiteclub/catering/services/notification/internal/mailer"
	"github.com/appetiteclub/catering/services/notification/internal/notification"
)

const (
	appNamespace = "NOTIFICATION"
	appName      = "notification"
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

	rabbitURL, ok := config.GetString("rabbitmq.url")
	if !ok || rabbitURL == "" {
		log.Fatalf("%s(%s) rabbitmq.url is required", appName, appVersion)
	}
	workers, err := strconv.Atoi(config.GetStringOrDef("mail.workers", strconv.Itoa(notification.DefaultWorkers)))
	if err != nil {
		log.Fatalf("%s(%s) invalid mail.workers: %v", appName, appVersion, err)
	}

	consumer, err := mq.NewConsumer(
		rabbitURL,
		config.GetStringOrDef("rabbitmq.exchange", mq.DefaultExchange),
		config.GetStringOrDef("rabbitmq.queue", "notification.mail"),
		[]string{"mail.*"},
		workers*2,
	)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to mail broker: %v", appName, appVersion, err)
	}

	sender, err := mailer.SenderFromConfig(config, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup smtp: %v", appName, appVersion, err)
	}

	composer := notification.NewComposer(
		config.GetStringOrDef("mail.from", "Catering <noreply@catering.local>"),
		config.GetStringOrDef("site.url", "http://localhost:8080"),
	)
	stats := notification.NewStats()
	pool := notification.NewPool(consumer, composer, sender, workers, stats, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	ms := apt.NewMicro(
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", notification.NewHandler(stats)),
		apt.WithLifecycle(pool),
		apt.WithHealthChecks(appName),
	)

	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
