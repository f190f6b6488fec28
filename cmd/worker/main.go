package main

import (
	"time"

	"go.uber.org/zap"

	contracts "projecttracker/contracts/mq"
	"projecttracker/internal/config"
	"projecttracker/internal/db"
	"projecttracker/internal/mqhandler"
	redisclient "projecttracker/internal/redis"
	"projecttracker/internal/repository"
	"projecttracker/pkg/logger"
	"projecttracker/pkg/mq"
	"projecttracker/pkg/util"
)

func main() {
	// Load config
	cfg := config.Load()

	zlog := logger.NewLogger()
	defer zlog.Sync()

	zlog.Info("Starting delivery worker...")

	// Init Redis
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduperWithLogger(rdb, time.Hour, zlog)
	retryCounter := util.NewRetryCounter(rdb, time.Hour)

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	zlog.Info("Database connection established")

	deliveryRepo := repository.NewDeliveryRepository(dbConn, zlog)

	// Publisher for notification.sent announcements and the DLQ
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		zlog.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	if err := publisher.SetupDLQ(contracts.RoutingKeyNotificationCreated); err != nil {
		zlog.Fatal("failed to declare DLQ", zap.Error(err))
	}

	deliveryHandler := mqhandler.NewNotificationCreatedHandler(deliveryRepo, deduper, retryCounter, publisher, zlog)

	zlog.Info("Initializing delivery consumer", zap.String("queue", "notification.created.deliver.q"))
	consumer, err := mq.NewConsumer(cfg.MQ.URL, "notification.created.deliver.q", contracts.RoutingKeyNotificationCreated, zlog)
	if err != nil {
		zlog.Fatal("failed to init delivery consumer", zap.Error(err))
	}
	consumer.SetHandler(deliveryHandler.HandleNotificationCreated)
	defer consumer.Close()

	zlog.Info("Delivery consumer started, worker is ready to process messages")

	if err := consumer.StartConsuming(); err != nil {
		zlog.Fatal("delivery consumer failed", zap.Error(err))
	}
}
