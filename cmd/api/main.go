package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"projecttracker/internal/api"
	"projecttracker/internal/config"
	"projecttracker/internal/db"
	"projecttracker/internal/httpserver"
	"projecttracker/internal/repository"
	"projecttracker/internal/service"
	"projecttracker/pkg/logger"
	"projecttracker/pkg/mq"
	"projecttracker/pkg/outbox"
)

func main() {
	// Load config
	cfg := config.Load()

	zlog := logger.NewLogger()
	defer zlog.Sync()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init RabbitMQ publisher for the outbox dispatcher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}
	defer publisher.Close()

	// Init Repositories
	userRepo := repository.NewUserRepository(dbConn, zlog)
	employeeRepo := repository.NewEmployeeRepository(dbConn, zlog)
	projectRepo := repository.NewProjectRepository(dbConn, zlog)
	milestoneRepo := repository.NewMilestoneRepository(dbConn, zlog)
	familyRepo := repository.NewFamilyRepository(dbConn, zlog)
	reportRepo := repository.NewReportRepository(dbConn, zlog)
	messageRepo := repository.NewMessageRepository(dbConn, zlog)
	watcherRepo := repository.NewWatcherRepository(dbConn, zlog)
	deliveryRepo := repository.NewDeliveryRepository(dbConn, zlog)
	outboxRepo := outbox.NewRepository(dbConn)

	// Init Services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, zlog)
	directory := service.NewDirectory(employeeRepo, zlog)
	notifier := service.NewNotificationEngine(directory, watcherRepo, messageRepo, outboxRepo, zlog)
	tracker := service.NewMilestoneTracker(projectRepo, milestoneRepo, employeeRepo, notifier.HandleTransition, zlog)
	families := service.NewFamilyManager(familyRepo, projectRepo, zlog)
	fulfillment := service.NewFulfillmentResolver(milestoneRepo, families, reportRepo, zlog)
	projectService := service.NewProjectService(projectRepo, watcherRepo, zlog)
	reportService := service.NewReportService(reportRepo, milestoneRepo, zlog)
	catalog := service.NewCatalogService(milestoneRepo, zlog)

	// Init Handlers
	authHandler := api.NewAuthHandler(authService)
	employeeHandler := api.NewEmployeeHandler(employeeRepo, directory)
	projectHandler := api.NewProjectHandler(projectService, tracker, authService)
	lifecycleHandler := api.NewLifecycleHandler(tracker, authService)
	sisterHandler := api.NewSisterHandler(families)
	messageHandler := api.NewMessageHandler(notifier, authService, deliveryRepo)
	reportHandler := api.NewReportHandler(reportService, fulfillment)
	catalogHandler := api.NewCatalogHandler(catalog)
	adminHandler := api.NewAdminHandler(outboxRepo)

	// Outbox dispatcher pushes committed notification events to MQ
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, zlog)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Start(ctx)

	// Router
	router := httpserver.NewRouter(
		authHandler,
		employeeHandler,
		projectHandler,
		lifecycleHandler,
		sisterHandler,
		messageHandler,
		reportHandler,
		catalogHandler,
		adminHandler,
		cfg.JWT.Secret,
		dbConn,
	)

	// Start API server
	if err := router.Run(cfg.Server.Port); err != nil {
		zlog.Fatal("server start failed", zap.Error(err))
	}
}
