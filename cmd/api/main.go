package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/campus-helpdesk/internal/api/http"
	"github.com/spec-kit/campus-helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/campus-helpdesk/internal/auth"
	"github.com/spec-kit/campus-helpdesk/internal/config"
	"github.com/spec-kit/campus-helpdesk/internal/events"
	"github.com/spec-kit/campus-helpdesk/internal/mail"
	"github.com/spec-kit/campus-helpdesk/internal/observability"
	"github.com/spec-kit/campus-helpdesk/internal/persistence"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
	"github.com/spec-kit/campus-helpdesk/internal/service"
	"github.com/spec-kit/campus-helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	broker := events.NewBroker(cfg.Notify.SubscriberBufferSize)
	defer broker.Close()

	mailer := mail.NewSMTPMailer(cfg.SMTP)
	dispatcher := worker.NewDispatcher(cfg.Notify.QueueSize, userRepo, notificationRepo, mailer, logger, cfg.App.BaseURL)
	go dispatcher.Run(ctx)

	authService := service.NewAuthService(*cfg, userRepo, redis.Client, logger)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		ActivityRepo: activityRepo,
		UserRepo:     userRepo,
		Notifier:     dispatcher,
		Broker:       broker,
		Logger:       logger,
	})
	activityService := service.NewActivityService(service.ActivityDependencies{
		TicketRepo:   ticketRepo,
		ActivityRepo: activityRepo,
		UserRepo:     userRepo,
		Notifier:     dispatcher,
		Broker:       broker,
	})
	userService := service.NewUserService(service.UserDependencies{
		Users:    userRepo,
		Notifier: dispatcher,
		Broker:   broker,
		Logger:   logger,
	})

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Activities:     handlers.NewActivitiesHandler(activityService),
		Users:          handlers.NewUsersHandler(userService),
		Notifications:  handlers.NewNotificationsHandler(notificationRepo),
		Events:         handlers.NewEventsHandler(broker, cfg.Notify.KeepAlive(), logger),
		Catalog:        handlers.NewCatalogHandler(),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
