package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/deskline/helpdesk-service/internal/api/http"
	"github.com/deskline/helpdesk-service/internal/api/http/handlers"
	"github.com/deskline/helpdesk-service/internal/auth"
	"github.com/deskline/helpdesk-service/internal/config"
	"github.com/deskline/helpdesk-service/internal/events"
	"github.com/deskline/helpdesk-service/internal/notify"
	"github.com/deskline/helpdesk-service/internal/observability"
	"github.com/deskline/helpdesk-service/internal/persistence"
	"github.com/deskline/helpdesk-service/internal/repository"
	"github.com/deskline/helpdesk-service/internal/service"
	"github.com/deskline/helpdesk-service/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server",
	Long:  `Start the HTTP API and the notification workers`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		return serve(cmd.Context(), cfg, logger)
	},
}

func serve(parent context.Context, cfg *config.Config, logger *zap.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	db, err := persistence.OpenDatabase(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect postgres", zap.Error(err))
		return err
	}
	defer db.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, db.Pool(), logger); err != nil {
			logger.Error("failed to run migrations", zap.Error(err))
			return err
		}
	}

	bus := persistence.OpenEventBus(ctx, cfg.Redis, logger)
	defer bus.Close()

	pool := db.Pool()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)

	queue := events.NewQueueDispatcher(cfg.Notification.QueueSize, logger)
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:  queue,
		UserRepo:    userRepo,
		Mailer:      newMailer(cfg.Notification, logger),
		Broadcaster: notify.NewRedisBroadcaster(bus.Client(), bus.Channel()),
		Logger:      logger,
	})
	notificationWorker := worker.StartNotificationWorker(ctx, notificationService, queue, cfg.Notification.Workers, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{UserRepo: userRepo})
	directoryService := service.NewDirectoryService(userRepo, cfg.Auth.BcryptCost)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		UserRepo:    userRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  queue,
	})

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ErrorHandler:          httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		PathPrefix: cfg.App.PathPrefix,
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, map[string]handlers.Pinger{
			"postgres": db,
			"redis":    bus,
		}),
		Users:          handlers.NewUsersHandler(authService, directoryService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AdminTickets:   handlers.NewAdminTicketsHandler(ticketService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("prefix", cfg.App.PathPrefix))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	var runErr error
	select {
	case sig := <-waitForShutdown():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case runErr = <-listenErr:
		logger.Error("fiber listen", zap.Error(runErr))
	case <-ctx.Done():
	}

	if err := app.ShutdownWithTimeout(cfg.App.ShutdownTimeout()); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout())
	defer drainCancel()
	if err := notificationWorker.Stop(drainCtx); err != nil {
		logger.Warn("notification queue not drained", zap.Error(err))
	}
	return runErr
}

func newMailer(cfg config.NotificationConfig, logger *zap.Logger) notify.Mailer {
	if !cfg.SMTPConfigured() {
		logger.Info("smtp not configured; notifications are logged only")
		return notify.NewLogMailer(logger)
	}
	return notify.NewSMTPMailer(cfg)
}

func waitForShutdown() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
