package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/jira-gateway/internal/api/http"
	"github.com/spec-kit/jira-gateway/internal/api/http/handlers"
	"github.com/spec-kit/jira-gateway/internal/auth"
	"github.com/spec-kit/jira-gateway/internal/config"
	"github.com/spec-kit/jira-gateway/internal/directory"
	"github.com/spec-kit/jira-gateway/internal/jira"
	"github.com/spec-kit/jira-gateway/internal/notify"
	"github.com/spec-kit/jira-gateway/internal/observability"
	"github.com/spec-kit/jira-gateway/internal/persistence"
	"github.com/spec-kit/jira-gateway/internal/ratelimit"
	"github.com/spec-kit/jira-gateway/internal/service"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var pg *persistence.Postgres
	var dir directory.Directory
	switch cfg.Directory.Driver {
	case config.DirectoryDriverPostgres:
		pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		dir = directory.NewPostgresDirectory(pg.PoolHandle())
	default:
		dir = directory.NewMemoryDirectory(cfg.Directory.APIKeys)
	}

	jiraClient := jira.NewClient(cfg.Jira, logger)
	notifier := notify.NewNotifier(cfg.Notifier, logger)
	ticketService := service.NewTicketService(jiraClient, notifier, cfg.Jira.ProjectID, logger)

	limiter := ratelimit.NewLimiter(ratelimit.NewRedisStore(redis.Client), cfg.RateLimit, logger)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis, pg),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Webhook:        handlers.NewWebhookHandler(logger),
		AuthMiddleware: auth.NewAPIKeyMiddleware(dir),
		RateLimit:      ratelimit.NewMiddleware(limiter),
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
