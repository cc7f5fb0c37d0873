package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/queue-service/internal/api/http"
	"github.com/spec-kit/queue-service/internal/api/http/handlers"
	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/config"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/observability"
	"github.com/spec-kit/queue-service/internal/persistence"
	"github.com/spec-kit/queue-service/internal/repository"
	"github.com/spec-kit/queue-service/internal/seed"
	"github.com/spec-kit/queue-service/internal/service"
	"github.com/spec-kit/queue-service/internal/worker"
)

type repositories struct {
	sectors   repository.SectorRepository
	tickets   repository.TicketRepository
	users     repository.UserRepository
	sequences repository.SequenceRepository
}

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	sectorsFile := pflag.String("sectors", "", "YAML file with the sectors to seed an empty registry (overrides QUEUE_SECTORS_FILE)")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *sectorsFile != "" {
		cfg.Queue.SectorsFile = *sectorsFile
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing := observability.SetupTracing(ctx, cfg.App.Name, cfg.Telemetry, logger)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.PoolHandle() != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(cfg, pg, redis)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	sectorService := service.NewSectorService(service.SectorDependencies{
		SectorRepo: repos.sectors,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:    repos.tickets,
		SectorRepo:    repos.sectors,
		SequenceRepo:  repos.sequences,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
		RecentServing: cfg.Queue.RecentServing,
		RecentCalls:   cfg.Queue.RecentCalls,
	})
	reportService := service.NewReportService(service.ReportDependencies{
		TicketRepo: repos.tickets,
		SectorRepo: repos.sectors,
		UserRepo:   repos.users,
	})
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: repos.users,
		Logger:   logger,
	})

	if err := seedStores(ctx, cfg, sectorService, authService, logger); err != nil {
		logger.Fatal("failed to seed stores", zap.Error(err))
	}

	var publisher service.Publisher
	if redis != nil {
		publisher = redis
	}
	worker.StartAnnouncementWorker(service.NewAnnouncementService(dispatcher, publisher, cfg.Redis.AnnouncementsChannel, logger))

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.users)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(authService),
		Sectors:        handlers.NewSectorsHandler(sectorService),
		Kiosk:          handlers.NewKioskHandler(sectorService, ticketService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Display:        handlers.NewDisplayHandler(ticketService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.Queue.Store))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("tracer shutdown", zap.Error(err))
	}
}

func buildRepositories(cfg *config.Config, pg *persistence.Postgres, redis *persistence.Redis) repositories {
	var repos repositories
	if cfg.Queue.Store == config.StorePostgres {
		pool := pg.PoolHandle()
		repos.sectors = repository.NewSectorRepository(pool)
		repos.tickets = repository.NewTicketRepository(pool)
		repos.users = repository.NewUserRepository(pool)
	} else {
		repos.sectors = repository.NewMemorySectorRepository()
		repos.tickets = repository.NewMemoryTicketRepository()
		repos.users = repository.NewMemoryUserRepository()
	}

	switch cfg.Queue.SequenceStore {
	case config.StorePostgres:
		repos.sequences = repository.NewSequenceRepository(pg.PoolHandle())
	case config.StoreRedis:
		repos.sequences = repository.NewRedisSequenceRepository(redis.Client, cfg.Redis.SequenceKeyPrefix)
	default:
		repos.sequences = repository.NewMemorySequenceRepository()
	}
	return repos
}

func seedStores(ctx context.Context, cfg *config.Config, sectors *service.SectorService, users *service.AuthService, logger *zap.Logger) error {
	defaults := seed.DefaultSectors()
	if cfg.Queue.SectorsFile != "" {
		loaded, err := seed.LoadSectors(cfg.Queue.SectorsFile)
		if err != nil {
			return err
		}
		defaults = loaded
	}
	n, err := sectors.Seed(ctx, defaults)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info("seeded sectors", zap.Int("count", n), zap.String("file", cfg.Queue.SectorsFile))
	}

	if !cfg.Auth.SeedDemoUsers {
		return nil
	}
	inputs := make([]service.UserInput, 0, len(seed.DemoUsers()))
	for _, demo := range seed.DemoUsers() {
		inputs = append(inputs, service.UserInput{
			Name:     demo.Name,
			Email:    demo.Email,
			Role:     demo.Role,
			SectorID: demo.SectorID,
			Active:   true,
		})
	}
	n, err = users.SeedUsers(ctx, inputs)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info("seeded demo users", zap.Int("count", n))
	}
	return nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
