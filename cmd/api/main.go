package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/triage-engine/internal/api/http"
	"github.com/spec-kit/triage-engine/internal/api/http/handlers"
	"github.com/spec-kit/triage-engine/internal/auth"
	"github.com/spec-kit/triage-engine/internal/config"
	"github.com/spec-kit/triage-engine/internal/events"
	"github.com/spec-kit/triage-engine/internal/observability"
	"github.com/spec-kit/triage-engine/internal/persistence"
	"github.com/spec-kit/triage-engine/internal/repository"
	"github.com/spec-kit/triage-engine/internal/search"
	"github.com/spec-kit/triage-engine/internal/service"
	"github.com/spec-kit/triage-engine/internal/tools"
	"github.com/spec-kit/triage-engine/internal/triage"
	"github.com/spec-kit/triage-engine/internal/worker"
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
	ticketRepo := repository.NewTicketRepository(pool)
	teamRepo := repository.NewTeamRepository(pool, logger)

	searchTimeout := time.Duration(cfg.Search.TimeoutSeconds) * time.Second
	embedder := search.NewHTTPEmbedder(cfg.Search.EmbeddingsURL, cfg.Search.EmbeddingsAPIKey, searchTimeout)
	index := search.NewRedisIndex(redis.Client, embedder, cfg.Search.IndexPrefix, cfg.Search.VectorDimensions, logger)
	if err := index.EnsureCollections(ctx); err != nil {
		logger.Warn("failed to prepare similarity collections", zap.Error(err))
	}

	retriever := triage.NewRetriever(index, logger)
	directory := triage.NewDirectory(teamRepo, cfg.Triage.TeamCacheTTL(), nil, logger)
	classifier := triage.NewClassifier(directory, triage.ClassifierConfig{
		SuccessRateThreshold: cfg.Triage.SuccessRateThreshold,
		MinTeamMatchScore:    cfg.Triage.MinTeamMatchScore,
	}, logger)

	manifest, err := tools.LoadManifest(cfg.Tools.ManifestPath)
	if err != nil {
		logger.Fatal("failed to load tool manifest", zap.Error(err))
	}
	if cfg.Tools.ProviderBaseURL != "" {
		manifest.Provider.BaseURL = cfg.Tools.ProviderBaseURL
	}
	if cfg.Tools.ProviderAPIKey != "" {
		manifest.Provider.APIKey = cfg.Tools.ProviderAPIKey
	}
	registry := tools.BuildRegistry(manifest, retriever, cfg.Triage.StepTimeout(), logger)
	executor := triage.NewExecutor(registry, cfg.Triage.StepTimeout(), logger)

	metrics := observability.NewMetrics()
	pipeline := triage.NewPipeline(retriever, classifier, executor, triage.PipelineConfig{
		SimilarResults: cfg.Triage.SimilarResults,
		ScoreThreshold: cfg.Triage.ScoreThreshold,
	}, metrics, logger)

	dispatcher := events.NewInMemoryDispatcher(logger)
	indexWorker := worker.NewIndexWorker(retriever, logger)
	indexWorker.Register(dispatcher)

	triageService := service.NewTriageService(service.TriageDependencies{
		TicketRepo: ticketRepo,
		Retriever:  retriever,
		Pipeline:   pipeline,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, cfg.Auth.JWTSecret, cfg.Auth.APIKeyHash)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	triageHandler := handlers.NewTriageHandler(triageService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Triage:         triageHandler,
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
