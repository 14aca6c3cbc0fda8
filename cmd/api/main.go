package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/truthchain/backend/internal/analysis"
	"github.com/truthchain/backend/internal/api/handlers"
	"github.com/truthchain/backend/internal/cache/redis"
	"github.com/truthchain/backend/internal/claims"
	"github.com/truthchain/backend/internal/classifier"
	"github.com/truthchain/backend/internal/content"
	"github.com/truthchain/backend/internal/factcheck"
	"github.com/truthchain/backend/internal/llm"
	"github.com/truthchain/backend/internal/metrics"
	"github.com/truthchain/backend/internal/middleware/ratelimit"
	"github.com/truthchain/backend/internal/middleware/security"
	"github.com/truthchain/backend/internal/middleware/validation"
	"github.com/truthchain/backend/internal/news"
	"github.com/truthchain/backend/internal/pipeline"
	"github.com/truthchain/backend/internal/reputation"
	"github.com/truthchain/backend/internal/storage/sqlite"
	"github.com/truthchain/backend/pkg/config"
	appLogger "github.com/truthchain/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting TruthChain API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cache pipeline.Cache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, analysis cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cache = redisClient
		}
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	acquirer := content.NewAcquirer(time.Duration(cfg.Analysis.FetchTimeoutSec) * time.Second)
	estimator := reputation.NewEstimator()
	clf := classifier.NewAdapter(
		cfg.Classifier.Endpoint,
		cfg.Classifier.APIKey,
		cfg.Classifier.MaxInputChars,
		time.Duration(cfg.Classifier.TimeoutSec)*time.Second,
	)
	extractor := claims.NewExtractor(llmClient)
	factCheck := factcheck.NewClient(
		cfg.FactCheck.APIKey,
		cfg.FactCheck.Endpoint,
		time.Duration(cfg.FactCheck.TimeoutSec)*time.Second,
	)
	deepEngine := analysis.NewEngine(llmClient, analysis.Config{
		MaxRetries:     cfg.Analysis.MaxRetries,
		InitialBackoff: time.Duration(cfg.Analysis.InitialBackoffSec) * time.Second,
	})

	engine := pipeline.NewEngine(acquirer, estimator, clf, extractor, factCheck, deepEngine, sqliteClient, cache)

	newsProvider := news.NewProvider(
		cfg.News.APIKey,
		cfg.News.Endpoint,
		cfg.News.Country,
		cfg.News.PageSize,
		cfg.News.FallbackFeed,
	)
	digest := news.NewDigest(newsProvider, engine, time.Duration(cfg.News.DelaySec)*time.Second)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	rateLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 60,
		Logger:               appLogger.GetLogger(),
	})
	defer rateLimiter.Stop()

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(rateLimiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		MaxTextLength: cfg.Server.BodyLimit,
		Logger:        appLogger.GetLogger(),
	}))

	analyzeHandler := handlers.NewAnalyzeHandler(engine)
	newsHandler := handlers.NewNewsHandler(digest)
	historyHandler := handlers.NewHistoryHandler(sqliteClient)
	analyticsHandler := handlers.NewAnalyticsHandler(sqliteClient)
	wsHandler := handlers.NewWebSocketHandler(engine)

	api := app.Group("/api/v1")

	api.Post("/analyze", analyzeHandler.HandleAnalyze)
	api.Get("/daily-news", newsHandler.HandleDailyNews)
	api.Get("/history/query", historyHandler.HandleQuery)
	api.Get("/source/:domain", historyHandler.HandleSource)
	api.Get("/analytics/summary", analyticsHandler.HandleSummary)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws/analyze", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		if err := sqliteClient.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
