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

	"github.com/ethicsupply/backend/internal/api/handlers"
	rediscache "github.com/ethicsupply/backend/internal/cache/redis"
	"github.com/ethicsupply/backend/internal/metrics"
	"github.com/ethicsupply/backend/internal/middleware/ratelimit"
	"github.com/ethicsupply/backend/internal/middleware/security"
	"github.com/ethicsupply/backend/internal/middleware/validation"
	"github.com/ethicsupply/backend/internal/ranking"
	"github.com/ethicsupply/backend/internal/storage/sqlite"
	"github.com/ethicsupply/backend/pkg/circuitbreaker"
	"github.com/ethicsupply/backend/pkg/config"
	appLogger "github.com/ethicsupply/backend/pkg/logger"
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

	appLogger.Info("Starting EthicSupply API Server")

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var resultsCache *handlers.ResultsCache
	if cfg.Redis.Enabled {
		redisClient, err := rediscache.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without results cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			breaker := circuitbreaker.New("redis-results", circuitbreaker.Config{
				FailureThreshold: 5,
				SuccessThreshold: 2,
				OpenTimeout:      30 * time.Second,
				Logger:           appLogger.Log,
			})
			resultsCache = handlers.NewResultsCache(redisClient, breaker)
		}
	}

	predictor := ranking.NewPredictor(cfg.Model.Path, ranking.DefaultWeights())
	engine := ranking.NewEngine(predictor, ranking.DefaultWeights())

	metrics.Init()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	rateLimiter := ratelimit.New(ratelimit.Config{Logger: appLogger.Log})
	defer rateLimiter.Stop()
	app.Use(rateLimiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		MaxBatchSize: cfg.Ranking.MaxBatchSize,
		MaxBodySize:  cfg.Server.BodyLimit,
		Logger:       appLogger.Log,
	}))

	rankHandler := handlers.NewRankHandler(engine, sqliteClient, resultsCache, cfg.Ranking)
	optimizationHandler := handlers.NewOptimizationHandler(sqliteClient, resultsCache)
	supplierHandler := handlers.NewSupplierHandler(engine, sqliteClient, cfg.Sample)
	wsHandler := handlers.NewWebSocketHandler(engine, sqliteClient, cfg.Ranking)

	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api/v1")

	api.Post("/rank", rankHandler.HandleRank)

	api.Get("/optimizations", optimizationHandler.ListOptimizations)
	api.Get("/optimizations/trends", optimizationHandler.GetTrends)
	api.Get("/optimizations/:id", optimizationHandler.GetResults)
	api.Get("/optimizations/:id/export", optimizationHandler.ExportResults)

	api.Get("/activities", optimizationHandler.ListActivities)

	api.Post("/suppliers/import", supplierHandler.ImportCSV)
	api.Get("/suppliers", supplierHandler.ListSuppliers)
	api.Get("/sample", supplierHandler.GetSample)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws/rank", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		if err := sqliteClient.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting",
		zap.String("address", addr),
		zap.String("predictor", engine.PredictorName()),
	)

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
