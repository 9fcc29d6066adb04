package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"jobly/cv-analyzer/internal/config"
	"jobly/cv-analyzer/internal/handlers"
	applog "jobly/cv-analyzer/internal/logger"
	"jobly/cv-analyzer/internal/repositories"
	"jobly/cv-analyzer/internal/scoring"
	"jobly/cv-analyzer/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zlog, err := applog.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if err := cfg.Validate(); err != nil {
		zlog.Fatal("invalid configuration", zap.Error(err))
	}

	// Initialize database
	db, err := config.InitDatabase(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}

	rdb, err := config.NewRedisClient(context.Background(), cfg.Redis, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize redis", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Initialize repositories
	analysisRepo := repositories.NewAnalysisRepository(db)

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		zlog.Fatal("failed to create upload directory", zap.Error(err))
	}

	vocabulary, err := scoring.LoadVocabulary(cfg.Analyzer.VocabularyFile)
	if err != nil {
		zlog.Fatal("failed to load vocabulary", zap.String("file", cfg.Analyzer.VocabularyFile), zap.Error(err))
	}
	engine, err := scoring.NewEngine(vocabulary)
	if err != nil {
		zlog.Fatal("failed to build scoring engine", zap.Error(err))
	}

	cache := services.NewAnalysisCache(analysisRepo, rdb, cfg.Redis.TTL, zlog)
	analyzer := services.NewAnalyzerService(
		cache,
		storageService,
		services.NewPDFParserService(),
		engine,
		services.AnalyzerOptions{
			MaxFileSize:    cfg.Storage.MaxFileSize,
			PersistTimeout: cfg.Analyzer.PersistTimeout,
		},
		zlog,
	)
	zlog.Info("services initialized")

	// Initialize handlers
	analyzeHandler := handlers.NewAnalyzeHandler(analyzer, cfg.Storage.MaxFileSize)
	historyHandler := handlers.NewHistoryHandler(analyzer)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Jobly CV Analyzer API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		// Room for the multipart envelope around a max size file
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 64*1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	cvAnalyzer := api.Group("/cv-analyzer")
	cvAnalyzer.Post("/analyze", analyzeHandler.HandleAnalyze)
	cvAnalyzer.Get("/history/:user_id", historyHandler.HandleGetHistory)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Jobly CV Analyzer API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/cv-analyzer/analyze",
				"GET /api/v1/cv-analyzer/history/:user_id",
				"GET /api/v1/health",
				"GET /metrics",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("shutting down server")
		if err := app.ShutdownWithTimeout(cfg.Analyzer.PersistTimeout + 5*time.Second); err != nil {
			zlog.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zlog.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))

	if err := app.Listen(addr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}
