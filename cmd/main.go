package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"pdf-research-summarizer/internal/ai"
	"pdf-research-summarizer/internal/config"
	"pdf-research-summarizer/internal/logger"
	"pdf-research-summarizer/internal/telemetry"
	"pdf-research-summarizer/middleware"
	"pdf-research-summarizer/routes"
	"pdf-research-summarizer/services"
)

const serviceName = "pdf-research-summarizer"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.InitTracer(serviceName, cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("Failed to initialize tracing, continuing without it", "error", err)
		} else {
			defer shutdown()
		}
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Failed to initialize metrics, continuing without them", "error", err)
	}

	// The Gemini client and the pipeline only exist when an API key is
	// configured. Without one, the server still serves health endpoints.
	var geminiClient *ai.GeminiClient
	var summaryService *services.SummaryService
	if cfg.GeminiAPIKey != "" {
		geminiClient, err = ai.NewGeminiClient(cfg, metrics)
		if err != nil {
			log.Fatal("Failed to initialize Gemini client:", err)
		}
		defer geminiClient.Close()
		summaryService = services.NewSummaryService(cfg, geminiClient, metrics)
	} else {
		logger.Warn("GEMINI_API_KEY not set, summarization endpoint disabled")
	}

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RateLimitMiddleware(cfg))
	router.Use(middleware.RequestSizeLimit(cfg.MaxFileSize + 1024))

	// Setup routes
	routes.SetupHealthRoutes(router, geminiClient)
	routes.SetupSummarizeRoutes(router, cfg, summaryService)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "model", cfg.GeminiModel)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
