package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/meetscribe/meetscribe/pkg/validator"

	"github.com/meetscribe/meetscribe/internal/adapter/handler"
	"github.com/meetscribe/meetscribe/internal/adapter/repository"
	"github.com/meetscribe/meetscribe/internal/infrastructure/cache"
	"github.com/meetscribe/meetscribe/internal/infrastructure/database"
	"github.com/meetscribe/meetscribe/internal/infrastructure/external/deepgram"
	"github.com/meetscribe/meetscribe/internal/infrastructure/storage"
	"github.com/meetscribe/meetscribe/internal/usecase/session"
	pkgai "github.com/meetscribe/meetscribe/pkg/ai"
	"github.com/meetscribe/meetscribe/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run AutoMigrate only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Running GORM AutoMigrate (development only) ...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run AutoMigrate: %v", err)
		}
	} else {
		log.Println("🔄 Skipping GORM AutoMigrate; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Initialize Redis
	log.Println("📦 Connecting to Redis...")
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	cacheStore := cache.NewStore(redisClient)

	// Initialize object storage for audio recordings
	log.Println("🗄️  Connecting to object storage...")
	audioStore, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	meetingRepo := repository.NewMeetingRepository(db)
	segmentRepo := repository.NewSegmentRepository(db)

	// Initialize speech and language components
	log.Println("🤖 Initializing speech and language components...")
	openaiClient := pkgai.NewOpenAIClient(&cfg.OpenAI)
	recognizer := deepgram.NewClient(&cfg.Deepgram, logger)

	// Initialize recording session coordinator
	log.Println("🎙️  Initializing session manager...")
	finalizer := session.NewFinalizationWorkflow(
		meetingRepo,
		segmentRepo,
		openaiClient,
		audioStore,
		cfg.Session,
		logger,
	)
	finalizer.SetOnFinalized(func(meetingID uuid.UUID) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cacheStore.Delete(ctx, handler.MeetingCacheKey(meetingID.String())); err != nil {
			logger.Warn("failed to evict meeting cache after finalization",
				zap.String("meeting_id", meetingID.String()),
				zap.Error(err),
			)
		}
	})
	sessionManager := session.NewManager(session.Deps{
		Recognizer: recognizer,
		Translator: openaiClient,
		Meetings:   meetingRepo,
		Segments:   segmentRepo,
		Finalizer:  finalizer,
		Config:     cfg.Session,
		SourceLang: cfg.OpenAI.SourceLanguage,
	}, logger)
	log.Println("✅ Session manager initialized successfully")

	// Initialize handlers
	log.Println("🚀 Initializing handlers...")
	wsHandler := handler.NewWSHandler(sessionManager, logger)
	meetingHandler := handler.NewMeetingHandler(meetingRepo, segmentRepo, cacheStore, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, wsHandler, meetingHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
