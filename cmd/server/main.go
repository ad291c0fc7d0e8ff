package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ridepool/service-trip/internal/application"
	"github.com/ridepool/service-trip/internal/cache"
	"github.com/ridepool/service-trip/internal/common/auth"
	"github.com/ridepool/service-trip/internal/common/database"
	"github.com/ridepool/service-trip/internal/common/health"
	"github.com/ridepool/service-trip/internal/common/kafka"
	"github.com/ridepool/service-trip/internal/common/logger"
	"github.com/ridepool/service-trip/internal/common/middleware"
	"github.com/ridepool/service-trip/internal/config"
	tripDomain "github.com/ridepool/service-trip/internal/domain/trip"
	tripEvents "github.com/ridepool/service-trip/internal/events"
	"github.com/ridepool/service-trip/internal/handler"
	"github.com/ridepool/service-trip/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-trip")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-trip",
		zap.String("port", cfg.Port),
		zap.Float64("near_threshold_m", cfg.Matching.NearThresholdMeters),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(repository.Models()...); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	tripRepo := repository.NewGormTripRepository(db)
	groupRepo := repository.NewGormGroupRepository(db)
	affiliationRepo := repository.NewGormAffiliationRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	// Nearby-groups lookups are cached per process
	nearbyCache := cache.NewNearbyGroupsCache(cfg.Matching.NearbyCacheSize, cfg.Matching.NearbyCacheTTL)

	// Initialize application services
	tripService := application.NewTripService(
		tripRepo,
		tripDomain.NewStandardFareStrategy(),
		nearbyCache,
		kafkaProducer,
		log,
	)
	groupService := application.NewGroupService(groupRepo, nearbyCache, kafkaProducer, log)
	matchService := application.NewMatchService(
		tripRepo,
		groupRepo,
		affiliationRepo,
		nearbyCache,
		application.MatchConfig{
			NearThresholdMeters: cfg.Matching.NearThresholdMeters,
			DefaultLimit:        cfg.Matching.SearchLimit,
		},
		log,
	)
	messageService := application.NewMessageService(messageRepo, tripRepo, log)

	// Initialize and start trip event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "trip-service"
	tripConsumer := tripEvents.NewTripEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		matchService,
		log,
	)
	defer func() { _ = tripConsumer.Close() }()

	go func() {
		log.Info("starting trip event consumer")
		if err := tripConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("trip event consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-trip")
	healthHandler.RegisterRoutes(router)

	// Register routes
	handler.NewTripHandler(tripService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewMatchHandler(matchService, tripService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewGroupHandler(groupService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewMessageHandler(messageService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminTripHandler(tripService).RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-trip...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-trip stopped")
}
