// Package main provides the main entry point for the Jorougumo lead and content pipeline
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/Jorougumo/app/handlers"
	"github.com/amirphl/Jorougumo/app/router"
	"github.com/amirphl/Jorougumo/app/scheduler"
	"github.com/amirphl/Jorougumo/app/services"
	businessflow "github.com/amirphl/Jorougumo/business_flow"
	"github.com/amirphl/Jorougumo/config"
	"github.com/amirphl/Jorougumo/models"
	"github.com/amirphl/Jorougumo/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting Jorougumo application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeOracleClient picks the real oracle client or the degraded stub
// depending on whether an API key is configured
func initializeOracleClient(cfg *config.ProductionConfig) services.OracleClient {
	if cfg.Oracle.APIKey == "" {
		log.Println("Oracle API key not configured, running in degraded mode")
		return services.NewStubOracleClient()
	}
	return services.NewOpenAIOracleClient(&cfg.Oracle)
}

// initializeSocialClients builds one client per supported platform.
// Platforms without credentials get the disabled client so the rest of the
// pipeline keeps working.
func initializeSocialClients(cfg *config.ProductionConfig) map[models.Platform]services.SocialClient {
	clients := make(map[models.Platform]services.SocialClient)

	if cfg.Twitter.BearerToken != "" {
		clients[models.PlatformTwitter] = services.NewTwitterClient(&cfg.Twitter)
	} else {
		log.Println("Twitter credentials not configured, twitter client disabled")
		clients[models.PlatformTwitter] = services.NewDisabledSocialClient(models.PlatformTwitter)
	}

	// LinkedIn publishing is not integrated yet; discovery falls back to the
	// built-in profile set inside the lead flow.
	clients[models.PlatformLinkedIn] = services.NewDisabledSocialClient(models.PlatformLinkedIn)

	return clients
}

// initializeNotificationService initializes the notification service
func initializeNotificationService(cfg *config.ProductionConfig) services.NotificationService {
	var emailProvider services.EmailProvider
	if cfg.Email.Host == "" || cfg.Email.Host == "mock" {
		emailProvider = services.NewMockEmailProvider()
	} else {
		emailProvider = services.NewSMTPEmailProvider(cfg.Email.Host, cfg.Email.Port, cfg.Email.Username, cfg.Email.Password, cfg.Email.FromEmail)
	}

	return services.NewNotificationService(emailProvider, cfg.Email.OperatorEmail)
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, cfg.Cache.HealthInterval)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Initialize repositories
	leadRepo := repository.NewLeadRepository(db)
	contactRepo := repository.NewContactRepository(db)
	postRepo := repository.NewPendingPostRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	oracle := initializeOracleClient(cfg)
	parser := services.NewContentParser()
	clients := initializeSocialClients(cfg)
	notificationService := initializeNotificationService(cfg)

	// Initialize flows
	analysisFlow := businessflow.NewAnalysisFlow(oracle, parser, rc, &cfg.Cache)

	contentFlow := businessflow.NewContentFlow(
		postRepo,
		auditRepo,
		oracle,
		parser,
		analysisFlow,
		clients,
		notificationService,
		cfg.Pipeline,
		db,
	)

	leadFlow := businessflow.NewLeadFlow(
		leadRepo,
		contactRepo,
		auditRepo,
		analysisFlow,
		clients,
		cfg.Pipeline,
		&cfg.Cache,
		rc,
		db,
	)

	// Initialize handlers
	contentHandler := handlers.NewContentHandler(contentFlow)
	leadHandler := handlers.NewLeadHandler(leadFlow)

	// Initialize router
	appRouter := router.NewFiberRouter(contentHandler, leadHandler)

	if cfg.Scheduler.Enabled {
		// Start post scheduler (publishes due scheduled posts)
		sched := scheduler.NewPostScheduler(contentFlow, cfg.Scheduler)
		stopScheduler := sched.Start(context.Background())
		stopFuncs = append(stopFuncs, stopScheduler)
	}

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
