package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-rest-api/internal/cache"
	"catalog-rest-api/internal/config"
	"catalog-rest-api/internal/handler"
	"catalog-rest-api/internal/middleware"
	"catalog-rest-api/internal/ratelimit"
	"catalog-rest-api/internal/repository"
	"catalog-rest-api/internal/router"
	"catalog-rest-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Catalog API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize catalog repository based on config
	var catalogRepo repository.CatalogRepository
	switch cfg.CatalogDB.Type {
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresCatalogRepository(cfg.CatalogDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		catalogRepo = pgRepo
		log.Println("PostgreSQL catalog repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteCatalogRepository(cfg.CatalogDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		defer sqliteRepo.Close()
		catalogRepo = sqliteRepo
		log.Println("SQLite catalog repository initialized")
	}

	// Initialize MySQL connection for accounts (optional)
	var accountRepo repository.AccountRepository
	if cfg.Database.Enabled {
		mysqlDB, err := sql.Open("mysql", cfg.Database.DSN())
		if err != nil {
			log.Printf("Warning: MySQL connection failed: %v", err)
		} else {
			mysqlDB.SetMaxOpenConns(10)
			mysqlDB.SetMaxIdleConns(5)
			mysqlDB.SetConnMaxLifetime(5 * time.Minute)

			if err := mysqlDB.Ping(); err != nil {
				log.Printf("Warning: MySQL ping failed: %v", err)
				mysqlDB.Close()
			} else {
				defer mysqlDB.Close()
				accountRepo = repository.NewMySQLAccountRepository(mysqlDB)
				log.Println("MySQL account repository initialized")
			}
		}
	}

	// Initialize Redis client for session tokens (optional)
	var redisClient *redis.Client
	if cfg.Cache.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed: %v", err)
			redisClient = nil
		} else {
			log.Println("Redis client initialized")
		}
		cancel()
	}

	// Initialize MongoDB bulk run audit sink (optional)
	var bulkRunRepo repository.BulkRunRepository
	if cfg.AuditDB.MongoURI != "" {
		mongoRepo, err := repository.NewMongoDBBulkRunRepository(
			cfg.AuditDB.MongoURI,
			cfg.AuditDB.MongoDatabase,
			cfg.AuditDB.MongoCollection,
		)
		if err != nil {
			log.Printf("Warning: MongoDB audit sink initialization failed: %v", err)
		} else {
			defer mongoRepo.Close()
			bulkRunRepo = mongoRepo
			log.Println("MongoDB bulk run repository initialized")
		}
	}

	// Initialize the versioned read cache
	readCache := cache.NewVersionedCache(cache.Options{
		WeightBudget:   cfg.Cache.WeightBudget,
		MaxEntryWeight: cfg.Cache.MaxEntryWeight,
	})
	defer readCache.Close()

	// Initialize rate limiters
	globalLimiter := ratelimit.NewLimiter(ratelimit.Policy{
		Permits:    cfg.RateLimit.GlobalPermits,
		Window:     cfg.RateLimit.GlobalWindow,
		QueueLimit: cfg.RateLimit.GlobalQueue,
	})
	writeLimiter := ratelimit.NewLimiter(ratelimit.Policy{
		Permits:    cfg.RateLimit.WritePermits,
		Window:     cfg.RateLimit.WriteWindow,
		QueueLimit: cfg.RateLimit.WriteQueue,
	})

	// Initialize services
	productService := service.NewProductService(catalogRepo, readCache, service.TTLConfig{
		List:     cfg.Cache.ListTTL,
		Product:  cfg.Cache.ProductTTL,
		Category: cfg.Cache.CategoryTTL,
	})
	categoryService := service.NewCategoryService(catalogRepo, readCache)
	bulkService := service.NewBulkService(catalogRepo, readCache, bulkRunRepo)

	var tokenService *service.TokenService
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient)
	}

	// Initialize handlers
	healthHandler := handler.New(catalogRepo.Ping)
	productHandler := handler.NewProductHandler(productService, bulkService)
	categoryHandler := handler.NewCategoryHandler(categoryService)

	var authHandler *handler.AuthHandler
	if tokenService != nil && accountRepo != nil {
		authHandler = handler.NewAuthHandler(tokenService, accountRepo)
	}

	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
	})

	// Create router
	r := router.New(router.Config{
		Handler:         healthHandler,
		ProductHandler:  productHandler,
		CategoryHandler: categoryHandler,
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		GlobalLimit:     middleware.NewRateLimitMiddleware(globalLimiter),
		WriteLimit:      middleware.NewRateLimitMiddleware(writeLimiter),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
