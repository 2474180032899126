package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"kitchen-service/internal/handler"
	mid "kitchen-service/internal/middleware"
	"kitchen-service/internal/model"
	"kitchen-service/internal/service"
	"kitchen-service/internal/store"
	"kitchen-service/pkg/cache"
	"kitchen-service/pkg/config"
	"kitchen-service/pkg/database"
	"kitchen-service/pkg/jwtutil"
	"kitchen-service/pkg/logger"
	"kitchen-service/prometheus"
)

const serviceName = "kitchen-service"

func main() {
	// Load configuration
	appConfig, err := config.Load(serviceName)
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: appConfig.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting "+serviceName, appConfig.LogFields()...)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig.Metrics.Prefix)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	db, err := database.InitDB(&appConfig.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.MigrateModels(db, model.AllModels()...); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connection established",
		zap.String("db_host", appConfig.DB.Host),
		zap.String("db_name", appConfig.DB.DBName))

	// Product listing cache, optional
	var productCache cache.Cache
	if appConfig.Redis.Enabled() {
		client, err := cache.InitRedis(context.Background(), &appConfig.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.String("addr", appConfig.Redis.Addr), zap.Error(err))
		}
		defer client.Close()
		productCache = cache.NewRedisCache(client, appConfig.Redis.CacheTTL)
		log.Info("Redis cache enabled",
			zap.String("addr", appConfig.Redis.Addr),
			zap.Duration("ttl", appConfig.Redis.CacheTTL))
	}

	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      appConfig.JWT.SigningKey,
		ExpirationHours: appConfig.JWT.ExpirationHours,
	})

	scope := store.NewScope(db)
	ledger := service.NewLedger(scope, productCache, appConfig.Inventory.DefaultMinStockLevel)
	h := handler.New(handler.Services{
		Ledger:    ledger,
		Catalog:   service.NewCatalog(scope, productCache),
		Sales:     service.NewSaleEngine(scope),
		Importer:  service.NewImporter(ledger, appConfig.Inventory.ImportWorkers),
		Dashboard: service.NewDashboard(scope),
		Health:    handler.NewHealthChecker(db, productCache),
	})

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API routes, all scoped by the tenant in the bearer token
	h.RegisterRoutes(e, mid.AuthMiddleware(jwt))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		port := appConfig.Server.Port
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
}
