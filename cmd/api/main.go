package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"celengan/internal/cache"
	"celengan/internal/config"
	"celengan/internal/database"
	"celengan/internal/logger"
	"celengan/internal/middleware"
	"celengan/internal/ml"
	"celengan/internal/server"
	"celengan/internal/services"
	"celengan/internal/validator"
)

// @title           Celengan API
// @version         1.0
// @description     Celengan is a personal finance API for recording transactions, tracking savings goals, and getting machine-learning assisted categorization and expense forecasts.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(appConfig.Env, appConfig.LogLevel)
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbManager, err := database.NewManager(ctx, database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database pool: %v", err)
		}
		log.Info("Database pool closed")
	}()

	if err := dbManager.RunMigrations("file://migrations"); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	if appConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.Register()

	// ML clients share one HTTP client so every call is bounded by ML_TIMEOUT.
	httpClient := &http.Client{Timeout: appConfig.MLTimeout}
	var categorizer services.Categorizer = ml.NewCategorizerClient(appConfig.CategorizerURL, httpClient)
	anomalies := ml.NewAnomalyClient(appConfig.AnomalyURL, appConfig.MLAPIKey, httpClient)
	forecaster := ml.NewForecastClient(appConfig.ForecastURL, appConfig.MLAPIKey, httpClient)

	if appConfig.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, appConfig.RedisURL)
		if err != nil {
			log.Warnf("category cache disabled: %v", err)
		} else {
			defer rdb.Close()
			categorizer = cache.NewCategoryCache(categorizer, rdb, appConfig.CategoryCacheTTL, services.MinCategoryConfidence)
			log.Info("Category cache enabled")
		}
	}

	db := dbManager.DB()
	userService := services.NewUserService(db)
	router := server.NewRouter(server.Deps{
		DB:           db,
		Tokens:       middleware.NewTokenManager(appConfig.JWTSecret, appConfig.JWTExpirationDur),
		Users:        userService,
		Transactions: services.NewTransactionService(db, categorizer, anomalies, forecaster, appConfig.CategorizeBatchDelay),
		Goals:        services.NewGoalService(db),
	})

	srv := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Starting Celengan API on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
