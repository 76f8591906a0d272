// Package server assembles the HTTP surface of the API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"celengan/internal/database"
	_ "celengan/internal/docs" // swagger docs
	"celengan/internal/handlers"
	"celengan/internal/logger"
	"celengan/internal/middleware"
	"celengan/internal/services"
)

const healthPingTimeout = 2 * time.Second

// Deps holds everything the router needs to serve requests.
type Deps struct {
	DB           *gorm.DB
	Tokens       *middleware.TokenManager
	Users        services.UserServicer
	Transactions services.TransactionServicer
	Goals        services.GoalServicer
}

// NewRouter builds the Gin engine with middleware and all routes registered.
func NewRouter(d Deps) *gin.Engine {
	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens)
	transactionHandler := handlers.NewTransactionHandler(d.Transactions)
	goalHandler := handlers.NewGoalHandler(d.Goals)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/api/health", healthCheck(d.DB))

	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware(d.Tokens, d.Users))

	protected.GET("/me", authHandler.GetProfile)
	protected.PUT("/update-password", authHandler.UpdatePassword)
	protected.DELETE("/delete-user", authHandler.DeleteUser)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/prediction", transactionHandler.PredictNextExpense)
	transactions.PUT("/:id/categorize", transactionHandler.CategorizeTransaction)
	transactions.POST("/categorize-all", transactionHandler.CategorizeAll)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.GetUserGoals)
	goals.PUT("/:id", goalHandler.AddContribution)
	goals.DELETE("/:id", goalHandler.DeleteGoal)

	return router
}

func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			logger.Get().Warnw("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	}
}
