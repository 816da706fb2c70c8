// Package server assembles the HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"earnbot/internal/handlers"
	"earnbot/internal/middleware"
	"earnbot/internal/services"
)

// Dependencies are the collaborators the router needs.
type Dependencies struct {
	DB           *gorm.DB
	Pinger       handlers.DatabasePinger
	BotStatus    handlers.BotStatusReporter
	LaunchTokens *middleware.LaunchTokens
}

// NewRouter builds the services and handlers and mounts every route.
func NewRouter(deps Dependencies) *gin.Engine {
	accountService := services.NewAccountService(deps.DB)
	ledgerService := services.NewLedgerService(deps.DB)
	earningService := services.NewEarningService(deps.DB, accountService, ledgerService)

	userHandler := handlers.NewUserHandler(accountService)
	historyHandler := handlers.NewHistoryHandler(ledgerService, earningService)
	meHandler := handlers.NewMeHandler(accountService, earningService)
	systemHandler := handlers.NewSystemHandler(deps.BotStatus, deps.Pinger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", systemHandler.Health)
	router.GET("/bot-status", systemHandler.BotStatus)

	api := router.Group("/api")
	api.GET("/health", systemHandler.Health)
	api.GET("/bot-status", systemHandler.BotStatus)

	// Account routes
	users := api.Group("/user")
	users.POST("", userHandler.CreateUser)
	users.GET("", userHandler.ListUsers)
	users.GET("/:externalId", userHandler.GetUser)
	users.PUT("/:externalId", userHandler.UpdateUser)
	users.DELETE("/:externalId", userHandler.DeleteUser)

	// Ledger routes
	history := api.Group("/history")
	history.POST("", historyHandler.RecordAdView)
	history.GET("", historyHandler.ListRecent)
	history.GET("/:externalId", historyHandler.GetEarningsSummary)
	history.GET("/:externalId/entries", historyHandler.ListAccountEntries)

	// Web app routes
	api.GET("/me", middleware.LaunchAuthMiddleware(deps.LaunchTokens), meHandler.GetMe)

	return router
}
