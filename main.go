package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hipposhare/hipposhare-api/config"
	"github.com/hipposhare/hipposhare-api/controllers"
	"github.com/hipposhare/hipposhare-api/middleware"
	"github.com/hipposhare/hipposhare-api/models"
)

func main() {
	// Basic logging
	log.Println("Starting HippoShare API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Asset{},
		&models.Conversation{},
		&models.Message{},
		&models.Loan{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize Gin router
	router := gin.Default()
	registerRoutes(router, cfg)

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// registerRoutes wires middleware and all API routes onto the router
func registerRoutes(router *gin.Engine, cfg *config.Config) {
	corsConfig := cors.DefaultConfig()
	if cfg.CORSOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(cfg.CORSOrigins, ",")
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))
	router.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	authRequired := middleware.EnsureValidToken(cfg)
	loginLimiter := middleware.NewLimiterStore(30, 10, 5*time.Minute)

	// Operational endpoints
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)
	}

	api := router.Group("/api")
	{
		// Users and auth
		api.POST("/users", middleware.RateLimit(loginLimiter), controllers.RegisterUser)
		api.POST("/auth/login", middleware.RateLimit(loginLimiter), controllers.Login)
		api.GET("/users", controllers.ListUsers)
		api.GET("/users/email/:email", controllers.GetUserByEmail)
		api.GET("/users/id/:id", controllers.GetUserByID)
		api.PUT("/users/:id", authRequired, controllers.UpdateUser)
		api.POST("/users/:id/deposit", authRequired, controllers.Deposit)
		api.POST("/users/:id/withdraw", authRequired, controllers.Withdraw)
		api.GET("/users/:id/balance", controllers.GetBalance)

		// Assets
		api.GET("/assets", controllers.ListAssets)
		api.GET("/assets/owner/:ownerId", controllers.ListOwnerAssets)
		api.POST("/assets", controllers.CreateAsset)
		api.PUT("/assets/:id", controllers.UpdateAsset)
		api.DELETE("/assets/:id", controllers.DeleteAsset)

		// Conversations and messages
		api.POST("/conversations", controllers.CreateOrGetConversation)
		api.GET("/conversations/user/:userId", controllers.ListUserConversations)
		api.GET("/conversations/find", controllers.FindConversation)
		api.GET("/conversations/:id", controllers.GetConversation)
		api.GET("/conversations/:id/messages", controllers.ListMessages)
		api.POST("/conversations/:id/messages", controllers.SendMessage)
		api.PUT("/conversations/:id/read", controllers.MarkMessagesRead)
		api.PUT("/conversations/:id/status", controllers.UpdateConversationStatus)

		// Loans
		api.POST("/loans", controllers.CreateLoan)
		api.GET("/loans/borrower/:userId", controllers.ListBorrowerLoans)
		api.GET("/loans/owner/:userId", controllers.ListOwnerLoans)
		api.GET("/loans/user/:userId", controllers.ListUserLoans)
		api.GET("/loans/find", controllers.FindOpenLoan)
		api.GET("/loans/:id", controllers.GetLoan)
		api.PUT("/loans/:id/status", controllers.UpdateLoanStatus)
		api.PUT("/loans/:id/return", controllers.ReturnLoan)
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "HippoShare API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
