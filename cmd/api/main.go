package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	"cadence/internal/config"
	"cadence/internal/database"
	"cadence/internal/events"
	"cadence/internal/handlers"
	"cadence/internal/logger"
	"cadence/internal/middleware"
	"cadence/internal/scheduler"
	"cadence/internal/services"
	"cadence/internal/validator"
)

// @title           Cadence API
// @version         1.0
// @description     Cadence is a pay-cycle budgeting application for couples: plan each pay period, split shared costs, and close the cycle with a payday ritual.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Event publisher: AMQP when configured, otherwise a no-op
	var publisher events.Publisher = events.NewNopPublisher()
	if appConfig.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(appConfig.AMQPURL, appConfig.AMQPExchange)
		if err != nil {
			return fmt.Errorf("failed to connect event publisher: %w", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	householdService := services.NewHouseholdService(db)
	incomeService := services.NewIncomeSourceService(db)
	cycleService := services.NewPayCycleService(db, incomeService, publisher)
	seedService := services.NewSeedService(db, publisher)
	potService := services.NewPotService(db)
	repaymentService := services.NewRepaymentService(db)
	forecastService := services.NewForecastService(db)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	householdHandler := handlers.NewHouseholdHandler(householdService, auditService)
	incomeHandler := handlers.NewIncomeSourceHandler(incomeService, householdService, auditService)
	cycleHandler := handlers.NewPayCycleHandler(cycleService, householdService, auditService)
	seedHandler := handlers.NewSeedHandler(seedService, householdService, auditService)
	potHandler := handlers.NewPotHandler(potService, forecastService, householdService, auditService)
	repaymentHandler := handlers.NewRepaymentHandler(repaymentService, forecastService, householdService, auditService)
	opsHandler := handlers.NewOpsHandler(cycleService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Household routes
	households := protected.Group("/households")
	households.POST("", householdHandler.Create)
	households.GET("/me", householdHandler.Get)
	households.POST("/join", householdHandler.Join)
	households.PATCH("/settings", householdHandler.UpdateSettings)
	households.PUT("/percentages", householdHandler.UpdatePercentages)

	// Income source routes
	incomes := protected.Group("/income-sources")
	incomes.POST("", incomeHandler.Create)
	incomes.GET("", incomeHandler.List)
	incomes.PUT("/:id", incomeHandler.Update)
	incomes.DELETE("/:id", incomeHandler.Delete)

	// Cycle routes
	cycles := protected.Group("/cycles")
	cycles.GET("/active", cycleHandler.GetActive)
	cycles.GET("", cycleHandler.GetHistory)
	cycles.POST("/next", cycleHandler.CreateNext)
	cycles.POST("/next/resync", cycleHandler.ResyncDraft)
	cycles.POST("/start", cycleHandler.StartNext)
	cycles.GET("/:id", cycleHandler.GetCycle)
	cycles.POST("/:id/close", cycleHandler.CloseRitual)
	cycles.POST("/:id/unlock", cycleHandler.UnlockRitual)
	cycles.POST("/:id/seeds", seedHandler.Create)

	// Seed routes
	seeds := protected.Group("/seeds")
	seeds.PUT("/:id", seedHandler.Update)
	seeds.DELETE("/:id", seedHandler.Delete)
	seeds.POST("/:id/pay", seedHandler.MarkPaid)
	seeds.POST("/:id/unpay", seedHandler.UnmarkPaid)

	// Pot routes
	pots := protected.Group("/pots")
	pots.POST("", potHandler.Create)
	pots.GET("", potHandler.List)
	pots.GET("/:id", potHandler.Get)
	pots.PUT("/:id", potHandler.Update)
	pots.DELETE("/:id", potHandler.Delete)
	pots.POST("/:id/complete", potHandler.MarkComplete)
	pots.GET("/:id/forecast", potHandler.Forecast)

	// Repayment routes
	repayments := protected.Group("/repayments")
	repayments.POST("", repaymentHandler.Create)
	repayments.GET("", repaymentHandler.List)
	repayments.GET("/:id", repaymentHandler.Get)
	repayments.PUT("/:id", repaymentHandler.Update)
	repayments.DELETE("/:id", repaymentHandler.Delete)
	repayments.POST("/:id/payoff", repaymentHandler.MarkPaidOff)
	repayments.GET("/:id/forecast", repaymentHandler.Forecast)

	// Internal routes for automation
	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(appConfig.InternalAPIKey))
	internal.POST("/promote-due", opsHandler.PromoteDue)

	// Background scheduler
	sched, err := scheduler.New(cycleService, appConfig.PromoteDraftsCron)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	server := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Starting Cadence backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return sched.Stop(stopCtx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
