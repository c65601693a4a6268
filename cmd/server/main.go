package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/construction-schedule-api/internal/config"
	"github.com/yukikurage/construction-schedule-api/internal/constants"
	"github.com/yukikurage/construction-schedule-api/internal/database"
	"github.com/yukikurage/construction-schedule-api/internal/handlers"
	"github.com/yukikurage/construction-schedule-api/internal/middleware"
	"github.com/yukikurage/construction-schedule-api/internal/repository"
	"github.com/yukikurage/construction-schedule-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	authService := services.NewAuthService(userRepo)
	projectService := services.NewProjectService(projectRepo)
	milestoneService := services.NewMilestoneService(milestoneRepo)
	scheduleService := services.NewScheduleService(scheduleRepo, services.ScheduleOptions{
		PersistAttempts: cfg.PersistAttempts,
		PersistBackoff:  cfg.PersistBackoff,
		Logger:          logger,
	})

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectService)
	milestoneHandler := handlers.NewMilestoneHandler(milestoneService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, aiService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Construction Schedule API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.POST("/join", projectHandler.JoinProject)
			projects.GET("/:id", middleware.RequireProjectAccess(), projectHandler.GetProject)
			projects.PUT("/:id", middleware.RequireProjectAccess(), middleware.RequireProjectOwner(), projectHandler.UpdateProject)
			projects.DELETE("/:id", middleware.RequireProjectAccess(), middleware.RequireProjectOwner(), projectHandler.DeleteProject)
			projects.POST("/:id/regenerate-code", middleware.RequireProjectAccess(), middleware.RequireProjectOwner(), projectHandler.RegenerateInviteCode)

			schedule := projects.Group("/:id/schedule", middleware.RequireProjectAccess())
			{
				schedule.GET("/activities", scheduleHandler.ListActivities)
				schedule.POST("/activities", scheduleHandler.CreateActivity)
				schedule.PUT("/activities/:activityId", scheduleHandler.UpdateActivity)
				schedule.DELETE("/activities/:activityId", scheduleHandler.DeleteActivity)
				schedule.PUT("/activities/:activityId/predecessors", scheduleHandler.SetPredecessors)
				schedule.POST("/activities/:activityId/dependencies", scheduleHandler.AddDependency)
				schedule.POST("/template", scheduleHandler.LoadTemplate)
				schedule.POST("/recalculate", scheduleHandler.Recalculate)
				schedule.GET("/critical-path", scheduleHandler.CriticalPath)
				schedule.POST("/delay-impact", scheduleHandler.DelayImpact)
				schedule.POST("/activities/suggest", scheduleHandler.SuggestActivities)

				schedule.GET("/milestones", milestoneHandler.ListMilestones)
				schedule.POST("/milestones", milestoneHandler.CreateMilestone)
				schedule.PUT("/milestones/:milestoneId", milestoneHandler.UpdateMilestone)
				schedule.DELETE("/milestones/:milestoneId", milestoneHandler.DeleteMilestone)
			}
		}
	}

	// Start server
	addr := ":" + cfg.ServerPort
	log.Printf("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
