package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/tasknest/tasknest-api/internal/config"
	"github.com/tasknest/tasknest-api/internal/constants"
	"github.com/tasknest/tasknest-api/internal/database"
	"github.com/tasknest/tasknest-api/internal/events"
	"github.com/tasknest/tasknest-api/internal/handlers"
	"github.com/tasknest/tasknest-api/internal/middleware"
	"github.com/tasknest/tasknest-api/internal/realtime"
	"github.com/tasknest/tasknest-api/internal/repository"
	"github.com/tasknest/tasknest-api/internal/scheduler"
	"github.com/tasknest/tasknest-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

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
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Realtime registry and event fanout
	registry := realtime.NewRegistry(cfg.ConnectTimeout)
	fanout := events.NewFanout(registry)

	// Repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Services
	authService := services.NewAuthService(userRepo)
	notificationService := services.NewNotificationService(notificationRepo, fanout)
	taskService := services.NewTaskService(taskRepo, notificationService, fanout)
	lifecycleService := services.NewLifecycleService(taskRepo, notificationService, fanout)
	reminderService := services.NewReminderService(reminderRepo, taskRepo, fanout)
	commentService := services.NewCommentService(commentRepo, taskRepo, notificationService, fanout)

	// Reminder scheduler
	reminderScheduler := scheduler.NewReminderScheduler(
		reminderRepo,
		taskRepo,
		notificationService,
		fanout,
		cfg.ReminderScanInterval,
	)
	reminderScheduler.Start()
	defer reminderScheduler.Stop()

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, registry)
	taskHandler := handlers.NewTaskHandler(taskService, lifecycleService)
	reminderHandler := handlers.NewReminderHandler(reminderService)
	commentHandler := handlers.NewCommentHandler(commentService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	wsHandler := handlers.NewWSHandler(registry)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "TaskNest API is running",
		})
	})

	// Websocket endpoint (protected)
	r.GET("/ws", middleware.RequireAuth(), wsHandler.Serve)

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

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PATCH("/:id", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.PUT("/:id/stage", middleware.RequireTaskAccess(), taskHandler.ChangeStage)
			tasks.POST("/:id/duplicate", middleware.RequireTaskAccess(), taskHandler.DuplicateTask)
			tasks.PUT("/:id/trash", middleware.RequireTaskAccess(), taskHandler.TrashTask)
			tasks.PUT("/:id/restore", middleware.RequireTaskAccess(), taskHandler.RestoreTask)
			tasks.DELETE("/:id", middleware.RequireTaskAccess(), taskHandler.DeleteTask)
			tasks.POST("/:id/team", middleware.RequireTaskAccess(), taskHandler.AssignTeam)

			tasks.POST("/:id/reminders", middleware.RequireTaskAccess(), reminderHandler.AddReminder)
			tasks.DELETE("/:id/reminders/:reminder_id", middleware.RequireTaskAccess(), reminderHandler.DeleteReminder)

			tasks.POST("/:id/comments", middleware.RequireTaskAccess(), commentHandler.AddComment)
			tasks.GET("/:id/comments", middleware.RequireTaskAccess(), commentHandler.ListComments)
			tasks.DELETE("/:id/comments/:comment_id", middleware.RequireTaskAccess(), commentHandler.DeleteComment)
		}

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(middleware.RequireAuth())
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.DELETE("", notificationHandler.DeleteAllNotifications)
			notifications.DELETE("/:id", notificationHandler.DeleteNotification)
		}
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
