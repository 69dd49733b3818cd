package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-match-api/internal/config"
	"github.com/yukikurage/collab-match-api/internal/constants"
	"github.com/yukikurage/collab-match-api/internal/database"
	"github.com/yukikurage/collab-match-api/internal/handlers"
	"github.com/yukikurage/collab-match-api/internal/logger"
	"github.com/yukikurage/collab-match-api/internal/middleware"
	"github.com/yukikurage/collab-match-api/internal/repository"
	"github.com/yukikurage/collab-match-api/internal/services"
	"github.com/yukikurage/collab-match-api/internal/utils"
)

func fatal(msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load(), nil
}

func main() {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		logger.Initialize("info", "text")
		fatal("Failed to load configuration", err)
	}

	logger.Initialize(cfg.LogLevel, cfg.LogFormat)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		fatal("Failed to connect to database", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		fatal("Failed to run migrations", err)
	}

	store := repository.NewStore(db)

	// Realtime notifications are optional; without redis they are only stored.
	var publisher services.Publisher
	var subscriber handlers.NotificationSubscriber
	redisPublisher, err := services.NewRedisPublisher(cfg.RedisAddr())
	if err != nil {
		logger.Warn("Realtime notifications disabled", "redis_addr", cfg.RedisAddr(), "error", err)
	} else {
		defer redisPublisher.Close()
		publisher = redisPublisher
		subscriber = redisPublisher
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	// Setup session middleware, Redis-backed when available
	sessionStore, sessionBackend := newSessionStore(cfg)
	logger.Info("Session store ready", "backend", sessionBackend)
	r.Use(sessions.Sessions(constants.SessionCookieName, sessionStore))

	tokens := utils.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Initialize services
	authService := services.NewAuthService(store.Users())
	projectService := services.NewProjectService(store.Projects())
	notificationService := services.NewNotificationService(store.Notifications(), publisher)
	matchService := services.NewMatchService(store, services.NewMatchPolicy(), notificationService, aiService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"message":  "Collab Match API is running",
			"realtime": subscriber != nil,
		})
	})

	handlers.RegisterRoutes(r.Group("/api"), handlers.Handlers{
		Auth:         handlers.NewAuthHandler(authService, tokens),
		Project:      handlers.NewProjectHandler(projectService),
		Match:        handlers.NewMatchHandler(matchService),
		Notification: handlers.NewNotificationHandler(notificationService, subscriber),
	}, middleware.RequireAuth(tokens))

	// Start server
	logger.Info("Server starting", "addr", cfg.ServerAddr)
	if err := r.Run(cfg.ServerAddr); err != nil {
		fatal("Failed to start server", err)
	}
}
