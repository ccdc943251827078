package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "agrihub-backend/docs"
	"agrihub-backend/internal/common/cache"
	"agrihub-backend/internal/common/config"
	"agrihub-backend/internal/common/logger"
	"agrihub-backend/internal/common/middleware"
	authHTTP "agrihub-backend/internal/features/auth/delivery/http"
	authRedis "agrihub-backend/internal/features/auth/repository/redis"
	authService "agrihub-backend/internal/features/auth/service"
	channelHTTP "agrihub-backend/internal/features/channel/delivery/http"
	channelService "agrihub-backend/internal/features/channel/service"
	chatHTTP "agrihub-backend/internal/features/chat/delivery/http"
	chatRedis "agrihub-backend/internal/features/chat/repository/redis"
	chatService "agrihub-backend/internal/features/chat/service"
	feedHTTP "agrihub-backend/internal/features/feed/delivery/http"
	feedRedis "agrihub-backend/internal/features/feed/repository/redis"
	feedService "agrihub-backend/internal/features/feed/service"
	forumHTTP "agrihub-backend/internal/features/forum/delivery/http"
	forumRedis "agrihub-backend/internal/features/forum/repository/redis"
	forumService "agrihub-backend/internal/features/forum/service"
	spinHTTP "agrihub-backend/internal/features/spin/delivery/http"
	spinService "agrihub-backend/internal/features/spin/service"
	userHTTP "agrihub-backend/internal/features/user/delivery/http"
	userRedis "agrihub-backend/internal/features/user/repository/redis"
	userService "agrihub-backend/internal/features/user/service"
	"agrihub-backend/internal/platform/redis"
	"agrihub-backend/internal/workers"
)

// @title           AgriHub API
// @version         1.0
// @description     Membership backend for the AgriHub farming community. Registration is gated by single-use product codes; restricted chat channels are gated by per-user allow-lists.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session token, prefixed with "Bearer "

// @tag.name auth
// @tag.description Registration, login and password reset

// @tag.name users
// @tag.description Member profiles

// @tag.name channels
// @tag.description Channel catalog with access decisions

// @tag.name chat
// @tag.description Channel chat: history, sending and live snapshots

// @tag.name articles
// @tag.description News and marketplace feed

// @tag.name forum
// @tag.description Q&A forum

// @tag.name spin
// @tag.description Lucky spin promotion

// @tag.name admin
// @tag.description Admin console: members, codes and moderation

func main() {
	cfg := config.Load()

	logger.Init("agrihub-backend", cfg.Debug)

	logger.Info().
		Str("version", "1.0.0").
		Bool("debug", cfg.Debug).
		Msg("Starting AgriHub backend")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := redis.Open(ctx, cfg)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	cacheService := cache.NewCacheService(redisClient)
	registry := channelService.NewRegistry(cfg.Chat.ExtraChannels)

	// Repositories
	userRepository := userRedis.NewUserRepository(redisClient)
	codeRepository := authRedis.NewCodeRepository(redisClient)
	sessionRepository := authRedis.NewSessionRepository(redisClient)
	resetRepository := authRedis.NewResetTokenRepository(redisClient, time.Duration(cfg.Auth.ResetTokenTTLMin)*time.Minute)
	messageRepository := chatRedis.NewMessageRepository(redisClient)
	notifier := chatRedis.NewNotifier(redisClient)
	articleRepository := feedRedis.NewArticleRepository(redisClient)
	questionRepository := forumRedis.NewQuestionRepository(redisClient)

	logger.Info().Msg("Repositories initialized")

	// Services
	authSvc := authService.NewAuthService(authService.Config{
		JWTSecret:        cfg.Auth.JWTSecret,
		TokenTTL:         time.Duration(cfg.Auth.TokenTTLMin) * time.Minute,
		MasterCode:       cfg.Auth.MasterCode,
		PhoneEmailDomain: cfg.Auth.PhoneEmailDomain,
		TelegramBotToken: cfg.Telegram.BotToken,
		InitDataTTL:      time.Duration(cfg.Telegram.InitDataTTLSec) * time.Second,
	}, userRepository, codeRepository, sessionRepository, resetRepository, registry)

	resolver := userService.NewResolver(userRepository, sessionRepository, registry, cfg.Auth.AdminEmails)
	userSvc := userService.NewUserService(userRepository, registry)
	chatSvc := chatService.NewChatService(messageRepository, notifier, registry, cfg.Chat.HistoryLimit)
	subscriber := chatService.NewSubscriber(messageRepository, notifier, cfg.Chat.HistoryLimit)
	feedSvc := feedService.NewFeedService(articleRepository, cacheService)
	forumSvc := forumService.NewForumService(questionRepository)
	spinSvc := spinService.NewSpinService(userRepository)

	logger.Info().Msg("Services initialized")

	// Background jobs
	trimJob := workers.NewChatTrimJob(messageRepository, registry, cfg.Chat.HistoryLimit)
	scheduler, err := workers.Start(cfg.Workers.ChatTrimCron, trimJob)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to start background jobs")
	}
	defer scheduler.Stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.Auth.JWTSecret))
	v1.Use(middleware.ResolveAccess(resolver))
	{
		authHTTP.NewAuthHandler(authSvc).RegisterRoutes(v1)
		userHTTP.NewUserHandler(userSvc).RegisterRoutes(v1)
		channelHTTP.NewChannelHandler(registry).RegisterRoutes(v1)
		chatHTTP.NewChatHandler(chatSvc, subscriber, registry).RegisterRoutes(v1)
		feedHTTP.NewFeedHandler(feedSvc).RegisterRoutes(v1)
		forumHTTP.NewForumHandler(forumSvc).RegisterRoutes(v1)
		spinHTTP.NewSpinHandler(spinSvc).RegisterRoutes(v1)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "agrihub-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "agrihub-backend",
		})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
