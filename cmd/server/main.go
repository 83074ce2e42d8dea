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
	"go.uber.org/zap"

	"github.com/parley-im/parley/internal/api"
	"github.com/parley-im/parley/internal/config"
	"github.com/parley-im/parley/internal/db"
	"github.com/parley-im/parley/internal/middleware"
	"github.com/parley-im/parley/internal/observ"
	"github.com/parley-im/parley/internal/presence"
	"github.com/parley-im/parley/internal/repository/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	pool := database.Pool()
	userRepo := postgres.NewUserStore(pool)
	roomRepo := postgres.NewRoomStore(pool)
	membershipRepo := postgres.NewMembershipStore(pool)
	messageRepo := postgres.NewMessageStore(pool)
	reactionRepo := postgres.NewReactionStore(pool)
	receiptRepo := postgres.NewReadReceiptStore(pool)
	pinRepo := postgres.NewPinStore(pool)
	contactRepo := postgres.NewContactStore(pool)
	attachmentRepo := postgres.NewAttachmentStore(pool)
	notificationRepo := postgres.NewNotificationStore(pool)

	tracker, err := presence.New(context.Background(), cfg.RedisURL, userRepo, logger)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer tracker.Close()

	authHandler := api.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.TokenTTL, logger)
	userHandler := api.NewUserHandler(userRepo, tracker, logger)
	roomHandler := api.NewRoomHandler(roomRepo, membershipRepo, userRepo, logger)
	membershipHandler := api.NewMembershipHandler(membershipRepo, userRepo, logger)
	messageHandler := api.NewMessageHandler(messageRepo, membershipRepo, roomRepo, logger)
	reactionHandler := api.NewReactionHandler(reactionRepo, messageRepo, membershipRepo, logger)
	receiptHandler := api.NewReadReceiptHandler(receiptRepo, messageRepo, membershipRepo, logger)
	pinHandler := api.NewPinHandler(pinRepo, messageRepo, membershipRepo, logger)
	contactHandler := api.NewContactHandler(contactRepo, logger)
	attachmentHandler := api.NewAttachmentHandler(attachmentRepo, messageRepo, membershipRepo, cfg.MaxAttachmentBytes, logger)
	notificationHandler := api.NewNotificationHandler(notificationRepo, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.POST("/v1/auth/register", authHandler.Register)
	engine.POST("/v1/auth/login", authHandler.Login)

	v1 := engine.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.GET("/users/me", userHandler.Me)
	v1.PATCH("/users/me", userHandler.UpdateProfile)
	v1.PUT("/users/me/presence", userHandler.UpdatePresence)
	v1.POST("/users/me/heartbeat", userHandler.Heartbeat)
	v1.GET("/users/:id", userHandler.Get)

	v1.POST("/rooms", roomHandler.Create)
	v1.GET("/rooms", roomHandler.List)
	v1.GET("/rooms/:roomID", roomHandler.Get)
	v1.PATCH("/rooms/:roomID", roomHandler.Update)
	v1.DELETE("/rooms/:roomID", roomHandler.Delete)

	v1.POST("/rooms/:roomID/members", membershipHandler.Add)
	v1.GET("/rooms/:roomID/members", membershipHandler.List)
	v1.DELETE("/rooms/:roomID/members/:userID", membershipHandler.Remove)

	v1.POST("/rooms/:roomID/messages", messageHandler.Send)
	v1.GET("/rooms/:roomID/messages", messageHandler.List)
	v1.PATCH("/messages/:messageID", messageHandler.Edit)
	v1.DELETE("/messages/:messageID", messageHandler.Delete)
	v1.PATCH("/messages/:messageID/status", messageHandler.UpdateStatus)

	v1.POST("/messages/:messageID/reactions", reactionHandler.Add)
	v1.GET("/messages/:messageID/reactions", reactionHandler.List)
	v1.DELETE("/messages/:messageID/reactions/:emoji", reactionHandler.Remove)

	v1.POST("/rooms/:roomID/read", receiptHandler.MarkRead)
	v1.GET("/rooms/:roomID/read", receiptHandler.LastRead)
	v1.GET("/messages/:messageID/readers", receiptHandler.Readers)

	v1.POST("/rooms/:roomID/messages/:messageID/pin", pinHandler.Pin)
	v1.DELETE("/rooms/:roomID/messages/:messageID/pin", pinHandler.Unpin)
	v1.GET("/rooms/:roomID/pins", pinHandler.List)

	v1.POST("/contacts", contactHandler.Create)
	v1.GET("/contacts", contactHandler.List)
	v1.PATCH("/contacts/:contactID", contactHandler.Rename)
	v1.DELETE("/contacts/:contactID", contactHandler.Delete)

	v1.POST("/notifications", notificationHandler.Create)
	v1.GET("/notifications", notificationHandler.List)
	v1.PATCH("/notifications/:notificationID/read", notificationHandler.SetRead)
	v1.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	v1.DELETE("/notifications/:notificationID", notificationHandler.Delete)

	v1.POST("/messages/:messageID/attachments", attachmentHandler.Create)
	v1.GET("/messages/:messageID/attachments", attachmentHandler.List)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting parley",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
