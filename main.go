package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/b10856039/chat-web-app-backend-render/internal/auth"
	"github.com/b10856039/chat-web-app-backend-render/internal/config"
	"github.com/b10856039/chat-web-app-backend-render/internal/db"
	"github.com/b10856039/chat-web-app-backend-render/internal/handlers"
	"github.com/b10856039/chat-web-app-backend-render/internal/logger"
	"github.com/b10856039/chat-web-app-backend-render/internal/middleware"
	"github.com/b10856039/chat-web-app-backend-render/internal/observability"
	"github.com/b10856039/chat-web-app-backend-render/internal/rabbitmq"
	"github.com/b10856039/chat-web-app-backend-render/internal/repositories"
	"github.com/b10856039/chat-web-app-backend-render/internal/services"
	"github.com/b10856039/chat-web-app-backend-render/internal/telemetry"
	"github.com/b10856039/chat-web-app-backend-render/internal/ws"
)

const serviceName = "chat-backend"

func main() {
	cfg := config.Load()

	log, err := logger.Build(cfg.LogLevel, cfg.LogConsole)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatal("init tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN, log)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Info("event publisher ready", zap.String("mode", rabbitmq.Mode(publisher)))

	audit := telemetry.NewAuditEmitter(publisher, "audit.chat", serviceName, cfg.Environment, log)

	userRepo := repositories.NewUserRepo(database)
	friendshipRepo := repositories.NewFriendshipRepo(database)
	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	hub := ws.NewHub(log)

	friendshipService := services.NewFriendshipService(userRepo, friendshipRepo)
	roomService := services.NewRoomService(userRepo, roomRepo)
	chatService := services.NewChatService(roomRepo, messageRepo, hub)

	userHandler := handlers.NewUserHandler(userRepo, tokens, audit)
	friendshipHandler := handlers.NewFriendshipHandler(friendshipService, audit)
	roomHandler := handlers.NewRoomHandler(roomService, hub, audit)
	messageHandler := handlers.NewMessageHandler(chatService)
	wsHandler := ws.NewHandler(hub, roomRepo, chatService, tokens, log, cfg.StoreTimeout)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := router.Group("/")
	public.Use(middleware.IPRateLimit(rate.Limit(5), 10))
	public.POST("/auth/register", userHandler.Register)
	public.POST("/auth/login", userHandler.Login)

	api := router.Group("/")
	api.Use(middleware.AuthMiddleware(tokens))
	api.Use(middleware.UserRateLimit(rate.Limit(25), 50))

	api.GET("/me", userHandler.Me)

	api.GET("/friends", friendshipHandler.List)
	api.GET("/friends/search", friendshipHandler.SearchUsers)
	api.POST("/friends/requests", friendshipHandler.Request)
	api.POST("/friends/requests/:friendship_id/accept", friendshipHandler.Accept)
	api.POST("/friends/requests/:friendship_id/decline", friendshipHandler.Decline)
	api.DELETE("/friends/:friendship_id", friendshipHandler.Unfriend)

	api.POST("/rooms", roomHandler.Create)
	api.GET("/rooms", roomHandler.ListJoined)
	api.GET("/rooms/open", roomHandler.ListOpen)
	api.GET("/rooms/:room_id", roomHandler.Get)
	api.POST("/rooms/:room_id/join", roomHandler.Join)
	api.POST("/rooms/:room_id/leave", roomHandler.Leave)
	api.DELETE("/rooms/:room_id/members/:user_id", roomHandler.Kick)
	api.PATCH("/rooms/:room_id", roomHandler.Rename)
	api.DELETE("/rooms/:room_id", roomHandler.Delete)
	api.GET("/rooms/:room_id/members", roomHandler.Members)

	api.GET("/rooms/:room_id/messages", messageHandler.History)
	api.POST("/rooms/:room_id/messages", messageHandler.Post)
	api.DELETE("/messages/:message_id", messageHandler.Delete)

	router.GET("/ws", wsHandler.Handle)

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
}
