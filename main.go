package main

import (
	"context"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"roomchat-service/internal/auth"
	"roomchat-service/internal/dynamo"
	"roomchat-service/internal/handlers"
	"roomchat-service/internal/logging"
	"roomchat-service/internal/middleware"
	"roomchat-service/internal/observability"
	"roomchat-service/internal/repositories"
	"roomchat-service/internal/ws"
)

func main() {
	_ = godotenv.Load()

	logger, err := logging.NewLogger(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Fatal("failed to load aws config", zap.Error(err))
	}

	store := dynamo.New(&awsCfg, getEnv("TABLE_NAME", "chat-table"), logger)
	if err := store.Connect(); err != nil {
		logger.Fatal("failed to connect to table", zap.Error(err))
	}

	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		SigningSecret: []byte(getEnv("JWT_SECRET", "")),
	})
	if err != nil {
		logger.Fatal("failed to build credential verifier", zap.Error(err))
	}

	if amqpURL := getEnv("AMQP_URL", ""); amqpURL != "" {
		publisher, err := observability.NewAMQPPublisher(amqpURL, getEnv("AMQP_EXCHANGE", "chat_events"), logger)
		if err != nil {
			logger.Warn("amqp disabled", zap.Error(err))
		} else {
			observability.SetPublisher(publisher)
			defer publisher.Close()
		}
	}

	messageRepo := repositories.NewMessageRepo(store)
	rosterRepo := repositories.NewRosterRepo(store)
	userRepo := repositories.NewUserRepo(store)

	hub := ws.NewHub(logger)

	messageHandler := handlers.NewMessageHandler(messageRepo, hub)
	channelHandler := handlers.NewChannelHandler(rosterRepo)
	dmHandler := handlers.NewDMHandler(rosterRepo)
	userHandler := handlers.NewUserHandler(userRepo)
	threadWS := ws.NewThreadWebSocketHandler(hub, verifier)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(cors.New(corsConfig()))

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/channels", authMiddleware, channelHandler.ListChannels)
	router.GET("/dms", authMiddleware, dmHandler.ListDMThreads)
	router.GET("/messages", authMiddleware, messageHandler.ListMessages)
	router.POST("/messages", authMiddleware, messageHandler.SendMessage)
	router.GET("/users", authMiddleware, userHandler.ListUsers)
	router.DELETE("/users/:username", authMiddleware, userHandler.DeleteUser)

	router.GET("/ws/threads", threadWS.Handle)

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := getEnv("PORT", "8083")
	logger.Info("starting chat service", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	origins := getEnv("CORS_ALLOWED_ORIGINS", "")
	if origins == "" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = strings.Split(origins, ",")
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-ID")
	return cfg
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
