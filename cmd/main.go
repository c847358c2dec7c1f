package main

import (
	"context"
	"expvar"
	"log"
	"runtime"
	"time"

	"github.com/walklabs/chat-service/internal/infrastructure/configs"
	"github.com/walklabs/chat-service/internal/infrastructure/events"
	"github.com/walklabs/chat-service/internal/infrastructure/logging"
	"github.com/walklabs/chat-service/internal/infrastructure/messaging"
	"github.com/walklabs/chat-service/internal/infrastructure/profanity"
	"github.com/walklabs/chat-service/internal/infrastructure/ratelimiter"
	"github.com/walklabs/chat-service/internal/infrastructure/tracing"
	"github.com/walklabs/chat-service/internal/infrastructure/ws"
	"github.com/walklabs/chat-service/internal/persistence/db"
	"github.com/walklabs/chat-service/internal/persistence/repository"
	"github.com/walklabs/chat-service/internal/presentation/api"
	"github.com/walklabs/chat-service/internal/presentation/handler/chats"
	"github.com/walklabs/chat-service/internal/presentation/handler/health"
)

const (
	serviceName = "chat-service"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		FilePath: cfg.Logger.FilePath,
		Encoding: cfg.Logger.Encoding,
		Level:    cfg.Logger.Level,
		Logger:   cfg.Logger.Logger,
	})

	mongoCfg := &db.MongoConfig{
		URI:               cfg.Mongo.URI,
		Database:          cfg.Mongo.Database,
		ConnectionTimeout: cfg.Mongo.ConnectionTimeout,
	}
	mongoClient, err := db.NewMongoClient(ctx, mongoCfg)
	if err != nil {
		logger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		if err := db.DisconnectMongo(disconnectCtx, mongoClient); err != nil {
			logger.Errorf("Failed to disconnect from MongoDB: %v", err)
		}
	}()

	database := db.GetDatabase(mongoClient, mongoCfg)
	if err := repository.EnsureIndexes(ctx, database); err != nil {
		logger.Fatalf("Failed to ensure indexes: %v", err)
	}

	chatRepository := repository.NewChatRepository(database)
	messageRepository := repository.NewMessageRepository(database)

	rabbitmq, err := messaging.NewRabbitMQ(cfg.RabbitMQ.URI)
	if err != nil {
		logger.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitmq.Close()

	logger.Info(logging.RabbitMQ, logging.Startup, "RabbitMQ connection established", nil)

	chatPublisher := events.NewChatPublisher(rabbitmq)

	registry := ws.NewRegistry()
	engine := ws.NewEngine(registry, messageRepository, chatPublisher, profanity.NewProfanityFilter(), logger)

	// Every reconnect gets a fresh connection and channel; a broken channel
	// is never reused.
	dial := func() (events.BusConsumer, error) {
		rmq, err := messaging.NewRabbitMQ(cfg.RabbitMQ.URI)
		if err != nil {
			return nil, err
		}
		return messaging.NewConsumer(rmq, cfg.Consumer.Queue), nil
	}

	matchConsumer := events.NewMatchConsumer(dial, chatRepository, engine, logger, events.MatchConsumerOptions{
		Topics:         cfg.Consumer.Topics,
		MaxReconnects:  cfg.Consumer.MaxReconnects,
		InitialBackoff: cfg.Consumer.InitialBackoff,
		MaxBackoff:     cfg.Consumer.MaxBackoff,
	})
	if err := matchConsumer.Start(ctx); err != nil {
		logger.Fatalf("Failed to start match consumer: %v", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := matchConsumer.Stop(stopCtx); err != nil {
			logger.Errorf("Failed to stop match consumer: %v", err)
		}
	}()

	chatsHandler := chats.NewHandler(chatRepository, messageRepository, registry, engine, chatPublisher)
	healthHandler := health.NewHandler(matchConsumer.Healthy)

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})
	app := api.NewApplication(*cfg, chatsHandler, healthHandler, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}
