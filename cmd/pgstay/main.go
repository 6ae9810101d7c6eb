package main

import (
	"context"

	"pgstay/internal/memstore"
	"pgstay/internal/server"
	"pgstay/pkg/app"
	"pgstay/pkg/auth"
	"pgstay/pkg/config"
	mongodb "pgstay/pkg/db/mongo"
	"pgstay/pkg/events"
	"pgstay/pkg/kafka"
)

const ServiceName = "pgstay"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting PG stay service")

	serverApp := app.NewApplication(cfg)

	repos := initStorage(cfg, serverApp)
	publisher := initPublisher(cfg, serverApp)
	services := server.NewServices(cfg, repos, publisher)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	serverApp.SetApp(server.NewHealthHandler(repos.DB, cfg.Log), tokens, services.Handlers(cfg)...)
	serverApp.Run()
}

func initStorage(cfg *config.Config, serverApp *app.Application) server.Repositories {
	if cfg.StorageBackend == config.StorageMemory {
		cfg.Log.Warn("Using in-memory storage, data is lost on restart")
		return server.MemoryRepositories(memstore.New())
	}

	client, err := mongodb.Connect(context.Background(), cfg.MongoURI, cfg.MongoConnTimeout)
	if err != nil {
		cfg.Log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	serverApp.OnShutdown(func() error {
		return client.Disconnect(context.Background())
	})
	cfg.Log.Info("Connected to MongoDB", "database", cfg.MongoDatabaseName)
	return server.MongoRepositories(client, cfg)
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.EventsEnabled {
		return events.NewLogPublisher(cfg.Log)
	}

	kafkaCfg, err := kafka.LoadConfig()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaEventsTopic, cfg.KafkaEventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka.LoggingMiddleware(cfg.Log))

	publisher := events.NewKafkaPublisher(producer, ServiceName)
	serverApp.OnShutdown(publisher.Close)
	cfg.Log.Info("Publishing domain events to Kafka", "topic", cfg.KafkaEventsTopic, "brokers", kafkaCfg.Brokers)
	return publisher
}
