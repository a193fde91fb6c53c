package main

import (
	"context"

	"tutorly/internal/events"
	"tutorly/internal/portal"
	"tutorly/pkg/config"
	"tutorly/pkg/kafka"
	kafka_config "tutorly/pkg/kafka/config"
	kafka_middleware "tutorly/pkg/kafka/middleware"
)

const ServiceName = "portal"

func main() {
	cfg := config.Load(ServiceName)

	if cfg.WizardStore == config.WizardStoreMongo {
		cfg.SetMongo()
	}

	cfg.Log.Info("Starting student portal")
	publisher := initPublisher(cfg)

	serverApp, err := portal.New(context.Background(), cfg, publisher)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize portal", "error", err)
	}
	serverApp.Run()
}

func initPublisher(cfg *config.Config) events.Publisher {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("Kafka brokers not configured, portal events are disabled")
		return events.NopPublisher{}
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Kafka producer initialized", "topic", producer.Topic())
	return events.NewKafkaPublisher(producer, kafkaCfg.PublishTimeout, cfg.Log)
}
